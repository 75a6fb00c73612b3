package ramses

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-ramses/internal/fortran"
	"github.com/robert-malhotra/go-ramses/internal/header"
	"github.com/robert-malhotra/go-ramses/internal/ramsestest"
	"github.com/robert-malhotra/go-ramses/octree"
)

func TestTrailingRecords(t *testing.T) {
	assert.Equal(t, 1+2+3*2, trailingRecords(1))
	assert.Equal(t, 1+4+3*4, trailingRecords(2))
	assert.Equal(t, 1+6+3*8, trailingRecords(3))
}

func TestGridCount(t *testing.T) {
	h := &Header{NCPU: 2, NBoundary: 2, NumBL: [][]int32{{1, 2}, {3, 4}}}
	assert.Equal(t, 2, gridCount(h, nil, 0, 1))
	assert.Equal(t, 3, gridCount(h, nil, 1, 0))
	// Missing boundary entries count as empty blocks.
	assert.Equal(t, 0, gridCount(h, nil, 0, 2))
	boundary := [][]int32{{5}}
	assert.Equal(t, 5, gridCount(h, boundary, 0, 2))
	assert.Equal(t, 0, gridCount(h, boundary, 0, 3))
	assert.Equal(t, 0, gridCount(h, boundary, 1, 2))
}

func TestReadAMRDepth(t *testing.T) {
	spec := &ramsestest.Spec{NDim: 3, NCPU: 1, NLevelMax: 4, Fields: []string{"density"}}
	sh := spec.NewShard()
	spec.RefinedTree(sh, 0, 3, 2)

	tests := []struct {
		minLevel int
		depth    int
		octs     []int
	}{
		{0, 2, []int{1, 2, 4}},
		{1, 1, []int{2, 4}},
		{2, 0, []int{4}},
		{3, 0, nil},
	}
	for _, tt := range tests {
		h, r := amrReader(t, spec, sh)
		idx, err := newIndex(3, 1, tt.minLevel)
		require.NoError(t, err)

		depth, err := ReadAMR(r, h, h.NumBB, tt.minLevel, idx)
		require.NoError(t, err, "minLevel %d", tt.minLevel)
		assert.Equal(t, tt.depth, depth, "minLevel %d", tt.minLevel)
		assert.LessOrEqual(t, depth, h.NLevelMax-tt.minLevel)
		assert.Equal(t, tt.octs, idx.Stats(), "minLevel %d", tt.minLevel)
		assert.Equal(t, r.Size(), r.Tell(), "topology not fully consumed")
	}
}

func TestReadAMRLevelShift(t *testing.T) {
	spec := &ramsestest.Spec{NDim: 3, NCPU: 1, NLevelMax: 3, Fields: []string{"density"}}
	sh := spec.NewShard()
	spec.RefinedTree(sh, 0, 3, 2)

	h, r := amrReader(t, spec, sh)
	var ri recordingIndex
	depth, err := ReadAMR(r, h, h.NumBB, 1, &ri)
	require.NoError(t, err)
	assert.Equal(t, 1, depth)

	require.Len(t, ri.adds, 2)
	assert.Equal(t, addCall{domain: 1, level: 0, n: 2, pos: [3][]float64{
		{0.25, 0.75}, {0.25, 0.25}, {0.25, 0.25},
	}}, ri.adds[0])
	assert.Equal(t, 1, ri.adds[1].level)
	assert.Equal(t, 4, ri.adds[1].n)
}

func TestReadAMREmptyBlocks(t *testing.T) {
	spec := &ramsestest.Spec{NDim: 3, NCPU: 2, NLevelMax: 3, Fields: []string{"density"}}

	t.Run("one block", func(t *testing.T) {
		sh := spec.NewShard()
		sh.Grids[0][0] = [][3]float64{{0.5, 0.5, 0.5}}
		h, r := amrReader(t, spec, sh)

		cr := &countingReader{RecordReader: r}
		var ri recordingIndex
		depth, err := ReadAMR(cr, h, h.NumBB, 0, &ri)
		require.NoError(t, err)
		assert.Equal(t, 0, depth)
		// links, three coordinates, trailing records
		assert.Equal(t, 5, cr.calls)
		assert.Len(t, ri.adds, 1)
		assert.Equal(t, r.Size(), r.Tell())
	})

	t.Run("no grids", func(t *testing.T) {
		sh := spec.NewShard()
		h, r := amrReader(t, spec, sh)
		start := r.Tell()

		cr := &countingReader{RecordReader: r}
		var ri recordingIndex
		depth, err := ReadAMR(cr, h, h.NumBB, 0, &ri)
		require.NoError(t, err)
		assert.Equal(t, 0, depth)
		assert.Zero(t, cr.calls)
		assert.Empty(t, ri.adds)
		assert.Equal(t, start, r.Tell())
	})
}

func TestReadAMRTwoDimensional(t *testing.T) {
	spec := &ramsestest.Spec{NDim: 2, NCPU: 1, NLevelMax: 2, Fields: []string{"a", "b"}}
	sh := spec.NewShard()
	sh.Grids[0][0] = [][3]float64{{0.5, 0.5}, {1.5, 0.5}, {0.5, 1.5}, {1.5, 1.5}}
	sh.Grids[1][0] = [][3]float64{
		{0.25, 0.25}, {0.75, 0.25}, {0.25, 0.75}, {0.75, 0.75},
		{1.25, 0.25}, {1.75, 0.25}, {1.25, 0.75}, {1.75, 0.75},
	}

	h, r := amrReader(t, spec, sh)
	var ri recordingIndex
	depth, err := ReadAMR(r, h, h.NumBB, 0, &ri)
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
	require.Len(t, ri.adds, 2)
	assert.Equal(t, 4, ri.adds[0].n)
	assert.Equal(t, 8, ri.adds[1].n)
	assert.Equal(t, []float64{0.5, 1.5, 0.5, 1.5}, ri.adds[0].pos[0])
	assert.Equal(t, []float64{0.5, 0.5, 1.5, 1.5}, ri.adds[0].pos[1])
	assert.Nil(t, ri.adds[0].pos[2])
}

func TestReadAMRBoundary(t *testing.T) {
	spec := &ramsestest.Spec{
		NDim: 2, NCPU: 1, NBoundary: 1, NLevelMax: 2,
		NX: [3]int{3, 3, 1}, Fields: []string{"density"},
	}
	sh := spec.NewShard()
	sh.Grids[0][0] = [][3]float64{{0.5, 0.5, 0}}
	sh.Grids[0][1] = [][3]float64{{-0.5, 0.5, 0}}
	sh.Grids[1][1] = [][3]float64{{-0.25, 0.25, 0}}

	t.Run("shifted coordinates", func(t *testing.T) {
		h, r := amrReader(t, spec, sh)
		assert.Equal(t, [3]float64{1, 1, 0}, h.HalfExtent)

		var ri recordingIndex
		depth, err := ReadAMR(r, h, h.NumBB, 0, &ri)
		require.NoError(t, err)
		assert.Equal(t, 1, depth)
		require.Len(t, ri.adds, 3)
		assert.Equal(t, 1, ri.adds[0].domain)
		assert.Equal(t, []float64{0.5}, ri.adds[0].pos[0])
		assert.Equal(t, 2, ri.adds[1].domain)
		assert.Equal(t, []float64{-0.5}, ri.adds[1].pos[0])
		assert.Equal(t, []float64{0.5}, ri.adds[1].pos[1])
		assert.Equal(t, 2, ri.adds[2].domain)
		assert.Equal(t, 1, ri.adds[2].level)
		assert.Equal(t, r.Size(), r.Tell())
	})

	t.Run("outside unit box", func(t *testing.T) {
		h, r := amrReader(t, spec, sh)
		idx, err := octree.NewUnitContainer(2, 1)
		require.NoError(t, err)

		depth, err := ReadAMR(r, h, h.NumBB, 0, idx)
		require.NoError(t, err)
		assert.Equal(t, 0, depth, "boundary grids outside the box are not counted")
		assert.Equal(t, []int{1}, idx.Stats())
	})
}

func TestReadAMRTooLarge(t *testing.T) {
	spec := &ramsestest.Spec{NDim: 3, NCPU: 1, NLevelMax: 2, Fields: []string{"density"}}
	sh := spec.NewShard()
	spec.RefinedTree(sh, 0, 2, 2)

	h, r := amrReader(t, spec, sh)
	h.NGridMax = 1
	var ri recordingIndex
	_, err := ReadAMR(r, h, h.NumBB, 0, &ri)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))
	assert.Len(t, ri.adds, 1)
}

func TestReadAMRTruncated(t *testing.T) {
	spec := &ramsestest.Spec{NDim: 3, NCPU: 1, NLevelMax: 2, Fields: []string{"density"}}
	sh := spec.NewShard()
	spec.RefinedTree(sh, 0, 2, 2)

	data, err := spec.AMRBytes(sh)
	require.NoError(t, err)
	r := fortran.NewReader(bytes.NewReader(data[:len(data)-20]), fortran.DefaultConfig())
	h, err := header.ReadAMR(r)
	require.NoError(t, err)

	var ri recordingIndex
	_, err = ReadAMR(r, h, h.NumBB, 0, &ri)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "level 2 domain 1")
}
