package header_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-ramses/internal/fortran"
	"github.com/robert-malhotra/go-ramses/internal/header"
	"github.com/robert-malhotra/go-ramses/internal/ramsestest"
)

func TestReadAMR(t *testing.T) {
	spec := &ramsestest.Spec{
		NDim: 3, NCPU: 2, NLevelMax: 3, BoxLen: 2.5, Gamma: 1.4,
		Fields: []string{"density"},
	}
	sh := spec.NewShard()
	sh.Grids[0][0] = [][3]float64{{0.5, 0.5, 0.5}}
	sh.Grids[1][0] = [][3]float64{{0.25, 0.25, 0.25}, {0.75, 0.25, 0.25}}
	sh.Grids[1][1] = [][3]float64{{0.75, 0.75, 0.75}}

	data, err := spec.AMRBytes(sh)
	require.NoError(t, err)
	r := fortran.NewReader(bytes.NewReader(data), fortran.DefaultConfig())

	h, err := header.ReadAMR(r)
	require.NoError(t, err)
	assert.Equal(t, 2, h.NCPU)
	assert.Equal(t, 3, h.NDim)
	assert.Equal(t, 3, h.NLevelMax)
	assert.Equal(t, [3]int{1, 1, 1}, h.NX)
	assert.Equal(t, 2.5, h.BoxLen)
	assert.Equal(t, "hilbert", h.Ordering)
	assert.Equal(t, 0.7, h.Cosmology.OmegaL)
	assert.Equal(t, [3]float64{0, 0, 0}, h.HalfExtent)
	assert.Equal(t, [][]int32{{1, 0}, {2, 1}, {0, 0}}, h.NumBL)
	assert.Nil(t, h.NumBB)
	assert.Equal(t, 8, h.TwoToNDim())
	assert.Equal(t, r.Tell(), h.TopologyOffset)

	// The first topology record is the grid index of the level 0 block.
	idx, err := r.ReadInts()
	require.NoError(t, err)
	assert.Equal(t, []int32{1}, idx)
}

func TestReadAMRBoundaryAndBisection(t *testing.T) {
	spec := &ramsestest.Spec{
		NDim: 2, NCPU: 1, NBoundary: 2, NLevelMax: 2,
		NX: [3]int{3, 3, 1}, Ordering: "bisection", ByteOrder: binary.BigEndian,
		Fields: []string{"density"},
	}
	sh := spec.NewShard()
	sh.Grids[0][0] = [][3]float64{{0.5, 0.5, 0}}
	sh.Grids[0][2] = [][3]float64{{-0.5, 0.5, 0}, {1.5, 0.5, 0}}
	sh.Grids[1][1] = [][3]float64{{-0.25, 0.25, 0}}

	data, err := spec.AMRBytes(sh)
	require.NoError(t, err)
	r := fortran.NewReader(bytes.NewReader(data), fortran.Config{ByteOrder: binary.BigEndian})

	h, err := header.ReadAMR(r)
	require.NoError(t, err)
	assert.Equal(t, "bisection", h.Ordering)
	assert.Equal(t, [3]float64{1, 1, 0}, h.HalfExtent)
	assert.Equal(t, [][]int32{{0, 2}, {1, 0}}, h.NumBB)
	assert.Equal(t, 3, h.NDomains())
}

func TestReadAMRInvalid(t *testing.T) {
	var buf bytes.Buffer
	w := fortran.NewWriter(&buf, fortran.DefaultConfig())
	require.NoError(t, w.WriteInt(1))
	require.NoError(t, w.WriteInt(4)) // ndim
	require.NoError(t, w.WriteInts(1, 1, 1))
	require.NoError(t, w.WriteInt(3))
	require.NoError(t, w.WriteInt(100))
	require.NoError(t, w.WriteInt(0))
	require.NoError(t, w.WriteInt(0))
	require.NoError(t, w.WriteFloat64s(1))

	_, err := header.ReadAMR(fortran.NewReader(bytes.NewReader(buf.Bytes()), fortran.DefaultConfig()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, header.ErrInvalidHeader))
}

func TestReadAMRTruncated(t *testing.T) {
	spec := &ramsestest.Spec{NDim: 3, NCPU: 1, NLevelMax: 2, Fields: []string{"density"}}
	data, err := spec.AMRBytes(spec.NewShard())
	require.NoError(t, err)

	_, err = header.ReadAMR(fortran.NewReader(bytes.NewReader(data[:200]), fortran.DefaultConfig()))
	require.Error(t, err)
}

func TestReadHydro(t *testing.T) {
	spec := &ramsestest.Spec{
		NDim: 3, NCPU: 4, NBoundary: 0, NLevelMax: 5, Gamma: 5.0 / 3,
		Fields: []string{"density", "velocity_x", "velocity_y", "velocity_z", "pressure"},
	}
	data, err := spec.HydroBytes(spec.NewShard())
	require.NoError(t, err)
	r := fortran.NewReader(bytes.NewReader(data), fortran.DefaultConfig())

	h, err := header.ReadHydro(r)
	require.NoError(t, err)
	assert.Equal(t, 4, h.NCPU)
	assert.Equal(t, 5, h.NVar)
	assert.Equal(t, 3, h.NDim)
	assert.Equal(t, 5, h.NLevelMax)
	assert.InDelta(t, 5.0/3, h.Gamma, 1e-15)
	assert.Equal(t, r.Tell(), h.DataOffset)

	amr := &header.AMR{NCPU: 4, NDim: 3, NLevelMax: 5}
	require.NoError(t, h.Check(amr))
	amr.NLevelMax = 6
	assert.True(t, errors.Is(h.Check(amr), header.ErrMismatch))
}
