package ramses

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-ramses/internal/fortran"
	"github.com/robert-malhotra/go-ramses/internal/header"
	"github.com/robert-malhotra/go-ramses/internal/ramsestest"
	"github.com/robert-malhotra/go-ramses/octree"
)

// amrReader returns the header of sh's AMR file and a reader positioned at
// its first topology block.
func amrReader(t *testing.T, spec *ramsestest.Spec, sh *ramsestest.Shard) (*Header, *fortran.Reader) {
	t.Helper()
	data, err := spec.AMRBytes(sh)
	require.NoError(t, err)
	r := fortran.NewReader(bytes.NewReader(data), fortran.Config{ByteOrder: spec.ByteOrder, Name: "amr_00001.out00001"})
	h, err := header.ReadAMR(r)
	require.NoError(t, err)
	return h, r
}

// hydroReader returns a reader positioned at the first data block of ra.
func hydroReader(t *testing.T, ra io.ReaderAt, name string) (*header.Hydro, *fortran.Reader) {
	t.Helper()
	r := fortran.NewReader(ra, fortran.Config{Name: name})
	h, err := header.ReadHydro(r)
	require.NoError(t, err)
	return h, r
}

// loaded is a shard read through ReadAMR and ReadOffset.
type loaded struct {
	header *Header
	index  *octree.Container
	depth  int
	table  *OffsetTable
	hydro  []byte
}

func load(t *testing.T, spec *ramsestest.Spec, sh *ramsestest.Shard, index *octree.Container, minLevel int) *loaded {
	t.Helper()
	h, r := amrReader(t, spec, sh)
	depth, err := ReadAMR(r, h, h.NumBB, minLevel, index)
	require.NoError(t, err)

	data, err := spec.HydroBytes(sh)
	require.NoError(t, err)
	hh, hr := hydroReader(t, bytes.NewReader(data), "hydro_00001.out00001")
	table, err := ReadOffset(hr, minLevel, 1, hh.NVar, h, DefaultSkip)
	require.NoError(t, err)
	return &loaded{header: h, index: index, depth: depth, table: table, hydro: data}
}

// countingReader counts the record operations that reach the file.
type countingReader struct {
	RecordReader
	calls int
}

func (c *countingReader) ReadInt() (int, error) {
	c.calls++
	return c.RecordReader.ReadInt()
}

func (c *countingReader) ReadFloat64sInto(dst []float64) error {
	c.calls++
	return c.RecordReader.ReadFloat64sInto(dst)
}

func (c *countingReader) Skip(n int) error {
	c.calls++
	return c.RecordReader.Skip(n)
}

func (c *countingReader) Seek(offset int64, whence int) (int64, error) {
	c.calls++
	return c.RecordReader.Seek(offset, whence)
}

// trackingReaderAt records every byte range read.
type trackingReaderAt struct {
	*bytes.Reader
	reads [][2]int64
}

func (t *trackingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	t.reads = append(t.reads, [2]int64{off, off + int64(len(p))})
	return t.Reader.ReadAt(p, off)
}

func (t *trackingReaderAt) overlaps(lo, hi int64) bool {
	for _, r := range t.reads {
		if r[0] < hi && lo < r[1] {
			return true
		}
	}
	return false
}

type addCall struct {
	domain, level, n int
	pos              [3][]float64
}

type fillCall struct {
	level, domain int
	// columns holds copies of the borrowed views as [cell][grid].
	columns map[string][][]float64
}

// recordingIndex is an Index that remembers its calls.
type recordingIndex struct {
	adds  []addCall
	fills []fillCall
}

func (ri *recordingIndex) Add(domain, level int, pos [3][]float64, countBoundary bool) int {
	c := addCall{domain: domain, level: level, n: len(pos[0])}
	for d := range pos {
		if pos[d] != nil {
			c.pos[d] = append([]float64(nil), pos[d]...)
		}
	}
	ri.adds = append(ri.adds, c)
	return c.n
}

func (ri *recordingIndex) record(level, domain int, src map[string]octree.Block) {
	c := fillCall{level: level, domain: domain, columns: make(map[string][][]float64, len(src))}
	for name, b := range src {
		nsub := len(b.Data) / b.Stride
		cols := make([][]float64, nsub)
		for cell := range cols {
			cols[cell] = append([]float64(nil), b.Column(cell)...)
		}
		c.columns[name] = cols
	}
	ri.fills = append(ri.fills, c)
}

func (ri *recordingIndex) FillLevel(level int, _ *octree.Selection, _ map[string][]float64, src map[string]octree.Block) error {
	ri.record(level, 0, src)
	return nil
}

func (ri *recordingIndex) FillLevelWithDomain(level int, _ *octree.Selection, _ map[string][]float64, src map[string]octree.Block, domain int) error {
	ri.record(level, domain, src)
	return nil
}

// spyIndex forwards to an Index and records which fields were handed over.
type spyIndex struct {
	Index
	fields map[string]int
}

func (s *spyIndex) FillLevel(level int, sel *octree.Selection, dest map[string][]float64, src map[string]octree.Block) error {
	s.note(src)
	return s.Index.FillLevel(level, sel, dest, src)
}

func (s *spyIndex) FillLevelWithDomain(level int, sel *octree.Selection, dest map[string][]float64, src map[string]octree.Block, domain int) error {
	s.note(src)
	return s.Index.FillLevelWithDomain(level, sel, dest, src, domain)
}

func (s *spyIndex) note(src map[string]octree.Block) {
	if s.fields == nil {
		s.fields = make(map[string]int)
	}
	for name := range src {
		s.fields[name]++
	}
}

func newOutput(fields []string, n int) map[string][]float64 {
	out := make(map[string][]float64, len(fields))
	for _, f := range fields {
		out[f] = make([]float64, n)
	}
	return out
}
