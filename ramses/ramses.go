package ramses

import (
	"github.com/robert-malhotra/go-ramses/internal/header"
	"github.com/robert-malhotra/go-ramses/octree"
)

// Header is the metadata of one AMR file.
type Header = header.AMR

// RecordReader is a cursor over a file of framed records.
type RecordReader interface {
	// ReadInt reads a record holding one 4-byte integer.
	ReadInt() (int, error)
	// ReadFloat64sInto reads a record of exactly len(dst) float64 values.
	ReadFloat64sInto(dst []float64) error
	// Skip advances past n records.
	Skip(n int) error
	Seek(offset int64, whence int) (int64, error)
	Tell() int64
	// Name identifies the file in error messages.
	Name() string
}

// Index is the spatial index grids and field values are loaded into.
type Index interface {
	// Add registers a batch of grid centres for a 1-based domain at a level
	// and returns the number of grids newly added.
	Add(domain, level int, pos [3][]float64, countBoundary bool) int
	// FillLevel copies one level's values from src into dest.
	FillLevel(level int, s *octree.Selection, dest map[string][]float64, src map[string]octree.Block) error
	// FillLevelWithDomain is FillLevel restricted to cells of one 1-based domain.
	FillLevelWithDomain(level int, s *octree.Selection, dest map[string][]float64, src map[string]octree.Block, domain int) error
}

var _ Index = (*octree.Container)(nil)
