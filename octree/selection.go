package octree

import "github.com/cockroachdb/errors"

// Selector decides whether a leaf cell is part of a selection.
type Selector interface {
	SelectCell(center, width [3]float64) bool
}

type allSelector struct{}

func (allSelector) SelectCell(center, width [3]float64) bool { return true }

// All selects every leaf cell.
var All Selector = allSelector{}

// Box selects cells whose centre lies in [Left, Right).
type Box struct {
	Left, Right [3]float64
}

// SelectCell implements Selector.
func (b Box) SelectCell(center, width [3]float64) bool {
	for d := 0; d < 3; d++ {
		if center[d] < b.Left[d] || center[d] >= b.Right[d] {
			return false
		}
	}
	return true
}

// Selection lists selected cells as parallel slices.
type Selection struct {
	Levels      []uint8
	CellIndices []uint8
	FileIndices []int64
	// Domains holds the 1-based owner of each cell.
	Domains []int32
}

// Len returns the number of selected cells.
func (s *Selection) Len() int {
	return len(s.Levels)
}

// LevelCounts returns the number of selected cells per level.
func (s *Selection) LevelCounts() map[int]int {
	out := make(map[int]int)
	for _, l := range s.Levels {
		out[int(l)]++
	}
	return out
}

// Block is a borrowed view of one field of a decoded (domain, level) block.
// Values are stored per cell index in columns of Stride elements, so the
// value of cell c of the grid at file index f is Data[c*Stride+f].
type Block struct {
	Data   []float64
	Stride int
	// Len is the number of valid grids in each column.
	Len int
}

// At returns the value of cell of the grid at fileIndex.
func (b Block) At(fileIndex, cell int) float64 {
	return b.Data[cell*b.Stride+fileIndex]
}

// Column returns the values of one cell index for all grids.
func (b Block) Column(cell int) []float64 {
	return b.Data[cell*b.Stride : cell*b.Stride+b.Len]
}

// FillLevel copies the values of the cells of s at level from src into
// dest, which must hold a slice of at least s.Len() for every src field.
// src is only read during the call.
func (c *Container) FillLevel(level int, s *Selection, dest map[string][]float64, src map[string]Block) error {
	return fill(level, s, dest, src, 0)
}

// FillLevelWithDomain is FillLevel restricted to cells owned by domain (1-based).
func (c *Container) FillLevelWithDomain(level int, s *Selection, dest map[string][]float64, src map[string]Block, domain int) error {
	return fill(level, s, dest, src, domain)
}

func fill(level int, s *Selection, dest map[string][]float64, src map[string]Block, domain int) error {
	for name, b := range src {
		out, ok := dest[name]
		if !ok {
			return errors.Wrapf(ErrMissingField, "%q", name)
		}
		if len(out) < s.Len() {
			return errors.Wrapf(ErrMissingField, "%q holds %d values, selection has %d", name, len(out), s.Len())
		}
		for i, l := range s.Levels {
			if int(l) != level {
				continue
			}
			if domain > 0 && int(s.Domains[i]) != domain {
				continue
			}
			fi := s.FileIndices[i]
			if fi >= int64(b.Len) {
				return errors.Wrapf(ErrOutOfRange, "%q: file index %d, block holds %d grids", name, fi, b.Len)
			}
			out[i] = b.At(int(fi), int(s.CellIndices[i]))
		}
	}
	return nil
}
