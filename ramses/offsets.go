package ramses

import (
	"io"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-ramses/internal/fortran"
)

// DefaultSkip asks ReadOffset to skip 2^ndim * nVars records per block.
const DefaultSkip = -1

// realSize is the on-disk size of one field value.
const realSize = 8

// OffsetTable locates the data blocks of a hydro file. Entries are indexed
// [domain][level-MinLevel] with 0-based domains; an absent block has offset
// -1 and count 0.
type OffsetTable struct {
	MinLevel int
	Offsets  [][]int64
	Counts   [][]int64
}

func newOffsetTable(ndomains, nlevels, minLevel int) *OffsetTable {
	t := &OffsetTable{
		MinLevel: minLevel,
		Offsets:  make([][]int64, ndomains),
		Counts:   make([][]int64, ndomains),
	}
	for d := range t.Offsets {
		t.Offsets[d] = make([]int64, nlevels)
		t.Counts[d] = make([]int64, nlevels)
		for l := range t.Offsets[d] {
			t.Offsets[d][l] = -1
		}
	}
	return t
}

// NLevels returns the number of levels in the table.
func (t *OffsetTable) NLevels() int {
	if len(t.Offsets) == 0 {
		return 0
	}
	return len(t.Offsets[0])
}

// NDomains returns the number of domains in the table.
func (t *OffsetTable) NDomains() int {
	return len(t.Offsets)
}

// Block returns the offset and record count of the block of a 0-based
// domain at a relative level. ok is false when the block is absent.
func (t *OffsetTable) Block(domain, level int) (offset, count int64, ok bool) {
	offset, count = t.Offsets[domain][level], t.Counts[domain][level]
	return offset, count, count > 0 && offset >= 0
}

// MaxCount returns the largest record count among the given 0-based domains.
func (t *OffsetTable) MaxCount(domains []int) int64 {
	var n int64
	for _, d := range domains {
		for _, c := range t.Counts[d] {
			n = max(n, c)
		}
	}
	return n
}

// ReadOffset walks the data section of a hydro file and records where each
// (domain, level) block with level >= minLevel begins. Payloads are skipped
// by computed byte distance, never decoded. nSkip is the number of
// records per block; DefaultSkip means 2^ndim * nVars. domainID names the
// file's own domain in error messages.
//
// The reader must be positioned at the first data block.
func ReadOffset(r RecordReader, minLevel, domainID, nVars int, h *Header, nSkip int) (*OffsetTable, error) {
	if nSkip == DefaultSkip {
		nSkip = h.TwoToNDim() * nVars
	}
	nlevels := max(h.NLevelMax-minLevel, 0)
	t := newOffsetTable(h.NDomains(), nlevels, minLevel)

	for level := 0; level < h.NLevelMax; level++ {
		for domain := 0; domain < h.NDomains(); domain++ {
			declared, err := r.ReadInt()
			if err != nil {
				return nil, errors.Wrapf(err, "level %d domain %d: reading block level", level+1, domain+1)
			}
			count, err := r.ReadInt()
			if err != nil {
				return nil, errors.Wrapf(err, "level %d domain %d: reading block size", level+1, domain+1)
			}
			if count == 0 {
				continue
			}
			if declared != level+1 {
				return nil, levelMismatch(r.Name(), domainID, level+1, declared)
			}
			if count < 0 {
				return nil, errors.Mark(errors.Newf("%s: domain %d: level %d block of %d cells",
					r.Name(), domainID, level+1, count), ErrCorruption)
			}

			if level >= minLevel {
				t.Offsets[domain][level-minLevel] = r.Tell()
				t.Counts[domain][level-minLevel] = int64(count)
			}
			jump := int64(nSkip) * fortran.RecordSize(realSize*int64(count))
			if _, err := r.Seek(jump, io.SeekCurrent); err != nil {
				return nil, errors.Wrapf(err, "level %d domain %d: skipping %d records", level+1, domain+1, nSkip)
			}
		}
	}
	return t, nil
}
