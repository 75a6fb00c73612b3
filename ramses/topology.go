package ramses

import (
	"github.com/cockroachdb/errors"
)

// linkRecords is the number of records preceding the coordinates of a
// topology block: grid index, next and previous pointers.
const linkRecords = 3

// trailingRecords returns the number of records following the coordinates
// of a topology block: father, neighbours, sons, cpu map and refinement map.
func trailingRecords(ndim int) int {
	twotondim := 1 << ndim
	return 1 + 2*ndim + twotondim + twotondim + twotondim
}

// gridCount returns the number of grids of a 0-based domain at level.
// Boundary domains follow the real ones and take their counts from
// boundary, indexed [level][boundary]; missing entries count as zero.
func gridCount(h *Header, boundary [][]int32, level, domain int) int {
	if domain < h.NCPU {
		return int(h.NumBL[level][domain])
	}
	b := domain - h.NCPU
	if level >= len(boundary) || b >= len(boundary[level]) {
		return 0
	}
	return int(boundary[level][b])
}

// ReadAMR reads the topology section following the AMR header and registers
// every grid at or below minLevel with idx, at level-minLevel and tagged
// with its 1-based domain. Empty (level, domain) blocks are not stored in
// the file and consume nothing. It returns the deepest relative level at
// which idx accepted new grids.
//
// The reader must be positioned at the first topology block.
func ReadAMR(r RecordReader, h *Header, boundary [][]int32, minLevel int, idx Index) (int, error) {
	var (
		ndim     = h.NDim
		trailing = trailingRecords(ndim)
		buf      [3][]float64
		maxLevel = 0
	)
	for level := 0; level < h.NLevelMax; level++ {
		for domain := 0; domain < h.NDomains(); domain++ {
			ng := gridCount(h, boundary, level, domain)
			if ng == 0 {
				continue
			}
			if ng < 0 || (h.NGridMax > 0 && ng > h.NGridMax) {
				return 0, errors.Wrapf(ErrTooLarge, "%s: level %d domain %d: %d grids, ngridmax %d",
					r.Name(), level+1, domain+1, ng, h.NGridMax)
			}
			if err := r.Skip(linkRecords); err != nil {
				return 0, errors.Wrapf(err, "level %d domain %d: skipping grid links", level+1, domain+1)
			}

			if ng > cap(buf[0]) {
				for d := 0; d < ndim; d++ {
					buf[d] = make([]float64, ng)
				}
			}
			var pos [3][]float64
			for d := 0; d < ndim; d++ {
				pos[d] = buf[d][:ng]
				if err := r.ReadFloat64sInto(pos[d]); err != nil {
					return 0, errors.Wrapf(err, "level %d domain %d: reading coordinate %d", level+1, domain+1, d)
				}
				shift := h.HalfExtent[d]
				for i := range pos[d] {
					pos[d][i] -= shift
				}
			}

			if err := r.Skip(trailing); err != nil {
				return 0, errors.Wrapf(err, "level %d domain %d: skipping tree links", level+1, domain+1)
			}

			if level < minLevel {
				continue
			}
			if n := idx.Add(domain+1, level-minLevel, pos, true); n > 0 {
				maxLevel = max(maxLevel, level-minLevel)
			}
		}
	}
	return maxLevel, nil
}
