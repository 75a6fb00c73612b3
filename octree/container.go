package octree

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// MaxLevel is the deepest level a Container can address.
const MaxLevel = 60

// Errors
var (
	ErrInvalidGeometry = errors.New("invalid container geometry")
	ErrMissingField    = errors.New("destination field missing")
	ErrOutOfRange      = errors.New("file index out of range")
)

// Oct is one grid: 2^ndim sibling cells.
type Oct struct {
	// Domain is the 1-based owning domain, 0 for octs created only as
	// ancestors of registered grids.
	Domain int
	Level  int
	// FileIndex is the position of the oct within its (domain, level)
	// batch, -1 for ancestor-only octs.
	FileIndex int64
	// Index holds the integer coordinates of the oct at its level.
	Index [3]int64

	children [8]*Oct
}

// Child returns the oct refining cell, or nil when the cell is a leaf.
func (o *Oct) Child(cell int) *Oct {
	return o.children[cell]
}

type blockKey struct {
	domain int
	level  int
}

// Container is an octree over a rectangular domain.
type Container struct {
	mu sync.RWMutex

	ndim     int
	nchild   int
	rootDims [3]int
	left     [3]float64
	right    [3]float64
	width    [3]float64 // root oct width
	nreal    int

	roots  []*Oct
	blocks map[blockKey][]*Oct
	counts []int // assigned octs per level
}

// NewContainer creates an empty container of ndim dimensions whose root mesh
// has rootDims octs spanning [left, right). Domains above nreal are treated
// as boundary domains.
func NewContainer(ndim int, rootDims [3]int, left, right [3]float64, nreal int) (*Container, error) {
	if ndim < 1 || ndim > 3 {
		return nil, errors.Wrapf(ErrInvalidGeometry, "ndim = %d", ndim)
	}
	c := &Container{
		ndim:     ndim,
		nchild:   1 << ndim,
		rootDims: rootDims,
		left:     left,
		right:    right,
		nreal:    nreal,
		blocks:   make(map[blockKey][]*Oct),
	}
	for d := 0; d < 3; d++ {
		if d >= ndim {
			c.rootDims[d] = 1
		}
		if c.rootDims[d] <= 0 || !(right[d] > left[d]) && d < ndim {
			return nil, errors.Wrapf(ErrInvalidGeometry, "dimension %d: %d octs over [%g, %g)",
				d, rootDims[d], left[d], right[d])
		}
		c.width[d] = (right[d] - left[d]) / float64(c.rootDims[d])
	}
	c.roots = make([]*Oct, c.rootDims[0]*c.rootDims[1]*c.rootDims[2])
	return c, nil
}

// NewUnitContainer creates a container over the unit box with a single root oct.
func NewUnitContainer(ndim, nreal int) (*Container, error) {
	return NewContainer(ndim, [3]int{1, 1, 1}, [3]float64{}, [3]float64{1, 1, 1}, nreal)
}

// NDim returns the dimensionality of the container.
func (c *Container) NDim() int {
	return c.ndim
}

// Add registers a batch of grids for one (domain, level) block. pos holds
// one coordinate slice per dimension, all of the same length; slices past
// ndim are ignored. Grids outside the domain keep their file index slot but
// are not stored. Add returns the number of octs newly assigned; octs of
// boundary domains are only counted when countBoundary is set.
func (c *Container) Add(domain, level int, pos [3][]float64, countBoundary bool) int {
	if level < 0 || level > MaxLevel {
		return 0
	}
	n := len(pos[0])

	c.mu.Lock()
	defer c.mu.Unlock()

	key := blockKey{domain, level}
	block := c.blocks[key]
	added := 0
	for i := 0; i < n; i++ {
		var p [3]float64
		for d := 0; d < c.ndim; d++ {
			p[d] = pos[d][i]
		}
		o := c.insert(p, level)
		block = append(block, o)
		if o == nil || o.Domain != 0 {
			continue
		}
		o.Domain = domain
		o.FileIndex = int64(len(block) - 1)
		for len(c.counts) <= level {
			c.counts = append(c.counts, 0)
		}
		c.counts[level]++
		if countBoundary || domain <= c.nreal {
			added++
		}
	}
	c.blocks[key] = block
	return added
}

// insert finds or creates the oct at level containing p. It returns nil
// when p lies outside the domain.
func (c *Container) insert(p [3]float64, level int) *Oct {
	var idx [3]int64
	scale := float64(int64(1) << level)
	for d := 0; d < c.ndim; d++ {
		f := (p[d] - c.left[d]) / c.width[d] * scale
		if f < 0 || f >= float64(c.rootDims[d])*scale {
			return nil
		}
		idx[d] = int64(f)
	}

	var r [3]int64
	for d := range r {
		r[d] = idx[d] >> level
	}
	ri := r[0] + int64(c.rootDims[0])*(r[1]+int64(c.rootDims[1])*r[2])
	o := c.roots[ri]
	if o == nil {
		o = &Oct{Index: r, FileIndex: -1}
		c.roots[ri] = o
	}
	for l := 1; l <= level; l++ {
		shift := level - l
		cell := 0
		for d := 0; d < c.ndim; d++ {
			cell |= int(idx[d]>>shift&1) << d
		}
		child := o.children[cell]
		if child == nil {
			var ci [3]int64
			for d := range ci {
				ci[d] = idx[d] >> shift
			}
			child = &Oct{Level: l, Index: ci, FileIndex: -1}
			o.children[cell] = child
		}
		o = child
	}
	return o
}

// Lookup returns the oct registered at position fileIndex of the
// (domain, level) batch, or nil.
func (c *Container) Lookup(domain, level int, fileIndex int64) *Oct {
	c.mu.RLock()
	defer c.mu.RUnlock()
	block := c.blocks[blockKey{domain, level}]
	if fileIndex < 0 || fileIndex >= int64(len(block)) {
		return nil
	}
	return block[fileIndex]
}

// Stats returns the number of registered octs per level.
func (c *Container) Stats() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]int(nil), c.counts...)
}

// NumOcts returns the total number of registered octs.
func (c *Container) NumOcts() int {
	n := 0
	for _, v := range c.Stats() {
		n += v
	}
	return n
}

// cellGeometry returns the centre and width of cell of o.
func (c *Container) cellGeometry(o *Oct, cell int) (center, width [3]float64) {
	scale := float64(int64(1) << o.Level)
	for d := 0; d < 3; d++ {
		if d >= c.ndim {
			center[d] = (c.left[d] + c.right[d]) / 2
			width[d] = c.right[d] - c.left[d]
			continue
		}
		w := c.width[d] / scale
		bit := float64(cell >> d & 1)
		width[d] = w / 2
		center[d] = c.left[d] + float64(o.Index[d])*w + (bit+0.5)*w/2
	}
	return center, width
}

// Select returns the leaf cells accepted by sel, restricted to the given
// 1-based domains (all domains when none are given). Cells are ordered by
// domain, level, file index and cell index.
func (c *Container) Select(sel Selector, domains ...int) *Selection {
	c.mu.RLock()
	defer c.mu.RUnlock()

	want := make(map[int]bool, len(domains))
	for _, d := range domains {
		want[d] = true
	}
	keys := make([]blockKey, 0, len(c.blocks))
	for k := range c.blocks {
		if len(domains) == 0 || want[k.domain] {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].domain != keys[j].domain {
			return keys[i].domain < keys[j].domain
		}
		return keys[i].level < keys[j].level
	})

	s := &Selection{}
	for _, k := range keys {
		for fi, o := range c.blocks[k] {
			if o == nil || o.Domain != k.domain || o.FileIndex != int64(fi) {
				continue
			}
			for cell := 0; cell < c.nchild; cell++ {
				if o.children[cell] != nil {
					continue
				}
				center, width := c.cellGeometry(o, cell)
				if !sel.SelectCell(center, width) {
					continue
				}
				s.Levels = append(s.Levels, uint8(k.level))
				s.CellIndices = append(s.CellIndices, uint8(cell))
				s.FileIndices = append(s.FileIndices, int64(fi))
				s.Domains = append(s.Domains, int32(k.domain))
			}
		}
	}
	return s
}
