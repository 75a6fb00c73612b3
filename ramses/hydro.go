package ramses

import (
	"io"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-ramses/internal/fortran"
	"github.com/robert-malhotra/go-ramses/octree"
)

// FillRequest describes one FillHydro call.
type FillRequest struct {
	// Domains lists the 0-based domains whose blocks are decoded.
	Domains []int
	// Selection is the cell selection the output is laid out in.
	Selection *octree.Selection
	NDim      int
	// AllFields is the field catalogue in on-disk order.
	AllFields []string
	// Fields is the requested subset, in any order.
	Fields []string
	// Output receives the values, one slice of Selection.Len() per field.
	Output map[string][]float64
}

// jumpPlan is the precomputed read schedule for a set of requested fields.
// fields holds the requested fields in disk order; jumps[j] is the number
// of unrequested records between field j-1 (or the block start) and field
// j, and jumps[len(fields)] the number after the last one.
type jumpPlan struct {
	fields []string
	jumps  []int
}

func newJumpPlan(all, requested []string) (*jumpPlan, error) {
	want := make(map[string]bool, len(requested))
	known := make(map[string]bool, len(all))
	for _, f := range all {
		known[f] = true
	}
	for _, f := range requested {
		if !known[f] {
			return nil, errors.Wrapf(ErrUnknownField, "%q", f)
		}
		want[f] = true
	}

	p := &jumpPlan{}
	skip := 0
	for _, f := range all {
		if want[f] {
			p.fields = append(p.fields, f)
			p.jumps = append(p.jumps, skip)
			skip = 0
			delete(want, f)
			continue
		}
		skip++
	}
	p.jumps = append(p.jumps, skip)
	return p, nil
}

// decodeBuffer holds one decoded block as [field][subcell][cell].
type decodeBuffer struct {
	data   []float64
	stride int
	nsub   int
}

func newDecodeBuffer(stride, nsub, nfields int) *decodeBuffer {
	return &decodeBuffer{
		data:   make([]float64, stride*nsub*nfields),
		stride: stride,
		nsub:   nsub,
	}
}

func (b *decodeBuffer) column(field, sub, n int) []float64 {
	off := (field*b.nsub + sub) * b.stride
	return b.data[off : off+n]
}

func (b *decodeBuffer) view(field, n int) octree.Block {
	size := b.nsub * b.stride
	return octree.Block{
		Data:   b.data[field*size : (field+1)*size],
		Stride: b.stride,
		Len:    n,
	}
}

// FillHydro decodes the requested fields of the selected domains using the
// offsets found by ReadOffset and passes each decoded block to idx. Blocks
// are handed over as views of a buffer that is reused for the next block,
// so idx must not retain them. When more than one domain is read, cells are
// routed with FillLevelWithDomain.
func FillHydro(r RecordReader, t *OffsetTable, req FillRequest, idx Index) error {
	if req.Selection == nil {
		return errors.New("ramses: fill request without selection")
	}
	plan, err := newJumpPlan(req.AllFields, req.Fields)
	if err != nil {
		return err
	}
	for _, d := range req.Domains {
		if d < 0 || d >= t.NDomains() {
			return errors.Wrapf(ErrNoDomain, "domain %d of %d", d+1, t.NDomains())
		}
	}
	stride := t.MaxCount(req.Domains)
	if stride == 0 || len(plan.fields) == 0 {
		return nil
	}

	twotondim := 1 << req.NDim
	buf := newDecodeBuffer(int(stride), twotondim, len(plan.fields))
	views := make(map[string]octree.Block, len(plan.fields))
	multi := len(req.Domains) > 1
	trailing := plan.jumps[len(plan.fields)]

	for level := 0; level < t.NLevels(); level++ {
		for _, domain := range req.Domains {
			offset, count, ok := t.Block(domain, level)
			if !ok {
				continue
			}
			n := int(count)
			lvl := level + t.MinLevel + 1
			rec := fortran.RecordSize(realSize * count)

			if _, err := r.Seek(offset+int64(plan.jumps[0])*rec, io.SeekStart); err != nil {
				return errors.Wrapf(err, "level %d domain %d: seeking to block", lvl, domain+1)
			}
			pending := 0
			for sub := 0; sub < twotondim; sub++ {
				for j, field := range plan.fields {
					if sub > 0 || j > 0 {
						pending += plan.jumps[j]
					}
					if pending > 0 {
						if _, err := r.Seek(int64(pending)*rec, io.SeekCurrent); err != nil {
							return errors.Wrapf(err, "level %d domain %d: skipping to %s", lvl, domain+1, field)
						}
						pending = 0
					}
					if err := r.ReadFloat64sInto(buf.column(j, sub, n)); err != nil {
						return errors.Wrapf(err, "level %d domain %d: reading %s cell %d", lvl, domain+1, field, sub)
					}
				}
				pending += trailing
			}

			for j, field := range plan.fields {
				views[field] = buf.view(j, n)
			}
			if multi {
				err = idx.FillLevelWithDomain(level, req.Selection, req.Output, views, domain+1)
			} else {
				err = idx.FillLevel(level, req.Selection, req.Output, views)
			}
			if err != nil {
				return errors.Wrapf(err, "level %d domain %d: filling index", lvl, domain+1)
			}
		}
	}
	return nil
}
