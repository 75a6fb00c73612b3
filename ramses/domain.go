package ramses

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-ramses/internal/fortran"
	"github.com/robert-malhotra/go-ramses/internal/header"
	"github.com/robert-malhotra/go-ramses/octree"
)

// Domain is the pair of files written by one compute domain.
type Domain struct {
	snap      *Snapshot
	id        int
	amrPath   string
	hydroPath string

	mu      sync.Mutex
	loaded  bool
	amr     *header.AMR
	hydro   *header.Hydro
	index   *octree.Container
	depth   int
	offsets *OffsetTable
}

// ID returns the 1-based domain number.
func (d *Domain) ID() int {
	return d.id
}

// AMRPath returns the path of the domain's AMR file.
func (d *Domain) AMRPath() string {
	return d.amrPath
}

// HydroPath returns the path of the domain's hydro file.
func (d *Domain) HydroPath() string {
	return d.hydroPath
}

func (d *Domain) open(path string) (*fortran.File, *fortran.Reader, error) {
	f, err := fortran.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, fortran.NewReader(f, fortran.Config{ByteOrder: d.snap.opts.byteOrder, Name: path}), nil
}

// Load reads the domain's topology into a new index and builds the offset
// table of its hydro file. It is a no-op once it has succeeded.
func (d *Domain) Load(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded {
		return nil
	}
	log := d.snap.logger(ctx).With().Int("domain", d.id).Logger()

	f, r, err := d.open(d.amrPath)
	if err != nil {
		return err
	}
	defer f.Close()

	amr, err := header.ReadAMR(r)
	if err != nil {
		return errors.Wrapf(err, "%s: reading amr header", d.amrPath)
	}
	if amr.NCPU != d.snap.ncpu {
		return errors.Wrapf(header.ErrMismatch, "%s: ncpu %d, snapshot has %d", d.amrPath, amr.NCPU, d.snap.ncpu)
	}
	minLevel := d.snap.opts.minLevel
	index, err := newIndex(amr.NDim, amr.NCPU, minLevel)
	if err != nil {
		return err
	}
	depth, err := ReadAMR(r, amr, amr.NumBB, minLevel, index)
	if err != nil {
		return errors.Wrapf(err, "%s", d.amrPath)
	}
	log.Debug().Str("file", d.amrPath).Int("depth", depth).Ints("octs", index.Stats()).Msg("read topology")

	hf, hr, err := d.open(d.hydroPath)
	if err != nil {
		return err
	}
	defer hf.Close()

	hydro, err := header.ReadHydro(hr)
	if err != nil {
		return errors.Wrapf(err, "%s: reading hydro header", d.hydroPath)
	}
	if err := hydro.Check(amr); err != nil {
		return errors.Wrapf(err, "%s", d.hydroPath)
	}
	if hydro.NVar != len(d.snap.fields) {
		return errors.Wrapf(header.ErrMismatch, "%s: %d variables, catalogue lists %d",
			d.hydroPath, hydro.NVar, len(d.snap.fields))
	}
	offsets, err := ReadOffset(hr, minLevel, d.id, hydro.NVar, amr, DefaultSkip)
	if err != nil {
		return err
	}
	log.Debug().Str("file", d.hydroPath).Int("levels", offsets.NLevels()).Msg("indexed hydro blocks")

	d.amr, d.hydro, d.index, d.depth, d.offsets = amr, hydro, index, depth, offsets
	d.loaded = true
	return nil
}

// newIndex creates a container over the unit box whose root octs are the
// grids of level minLevel.
func newIndex(ndim, ncpu, minLevel int) (*octree.Container, error) {
	var dims [3]int
	for d := range dims {
		dims[d] = 1
		if d < ndim {
			dims[d] = 1 << minLevel
		}
	}
	return octree.NewContainer(ndim, dims, [3]float64{}, [3]float64{1, 1, 1}, ncpu)
}

// Header returns the AMR header. Nil before Load.
func (d *Domain) Header() *Header {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.amr
}

// Index returns the spatial index. Nil before Load.
func (d *Domain) Index() *octree.Container {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.index
}

// Depth returns the deepest relative level holding grids.
func (d *Domain) Depth() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.depth
}

// Offsets returns the hydro offset table. Nil before Load.
func (d *Domain) Offsets() *OffsetTable {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.offsets
}

// ReadFields loads the domain if needed and returns the requested fields
// for the selected leaf cells the domain owns, in selection order.
func (d *Domain) ReadFields(ctx context.Context, fields []string, sel octree.Selector) (map[string][]float64, error) {
	return d.ReadFieldsFrom(ctx, fields, sel, d.id)
}

// ReadFieldsFrom is ReadFields over the cells of several 1-based domains
// present in this domain's files, such as the ghost layer around it.
func (d *Domain) ReadFieldsFrom(ctx context.Context, fields []string, sel octree.Selector, domains ...int) (map[string][]float64, error) {
	if err := d.Load(ctx); err != nil {
		return nil, err
	}
	d.mu.Lock()
	amr, index, offsets := d.amr, d.index, d.offsets
	d.mu.Unlock()

	zero := make([]int, len(domains))
	for i, id := range domains {
		if id < 1 || id > offsets.NDomains() {
			return nil, errors.Wrapf(ErrNoDomain, "domain %d", id)
		}
		zero[i] = id - 1
	}

	selection := index.Select(sel, domains...)
	out := make(map[string][]float64, len(fields))
	for _, f := range fields {
		out[f] = make([]float64, selection.Len())
	}

	hf, hr, err := d.open(d.hydroPath)
	if err != nil {
		return nil, err
	}
	defer hf.Close()

	err = FillHydro(hr, offsets, FillRequest{
		Domains:   zero,
		Selection: selection,
		NDim:      amr.NDim,
		AllFields: d.snap.fields,
		Fields:    fields,
		Output:    out,
	}, index)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", d.hydroPath)
	}
	log := d.snap.logger(ctx)
	log.Debug().Int("domain", d.id).Int("cells", selection.Len()).Strs("fields", fields).Msg("read fields")
	return out, nil
}
