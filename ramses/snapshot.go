package ramses

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/go-ramses/internal/fortran"
	"github.com/robert-malhotra/go-ramses/internal/header"
	"github.com/robert-malhotra/go-ramses/internal/logctx"
	"github.com/robert-malhotra/go-ramses/octree"
)

// Snapshot is one output_NNNNN directory.
type Snapshot struct {
	dir     string
	iout    int
	opts    *options
	info    header.Info
	ncpu    int
	ndim    int
	fields  []string
	domains []*Domain
}

// Open opens the snapshot directory dir. Domain files are located but not
// read until a domain is loaded.
func Open(dir string, opts ...Option) (*Snapshot, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	digits, ok := strings.CutPrefix(filepath.Base(filepath.Clean(dir)), "output_")
	if !ok {
		return nil, errors.Wrapf(ErrNotSnapshot, "%s", dir)
	}
	iout, err := strconv.Atoi(digits)
	if err != nil {
		return nil, errors.Wrapf(ErrNotSnapshot, "%s: output number %q", dir, digits)
	}

	s := &Snapshot{dir: dir, iout: iout, opts: o}
	if err := s.readInfo(); err != nil {
		return nil, err
	}

	for id := 1; id <= s.ncpu; id++ {
		amr, err := fortran.Resolve(s.path("amr", id))
		if err != nil {
			return nil, errors.Wrapf(err, "domain %d", id)
		}
		hydro, err := fortran.Resolve(s.path("hydro", id))
		if err != nil {
			return nil, errors.Wrapf(err, "domain %d", id)
		}
		s.domains = append(s.domains, &Domain{snap: s, id: id, amrPath: amr, hydroPath: hydro})
	}

	if err := s.readCatalogue(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Snapshot) path(kind string, id int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%05d.out%05d", kind, s.iout, id))
}

func (s *Snapshot) readInfo() error {
	name := filepath.Join(s.dir, fmt.Sprintf("info_%05d.txt", s.iout))
	f, err := os.Open(name)
	if err != nil {
		return errors.Wrapf(ErrNotSnapshot, "%s: %v", s.dir, err)
	}
	defer f.Close()

	s.info, err = header.ReadInfo(f)
	if err != nil {
		return errors.Wrapf(err, "%s", name)
	}
	if s.ncpu, err = s.info.Int("ncpu"); err != nil {
		return errors.Wrapf(err, "%s", name)
	}
	if s.ndim, err = s.info.Int("ndim"); err != nil {
		return errors.Wrapf(err, "%s", name)
	}
	if s.ncpu <= 0 {
		return errors.Wrapf(header.ErrInvalidHeader, "%s: ncpu = %d", name, s.ncpu)
	}
	if s.ndim < 1 || s.ndim > 3 {
		return errors.Wrapf(header.ErrInvalidHeader, "%s: ndim = %d", name, s.ndim)
	}
	return nil
}

// readCatalogue determines the hydro field order: the WithFields option,
// then the descriptor file, then conventional names for the variable count
// found in the first hydro file.
func (s *Snapshot) readCatalogue() error {
	if len(s.opts.fields) > 0 {
		s.fields = s.opts.fields
		return nil
	}

	name := filepath.Join(s.dir, header.DescriptorFile)
	f, err := os.Open(name)
	if err == nil {
		defer f.Close()
		fields, err := header.ReadDescriptor(f)
		if err != nil {
			return errors.Wrapf(err, "%s", name)
		}
		s.fields = header.FieldNames(fields)
		return nil
	}
	if !os.IsNotExist(err) {
		return errors.Wrapf(err, "opening %s", name)
	}

	d := s.domains[0]
	hf, hr, err := d.open(d.hydroPath)
	if err != nil {
		return err
	}
	defer hf.Close()
	hydro, err := header.ReadHydro(hr)
	if err != nil {
		return errors.Wrapf(err, "%s: reading hydro header", d.hydroPath)
	}
	s.fields = header.DefaultHydroFields(s.ndim, hydro.NVar)
	return nil
}

func (s *Snapshot) logger(ctx context.Context) zerolog.Logger {
	if l, ok := logctx.Lookup(ctx); ok {
		return l
	}
	if s.opts.logger != nil {
		return *s.opts.logger
	}
	return zerolog.Nop()
}

// Dir returns the snapshot directory.
func (s *Snapshot) Dir() string {
	return s.dir
}

// Output returns the output number NNNNN.
func (s *Snapshot) Output() int {
	return s.iout
}

// NCPU returns the number of domains.
func (s *Snapshot) NCPU() int {
	return s.ncpu
}

// NDim returns the dimensionality from the info file.
func (s *Snapshot) NDim() int {
	return s.ndim
}

// Info returns the parsed info file.
func (s *Snapshot) Info() header.Info {
	return s.info
}

// Fields returns the hydro field catalogue in on-disk order.
func (s *Snapshot) Fields() []string {
	return append([]string(nil), s.fields...)
}

// Domains returns all domains in order.
func (s *Snapshot) Domains() []*Domain {
	return append([]*Domain(nil), s.domains...)
}

// Domain returns the domain with the 1-based id.
func (s *Snapshot) Domain(id int) (*Domain, error) {
	if id < 1 || id > len(s.domains) {
		return nil, errors.Wrapf(ErrNoDomain, "domain %d of %d", id, len(s.domains))
	}
	return s.domains[id-1], nil
}

// Load loads every domain, up to WithConcurrency at a time.
func (s *Snapshot) Load(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.concurrency)
	for _, d := range s.domains {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return d.Load(ctx)
		})
	}
	return g.Wait()
}

// ReadFields reads the requested fields for the selected cells of every
// domain. Values are concatenated in domain order.
func (s *Snapshot) ReadFields(ctx context.Context, fields []string, sel octree.Selector) (map[string][]float64, error) {
	parts := make([]map[string][]float64, len(s.domains))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.concurrency)
	for i, d := range s.domains {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			part, err := d.ReadFields(gctx, fields, sel)
			if err != nil {
				return errors.Wrapf(err, "domain %d", d.id)
			}
			parts[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]float64, len(fields))
	for _, f := range fields {
		n := 0
		for _, p := range parts {
			n += len(p[f])
		}
		vals := make([]float64, 0, n)
		for _, p := range parts {
			vals = append(vals, p[f]...)
		}
		out[f] = vals
	}
	log := s.logger(ctx)
	log.Info().Int("domains", len(parts)).Strs("fields", fields).Msg("read snapshot fields")
	return out, nil
}
