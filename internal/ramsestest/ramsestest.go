// Package ramsestest writes synthetic RAMSES snapshot files for tests.
package ramsestest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-ramses/internal/fortran"
	"github.com/robert-malhotra/go-ramses/internal/header"
)

// ValueFunc returns the value stored for one cell of one field.
// Levels and domains are 0-based; grid is the position in the block.
type ValueFunc func(field string, level, domain, subcell, grid int) float64

// Spec describes a snapshot's shared parameters.
type Spec struct {
	NDim      int
	NCPU      int
	NBoundary int
	NLevelMax int
	NX        [3]int // zero means 1
	BoxLen    float64
	Ordering  string
	Gamma     float64
	ByteOrder binary.ByteOrder

	// Fields lists the hydro variables in disk order.
	Fields []string
	Value  ValueFunc
}

// Shard is the content of one domain's files.
type Shard struct {
	// Grids[level][domain] lists grid centres in the unit-box convention
	// (before the half-extent shift is added back for writing). Domains
	// NCPU..NCPU+NBoundary-1 are boundary domains.
	Grids [][][][3]float64
	// Mislabel overrides the declared level written in the hydro file for
	// the block at {level, domain}.
	Mislabel map[[2]int]int
}

// NewShard returns an empty shard sized for s.
func (s *Spec) NewShard() *Shard {
	grids := make([][][][3]float64, s.NLevelMax)
	for l := range grids {
		grids[l] = make([][][3]float64, s.NCPU+s.NBoundary)
	}
	return &Shard{Grids: grids}
}

func (s *Spec) nx() [3]int {
	nx := s.NX
	for i := range nx {
		if nx[i] == 0 {
			nx[i] = 1
		}
	}
	return nx
}

func (s *Spec) config() fortran.Config {
	return fortran.Config{ByteOrder: s.ByteOrder}
}

// CellValue returns the value written for a cell, using s.Value or a default
// encoding that is unique per (field, level, domain, subcell, grid).
func (s *Spec) CellValue(field string, level, domain, subcell, grid int) float64 {
	if s.Value != nil {
		return s.Value(field, level, domain, subcell, grid)
	}
	fi := 0
	for i, f := range s.Fields {
		if f == field {
			fi = i
		}
	}
	return float64(fi+1)*1e7 + float64(level)*1e6 + float64(domain)*1e5 + float64(subcell)*1e4 + float64(grid)
}

// counts returns the grid counts of sh as written in the AMR header.
func (s *Spec) counts(sh *Shard) (numbl, numbb []int32) {
	for l := 0; l < s.NLevelMax; l++ {
		for d := 0; d < s.NCPU; d++ {
			numbl = append(numbl, int32(len(sh.Grids[l][d])))
		}
	}
	for l := 0; l < s.NLevelMax; l++ {
		for b := 0; b < s.NBoundary; b++ {
			numbb = append(numbb, int32(len(sh.Grids[l][s.NCPU+b])))
		}
	}
	return numbl, numbb
}

// WriteAMR writes the AMR file of shard sh.
func (s *Spec) WriteAMR(w io.Writer, sh *Shard) error {
	fw := fortran.NewWriter(w, s.config())
	nx := s.nx()
	nlev := s.NLevelMax
	numbl, numbb := s.counts(sh)
	ngrid := 0
	for _, n := range numbl {
		ngrid += int(n)
	}
	ordering := s.Ordering
	if ordering == "" {
		ordering = "hilbert"
	}
	ncoarse := nx[0] * nx[1] * nx[2]

	steps := []func() error{
		func() error { return fw.WriteInt(s.NCPU) },
		func() error { return fw.WriteInt(s.NDim) },
		func() error { return fw.WriteInts(int32(nx[0]), int32(nx[1]), int32(nx[2])) },
		func() error { return fw.WriteInt(nlev) },
		func() error { return fw.WriteInt(ngrid + 100) },
		func() error { return fw.WriteInt(s.NBoundary) },
		func() error { return fw.WriteInt(ngrid) },
		func() error { return fw.WriteFloat64s(s.BoxLen) },
		func() error { return fw.WriteInts(1, 1, 1) },
		func() error { return fw.WriteFloat64s(1) },
		func() error { return fw.WriteFloat64s(1) },
		func() error { return fw.WriteFloat64s(0.5) },
		func() error { return fw.WriteFloat64s(make([]float64, nlev)...) },
		func() error { return fw.WriteFloat64s(make([]float64, nlev)...) },
		func() error { return fw.WriteInts(10, 5) },
		func() error { return fw.WriteFloat64s(0, 0, 0) },
		func() error { return fw.WriteFloat64s(0.3, 0.7, 0, 0.045, 70, 0.01, 100) },
		func() error { return fw.WriteFloat64s(1, 0, 1, 0, 0) },
		func() error { return fw.WriteFloat64s(0) },
		func() error { return fw.WriteInts(make([]int32, len(numbl))...) },
		func() error { return fw.WriteInts(make([]int32, len(numbl))...) },
		func() error { return fw.WriteInts(numbl...) },
		func() error { return fw.WriteInts(make([]int32, 10*nlev)...) },
	}
	if s.NBoundary > 0 {
		steps = append(steps,
			func() error { return fw.WriteInts(make([]int32, len(numbb))...) },
			func() error { return fw.WriteInts(make([]int32, len(numbb))...) },
			func() error { return fw.WriteInts(numbb...) },
		)
	}
	steps = append(steps,
		func() error { return fw.WriteInts(0, 0, 0, 0, 0) },
		func() error { return fw.WriteString(ordering, header.OrderingWidth) },
	)
	if ordering == "bisection" {
		for i := 0; i < 5; i++ {
			steps = append(steps, func() error { return fw.WriteFloat64s(0) })
		}
	} else {
		steps = append(steps, func() error { return fw.WriteFloat64s(make([]float64, s.NCPU+1)...) })
	}
	for i := 0; i < 3; i++ {
		steps = append(steps, func() error { return fw.WriteInts(make([]int32, ncoarse)...) })
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	half := [3]float64{}
	for i := range half {
		half[i] = float64(nx[i]-1) / 2
	}
	twotondim := 1 << s.NDim
	trailing := 1 + 2*s.NDim + 3*twotondim
	for l := 0; l < nlev; l++ {
		for d := 0; d < s.NCPU+s.NBoundary; d++ {
			grids := sh.Grids[l][d]
			ng := len(grids)
			if ng == 0 {
				continue
			}
			idx := make([]int32, ng)
			for i := range idx {
				idx[i] = int32(i + 1)
			}
			for i := 0; i < 3; i++ {
				if err := fw.WriteInts(idx...); err != nil {
					return err
				}
			}
			for dim := 0; dim < s.NDim; dim++ {
				xs := make([]float64, ng)
				for i, g := range grids {
					xs[i] = g[dim] + half[dim]
				}
				if err := fw.WriteFloat64s(xs...); err != nil {
					return err
				}
			}
			zeros := make([]int32, ng)
			for i := 0; i < trailing; i++ {
				if err := fw.WriteInts(zeros...); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// WriteHydro writes the hydro file of shard sh.
func (s *Spec) WriteHydro(w io.Writer, sh *Shard) error {
	fw := fortran.NewWriter(w, s.config())
	for _, v := range []int{s.NCPU, len(s.Fields), s.NDim, s.NLevelMax, s.NBoundary} {
		if err := fw.WriteInt(v); err != nil {
			return err
		}
	}
	if err := fw.WriteFloat64s(s.Gamma); err != nil {
		return err
	}
	twotondim := 1 << s.NDim
	for l := 0; l < s.NLevelMax; l++ {
		for d := 0; d < s.NCPU+s.NBoundary; d++ {
			ng := len(sh.Grids[l][d])
			declared := l + 1
			if v, ok := sh.Mislabel[[2]int{l, d}]; ok {
				declared = v
			}
			if err := fw.WriteInt(declared); err != nil {
				return err
			}
			if err := fw.WriteInt(ng); err != nil {
				return err
			}
			if ng == 0 {
				continue
			}
			vals := make([]float64, ng)
			for sub := 0; sub < twotondim; sub++ {
				for _, field := range s.Fields {
					for g := range vals {
						vals[g] = s.CellValue(field, l, d, sub, g)
					}
					if err := fw.WriteFloat64s(vals...); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// AMRBytes returns the AMR file of sh.
func (s *Spec) AMRBytes(sh *Shard) ([]byte, error) {
	var buf bytes.Buffer
	err := s.WriteAMR(&buf, sh)
	return buf.Bytes(), err
}

// HydroBytes returns the hydro file of sh.
func (s *Spec) HydroBytes(sh *Shard) ([]byte, error) {
	var buf bytes.Buffer
	err := s.WriteHydro(&buf, sh)
	return buf.Bytes(), err
}

// OutputDir returns the snapshot directory name for output number iout.
func OutputDir(root string, iout int) string {
	return filepath.Join(root, fmt.Sprintf("output_%05d", iout))
}

// WriteOutput writes a complete snapshot directory under root with one
// shard per domain and returns its path.
func (s *Spec) WriteOutput(root string, iout int, shards []*Shard) (string, error) {
	if len(shards) != s.NCPU {
		return "", errors.Newf("need %d shards, got %d", s.NCPU, len(shards))
	}
	dir := OutputDir(root, iout)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	for i, sh := range shards {
		icpu := i + 1
		amr, err := s.AMRBytes(sh)
		if err != nil {
			return "", err
		}
		name := filepath.Join(dir, fmt.Sprintf("amr_%05d.out%05d", iout, icpu))
		if err := os.WriteFile(name, amr, 0o644); err != nil {
			return "", err
		}
		hydro, err := s.HydroBytes(sh)
		if err != nil {
			return "", err
		}
		name = filepath.Join(dir, fmt.Sprintf("hydro_%05d.out%05d", iout, icpu))
		if err := os.WriteFile(name, hydro, 0o644); err != nil {
			return "", err
		}
	}

	var desc bytes.Buffer
	if err := header.WriteDescriptor(&desc, s.Fields); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, header.DescriptorFile), desc.Bytes(), 0o644); err != nil {
		return "", err
	}

	var info bytes.Buffer
	fmt.Fprintf(&info, "ncpu        =%11d\n", s.NCPU)
	fmt.Fprintf(&info, "ndim        =%11d\n", s.NDim)
	fmt.Fprintf(&info, "levelmin    =%11d\n", 1)
	fmt.Fprintf(&info, "levelmax    =%11d\n", s.NLevelMax)
	fmt.Fprintf(&info, "boxlen      =  %.15E\n", s.BoxLen)
	fmt.Fprintf(&info, "time        =  %.15E\n", 0.5)
	fmt.Fprintf(&info, "\nordering type=%s\n", "hilbert")
	fmt.Fprintf(&info, "   DOMAIN   ind_min                 ind_max\n")
	for i := 1; i <= s.NCPU; i++ {
		fmt.Fprintf(&info, "%8d  %.15E  %.15E\n", i, float64(i-1), float64(i))
	}
	name := filepath.Join(dir, fmt.Sprintf("info_%05d.txt", iout))
	if err := os.WriteFile(name, info.Bytes(), 0o644); err != nil {
		return "", err
	}
	return dir, nil
}

// RefinedTree fills sh with a regular tree in the unit box: one root grid
// at level 0, and at every deeper level the grids refining the first
// nrefine cells of each grid on the level above. All grids belong to domain.
func (s *Spec) RefinedTree(sh *Shard, domain, nlevels, nrefine int) {
	width := 1.0
	level := [][3]float64{{0.5, 0.5, 0.5}}
	if s.NDim < 3 {
		level[0][2] = 0
	}
	if s.NDim < 2 {
		level[0][1] = 0
	}
	for l := 0; l < nlevels; l++ {
		sh.Grids[l][domain] = append(sh.Grids[l][domain], level...)
		var next [][3]float64
		quarter := width / 4
		for _, g := range level {
			for c := 0; c < nrefine && c < 1<<s.NDim; c++ {
				child := g
				for dim := 0; dim < s.NDim; dim++ {
					if c>>dim&1 == 1 {
						child[dim] += quarter
					} else {
						child[dim] -= quarter
					}
				}
				next = append(next, child)
			}
		}
		level = next
		width /= 2
	}
}
