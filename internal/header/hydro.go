package header

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-ramses/internal/fortran"
)

// Hydro contains the header of one hydro_NNNNN.outCCCCC file.
type Hydro struct {
	NCPU      int
	NVar      int
	NDim      int
	NLevelMax int
	NBoundary int
	Gamma     float64

	// DataOffset is the file position of the first data block.
	DataOffset int64
}

// ReadHydro parses a hydro header starting at the reader's current position.
func ReadHydro(r *fortran.Reader) (*Hydro, error) {
	h := &Hydro{}
	for _, f := range []struct {
		dst  *int
		name string
	}{
		{&h.NCPU, "ncpu"},
		{&h.NVar, "nvar"},
		{&h.NDim, "ndim"},
		{&h.NLevelMax, "nlevelmax"},
		{&h.NBoundary, "nboundary"},
	} {
		v, err := r.ReadInt()
		if err != nil {
			return nil, errors.Wrapf(err, "reading hydro %s", f.name)
		}
		*f.dst = v
	}
	gamma, err := r.ReadFloat64()
	if err != nil {
		return nil, errors.Wrap(err, "reading hydro gamma")
	}
	h.Gamma = gamma
	if h.NVar <= 0 {
		return nil, errors.Wrapf(ErrInvalidHeader, "nvar = %d", h.NVar)
	}
	h.DataOffset = r.Tell()
	return h, nil
}

// Check reports whether the hydro header agrees with the AMR header of the
// same domain.
func (h *Hydro) Check(a *AMR) error {
	switch {
	case h.NCPU != a.NCPU:
		return errors.Wrapf(ErrMismatch, "ncpu %d vs %d", h.NCPU, a.NCPU)
	case h.NDim != a.NDim:
		return errors.Wrapf(ErrMismatch, "ndim %d vs %d", h.NDim, a.NDim)
	case h.NLevelMax != a.NLevelMax:
		return errors.Wrapf(ErrMismatch, "nlevelmax %d vs %d", h.NLevelMax, a.NLevelMax)
	case h.NBoundary != a.NBoundary:
		return errors.Wrapf(ErrMismatch, "nboundary %d vs %d", h.NBoundary, a.NBoundary)
	}
	return nil
}
