package header

import (
	"github.com/cockroachdb/errors"

	"github.com/robert-malhotra/go-ramses/internal/fortran"
)

// Errors
var (
	ErrInvalidHeader = errors.New("invalid header")
	ErrMismatch      = errors.New("amr and hydro headers disagree")
	ErrDescriptor    = errors.New("invalid field descriptor")
)

// OrderingWidth is the fixed width of the domain ordering record.
const OrderingWidth = 128

// Cosmology holds the cosmological parameters of a run. All zero for
// non-cosmological simulations.
type Cosmology struct {
	OmegaM    float64
	OmegaL    float64
	OmegaK    float64
	OmegaB    float64
	H0        float64
	AExpIni   float64
	BoxLenIni float64
}

// AMR contains the header of one amr_NNNNN.outCCCCC file.
type AMR struct {
	NCPU         int
	NDim         int
	NX           [3]int // coarse grid dimensions
	NLevelMax    int
	NGridMax     int
	NBoundary    int
	NGridCurrent int
	BoxLen       float64

	NOutput int
	IOut    int
	IFOut   int
	Time    float64
	AExp    float64

	NStep       int
	NStepCoarse int

	Cosmology Cosmology

	// NumBL is the grid count contributed by each domain at each level,
	// indexed [level][domain].
	NumBL [][]int32
	// NumBB is the grid count of each boundary domain at each level,
	// indexed [level][boundary]. Nil when NBoundary is zero.
	NumBB [][]int32

	// Ordering is the domain decomposition scheme, e.g. "hilbert".
	Ordering string

	// HalfExtent is subtracted from raw grid coordinates to move them into
	// the unit-box convention: (NX[i]-1)/2.
	HalfExtent [3]float64

	// TopologyOffset is the file position of the first topology block.
	TopologyOffset int64
}

// TwoToNDim returns the number of cells per grid.
func (h *AMR) TwoToNDim() int {
	return 1 << h.NDim
}

// NDomains returns the number of real plus boundary domains.
func (h *AMR) NDomains() int {
	return h.NCPU + h.NBoundary
}

// ReadAMR parses an AMR header starting at the reader's current position.
// On success the reader is left at the first topology block.
func ReadAMR(r *fortran.Reader) (*AMR, error) {
	h := &AMR{}
	var err error

	readInt := func(dst *int, what string) {
		if err != nil {
			return
		}
		*dst, err = r.ReadInt()
		if err != nil {
			err = errors.Wrapf(err, "reading %s", what)
		}
	}
	readInts := func(what string, n int) []int32 {
		if err != nil {
			return nil
		}
		var v []int32
		v, err = r.ReadInts()
		if err != nil {
			err = errors.Wrapf(err, "reading %s", what)
			return nil
		}
		if len(v) != n {
			err = errors.Wrapf(ErrInvalidHeader, "%s: expected %d values, got %d", what, n, len(v))
			return nil
		}
		return v
	}
	readReals := func(what string, n int) []float64 {
		if err != nil {
			return nil
		}
		var v []float64
		v, err = r.ReadFloat64s()
		if err != nil {
			err = errors.Wrapf(err, "reading %s", what)
			return nil
		}
		if len(v) != n {
			err = errors.Wrapf(ErrInvalidHeader, "%s: expected %d values, got %d", what, n, len(v))
			return nil
		}
		return v
	}
	skip := func(what string, n int) {
		if err != nil {
			return
		}
		if err = r.Skip(n); err != nil {
			err = errors.Wrapf(err, "skipping %s", what)
		}
	}

	readInt(&h.NCPU, "ncpu")
	readInt(&h.NDim, "ndim")
	if nx := readInts("nx,ny,nz", 3); nx != nil {
		h.NX = [3]int{int(nx[0]), int(nx[1]), int(nx[2])}
	}
	readInt(&h.NLevelMax, "nlevelmax")
	readInt(&h.NGridMax, "ngridmax")
	readInt(&h.NBoundary, "nboundary")
	readInt(&h.NGridCurrent, "ngrid_current")
	if v := readReals("boxlen", 1); v != nil {
		h.BoxLen = v[0]
	}
	if err != nil {
		return nil, err
	}
	if err := h.validate(); err != nil {
		return nil, err
	}

	if v := readInts("noutput,iout,ifout", 3); v != nil {
		h.NOutput, h.IOut, h.IFOut = int(v[0]), int(v[1]), int(v[2])
	}
	skip("tout and aout", 2)
	if v := readReals("t", 1); v != nil {
		h.Time = v[0]
	}
	skip("dtold and dtnew", 2)
	if v := readInts("nstep,nstep_coarse", 2); v != nil {
		h.NStep, h.NStepCoarse = int(v[0]), int(v[1])
	}
	skip("einit,mass_tot_0,rho_tot", 1)
	if v := readReals("cosmology", 7); v != nil {
		h.Cosmology = Cosmology{
			OmegaM: v[0], OmegaL: v[1], OmegaK: v[2], OmegaB: v[3],
			H0: v[4], AExpIni: v[5], BoxLenIni: v[6],
		}
	}
	if v := readReals("expansion", 5); v != nil {
		h.AExp = v[0]
	}
	skip("mass_sph, headl and taill", 3)
	numbl := readInts("numbl", h.NCPU*h.NLevelMax)
	skip("numbtot", 1)
	var numbb []int32
	if h.NBoundary > 0 {
		skip("headb and tailb", 2)
		numbb = readInts("numbb", h.NBoundary*h.NLevelMax)
	}
	skip("free list", 1)
	if err != nil {
		return nil, err
	}

	h.Ordering, err = r.ReadString()
	if err != nil {
		return nil, errors.Wrap(err, "reading ordering")
	}
	if h.Ordering == "bisection" {
		skip("bisection tree", 5)
	} else {
		skip("bound_key", 1)
	}
	skip("coarse son, flag1 and cpu_map", 3)
	if err != nil {
		return nil, err
	}

	h.NumBL = unflatten(numbl, h.NCPU, h.NLevelMax)
	if numbb != nil {
		h.NumBB = unflatten(numbb, h.NBoundary, h.NLevelMax)
	}
	for i := range h.HalfExtent {
		h.HalfExtent[i] = float64(h.NX[i]-1) / 2
	}
	h.TopologyOffset = r.Tell()
	return h, nil
}

func (h *AMR) validate() error {
	switch {
	case h.NCPU <= 0:
		return errors.Wrapf(ErrInvalidHeader, "ncpu = %d", h.NCPU)
	case h.NDim < 1 || h.NDim > 3:
		return errors.Wrapf(ErrInvalidHeader, "ndim = %d", h.NDim)
	case h.NLevelMax <= 0:
		return errors.Wrapf(ErrInvalidHeader, "nlevelmax = %d", h.NLevelMax)
	case h.NBoundary < 0:
		return errors.Wrapf(ErrInvalidHeader, "nboundary = %d", h.NBoundary)
	}
	for i, n := range h.NX {
		if n <= 0 {
			return errors.Wrapf(ErrInvalidHeader, "coarse dimension %d = %d", i, n)
		}
	}
	return nil
}

// unflatten turns a column-major (n, nlevel) Fortran array into [level][i].
func unflatten(flat []int32, n, nlevel int) [][]int32 {
	out := make([][]int32, nlevel)
	for l := range out {
		out[l] = flat[l*n : (l+1)*n : (l+1)*n]
	}
	return out
}
