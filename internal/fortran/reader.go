package fortran

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/cockroachdb/errors"
)

// MarkerSize is the size in bytes of one record length marker.
const MarkerSize = 4

var (
	// ErrMarkerMismatch is returned when the head and tail markers of a record differ.
	ErrMarkerMismatch = errors.New("record head and tail markers differ")
	// ErrRecordSize is returned when a record's length does not fit the requested type.
	ErrRecordSize = errors.New("record size does not match requested type")
	// ErrRecordTooLarge is returned when a marker claims more bytes than the file holds.
	ErrRecordTooLarge = errors.New("record length out of range")
)

// RecordSize returns the on-disk size of a record holding payload bytes.
func RecordSize(payload int64) int64 {
	return payload + 2*MarkerSize
}

// Config holds reader and writer configuration.
type Config struct {
	ByteOrder binary.ByteOrder
	// Name identifies the underlying file in error messages.
	Name string
}

// DefaultConfig returns a little-endian configuration, the layout written by
// gfortran and ifort on x86 and ARM.
func DefaultConfig() Config {
	return Config{ByteOrder: binary.LittleEndian}
}

// Reader reads framed records from an io.ReaderAt.
// A Reader is not safe for concurrent use; open one per goroutine.
type Reader struct {
	r       io.ReaderAt
	name    string
	order   binary.ByteOrder
	size    int64 // -1 when unknown
	pos     int64
	scratch []byte
}

type sizer interface {
	Size() int64
}

// NewReader creates a record reader positioned at the start of r.
func NewReader(r io.ReaderAt, cfg Config) *Reader {
	order := cfg.ByteOrder
	if order == nil {
		order = binary.LittleEndian
	}
	size := int64(-1)
	if s, ok := r.(sizer); ok {
		size = s.Size()
	}
	name := cfg.Name
	if name == "" {
		if n, ok := r.(interface{ Name() string }); ok {
			name = n.Name()
		}
	}
	return &Reader{r: r, name: name, order: order, size: size}
}

// Name returns the name of the underlying file, if known.
func (r *Reader) Name() string {
	return r.name
}

// Tell returns the current read position.
func (r *Reader) Tell() int64 {
	return r.pos
}

// Size returns the size of the underlying data, or -1 if unknown.
func (r *Reader) Size() int64 {
	return r.size
}

// Seek sets the position for the next read, interpreted according to whence.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.pos + offset
	case io.SeekEnd:
		if r.size < 0 {
			return r.pos, errors.Newf("%s: seek from end with unknown size", r.name)
		}
		abs = r.size + offset
	default:
		return r.pos, errors.Newf("%s: invalid whence %d", r.name, whence)
	}
	if abs < 0 {
		return r.pos, errors.Newf("%s: negative position %d", r.name, abs)
	}
	r.pos = abs
	return abs, nil
}

// readFull reads len(p) bytes at off.
func (r *Reader) readFull(p []byte, off int64) error {
	n, err := r.r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// readMarker reads the marker at off and validates it against the file size.
func (r *Reader) readMarker(off int64) (int64, error) {
	var buf [MarkerSize]byte
	if err := r.readFull(buf[:], off); err != nil {
		return 0, errors.Wrapf(err, "%s: reading record marker at %d", r.name, off)
	}
	n := int64(int32(r.order.Uint32(buf[:])))
	if n < 0 {
		return 0, errors.Wrapf(ErrRecordTooLarge, "%s: negative record length %d at %d", r.name, n, off)
	}
	if r.size >= 0 && off+RecordSize(n) > r.size {
		return 0, errors.Wrapf(ErrRecordTooLarge, "%s: record of %d bytes at %d exceeds file size %d",
			r.name, n, off, r.size)
	}
	return n, nil
}

// payload reads the next record into the reader's scratch buffer.
// The returned slice is only valid until the next read.
func (r *Reader) payload() ([]byte, error) {
	start := r.pos
	n, err := r.readMarker(start)
	if err != nil {
		return nil, err
	}
	total := n + MarkerSize
	if int64(cap(r.scratch)) < total {
		r.scratch = make([]byte, total)
	}
	buf := r.scratch[:total]
	if err := r.readFull(buf, start+MarkerSize); err != nil {
		return nil, errors.Wrapf(err, "%s: reading %d byte record at %d", r.name, n, start)
	}
	if tail := int64(int32(r.order.Uint32(buf[n:]))); tail != n {
		return nil, errors.Wrapf(ErrMarkerMismatch, "%s: record at %d has head %d and tail %d",
			r.name, start, n, tail)
	}
	r.pos = start + RecordSize(n)
	return buf[:n], nil
}

// ReadRecord reads the next record and returns a copy of its payload.
func (r *Reader) ReadRecord() ([]byte, error) {
	p, err := r.payload()
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out, nil
}

// ReadInt reads a record holding a single 4-byte integer.
func (r *Reader) ReadInt() (int, error) {
	p, err := r.payload()
	if err != nil {
		return 0, err
	}
	if len(p) != 4 {
		return 0, errors.Wrapf(ErrRecordSize, "%s: expected 4 byte integer record, got %d bytes", r.name, len(p))
	}
	return int(int32(r.order.Uint32(p))), nil
}

// ReadInts reads a record of 4-byte integers.
func (r *Reader) ReadInts() ([]int32, error) {
	p, err := r.payload()
	if err != nil {
		return nil, err
	}
	if len(p)%4 != 0 {
		return nil, errors.Wrapf(ErrRecordSize, "%s: %d bytes is not a multiple of 4", r.name, len(p))
	}
	out := make([]int32, len(p)/4)
	for i := range out {
		out[i] = int32(r.order.Uint32(p[4*i:]))
	}
	return out, nil
}

// ReadFloat64 reads a record holding a single float64.
func (r *Reader) ReadFloat64() (float64, error) {
	p, err := r.payload()
	if err != nil {
		return 0, err
	}
	if len(p) != 8 {
		return 0, errors.Wrapf(ErrRecordSize, "%s: expected 8 byte real record, got %d bytes", r.name, len(p))
	}
	return math.Float64frombits(r.order.Uint64(p)), nil
}

// ReadFloat64s reads a record of float64 values.
func (r *Reader) ReadFloat64s() ([]float64, error) {
	p, err := r.payload()
	if err != nil {
		return nil, err
	}
	if len(p)%8 != 0 {
		return nil, errors.Wrapf(ErrRecordSize, "%s: %d bytes is not a multiple of 8", r.name, len(p))
	}
	out := make([]float64, len(p)/8)
	r.decodeFloat64s(out, p)
	return out, nil
}

// ReadFloat64sInto reads a record of exactly len(dst) float64 values into dst.
func (r *Reader) ReadFloat64sInto(dst []float64) error {
	p, err := r.payload()
	if err != nil {
		return err
	}
	if len(p) != 8*len(dst) {
		return errors.Wrapf(ErrRecordSize, "%s: expected %d reals, record holds %d bytes", r.name, len(dst), len(p))
	}
	r.decodeFloat64s(dst, p)
	return nil
}

func (r *Reader) decodeFloat64s(dst []float64, p []byte) {
	for i := range dst {
		dst[i] = math.Float64frombits(r.order.Uint64(p[8*i:]))
	}
}

// ReadString reads a character record with trailing blanks and NULs removed.
func (r *Reader) ReadString() (string, error) {
	p, err := r.payload()
	if err != nil {
		return "", err
	}
	end := len(p)
	for end > 0 && (p[end-1] == ' ' || p[end-1] == 0) {
		end--
	}
	return string(p[:end]), nil
}

// Skip advances past n records without decoding them.
func (r *Reader) Skip(n int) error {
	for i := 0; i < n; i++ {
		l, err := r.readMarker(r.pos)
		if err != nil {
			return errors.Wrapf(err, "skipping record %d of %d", i+1, n)
		}
		r.pos += RecordSize(l)
	}
	return nil
}
