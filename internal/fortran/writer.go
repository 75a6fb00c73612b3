package fortran

import (
	"encoding/binary"
	"io"
	"math"
)

// Writer writes framed records to an io.Writer.
type Writer struct {
	w     io.Writer
	order binary.ByteOrder
	n     int64
}

// NewWriter creates a record writer with the given configuration.
func NewWriter(w io.Writer, cfg Config) *Writer {
	order := cfg.ByteOrder
	if order == nil {
		order = binary.LittleEndian
	}
	return &Writer{w: w, order: order}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int64 {
	return w.n
}

func (w *Writer) write(p []byte) error {
	n, err := w.w.Write(p)
	w.n += int64(n)
	return err
}

// WriteRecord writes payload framed by its length markers.
func (w *Writer) WriteRecord(payload []byte) error {
	var marker [MarkerSize]byte
	w.order.PutUint32(marker[:], uint32(len(payload)))
	if err := w.write(marker[:]); err != nil {
		return err
	}
	if err := w.write(payload); err != nil {
		return err
	}
	return w.write(marker[:])
}

// WriteInts writes one record of 4-byte integers.
func (w *Writer) WriteInts(vs ...int32) error {
	buf := make([]byte, 4*len(vs))
	for i, v := range vs {
		w.order.PutUint32(buf[4*i:], uint32(v))
	}
	return w.WriteRecord(buf)
}

// WriteInt writes a record holding a single 4-byte integer.
func (w *Writer) WriteInt(v int) error {
	return w.WriteInts(int32(v))
}

// WriteFloat64s writes one record of float64 values.
func (w *Writer) WriteFloat64s(vs ...float64) error {
	buf := make([]byte, 8*len(vs))
	for i, v := range vs {
		w.order.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return w.WriteRecord(buf)
}

// WriteString writes s as a character record blank-padded to width bytes.
// Longer strings are truncated.
func (w *Writer) WriteString(s string, width int) error {
	buf := make([]byte, width)
	n := copy(buf, s)
	for i := n; i < width; i++ {
		buf[i] = ' '
	}
	return w.WriteRecord(buf)
}
