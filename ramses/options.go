package ramses

import (
	"encoding/binary"
	"runtime"

	"github.com/rs/zerolog"
)

// Option configures how a snapshot is opened and read.
type Option func(*options)

type options struct {
	minLevel    int
	byteOrder   binary.ByteOrder
	concurrency int
	fields      []string
	logger      *zerolog.Logger
}

func defaultOptions() *options {
	return &options{
		byteOrder:   binary.LittleEndian,
		concurrency: runtime.GOMAXPROCS(0),
	}
}

// WithMinLevel drops levels above minLevel; they are still parsed but not
// indexed, and level minLevel becomes level 0 of the index.
func WithMinLevel(level int) Option {
	return func(o *options) {
		if level >= 0 {
			o.minLevel = level
		}
	}
}

// WithByteOrder sets the byte order of the record files. Little-endian by default.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(o *options) {
		if order != nil {
			o.byteOrder = order
		}
	}
}

// WithConcurrency bounds the number of domains read at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithFields overrides the field catalogue, for snapshots written without
// a descriptor file. Names must be in on-disk order.
func WithFields(names ...string) Option {
	return func(o *options) {
		o.fields = append([]string(nil), names...)
	}
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &l
	}
}
