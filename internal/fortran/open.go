package fortran

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// compressedSuffixes lists the archive suffixes Resolve looks for, in order.
var compressedSuffixes = []string{".zst", ".gz"}

// File is a random-access view of a record file on disk.
type File struct {
	name string
	f    *os.File
	mem  *bytes.Reader
	size int64
}

// Open opens path for reading. Compressed files are inflated into memory.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}

	var dec io.Reader
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "%s: reading gzip header", path)
		}
		defer zr.Close()
		dec = zr
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "%s: creating zstd decoder", path)
		}
		defer zr.Close()
		dec = zr
	default:
		st, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, errors.Wrap(err, "stat file")
		}
		return &File{name: path, f: f, size: st.Size()}, nil
	}

	data, err := io.ReadAll(dec)
	f.Close()
	if err != nil {
		return nil, errors.Wrapf(err, "%s: decompressing", path)
	}
	return &File{name: path, mem: bytes.NewReader(data), size: int64(len(data))}, nil
}

// Resolve returns path if it exists, otherwise the first compressed sibling
// (path.zst, path.gz) that does.
func Resolve(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	for _, suffix := range compressedSuffixes {
		if _, err := os.Stat(path + suffix); err == nil {
			return path + suffix, nil
		}
	}
	return "", errors.Wrapf(os.ErrNotExist, "%s", path)
}

// ReadAt implements io.ReaderAt.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if f.mem != nil {
		return f.mem.ReadAt(p, off)
	}
	return f.f.ReadAt(p, off)
}

// Size returns the (decompressed) size in bytes.
func (f *File) Size() int64 {
	return f.size
}

// Name returns the path the file was opened with.
func (f *File) Name() string {
	return f.name
}

// Close releases the file handle. It is a no-op for in-memory files.
func (f *File) Close() error {
	if f.f == nil {
		return nil
	}
	err := f.f.Close()
	f.f = nil
	return err
}
