package fortran

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf, DefaultConfig())
	require.NoError(t, w.WriteInt(3))
	require.NoError(t, w.WriteFloat64s(1, 2, 3))
	return buf.Bytes()
}

func checkSample(t *testing.T, path string) {
	t.Helper()
	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := NewReader(f, DefaultConfig())
	assert.Equal(t, path, r.Name())
	n, err := r.ReadInt()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	vs, err := r.ReadFloat64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, vs)
	assert.Equal(t, f.Size(), r.Tell())
}

func TestOpenPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "amr_00001.out00001")
	require.NoError(t, os.WriteFile(path, sampleRecords(t), 0o644))
	checkSample(t, path)
}

func TestOpenGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hydro_00001.out00001.gz")
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(sampleRecords(t))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	checkSample(t, path)
}

func TestOpenZstd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hydro_00001.out00001.zst")
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	data := enc.EncodeAll(sampleRecords(t), nil)
	require.NoError(t, enc.Close())
	require.NoError(t, os.WriteFile(path, data, 0o644))
	checkSample(t, path)
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "amr_00001.out00001")

	_, err := Resolve(plain)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, os.WriteFile(plain+".gz", nil, 0o644))
	got, err := Resolve(plain)
	require.NoError(t, err)
	assert.Equal(t, plain+".gz", got)

	require.NoError(t, os.WriteFile(plain, nil, 0o644))
	got, err = Resolve(plain)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}
