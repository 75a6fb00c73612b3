// Package fortran reads and writes Fortran unformatted sequential files.
//
// Every record on disk is framed by two 4-byte length markers that carry the
// payload size in bytes:
//
//	[int32 n][n payload bytes][int32 n]
//
// The framing lets a reader step over a record without decoding it, which is
// what makes selective re-reads of large simulation dumps cheap. A record of
// k float64 values therefore occupies 8*k+8 bytes, see [RecordSize].
//
// # Reading
//
// [Reader] keeps an explicit cursor over an [io.ReaderAt]:
//
//	r := fortran.NewReader(f, fortran.DefaultConfig())
//	ncpu, err := r.ReadInt()
//	xs, err := r.ReadFloat64s()
//	err = r.Skip(3)
//	_, err = r.Seek(fortran.RecordSize(8*n), io.SeekCurrent)
//
// Head and tail markers are compared on every decoded record; a mismatch is
// reported as [ErrMarkerMismatch]. [Reader.Skip] only reads head markers.
//
// # Opening files
//
// [Open] returns a [File] implementing [io.ReaderAt]. Names ending in ".gz"
// or ".zst" are decompressed into memory first, and [Resolve] finds the
// compressed sibling of a missing plain file.
//
// # Writing
//
// [Writer] produces the same framing and is used to build fixtures.
package fortran
