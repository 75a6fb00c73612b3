// Package header parses the metadata that precedes and accompanies the
// per-domain files of a RAMSES snapshot.
//
// A snapshot directory output_NNNNN holds, per compute domain CCCCC:
//
//   - amr_NNNNN.outCCCCC: an AMR header followed by the grid topology
//   - hydro_NNNNN.outCCCCC: a hydro header followed by per-level field blocks
//
// plus shared text files:
//
//   - info_NNNNN.txt: "key = value" run parameters, see [ReadInfo]
//   - hydro_file_descriptor.txt: the on-disk order of hydro variables,
//     see [ReadDescriptor]
//
// # AMR header
//
// [ReadAMR] consumes every header record so that on return the reader is
// positioned at the first topology block. The grid count table is exposed
// as [AMR.NumBL] indexed [level][domain], and boundary counts as
// [AMR.NumBB] indexed [level][boundary].
//
// # Hydro header
//
// [ReadHydro] consumes the six hydro header records. [Hydro.Check] verifies
// the hydro file agrees with its AMR file on the shared dimensions.
//
// # Errors
//
//   - [ErrInvalidHeader]: a header value is out of range
//   - [ErrMismatch]: AMR and hydro headers disagree
//   - [ErrDescriptor]: the field descriptor cannot be parsed
package header
