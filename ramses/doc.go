// Package ramses reads RAMSES adaptive-mesh-refinement snapshots.
//
// A snapshot is written by a distributed simulation as one pair of files
// per compute domain: an AMR file describing the grid hierarchy and a hydro
// file holding per-cell field values. Reading a domain takes three passes,
// in this order:
//
//  1. [ReadAMR] walks the topology section and registers every grid with a
//     spatial [Index], returning the deepest level that received grids.
//  2. [ReadOffset] walks the hydro data section once without decoding
//     values and records where each (domain, level) block starts.
//  3. [FillHydro] seeks straight to the blocks it needs, decodes only the
//     requested fields and hands them to the index.
//
// The procedures are synchronous and assume exclusive use of their reader.
// Parallelism belongs to the caller: [Snapshot.ReadFields] loads domains
// concurrently, each with its own file handle, offset table and decode
// buffer, sharing nothing but the result map it assembles at the end.
//
// # Usage
//
//	snap, err := ramses.Open("output_00080")
//	if err != nil {
//	    return err
//	}
//	data, err := snap.ReadFields(ctx, []string{"density", "pressure"}, octree.All)
//
// # Errors
//
// Structural faults (a data block declaring the wrong level) are marked with
// [ErrCorruption] and carry a [*LevelMismatchError]. I/O faults are returned
// wrapped and are never retried.
package ramses
