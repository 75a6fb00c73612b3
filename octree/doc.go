// Package octree implements the spatial index that AMR grids are loaded into.
//
// A [Container] covers a rectangular domain split into a root mesh of
// equally sized octs. Each oct holds 2^ndim cells; a cell is either a leaf
// or refined by a child oct one level deeper.
//
// Grids are registered in batches with [Container.Add], one batch per
// (domain, level) block of the file they came from. The position of a grid
// within its batch is its file index: the row at which that grid's cells
// appear in the matching field block.
//
// # Reading field data
//
// [Container.Select] walks the leaf cells of selected domains and returns a
// [Selection] of per-cell level, cell index, file index and domain.
// [Container.FillLevel] and [Container.FillLevelWithDomain] then copy one
// level's values from borrowed [Block] views into destination slices laid
// out in selection order.
//
// # Concurrency
//
// A Container may be shared between goroutines. Add takes an exclusive lock;
// Select takes a shared lock. Fill methods touch only their arguments, so
// concurrent fills into disjoint destinations are safe.
package octree
