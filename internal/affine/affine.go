// Package affine provides the uniqued representation of affine maps: immutable
// multi-dimensional functions from dimension and symbol identifiers to affine
// expressions, e.g. (d0, d1) -> (d0 floordiv 128, d0 mod 128, d1).
//
// All values are hash-consed by a Context. Two construction requests with the
// same structure always return the same handle, so consumers compare maps and
// expressions with == and never need structural equality. Handles are
// non-owning; the Context owns every value it hands out and keeps it alive for
// its whole lifetime.
//
// Construction is expected to happen on one goroutine per Context. The
// lookup-or-insert step is nevertheless guarded by a single mutex, so builders
// may intern from multiple goroutines. Once no goroutine is constructing,
// handles and accessors are safe for unlocked concurrent reads.
package affine

// exprID indexes the expression arena of a Context. Index 0 is reserved.
type exprID uint32

// noExprID marks the absence of an expression.
const noExprID exprID = 0

// mapID indexes the map arena of a Context. Index 0 is reserved.
type mapID uint32

// noMapID marks the absence of a map.
const noMapID mapID = 0
