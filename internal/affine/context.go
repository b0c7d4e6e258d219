package affine

import (
	"encoding/binary"
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// Context is the uniquing authority for affine expressions and maps. It owns
// the storage of every value it interns; handles returned from its methods
// stay valid for the Context's whole lifetime and are never invalidated.
//
// Interned entries are never evicted. A compilation that is done with its
// maps drops the whole Context instead of freeing individual values.
type Context struct {
	mu sync.Mutex

	exprs     []exprNode // arena; exprs[0] reserved as invalid sentinel
	exprIndex map[exprKey]exprID

	maps     []mapNode // arena; maps[0] reserved as invalid sentinel
	mapIndex map[string]mapID

	mapHits uint64
}

// exprNode is the arena representation of one expression.
// val holds the constant value for ExprConstant and the position for
// ExprDim/ExprSymbol; lhs/rhs are set for the binary kinds only.
type exprNode struct {
	kind ExprKind
	val  int64
	lhs  exprID
	rhs  exprID
}

// exprKey is the structural signature used to dedup expressions.
type exprKey struct {
	kind ExprKind
	val  int64
	lhs  exprID
	rhs  exprID
}

// mapNode is the arena representation of one affine map.
type mapNode struct {
	numDims    uint32
	numSymbols uint32
	results    []exprID
}

// Stats reports interner counters for one Context.
type Stats struct {
	// Exprs is the number of distinct expressions interned.
	Exprs int
	// Maps is the number of distinct affine maps interned.
	Maps int
	// MapHits counts map requests answered from the dedup table.
	MapHits uint64
}

// NewContext creates an empty uniquing context.
func NewContext() *Context {
	return &Context{
		exprs:     make([]exprNode, 1, 64),
		exprIndex: make(map[exprKey]exprID, 64),
		maps:      make([]mapNode, 1, 16),
		mapIndex:  make(map[string]mapID, 16),
	}
}

// Stats returns the current interner counters.
func (c *Context) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Exprs:   len(c.exprs) - 1,
		Maps:    len(c.maps) - 1,
		MapHits: c.mapHits,
	}
}

// Constant returns the interned constant expression with the given value.
func (c *Context) Constant(v int64) Expr {
	return c.intern(exprKey{kind: ExprConstant, val: v})
}

// Dim returns the interned dimension reference d<pos>.
// Negative positions are a construction bug and panic.
func (c *Context) Dim(pos int) Expr {
	if pos < 0 {
		panic(fmt.Sprintf("affine: negative dim position %d", pos))
	}
	return c.intern(exprKey{kind: ExprDim, val: int64(pos)})
}

// Symbol returns the interned symbol reference s<pos>.
// Negative positions are a construction bug and panic.
func (c *Context) Symbol(pos int) Expr {
	if pos < 0 {
		panic(fmt.Sprintf("affine: negative symbol position %d", pos))
	}
	return c.intern(exprKey{kind: ExprSymbol, val: int64(pos)})
}

// Add returns the interned sum lhs + rhs.
func (c *Context) Add(lhs, rhs Expr) Expr { return c.binary(ExprAdd, lhs, rhs) }

// Mul returns the interned product lhs * rhs.
func (c *Context) Mul(lhs, rhs Expr) Expr { return c.binary(ExprMul, lhs, rhs) }

// Mod returns the interned remainder lhs mod rhs.
func (c *Context) Mod(lhs, rhs Expr) Expr { return c.binary(ExprMod, lhs, rhs) }

// FloorDiv returns the interned floor division lhs floordiv rhs.
func (c *Context) FloorDiv(lhs, rhs Expr) Expr { return c.binary(ExprFloorDiv, lhs, rhs) }

// CeilDiv returns the interned ceiling division lhs ceildiv rhs.
func (c *Context) CeilDiv(lhs, rhs Expr) Expr { return c.binary(ExprCeilDiv, lhs, rhs) }

func (c *Context) binary(kind ExprKind, lhs, rhs Expr) Expr {
	return c.intern(exprKey{
		kind: kind,
		lhs:  c.operand(lhs, kind.String()),
		rhs:  c.operand(rhs, kind.String()),
	})
}

// operand checks that e is a usable operand owned by this context.
func (c *Context) operand(e Expr, op string) exprID {
	if !e.IsValid() {
		panic("affine: " + op + " built from an invalid expression")
	}
	if e.ctx != c {
		panic("affine: " + op + " built from an expression owned by another context")
	}
	return e.id
}

// intern performs the atomic lookup-or-insert for an expression signature.
func (c *Context) intern(key exprKey) Expr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.exprIndex[key]; ok {
		return Expr{ctx: c, id: id}
	}
	raw, err := safecast.Conv[uint32](len(c.exprs))
	if err != nil {
		panic(fmt.Errorf("affine: expression arena overflow: %w", err))
	}
	id := exprID(raw)
	c.exprs = append(c.exprs, exprNode{kind: key.kind, val: key.val, lhs: key.lhs, rhs: key.rhs})
	c.exprIndex[key] = id
	return Expr{ctx: c, id: id}
}

// MakeMap returns the canonical affine map with the given dimension count,
// symbol count and result expressions. Requests with equal structure always
// return the same handle; MakeMap(0, 0, nil) yields the unique empty map.
//
// Every result must be owned by this context and may reference only dim
// positions below numDims and symbol positions below numSymbols. Violations
// indicate malformed IR construction and panic.
func (c *Context) MakeMap(numDims, numSymbols int, results []Expr) Map {
	nd, err := safecast.Conv[uint32](numDims)
	if err != nil {
		panic(fmt.Sprintf("affine: invalid dim count %d", numDims))
	}
	ns, err := safecast.Conv[uint32](numSymbols)
	if err != nil {
		panic(fmt.Sprintf("affine: invalid symbol count %d", numSymbols))
	}

	ids := make([]exprID, len(results))
	for i, r := range results {
		if !r.IsValid() {
			panic(fmt.Sprintf("affine: map result %d is an invalid expression", i))
		}
		if r.ctx != c {
			panic(fmt.Sprintf("affine: map result %d is owned by another context", i))
		}
		ids[i] = r.id
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, id := range ids {
		c.checkBounds(id, nd, ns, i)
	}

	key := mapKey(nd, ns, ids)
	if id, ok := c.mapIndex[key]; ok {
		c.mapHits++
		return Map{ctx: c, id: id}
	}
	raw, err := safecast.Conv[uint32](len(c.maps))
	if err != nil {
		panic(fmt.Errorf("affine: map arena overflow: %w", err))
	}
	id := mapID(raw)
	c.maps = append(c.maps, mapNode{numDims: nd, numSymbols: ns, results: ids})
	c.mapIndex[key] = id
	return Map{ctx: c, id: id}
}

// checkBounds walks one result expression and panics when it references a dim
// or symbol position outside the declared counts. Caller holds c.mu.
func (c *Context) checkBounds(id exprID, numDims, numSymbols uint32, result int) {
	n := c.exprs[id]
	switch n.kind {
	case ExprDim:
		if n.val >= int64(numDims) {
			panic(fmt.Sprintf("affine: map result %d references d%d with only %d dims", result, n.val, numDims))
		}
	case ExprSymbol:
		if n.val >= int64(numSymbols) {
			panic(fmt.Sprintf("affine: map result %d references s%d with only %d symbols", result, n.val, numSymbols))
		}
	case ExprAdd, ExprMul, ExprMod, ExprFloorDiv, ExprCeilDiv:
		c.checkBounds(n.lhs, numDims, numSymbols, result)
		c.checkBounds(n.rhs, numDims, numSymbols, result)
	}
}

// mapKey encodes the structural signature of a map request. The uvarint
// stream is prefix-free, so equal keys imply equal structure and vice versa.
func mapKey(numDims, numSymbols uint32, results []exprID) string {
	buf := make([]byte, 0, 8+len(results)*4)
	buf = binary.AppendUvarint(buf, uint64(numDims))
	buf = binary.AppendUvarint(buf, uint64(numSymbols))
	buf = binary.AppendUvarint(buf, uint64(len(results)))
	for _, id := range results {
		buf = binary.AppendUvarint(buf, uint64(id))
	}
	return string(buf)
}
