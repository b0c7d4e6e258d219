package affine

import "fmt"

// ExprKind discriminates the expression node kinds.
type ExprKind uint8

const (
	// ExprInvalid is the kind reported by the zero Expr.
	ExprInvalid ExprKind = iota
	// ExprConstant is an integer literal.
	ExprConstant
	// ExprDim is a reference to a map dimension, printed d0, d1, ...
	ExprDim
	// ExprSymbol is a reference to a map symbol, printed s0, s1, ...
	ExprSymbol
	// ExprAdd is a binary sum.
	ExprAdd
	// ExprMul is a binary product.
	ExprMul
	// ExprMod is a binary remainder.
	ExprMod
	// ExprFloorDiv is a binary division rounding toward negative infinity.
	ExprFloorDiv
	// ExprCeilDiv is a binary division rounding toward positive infinity.
	ExprCeilDiv
)

func (k ExprKind) String() string {
	switch k {
	case ExprInvalid:
		return "invalid"
	case ExprConstant:
		return "constant"
	case ExprDim:
		return "dim"
	case ExprSymbol:
		return "symbol"
	case ExprAdd:
		return "add"
	case ExprMul:
		return "mul"
	case ExprMod:
		return "mod"
	case ExprFloorDiv:
		return "floordiv"
	case ExprCeilDiv:
		return "ceildiv"
	default:
		return fmt.Sprintf("ExprKind(%d)", uint8(k))
	}
}

// IsBinary reports whether the kind carries left and right operands.
func (k ExprKind) IsBinary() bool {
	switch k {
	case ExprAdd, ExprMul, ExprMod, ExprFloorDiv, ExprCeilDiv:
		return true
	default:
		return false
	}
}

// Expr is a non-owning handle to an interned affine expression. Handles from
// the same Context compare equal with == exactly when they denote the same
// structure. The zero Expr is invalid.
type Expr struct {
	ctx *Context
	id  exprID
}

// IsValid reports whether the handle refers to an interned expression.
func (e Expr) IsValid() bool { return e.ctx != nil && e.id != noExprID }

// Context returns the owning context, nil for the zero Expr.
func (e Expr) Context() *Context { return e.ctx }

// Kind returns the node kind, ExprInvalid for the zero Expr.
func (e Expr) Kind() ExprKind {
	if !e.IsValid() {
		return ExprInvalid
	}
	return e.node().kind
}

// Value returns the literal of a constant expression.
// It panics on any other kind.
func (e Expr) Value() int64 {
	n := e.node()
	if n.kind != ExprConstant {
		panic("affine: Value on " + n.kind.String() + " expression")
	}
	return n.val
}

// Position returns the index of a dim or symbol reference.
// It panics on any other kind.
func (e Expr) Position() int {
	n := e.node()
	if n.kind != ExprDim && n.kind != ExprSymbol {
		panic("affine: Position on " + n.kind.String() + " expression")
	}
	return int(n.val)
}

// LHS returns the left operand of a binary expression.
// It panics on non-binary kinds.
func (e Expr) LHS() Expr {
	n := e.node()
	if !n.kind.IsBinary() {
		panic("affine: LHS on " + n.kind.String() + " expression")
	}
	return Expr{ctx: e.ctx, id: n.lhs}
}

// RHS returns the right operand of a binary expression.
// It panics on non-binary kinds.
func (e Expr) RHS() Expr {
	n := e.node()
	if !n.kind.IsBinary() {
		panic("affine: RHS on " + n.kind.String() + " expression")
	}
	return Expr{ctx: e.ctx, id: n.rhs}
}

// Walk visits e and every sub-expression in depth-first pre-order,
// left operand before right.
func (e Expr) Walk(visit func(Expr)) {
	if !e.IsValid() {
		panic("affine: Walk on invalid expression")
	}
	visit(e)
	if n := e.node(); n.kind.IsBinary() {
		Expr{ctx: e.ctx, id: n.lhs}.Walk(visit)
		Expr{ctx: e.ctx, id: n.rhs}.Walk(visit)
	}
}

func (e Expr) node() exprNode {
	if !e.IsValid() {
		panic("affine: use of invalid expression")
	}
	return e.ctx.exprs[e.id]
}
