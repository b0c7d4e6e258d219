package affine

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Print writes the canonical textual form of the map to w:
//
//	(d0, d1)[s0] -> (d0 floordiv 128, d0 mod 128, s0)
//
// The symbol list is omitted when the map declares no symbols. Equal maps
// always print identically; the output parses back to the same map.
func (m Map) Print(w io.Writer) {
	n := m.node()
	io.WriteString(w, "(")
	for i := uint32(0); i < n.numDims; i++ {
		if i > 0 {
			io.WriteString(w, ", ")
		}
		fmt.Fprintf(w, "d%d", i)
	}
	io.WriteString(w, ")")
	if n.numSymbols > 0 {
		io.WriteString(w, "[")
		for i := uint32(0); i < n.numSymbols; i++ {
			if i > 0 {
				io.WriteString(w, ", ")
			}
			fmt.Fprintf(w, "s%d", i)
		}
		io.WriteString(w, "]")
	}
	io.WriteString(w, " -> (")
	for i, id := range n.results {
		if i > 0 {
			io.WriteString(w, ", ")
		}
		writeExpr(w, m.ctx, id)
	}
	io.WriteString(w, ")")
}

// Dump prints the map to standard error with a trailing newline.
func (m Map) Dump() {
	m.Print(os.Stderr)
	fmt.Fprintln(os.Stderr)
}

// String returns the canonical textual form of the map.
func (m Map) String() string {
	var sb strings.Builder
	m.Print(&sb)
	return sb.String()
}

// Print writes the textual form of the expression to w.
func (e Expr) Print(w io.Writer) {
	if !e.IsValid() {
		panic("affine: Print on invalid expression")
	}
	writeExpr(w, e.ctx, e.id)
}

// String returns the textual form of the expression, e.g. "d0 + s0 * 8".
func (e Expr) String() string {
	var sb strings.Builder
	e.Print(&sb)
	return sb.String()
}

// binaryOp returns the infix spelling of a binary kind.
func binaryOp(k ExprKind) string {
	switch k {
	case ExprAdd:
		return " + "
	case ExprMul:
		return " * "
	case ExprMod:
		return " mod "
	case ExprFloorDiv:
		return " floordiv "
	case ExprCeilDiv:
		return " ceildiv "
	default:
		panic("affine: binaryOp on " + k.String())
	}
}

func writeExpr(w io.Writer, c *Context, id exprID) {
	n := c.exprs[id]
	switch n.kind {
	case ExprConstant:
		fmt.Fprintf(w, "%d", n.val)
	case ExprDim:
		fmt.Fprintf(w, "d%d", n.val)
	case ExprSymbol:
		fmt.Fprintf(w, "s%d", n.val)
	case ExprAdd:
		// Sums reassociate to the left when reparsed, so only a sum in the
		// right operand needs parentheses to survive a round trip.
		writeExpr(w, c, n.lhs)
		io.WriteString(w, binaryOp(n.kind))
		if c.exprs[n.rhs].kind == ExprAdd {
			io.WriteString(w, "(")
			writeExpr(w, c, n.rhs)
			io.WriteString(w, ")")
		} else {
			writeExpr(w, c, n.rhs)
		}
	case ExprMul, ExprMod, ExprFloorDiv, ExprCeilDiv:
		writeOperand(w, c, n.lhs)
		io.WriteString(w, binaryOp(n.kind))
		writeOperand(w, c, n.rhs)
	default:
		panic("affine: print of " + n.kind.String() + " expression")
	}
}

// writeOperand renders one operand of a multiplicative-tier expression,
// parenthesized when the operand is itself binary.
func writeOperand(w io.Writer, c *Context, id exprID) {
	if c.exprs[id].kind.IsBinary() {
		io.WriteString(w, "(")
		writeExpr(w, c, id)
		io.WriteString(w, ")")
		return
	}
	writeExpr(w, c, id)
}
