package affine

import "fmt"

// Map is a non-owning handle to an interned affine map. Handles from the same
// Context compare equal with == exactly when they denote the same map. The
// zero Map is invalid.
type Map struct {
	ctx *Context
	id  mapID
}

// IsValid reports whether the handle refers to an interned map.
func (m Map) IsValid() bool { return m.ctx != nil && m.id != noMapID }

// Context returns the owning context, nil for the zero Map.
func (m Map) Context() *Context { return m.ctx }

// NumDims returns the declared dimension count.
func (m Map) NumDims() int { return int(m.node().numDims) }

// NumSymbols returns the declared symbol count.
func (m Map) NumSymbols() int { return int(m.node().numSymbols) }

// NumResults returns the number of result expressions.
func (m Map) NumResults() int { return len(m.node().results) }

// Result returns result expression i.
func (m Map) Result(i int) Expr {
	n := m.node()
	if i < 0 || i >= len(n.results) {
		panic(fmt.Sprintf("affine: result index %d out of range [0, %d)", i, len(n.results)))
	}
	return Expr{ctx: m.ctx, id: n.results[i]}
}

// Results returns the result expressions in order. The slice is fresh on
// every call and may be retained or mutated by the caller.
func (m Map) Results() []Expr {
	n := m.node()
	out := make([]Expr, len(n.results))
	for i, id := range n.results {
		out[i] = Expr{ctx: m.ctx, id: id}
	}
	return out
}

func (m Map) node() mapNode {
	if !m.IsValid() {
		panic("affine: use of invalid map")
	}
	return m.ctx.maps[m.id]
}
