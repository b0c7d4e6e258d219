package ir

import (
	"fmt"

	"loom/internal/affine"
)

// InstrKind enumerates instruction kinds.
type InstrKind uint8

const (
	// InstrConstant materializes an integer literal.
	InstrConstant InstrKind = iota
	// InstrApply evaluates an affine map over dim and symbol operands.
	InstrApply
)

func (k InstrKind) String() string {
	switch k {
	case InstrConstant:
		return "constant"
	case InstrApply:
		return "apply"
	default:
		return fmt.Sprintf("InstrKind(%d)", uint8(k))
	}
}

// Instr is one instruction: a kind plus the payload for that kind.
type Instr struct {
	Kind InstrKind

	Constant ConstantInstr
	Apply    ApplyInstr
}

// ConstantInstr materializes Value as the instruction result.
type ConstantInstr struct {
	Value int64
}

// ApplyInstr evaluates Map over the given operands. Dims feed the map's
// dimension list and Syms its symbol list, so a well-formed instruction has
// len(Dims) == Map.NumDims() and len(Syms) == Map.NumSymbols().
type ApplyInstr struct {
	Map  affine.Map
	Dims []ValueID
	Syms []ValueID
}
