package ir

import (
	"fmt"

	"loom/internal/affine"
)

// Builder appends functions and instructions to a module and keeps the
// module's map list in sync with the maps it applies. Instructions built this
// way satisfy the shape invariants Verify checks; assembling Func structs by
// hand is how tests produce modules that fail it.
type Builder struct {
	module *Module
	fn     *Func
}

// NewBuilder returns a builder appending to m.
func NewBuilder(m *Module) *Builder {
	if m == nil {
		panic("ir: NewBuilder with nil module")
	}
	return &Builder{module: m}
}

// Func starts a new function with the given name and parameter count,
// appends it to the module and makes it the target of subsequent
// instructions.
func (b *Builder) Func(name string, numParams int) *Func {
	if numParams < 0 {
		panic(fmt.Sprintf("ir: negative parameter count %d", numParams))
	}
	f := &Func{Name: name, NumParams: numParams}
	b.module.AppendFunc(f)
	b.fn = f
	return f
}

// Param returns the value of parameter i of the current function.
func (b *Builder) Param(i int) ValueID {
	f := b.current("Param")
	if i < 0 || i >= f.NumParams {
		panic(fmt.Sprintf("ir: parameter index %d out of range [0, %d)", i, f.NumParams))
	}
	return ValueID(i)
}

// Constant appends an integer materialization and returns its result value.
func (b *Builder) Constant(v int64) ValueID {
	f := b.current("Constant")
	f.Instrs = append(f.Instrs, Instr{
		Kind:     InstrConstant,
		Constant: ConstantInstr{Value: v},
	})
	return f.Result(len(f.Instrs) - 1)
}

// Apply appends an application of mp over the given dim and symbol operands,
// records mp in the module map list and returns the result value. Operand
// counts must match the map's signature and every operand must already be
// defined.
func (b *Builder) Apply(mp affine.Map, dims, syms []ValueID) ValueID {
	f := b.current("Apply")
	if !mp.IsValid() {
		panic("ir: Apply with invalid map")
	}
	if len(dims) != mp.NumDims() {
		panic(fmt.Sprintf("ir: Apply passes %d dim operands, map wants %d", len(dims), mp.NumDims()))
	}
	if len(syms) != mp.NumSymbols() {
		panic(fmt.Sprintf("ir: Apply passes %d symbol operands, map wants %d", len(syms), mp.NumSymbols()))
	}
	horizon := ValueID(f.NumValues())
	for _, v := range dims {
		if v >= horizon {
			panic(fmt.Sprintf("ir: Apply dim operand %%%d is not defined yet", v))
		}
	}
	for _, v := range syms {
		if v >= horizon {
			panic(fmt.Sprintf("ir: Apply symbol operand %%%d is not defined yet", v))
		}
	}

	b.module.NoteMap(mp)
	f.Instrs = append(f.Instrs, Instr{
		Kind: InstrApply,
		Apply: ApplyInstr{
			Map:  mp,
			Dims: append([]ValueID(nil), dims...),
			Syms: append([]ValueID(nil), syms...),
		},
	})
	return f.Result(len(f.Instrs) - 1)
}

func (b *Builder) current(op string) *Func {
	if b.fn == nil {
		panic("ir: " + op + " before Func")
	}
	return b.fn
}
