package ir

import "fmt"

// VerifyError describes the first invariant violation found in a module.
// Func is empty for module-level violations.
type VerifyError struct {
	Module string
	Func   string
	Instr  int
	Msg    string
}

func (e *VerifyError) Error() string {
	if e.Func == "" {
		return fmt.Sprintf("ir: module @%s: %s", e.Module, e.Msg)
	}
	return fmt.Sprintf("ir: module @%s: func @%s: instr %d: %s", e.Module, e.Func, e.Instr, e.Msg)
}

// Verify checks the module invariants and panics with a *VerifyError on the
// first violation found. A malformed module means the construction code is
// broken, and no later phase is prepared to run on top of it. On success it
// returns normally and the module is safe to share read-only.
func (m *Module) Verify() {
	if err := m.verify(); err != nil {
		panic(err)
	}
}

// verify walks funcs in insertion order and instructions in body order and
// reports the first violation, nil when the module is well formed.
func (m *Module) verify() *VerifyError {
	for i, mp := range m.maps {
		if mp.Context() != m.ctx {
			return &VerifyError{
				Module: m.name,
				Msg:    fmt.Sprintf("recorded map %d is owned by another context", i),
			}
		}
	}
	for _, f := range m.funcs {
		if err := m.verifyFunc(f); err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) verifyFunc(f *Func) *VerifyError {
	fail := func(instr int, format string, args ...any) *VerifyError {
		return &VerifyError{
			Module: m.name,
			Func:   f.Name,
			Instr:  instr,
			Msg:    fmt.Sprintf(format, args...),
		}
	}

	if f.NumParams < 0 {
		return &VerifyError{
			Module: m.name,
			Msg:    fmt.Sprintf("func @%s has negative parameter count %d", f.Name, f.NumParams),
		}
	}

	for i := range f.Instrs {
		in := &f.Instrs[i]
		switch in.Kind {
		case InstrConstant:
			// No operands to check.
		case InstrApply:
			if err := m.verifyApply(f, i, &in.Apply, fail); err != nil {
				return err
			}
		default:
			return fail(i, "unknown instruction kind %s", in.Kind)
		}
	}
	return nil
}

func (m *Module) verifyApply(f *Func, i int, ap *ApplyInstr, fail func(int, string, ...any) *VerifyError) *VerifyError {
	if !ap.Map.IsValid() {
		return fail(i, "apply of an invalid map")
	}
	if ap.Map.Context() != m.ctx {
		return fail(i, "apply of a map owned by another context")
	}
	if !m.noted(ap.Map) {
		return fail(i, "applied map %s is not recorded in the module map list", ap.Map)
	}
	if got, want := len(ap.Dims), ap.Map.NumDims(); got != want {
		return fail(i, "apply passes %d dim operands, map wants %d", got, want)
	}
	if got, want := len(ap.Syms), ap.Map.NumSymbols(); got != want {
		return fail(i, "apply passes %d symbol operands, map wants %d", got, want)
	}

	// Straight-line numbering: instruction i may only read parameters and
	// results of instructions before it.
	horizon := ValueID(f.NumParams + i)
	for _, v := range ap.Dims {
		if v >= horizon {
			return fail(i, "dim operand %%%d is not defined before this instruction", v)
		}
	}
	for _, v := range ap.Syms {
		if v >= horizon {
			return fail(i, "symbol operand %%%d is not defined before this instruction", v)
		}
	}
	return nil
}
