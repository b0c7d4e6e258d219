package ir

// ValueID numbers the values of one function. Parameters come first, then
// one result per instruction in order, so instruction i defines value
// NumParams+i.
type ValueID uint32

// Func is one function body: a parameter count and straight-line
// instructions over numbered values. The struct is open so that passes and
// tests can assemble bodies directly; Module.Verify checks the invariants
// the Builder maintains by construction.
type Func struct {
	Name      string
	NumParams int
	Instrs    []Instr
}

// NumValues returns the value numbering horizon: parameters plus one result
// per instruction.
func (f *Func) NumValues() int { return f.NumParams + len(f.Instrs) }

// Result returns the value defined by instruction i.
func (f *Func) Result(i int) ValueID { return ValueID(f.NumParams + i) }
