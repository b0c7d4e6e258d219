package ir

import (
	"fmt"
	"io"
	"os"
)

// Print writes the canonical textual form of the module to w: the module
// header, every function in insertion order, then the recorded maps in
// first-recorded order. Equal modules always print identically.
func (m *Module) Print(w io.Writer) {
	fmt.Fprintf(w, "module @%s\n", m.name)

	for _, f := range m.funcs {
		printFunc(w, f)
	}

	if len(m.maps) > 0 {
		fmt.Fprintln(w)
		for _, mp := range m.maps {
			io.WriteString(w, "map ")
			mp.Print(w)
			fmt.Fprintln(w)
		}
	}
}

// Dump prints the module to standard error.
func (m *Module) Dump() {
	m.Print(os.Stderr)
}

func printFunc(w io.Writer, f *Func) {
	fmt.Fprintf(w, "\nfunc @%s(", f.Name)
	for i := 0; i < f.NumParams; i++ {
		if i > 0 {
			io.WriteString(w, ", ")
		}
		fmt.Fprintf(w, "%%%d", i)
	}
	io.WriteString(w, ") {\n")
	for i := range f.Instrs {
		printInstr(w, f, i)
	}
	io.WriteString(w, "}\n")
}

func printInstr(w io.Writer, f *Func, i int) {
	in := &f.Instrs[i]
	fmt.Fprintf(w, "  %%%d = ", f.Result(i))
	switch in.Kind {
	case InstrConstant:
		fmt.Fprintf(w, "constant %d", in.Constant.Value)
	case InstrApply:
		io.WriteString(w, "apply ")
		in.Apply.Map.Print(w)
		printOperands(w, in.Apply.Dims, "(", ")")
		if len(in.Apply.Syms) > 0 {
			printOperands(w, in.Apply.Syms, "[", "]")
		}
	default:
		io.WriteString(w, in.Kind.String())
	}
	fmt.Fprintln(w)
}

func printOperands(w io.Writer, vals []ValueID, left, right string) {
	io.WriteString(w, left)
	for i, v := range vals {
		if i > 0 {
			io.WriteString(w, ", ")
		}
		fmt.Fprintf(w, "%%%d", v)
	}
	io.WriteString(w, right)
}
