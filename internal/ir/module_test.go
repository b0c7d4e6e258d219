package ir

import (
	"testing"

	"loom/internal/affine"
)

func wantPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected panic", name)
		}
	}()
	fn()
}

func TestModuleOrdering(t *testing.T) {
	ctx := affine.NewContext()
	m := NewModule(ctx, "order")

	if m.Context() != ctx {
		t.Fatalf("Context() = %p, want %p", m.Context(), ctx)
	}
	if m.Name() != "order" {
		t.Fatalf("Name() = %q", m.Name())
	}

	fa := &Func{Name: "a"}
	fb := &Func{Name: "b"}
	m.AppendFunc(fa)
	m.AppendFunc(fb)
	funcs := m.Funcs()
	if len(funcs) != 2 || funcs[0] != fa || funcs[1] != fb {
		t.Fatalf("Funcs() out of insertion order: %v", funcs)
	}

	m1 := ctx.MakeMap(1, 0, []affine.Expr{ctx.Dim(0)})
	m2 := ctx.MakeMap(1, 0, []affine.Expr{ctx.Constant(0)})
	m.NoteMap(m1)
	m.NoteMap(m2)
	m.NoteMap(m1) // idempotent
	maps := m.Maps()
	if len(maps) != 2 || maps[0] != m1 || maps[1] != m2 {
		t.Fatalf("Maps() = %v, want [%v %v]", maps, m1, m2)
	}

	wantPanic(t, "nil func", func() { m.AppendFunc(nil) })
	wantPanic(t, "invalid map", func() { m.NoteMap(affine.Map{}) })
	wantPanic(t, "nil context", func() { NewModule(nil, "x") })
}

func TestBuilder(t *testing.T) {
	ctx := affine.NewContext()
	m := NewModule(ctx, "built")
	b := NewBuilder(m)

	f := b.Func("tile", 2)
	if got := b.Param(1); got != 1 {
		t.Fatalf("Param(1) = %d", got)
	}
	c := b.Constant(128)
	if c != 2 {
		t.Fatalf("first instruction result = %d, want 2", c)
	}

	mp := tileMap(ctx)
	v := b.Apply(mp, []ValueID{0, 1}, []ValueID{c})
	if v != 3 {
		t.Fatalf("apply result = %d, want 3", v)
	}
	if f.NumValues() != 4 {
		t.Fatalf("NumValues = %d, want 4", f.NumValues())
	}

	// Apply recorded the map, once.
	maps := m.Maps()
	if len(maps) != 1 || maps[0] != mp {
		t.Fatalf("Maps() = %v, want the applied map only", maps)
	}
	b.Apply(mp, []ValueID{0, 1}, []ValueID{c})
	if len(m.Maps()) != 1 {
		t.Fatalf("second apply duplicated the map record")
	}

	if err := m.verify(); err != nil {
		t.Fatalf("builder output fails verify: %v", err)
	}
}

func TestBuilderContracts(t *testing.T) {
	ctx := affine.NewContext()
	m := NewModule(ctx, "m")
	b := NewBuilder(m)

	wantPanic(t, "constant before func", func() { b.Constant(1) })
	wantPanic(t, "apply before func", func() { b.Apply(tileMap(ctx), nil, nil) })

	b.Func("f", 1)
	wantPanic(t, "param out of range", func() { b.Param(1) })
	wantPanic(t, "negative params", func() { b.Func("g", -1) })
	wantPanic(t, "invalid map", func() { b.Apply(affine.Map{}, nil, nil) })

	mp := tileMap(ctx)
	wantPanic(t, "dim arity", func() { b.Apply(mp, []ValueID{0}, []ValueID{0}) })
	wantPanic(t, "sym arity", func() { b.Apply(mp, []ValueID{0, 0}, nil) })
	wantPanic(t, "undefined operand", func() { b.Apply(mp, []ValueID{0, 9}, []ValueID{0}) })
}

func TestBuilderOperandsCopied(t *testing.T) {
	ctx := affine.NewContext()
	m := NewModule(ctx, "m")
	b := NewBuilder(m)
	f := b.Func("f", 2)

	dims := []ValueID{0, 1}
	b.Apply(tileMap(ctx), dims, []ValueID{0})
	dims[0] = 99
	if f.Instrs[0].Apply.Dims[0] != 0 {
		t.Fatalf("builder aliased the caller's operand slice")
	}
}
