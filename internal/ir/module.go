// Package ir carries the module layer of the IR: functions made of
// straight-line instructions plus the affine maps those instructions apply.
// A Module is the unit handed between pipeline phases.
//
// Modules are built on one goroutine, verified, then shared read-only. Each
// module keeps a non-owning back-reference to the affine.Context that
// interned its maps; the context must outlive every module built against it.
package ir

import (
	"fmt"

	"loom/internal/affine"
)

// Module aggregates functions and the affine maps they reference. The zero
// value is not usable; construct with NewModule. Modules are passed by
// pointer and never copied.
type Module struct {
	ctx  *affine.Context
	name string

	funcs []*Func

	maps   []affine.Map
	mapSet map[affine.Map]struct{}
}

// NewModule creates an empty module whose maps are interned by ctx.
func NewModule(ctx *affine.Context, name string) *Module {
	if ctx == nil {
		panic("ir: NewModule with nil context")
	}
	return &Module{
		ctx:    ctx,
		name:   name,
		mapSet: make(map[affine.Map]struct{}),
	}
}

// Context returns the uniquing context this module was built against.
func (m *Module) Context() *affine.Context { return m.ctx }

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// AppendFunc appends f to the module. The module takes ownership; the caller
// must not append f to another module.
func (m *Module) AppendFunc(f *Func) {
	if f == nil {
		panic("ir: AppendFunc with nil function")
	}
	m.funcs = append(m.funcs, f)
}

// Funcs returns the functions in insertion order. The slice is fresh on
// every call; the functions themselves are shared.
func (m *Module) Funcs() []*Func {
	out := make([]*Func, len(m.funcs))
	copy(out, m.funcs)
	return out
}

// NoteMap records mp in the module map list. Recording is idempotent and
// preserves first-recorded order. Agreement between the list and the maps
// actually applied by instructions is checked by Verify, not here.
func (m *Module) NoteMap(mp affine.Map) {
	if !mp.IsValid() {
		panic("ir: NoteMap with invalid map")
	}
	if _, ok := m.mapSet[mp]; ok {
		return
	}
	m.mapSet[mp] = struct{}{}
	m.maps = append(m.maps, mp)
}

// Maps returns the recorded maps in first-recorded order. The slice is fresh
// on every call.
func (m *Module) Maps() []affine.Map {
	out := make([]affine.Map, len(m.maps))
	copy(out, m.maps)
	return out
}

// noted reports whether mp has been recorded in the map list.
func (m *Module) noted(mp affine.Map) bool {
	_, ok := m.mapSet[mp]
	return ok
}

func (m *Module) String() string {
	return fmt.Sprintf("module @%s (%d funcs, %d maps)", m.name, len(m.funcs), len(m.maps))
}
