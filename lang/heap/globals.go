package heap

import (
	"github.com/dolthub/swiss"
	"github.com/mna/loxvm/lang/value"
)

// Globals is the VM-wide table of global variable bindings, keyed by
// interned name (spec §3, §4.3 GET_GLOBAL/SET_GLOBAL/DEFINE_GLOBAL). It is
// backed by the same swiss map implementation as the string-intern table,
// since both are long-lived, large, whole-program tables (SPEC_FULL §11).
type Globals struct {
	m *swiss.Map[*value.ObjString, value.Value]
}

// NewGlobals returns an empty globals table.
func NewGlobals() *Globals {
	return &Globals{m: swiss.NewMap[*value.ObjString, value.Value](32)}
}

// Get returns the value bound to name, or (nil, false) if name is undefined.
func (g *Globals) Get(name *value.ObjString) (value.Value, bool) { return g.m.Get(name) }

// Define binds name to v, overwriting any previous binding (spec §4.3,
// DEFINE_GLOBAL: "redefining an existing global is allowed and simply
// replaces the old binding").
func (g *Globals) Define(name *value.ObjString, v value.Value) { g.m.Put(name, v) }

// Set rebinds name to v only if it is already defined, reporting whether it
// was (spec §4.3 SET_GLOBAL: assigning to an undefined global is a runtime
// error).
func (g *Globals) Set(name *value.ObjString, v value.Value) bool {
	if _, ok := g.m.Get(name); !ok {
		return false
	}
	g.m.Put(name, v)
	return true
}

// Delete removes name's binding. The machine itself never removes a global.
func (g *Globals) Delete(name *value.ObjString) { g.m.Delete(name) }

// Mark reports every bound global (key and value) to mark, used by the
// machine's root function during a collection (spec §4.4 phase 1).
func (g *Globals) Mark(mark func(value.Value)) {
	g.m.Iter(func(k *value.ObjString, v value.Value) bool {
		mark(k)
		mark(v)
		return false
	})
}
