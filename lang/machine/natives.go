package machine

import (
	"time"

	"github.com/mna/loxvm/lang/value"
)

// registerNatives installs the host-provided native functions into t's
// globals before any program runs (spec §6, "reserved built-in ... a
// clock").
func registerNatives(t *Thread) {
	t.defineNative("clock", 0, nativeClock)
}

func (t *Thread) defineNative(name string, arity int, fn value.NativeFn) {
	n := t.Heap.NewNative(name, arity, fn)
	t.Globals.Define(t.Heap.Intern(name), n)
}

func nativeClock(_ []value.Value) (value.Value, error) {
	return value.Number(float64(time.Now().UnixNano()) / float64(time.Second)), nil
}
