// Package heap implements the allocator, the precise mark-sweep collector,
// and the weak string-intern table described in spec §4.4. It is the single
// owner of every value.Object ever created: the compiler and the machine
// both allocate through it, and never otherwise construct an Object kind
// directly.
package heap

import (
	"github.com/dolthub/swiss"
	"github.com/mna/loxvm/lang/value"
)

const (
	initialNextGC = 1 << 20 // 1 MiB, an arbitrary but generous starting budget
	growFactor    = 2
)

// RootFunc is called during the mark phase to report every Value directly
// reachable from one root source. Implementations call mark once per root
// value; mark is safe to call with nil or an immediate (non-Object) Value.
type RootFunc func(mark func(value.Value))

// Heap owns every heap-allocated Object, the collector that reclaims them,
// and the intern table that canonicalizes strings (spec §4.4).
type Heap struct {
	objects        value.Object
	bytesAllocated uint64
	nextGC         uint64

	strings *swiss.Map[string, *value.ObjString]

	gray  []value.Object
	roots []RootFunc

	// Init is the cached "init" string referenced by spec §3's VM-level
	// state. It is interned once by New and registered there as a permanent
	// root via PushRoot, so it survives collections that run while compiling,
	// before any Thread exists.
	Init *value.ObjString

	// StressGC, when true, makes every single allocation run a collection
	// cycle, a debugging aid used by tests to exercise the collector on
	// small, otherwise-too-short-lived programs (scenario in spec §8 "GC
	// stress").
	StressGC bool
}

// New returns an empty heap ready for use.
func New() *Heap {
	h := &Heap{
		nextGC:  initialNextGC,
		strings: swiss.NewMap[string, *value.ObjString](64),
	}
	h.Init = h.Intern("init")
	h.PushRoot(func(mark func(value.Value)) { mark(h.Init) })
	return h
}

// PushRoot registers an additional source of GC roots, active until the
// matching PopRoot. The compiler uses this to expose the chain of
// FunctionCompilers currently being built (spec §4.4 phase 1: "when invoked
// during compilation, every Function under construction in the
// FunctionCompiler chain"); the machine uses it once, for the lifetime of a
// Thread, to expose the value stack, frames, open upvalues and globals.
func (h *Heap) PushRoot(fn RootFunc) { h.roots = append(h.roots, fn) }

// PopRoot removes the most recently pushed root source.
func (h *Heap) PopRoot() { h.roots = h.roots[:len(h.roots)-1] }

// BytesAllocated reports the collector's current accounting total.
func (h *Heap) BytesAllocated() uint64 { return h.bytesAllocated }

// track links obj into the heap's allocation list and updates the byte
// accounting, collecting first if that would cross the threshold (spec
// §4.4: "allocate_object ... inserts the new object at the head of a linked
// list ... and, after an accounting update, may invoke the collector").
// Collection runs before linking obj in, and before the caller has had a
// chance to root it, which never collects obj itself since obj does not yet
// exist on the heap list at that time; callers that build composite objects
// out of several allocations are still responsible for rooting each
// intermediate result before triggering the next (spec §4.4 "Reentrancy
// discipline").
func (h *Heap) track(obj value.Object) {
	sz := approxSize(obj)
	if h.StressGC || h.bytesAllocated+sz > h.nextGC {
		h.Collect()
	}
	obj.Header().SetNext(h.objects)
	h.objects = obj
	h.bytesAllocated += sz
}

func approxSize(obj value.Object) uint64 {
	switch o := obj.(type) {
	case *value.ObjString:
		return uint64(24 + len(o.Chars))
	case *value.ObjFunction:
		return 64
	case *value.ObjNative:
		return 32
	case *value.ObjClosure:
		return uint64(24 + 8*len(o.Upvalues))
	case *value.ObjUpvalue:
		return 24
	case *value.ObjClass:
		return 32
	case *value.ObjInstance:
		return uint64(32 + 40*len(o.Fields))
	case *value.ObjBoundMethod:
		return 24
	default:
		return 16
	}
}

// NewFunction allocates a fresh, empty function object.
func (h *Heap) NewFunction() *value.ObjFunction {
	fn := &value.ObjFunction{}
	h.track(fn)
	return fn
}

// NewNative allocates a native function wrapper.
func (h *Heap) NewNative(name string, arity int, fn value.NativeFn) *value.ObjNative {
	n := &value.ObjNative{Name: name, Arity: arity, Fn: fn}
	h.track(n)
	return n
}

// NewClosure allocates a closure over function, with an empty (all-nil)
// Upvalues slice the caller fills in one slot at a time. The closure is
// tracked (and thus sweepable) from the moment this returns, so callers
// must root it (e.g. push it on the value stack) before performing any
// further heap allocation, per the reentrancy discipline above.
func (h *Heap) NewClosure(fn *value.ObjFunction) *value.ObjClosure {
	c := value.NewObjClosure(fn)
	h.track(c)
	return c
}

// NewUpvalue allocates a new, open upvalue pointing at stackIndex.
func (h *Heap) NewUpvalue(stackIndex int) *value.ObjUpvalue {
	u := value.NewObjUpvalue(stackIndex)
	h.track(u)
	return u
}

// NewClass allocates a new, methodless class.
func (h *Heap) NewClass(name *value.ObjString) *value.ObjClass {
	c := value.NewObjClass(name)
	h.track(c)
	return c
}

// NewInstance allocates a new, fieldless instance of class.
func (h *Heap) NewInstance(class *value.ObjClass) *value.ObjInstance {
	i := value.NewObjInstance(class)
	h.track(i)
	return i
}

// NewBoundMethod allocates a new bound method pairing receiver with method.
func (h *Heap) NewBoundMethod(receiver value.Value, method *value.ObjClosure) *value.ObjBoundMethod {
	b := &value.ObjBoundMethod{Receiver: receiver, Method: method}
	h.track(b)
	return b
}

// Intern returns the canonical *ObjString for s: if a live string with the
// same bytes already exists, it is returned; otherwise a new one is
// allocated, tracked, and registered (spec §4.4 "Interning", invariant 2).
func (h *Heap) Intern(s string) *value.ObjString {
	if existing, ok := h.strings.Get(s); ok {
		return existing
	}
	str := value.NewObjString(s)
	h.track(str)
	h.strings.Put(s, str)
	return str
}
