package heap

import (
	"testing"

	"github.com/mna/loxvm/lang/value"
)

func TestInternReturnsSameObject(t *testing.T) {
	h := New()
	a := h.Intern("hello")
	b := h.Intern("hello")
	if a != b {
		t.Error("interning the same content twice must return the same *ObjString")
	}
	if !value.Equal(a, b) {
		t.Error("interned strings with equal content must be == (identity)")
	}
}

func TestInternDistinctContent(t *testing.T) {
	h := New()
	a := h.Intern("foo")
	b := h.Intern("bar")
	if a == b {
		t.Error("distinct content must not intern to the same object")
	}
}

func TestCollectFreesUnreachable(t *testing.T) {
	h := New()
	kept := h.Intern("kept")
	h.NewInstance(h.NewClass(h.Intern("Orphan")))

	h.PushRoot(func(mark func(value.Value)) {
		mark(kept)
	})
	defer h.PopRoot()

	h.Collect()

	if _, ok := h.strings.Get("kept"); !ok {
		t.Error("rooted string must survive collection")
	}
	if _, ok := h.strings.Get("Orphan"); ok {
		t.Error("unrooted class name must not survive collection")
	}
}

func TestCollectKeepsReachableGraph(t *testing.T) {
	h := New()
	name := h.Intern("Counter")
	class := h.NewClass(name)
	inst := h.NewInstance(class)
	fieldName := h.Intern("count")
	inst.Fields[fieldName] = value.Number(0)

	var root value.Value = inst
	h.PushRoot(func(mark func(value.Value)) {
		mark(root)
	})
	defer h.PopRoot()

	h.Collect()

	if _, ok := inst.Fields[fieldName]; !ok {
		t.Fatal("instance field map should be untouched by collection")
	}
	// class and its name must still be linked into the heap's object list
	found := false
	for obj := h.objects; obj != nil; obj = obj.Header().Next() {
		if obj == value.Object(class) {
			found = true
		}
	}
	if !found {
		t.Error("class reachable from a root must survive sweep")
	}
}

func TestGlobalsDefineGetSet(t *testing.T) {
	h := New()
	g := NewGlobals()
	name := h.Intern("x")

	if _, ok := g.Get(name); ok {
		t.Fatal("undefined global must not be found")
	}
	g.Define(name, value.Number(1))
	got, ok := g.Get(name)
	if !ok || got != value.Value(value.Number(1)) {
		t.Errorf("Get after Define = %v, %v", got, ok)
	}
	if !g.Set(name, value.Number(2)) {
		t.Error("Set on a defined global must succeed")
	}
	got, _ = g.Get(name)
	if got != value.Value(value.Number(2)) {
		t.Errorf("Get after Set = %v, want 2", got)
	}

	other := h.Intern("y")
	if g.Set(other, value.Number(1)) {
		t.Error("Set on an undefined global must report failure")
	}
}

func TestStressGCRunsOnEveryAllocation(t *testing.T) {
	h := New()
	h.StressGC = true
	kept := h.Intern("kept")
	h.PushRoot(func(mark func(value.Value)) { mark(kept) })
	defer h.PopRoot()

	for i := 0; i < 50; i++ {
		h.NewInstance(h.NewClass(h.Intern("Transient")))
	}

	if _, ok := h.strings.Get("kept"); !ok {
		t.Error("rooted string must survive repeated stress collections")
	}
}
