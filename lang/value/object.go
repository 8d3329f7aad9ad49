package value

// Header is embedded in every heap-allocated Object kind. It carries the two
// pieces of bookkeeping the collector needs (spec §3, §4.4): the mark bit set
// during the trace phase, and the intrusive next-in-heap link threading every
// live allocation into the collector's single linked list regardless of its
// concrete kind.
type Header struct {
	marked bool
	next   Object
}

// Marked reports whether the object survived the most recent mark phase.
func (h *Header) Marked() bool { return h.marked }

// Mark sets the object's mark bit.
func (h *Header) Mark() { h.marked = true }

// Unmark clears the object's mark bit, done at the end of a sweep so the next
// cycle starts from a clean slate.
func (h *Header) Unmark() { h.marked = false }

// Next returns the next object in the heap's allocation list.
func (h *Header) Next() Object { return h.next }

// SetNext splices o into the heap's allocation list after this object.
func (h *Header) SetNext(o Object) { h.next = o }

// Object is implemented by every heap-allocated value kind: ObjString,
// ObjFunction, ObjNative, ObjClosure, ObjUpvalue, ObjClass, ObjInstance and
// ObjBoundMethod (spec §3's Object table).
type Object interface {
	Value
	// Header returns the object's GC bookkeeping header. Exported so the heap
	// package, which owns the collector, can walk and mark the heap without
	// this package depending on it.
	Header() *Header
}
