package heap

import "github.com/mna/loxvm/lang/value"

// Collect runs one full mark-sweep cycle (spec §4.4 phases 1-3): mark every
// root, trace outward until the gray set is empty, sweep the intern table of
// entries whose string went unmarked, then sweep the object list itself.
// Finally nextGC grows by growFactor so short programs do not thrash.
func (h *Heap) Collect() {
	for _, root := range h.roots {
		root(h.mark)
	}
	h.traceReferences()
	h.sweepStrings()
	h.sweepObjects()

	h.nextGC = h.bytesAllocated * growFactor
	if h.nextGC < initialNextGC {
		h.nextGC = initialNextGC
	}
}

// mark is the RootFunc callback: it marks v if v is an Object and the
// object was not already marked, in which case it is also pushed onto the
// gray worklist for reference tracing.
func (h *Heap) mark(v value.Value) {
	obj, ok := v.(value.Object)
	if !ok || obj == nil {
		return
	}
	hdr := obj.Header()
	if hdr.Marked() {
		return
	}
	hdr.Mark()
	h.gray = append(h.gray, obj)
}

// traceReferences drains the gray worklist, marking every Value each gray
// object refers to until no unmarked object remains reachable (spec §4.4
// phase 2, "Trace").
func (h *Heap) traceReferences() {
	for len(h.gray) > 0 {
		n := len(h.gray) - 1
		obj := h.gray[n]
		h.gray = h.gray[:n]
		h.blacken(obj)
	}
}

func (h *Heap) blacken(obj value.Object) {
	switch o := obj.(type) {
	case *value.ObjString:
		// no outgoing references
	case *value.ObjFunction:
		if o.Name != nil { // the top-level script has no name
			h.mark(o.Name)
		}
		for _, c := range o.Chunk.Constants {
			h.mark(c)
		}
	case *value.ObjNative:
		// no outgoing references
	case *value.ObjClosure:
		h.mark(o.Function)
		for _, uv := range o.Upvalues {
			if uv != nil { // slot not yet filled by the CLOSURE handler
				h.mark(uv)
			}
		}
	case *value.ObjUpvalue:
		if o.IsOpen() {
			// open upvalues reference a live stack slot, which is already a
			// root traced directly by the machine's root function.
			return
		}
		h.mark(o.Closed)
	case *value.ObjClass:
		h.mark(o.Name)
		for name, method := range o.Methods {
			h.mark(name)
			h.mark(method)
		}
	case *value.ObjInstance:
		h.mark(o.Class)
		for name, fv := range o.Fields {
			h.mark(name)
			h.mark(fv)
		}
	case *value.ObjBoundMethod:
		h.mark(o.Receiver)
		h.mark(o.Method)
	}
}

// sweepStrings removes intern-table entries whose ObjString did not survive
// marking (spec §4.4 phase 2, "the intern table ... is therefore swept
// first, as a special weak-table pass, before the general sweep").
func (h *Heap) sweepStrings() {
	var dead []string
	h.strings.Iter(func(k string, v *value.ObjString) bool {
		if !v.Header().Marked() {
			dead = append(dead, k)
		}
		return false
	})
	for _, k := range dead {
		h.strings.Delete(k)
	}
}

// sweepObjects walks the heap's object list, freeing (unlinking) every
// unmarked object and unmarking every survivor in preparation for the next
// cycle (spec §4.4 phase 3, "Sweep").
func (h *Heap) sweepObjects() {
	var prev value.Object
	obj := h.objects
	for obj != nil {
		hdr := obj.Header()
		if hdr.Marked() {
			hdr.Unmark()
			prev = obj
			obj = hdr.Next()
			continue
		}
		unreached := obj
		obj = hdr.Next()
		if prev == nil {
			h.objects = obj
		} else {
			prev.Header().SetNext(obj)
		}
		h.bytesAllocated -= approxSize(unreached)
	}
}
