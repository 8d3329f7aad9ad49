package machine

import "github.com/mna/loxvm/lang/value"

// captureUpvalue returns the open upvalue for stack slot stackIndex,
// reusing an existing one if the open-upvalue list (sorted strictly
// decreasing by stack index, spec invariant 4) already has it, allocating
// and splicing in a new one otherwise (spec §4.3 "Upvalue capture").
func (t *Thread) captureUpvalue(stackIndex int) *value.ObjUpvalue {
	var prev *value.ObjUpvalue
	cur := t.openUpvalues
	for cur != nil && cur.StackIndex > stackIndex {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.StackIndex == stackIndex {
		return cur
	}

	created := t.Heap.NewUpvalue(stackIndex)
	created.Next = cur
	if prev == nil {
		t.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue whose stack index is >= last,
// copying the live stack slot into the upvalue's own Closed value and
// unlinking it from the open list (spec §4.3 "Upvalue closing").
func (t *Thread) closeUpvalues(last int) {
	for t.openUpvalues != nil && t.openUpvalues.StackIndex >= last {
		uv := t.openUpvalues
		t.openUpvalues = uv.Next
		uv.Close(t.stack[uv.StackIndex])
	}
}
