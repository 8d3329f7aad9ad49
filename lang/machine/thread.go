// Package machine implements the stack-based virtual machine that executes
// the bytecode a Chunk holds (spec §4.3): the value stack, the call-frame
// stack, the open-upvalue list, and the dispatch loop. It depends only on
// value, heap and opcode — never on compiler — so a Thread can run bytecode
// assembled by any producer, not only this repository's own compiler.
package machine

import (
	"io"
	"os"

	"github.com/mna/loxvm/lang/heap"
	"github.com/mna/loxvm/lang/value"
)

const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// Thread owns one independent run of the virtual machine: its value stack,
// call frames, open upvalues, and the globals table bound to it. Multiple
// Run calls against the same Thread share state, which is what lets a REPL
// keep global variables and function definitions alive across lines.
type Thread struct {
	Heap    *heap.Heap
	Globals *heap.Globals

	// Stdout receives `print` output; it defaults to os.Stdout.
	Stdout io.Writer

	stack        []value.Value
	frames       []Frame
	openUpvalues *value.ObjUpvalue
}

// NewThread returns a ready-to-run Thread backed by h, with the `clock`
// native registered into its globals (spec §6, "the host may register
// native functions ... into the globals map before interpret runs").
func NewThread(h *heap.Heap) *Thread {
	t := &Thread{
		Heap:    h,
		Globals: heap.NewGlobals(),
		Stdout:  os.Stdout,
		stack:   make([]value.Value, 0, stackMax),
		frames:  make([]Frame, 0, framesMax),
	}
	h.PushRoot(t.markRoots)
	registerNatives(t)
	return t
}

// markRoots is the heap.RootFunc registered for this Thread's lifetime:
// every value on the stack, every active frame's closure, every open
// upvalue, every global, and the cached init string (spec §4.4 phase 1).
func (t *Thread) markRoots(mark func(value.Value)) {
	for _, v := range t.stack {
		mark(v)
	}
	for i := range t.frames {
		mark(t.frames[i].Closure)
	}
	for uv := t.openUpvalues; uv != nil; uv = uv.Next {
		mark(uv)
	}
	t.Globals.Mark(mark)
	mark(t.Heap.Init)
}

func (t *Thread) push(v value.Value) { t.stack = append(t.stack, v) }

func (t *Thread) pop() value.Value {
	n := len(t.stack) - 1
	v := t.stack[n]
	t.stack = t.stack[:n]
	return v
}

func (t *Thread) peek(distance int) value.Value {
	return t.stack[len(t.stack)-1-distance]
}

func (t *Thread) resetStack() {
	t.stack = t.stack[:0]
	t.frames = t.frames[:0]
	t.openUpvalues = nil
}

// Run pushes fn as a new closure and executes it to completion, returning a
// *RuntimeError on failure. On error the frame and value stacks are reset
// for the next Run call (spec §6, "a RuntimeError does not terminate the
// process" in REPL mode); globals defined or assigned before the failure
// keep their new values.
func (t *Thread) Run(fn *value.ObjFunction) error {
	closure := t.Heap.NewClosure(fn)
	t.push(closure)
	if err := t.call(closure, 0); err != nil {
		t.resetStack()
		return err
	}
	if err := t.run(); err != nil {
		t.resetStack()
		return err
	}
	return nil
}
