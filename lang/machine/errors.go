package machine

import (
	"fmt"
	"strings"
)

// StackFrame is one line of a RuntimeError's captured trace (spec §4.3
// "Runtime errors print the message and a stack trace").
type StackFrame struct {
	Line     int
	Function string
}

// RuntimeError is returned by Thread.Run when execution fails at runtime:
// type mismatches, calling a non-callable, wrong arity, undefined globals or
// properties, non-instance property access, inheriting from a non-class, and
// stack overflow (spec §7). It carries the full call stack at the point of
// failure, most recent call first, mirroring the error-trace pattern used
// throughout this codebase for multi-frame diagnostics.
type RuntimeError struct {
	Message string
	Frames  []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, f := range e.Frames {
		fmt.Fprintf(&b, "\n[line %d] in %s", f.Line, f.Function)
	}
	return b.String()
}

// runtimeErrorf builds a RuntimeError from the thread's current frame stack,
// most recent call first.
func (t *Thread) runtimeErrorf(format string, args ...interface{}) *RuntimeError {
	err := &RuntimeError{Message: fmt.Sprintf(format, args...)}
	for i := len(t.frames) - 1; i >= 0; i-- {
		fr := &t.frames[i]
		err.Frames = append(err.Frames, StackFrame{
			Line:     fr.chunk().LineAt(fr.IP - 1),
			Function: fr.functionName(),
		})
	}
	return err
}
