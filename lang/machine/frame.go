package machine

import "github.com/mna/loxvm/lang/value"

// Frame records one activation of a closure on the call stack (spec §3
// "Call frame"): the closure being run, a program counter into its chunk,
// and the stack index of local slot 0 (the callee itself, or the receiver
// for a bound method call).
type Frame struct {
	Closure *value.ObjClosure
	IP      int
	Base    int
}

func (f *Frame) chunk() *value.Chunk { return &f.Closure.Function.Chunk }

// functionName returns the name used in a runtime-error stack trace: the
// function's own name, or "script" for the implicit top-level function
// (spec §4.3 "Runtime errors").
func (f *Frame) functionName() string {
	if f.Closure.Function.Name == nil {
		return "script"
	}
	return f.Closure.Function.Name.Chars
}

// readByte consumes and returns the single operand byte at the frame's
// current IP.
func (f *Frame) readByte() byte {
	b := f.chunk().Code[f.IP]
	f.IP++
	return b
}

// readShort consumes the 2-byte big-endian operand used by the jump opcodes.
func (f *Frame) readShort() int {
	hi := f.chunk().Code[f.IP]
	lo := f.chunk().Code[f.IP+1]
	f.IP += 2
	return int(hi)<<8 | int(lo)
}

func (f *Frame) readConstant() value.Value { return f.chunk().Constants[f.readByte()] }

// readString reads a 1-byte constant-pool index and asserts it names a
// string, as every name operand (global, property, method) does.
func (f *Frame) readString() *value.ObjString { return f.readConstant().(*value.ObjString) }
