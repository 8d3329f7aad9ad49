package machine

import (
	"fmt"

	"github.com/mna/loxvm/lang/opcode"
	"github.com/mna/loxvm/lang/value"
)

// run is the dispatch loop: it fetches, decodes and executes instructions
// out of the top frame's chunk until the outermost frame returns (spec
// §4.3's opcode table). frame is refetched at the top of every iteration
// rather than held across one, since call and return opcodes grow or shrink
// t.frames and may reallocate its backing array.
func (t *Thread) run() error {
	for {
		frame := &t.frames[len(t.frames)-1]
		instr := opcode.Op(frame.readByte())

		switch instr {
		case opcode.CONSTANT:
			t.push(frame.readConstant())

		case opcode.NIL:
			t.push(value.NilValue)
		case opcode.TRUE:
			t.push(value.True)
		case opcode.FALSE:
			t.push(value.False)

		case opcode.POP:
			t.pop()

		case opcode.GET_LOCAL:
			slot := frame.readByte()
			t.push(t.stack[frame.Base+int(slot)])
		case opcode.SET_LOCAL:
			slot := frame.readByte()
			t.stack[frame.Base+int(slot)] = t.peek(0)

		case opcode.GET_GLOBAL:
			name := frame.readString()
			v, ok := t.Globals.Get(name)
			if !ok {
				return t.runtimeErrorf("Undefined variable '%s'.", name.Chars)
			}
			t.push(v)
		case opcode.DEFINE_GLOBAL:
			name := frame.readString()
			t.Globals.Define(name, t.peek(0))
			t.pop()
		case opcode.SET_GLOBAL:
			name := frame.readString()
			if !t.Globals.Set(name, t.peek(0)) {
				return t.runtimeErrorf("Undefined variable '%s'.", name.Chars)
			}

		case opcode.GET_UPVALUE:
			ix := frame.readByte()
			uv := frame.Closure.Upvalues[ix]
			if uv.IsOpen() {
				t.push(t.stack[uv.StackIndex])
			} else {
				t.push(uv.Closed)
			}
		case opcode.SET_UPVALUE:
			ix := frame.readByte()
			uv := frame.Closure.Upvalues[ix]
			if uv.IsOpen() {
				t.stack[uv.StackIndex] = t.peek(0)
			} else {
				uv.Closed = t.peek(0)
			}

		case opcode.GET_PROPERTY:
			inst, ok := t.peek(0).(*value.ObjInstance)
			if !ok {
				return t.runtimeErrorf("Only instances have properties.")
			}
			name := frame.readString()
			if field, ok := inst.Fields[name]; ok {
				t.pop()
				t.push(field)
				break
			}
			if err := t.bindMethod(inst.Class, name); err != nil {
				return err
			}
		case opcode.SET_PROPERTY:
			inst, ok := t.peek(1).(*value.ObjInstance)
			if !ok {
				return t.runtimeErrorf("Only instances have fields.")
			}
			name := frame.readString()
			inst.Fields[name] = t.peek(0)
			v := t.pop()
			t.pop()
			t.push(v)
		case opcode.GET_SUPER:
			name := frame.readString()
			superclass := t.pop().(*value.ObjClass)
			if err := t.bindMethod(superclass, name); err != nil {
				return err
			}

		case opcode.EQUAL:
			b := t.pop()
			a := t.pop()
			t.push(value.Bool(value.Equal(a, b)))
		case opcode.GREATER:
			if err := t.numericCompare(func(a, b value.Number) bool { return a > b }); err != nil {
				return err
			}
		case opcode.LESS:
			if err := t.numericCompare(func(a, b value.Number) bool { return a < b }); err != nil {
				return err
			}

		case opcode.ADD:
			if err := t.add(); err != nil {
				return err
			}
		case opcode.SUBTRACT:
			if err := t.numericBinary(func(a, b value.Number) value.Number { return a - b }); err != nil {
				return err
			}
		case opcode.MULTIPLY:
			if err := t.numericBinary(func(a, b value.Number) value.Number { return a * b }); err != nil {
				return err
			}
		case opcode.DIVIDE:
			if err := t.numericBinary(func(a, b value.Number) value.Number { return a / b }); err != nil {
				return err
			}

		case opcode.NOT:
			t.push(value.Bool(!t.pop().Truth()))
		case opcode.NEGATE:
			n, ok := t.peek(0).(value.Number)
			if !ok {
				return t.runtimeErrorf("Operand must be a number.")
			}
			t.pop()
			t.push(-n)

		case opcode.PRINT:
			fmt.Fprintln(t.Stdout, t.pop().String())

		case opcode.JUMP:
			offset := frame.readShort()
			frame.IP += offset
		case opcode.JUMP_IF_FALSE:
			offset := frame.readShort()
			if !t.peek(0).Truth() {
				frame.IP += offset
			}
		case opcode.LOOP:
			offset := frame.readShort()
			frame.IP -= offset

		case opcode.CALL:
			argc := int(frame.readByte())
			if err := t.callValue(t.peek(argc), argc); err != nil {
				return err
			}

		case opcode.INVOKE:
			name := frame.readString()
			argc := int(frame.readByte())
			if err := t.invoke(name, argc); err != nil {
				return err
			}
		case opcode.SUPER_INVOKE:
			name := frame.readString()
			argc := int(frame.readByte())
			superclass := t.pop().(*value.ObjClass)
			if err := t.invokeFromClass(superclass, name, argc); err != nil {
				return err
			}

		case opcode.CLOSURE:
			fn := frame.readConstant().(*value.ObjFunction)
			closure := t.Heap.NewClosure(fn)
			t.push(closure)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := frame.readByte()
				index := int(frame.readByte())
				if isLocal != 0 {
					closure.Upvalues[i] = t.captureUpvalue(frame.Base + index)
				} else {
					closure.Upvalues[i] = frame.Closure.Upvalues[index]
				}
			}
		case opcode.CLOSE_UPVALUE:
			t.closeUpvalues(len(t.stack) - 1)
			t.pop()

		case opcode.RETURN:
			result := t.pop()
			base := frame.Base
			t.closeUpvalues(base)
			t.frames = t.frames[:len(t.frames)-1]
			if len(t.frames) == 0 {
				t.pop()
				return nil
			}
			t.stack = t.stack[:base]
			t.push(result)

		case opcode.CLASS:
			name := frame.readString()
			t.push(t.Heap.NewClass(name))
		case opcode.INHERIT:
			superclass, ok := t.peek(1).(*value.ObjClass)
			if !ok {
				return t.runtimeErrorf("Superclass must be a class.")
			}
			subclass := t.peek(0).(*value.ObjClass)
			for name, method := range superclass.Methods {
				subclass.Methods[name] = method
			}
			t.pop()
		case opcode.METHOD:
			name := frame.readString()
			method := t.peek(0).(*value.ObjClosure)
			class := t.peek(1).(*value.ObjClass)
			class.Methods[name] = method
			t.pop()

		default:
			return t.runtimeErrorf("illegal opcode %s", instr)
		}
	}
}

// add implements the ADD opcode's two overloads (spec §4.3, §7): Number+Number
// and String+String, the latter via the intern table so the concatenation
// result is pushed immediately after allocation, satisfying the reentrancy
// discipline of spec §4.4.
func (t *Thread) add() error {
	b := t.peek(0)
	a := t.peek(1)
	switch bv := b.(type) {
	case value.Number:
		av, ok := a.(value.Number)
		if !ok {
			return t.runtimeErrorf("Operands must be two numbers or two strings.")
		}
		t.pop()
		t.pop()
		t.push(av + bv)
	case *value.ObjString:
		av, ok := a.(*value.ObjString)
		if !ok {
			return t.runtimeErrorf("Operands must be two numbers or two strings.")
		}
		t.pop()
		t.pop()
		t.push(t.Heap.Intern(av.Chars + bv.Chars))
	default:
		return t.runtimeErrorf("Operands must be two numbers or two strings.")
	}
	return nil
}

func (t *Thread) numericBinary(op func(a, b value.Number) value.Number) error {
	b, ok := t.peek(0).(value.Number)
	if !ok {
		return t.runtimeErrorf("Operands must be numbers.")
	}
	a, ok := t.peek(1).(value.Number)
	if !ok {
		return t.runtimeErrorf("Operands must be numbers.")
	}
	t.pop()
	t.pop()
	t.push(op(a, b))
	return nil
}

func (t *Thread) numericCompare(op func(a, b value.Number) bool) error {
	b, ok := t.peek(0).(value.Number)
	if !ok {
		return t.runtimeErrorf("Operands must be numbers.")
	}
	a, ok := t.peek(1).(value.Number)
	if !ok {
		return t.runtimeErrorf("Operands must be numbers.")
	}
	t.pop()
	t.pop()
	t.push(value.Bool(op(a, b)))
	return nil
}
