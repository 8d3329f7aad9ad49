package machine

import "github.com/mna/loxvm/lang/value"

// call pushes a new frame activating closure over the argc arguments already
// sitting on top of the stack (spec §4.3 "push a new frame with base =
// top-argc-1").
func (t *Thread) call(closure *value.ObjClosure, argc int) error {
	if argc != closure.Function.Arity {
		return t.runtimeErrorf("Expected %d arguments but got %d.", closure.Function.Arity, argc)
	}
	if len(t.frames) == framesMax {
		return t.runtimeErrorf("Stack overflow.")
	}
	t.frames = append(t.frames, Frame{
		Closure: closure,
		Base:    len(t.stack) - argc - 1,
	})
	return nil
}

// callValue dispatches a Call opcode on whatever value sits at
// stack[top-argc-1]: a Closure, Native, Class or BoundMethod (spec §4.3
// "Dispatch").
func (t *Thread) callValue(callee value.Value, argc int) error {
	switch c := callee.(type) {
	case *value.ObjClosure:
		return t.call(c, argc)

	case *value.ObjNative:
		return t.callNative(c, argc)

	case *value.ObjClass:
		base := len(t.stack) - argc - 1
		inst := t.Heap.NewInstance(c)
		t.stack[base] = inst
		if init, ok := c.Methods[t.Heap.Init]; ok {
			return t.call(init, argc)
		}
		if argc != 0 {
			return t.runtimeErrorf("Expected 0 arguments but got %d.", argc)
		}
		return nil

	case *value.ObjBoundMethod:
		t.stack[len(t.stack)-argc-1] = c.Receiver
		return t.call(c.Method, argc)

	default:
		return t.runtimeErrorf("Can only call functions and classes.")
	}
}

func (t *Thread) callNative(n *value.ObjNative, argc int) error {
	if argc != n.Arity {
		return t.runtimeErrorf("Expected %d arguments but got %d.", n.Arity, argc)
	}
	base := len(t.stack) - argc - 1
	args := t.stack[base+1:]
	result, err := n.Fn(args)
	if err != nil {
		return t.runtimeErrorf("%s", err.Error())
	}
	t.stack = t.stack[:base]
	t.push(result)
	return nil
}

// invoke implements the fused `obj.name(args)` dispatch: it looks the
// property up on the receiver once, calling it directly without
// materializing a BoundMethod (spec §4.3 "Invoke", §9 "Fused method
// calls"). The field-shadows-method rule is preserved: a field found on the
// instance is called as a plain value, exactly as GetProperty+Call would.
func (t *Thread) invoke(name *value.ObjString, argc int) error {
	receiver := t.peek(argc)
	inst, ok := receiver.(*value.ObjInstance)
	if !ok {
		return t.runtimeErrorf("Only instances have properties.")
	}
	if field, ok := inst.Fields[name]; ok {
		t.stack[len(t.stack)-argc-1] = field
		return t.callValue(field, argc)
	}
	return t.invokeFromClass(inst.Class, name, argc)
}

func (t *Thread) invokeFromClass(class *value.ObjClass, name *value.ObjString, argc int) error {
	method, ok := class.Methods[name]
	if !ok {
		return t.runtimeErrorf("Undefined property '%s'.", name.Chars)
	}
	return t.call(method, argc)
}

// bindMethod looks up name on class, allocates a BoundMethod pairing it with
// receiver, and replaces the top of stack (the receiver) with it (spec §3
// "BoundMethod"). The new object is pushed immediately, before any further
// allocation can occur, to satisfy the reentrancy discipline of spec §4.4.
func (t *Thread) bindMethod(class *value.ObjClass, name *value.ObjString) error {
	method, ok := class.Methods[name]
	if !ok {
		return t.runtimeErrorf("Undefined property '%s'.", name.Chars)
	}
	bound := t.Heap.NewBoundMethod(t.peek(0), method)
	t.pop()
	t.push(bound)
	return nil
}
