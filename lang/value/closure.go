package value

// ObjUpvalue is the runtime reification of a captured variable (spec §3,
// §4.3 "Upvalue capture"/"Upvalue closing"). While open, StackIndex names the
// live slot in the machine's value stack that the upvalue refers to; once
// closed, Closed holds the copied-out value and StackIndex is no longer
// meaningful. Next threads the machine's open-upvalue list, sorted strictly
// decreasing by StackIndex (spec invariant 4) — this is a separate link from
// Header.Next, which threads the heap's full allocation list regardless of
// kind.
type ObjUpvalue struct {
	hdr Header

	StackIndex int
	closed     bool
	Closed     Value

	Next *ObjUpvalue
}

var _ Object = (*ObjUpvalue)(nil)

// NewObjUpvalue returns a new, open upvalue pointing at stackIndex.
func NewObjUpvalue(stackIndex int) *ObjUpvalue {
	return &ObjUpvalue{StackIndex: stackIndex}
}

func (u *ObjUpvalue) Header() *Header { return &u.hdr }
func (u *ObjUpvalue) String() string  { return "upvalue" }
func (u *ObjUpvalue) Truth() bool     { return true }

// IsOpen reports whether the upvalue still refers to a live stack slot.
func (u *ObjUpvalue) IsOpen() bool { return !u.closed }

// Close copies v out of the stack and marks the upvalue closed, unlinking it
// from the open-upvalue list.
func (u *ObjUpvalue) Close(v Value) {
	u.Closed = v
	u.closed = true
	u.Next = nil
}

// ObjClosure pairs a compiled Function with the upvalues it captured at the
// point it was created (spec §3).
type ObjClosure struct {
	hdr      Header
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

var _ Object = (*ObjClosure)(nil)

// NewObjClosure allocates a closure over fn with fn.UpvalueCount empty
// upvalue slots, filled in by the CLOSURE opcode's handler as it walks the
// function's upvalue descriptors.
func NewObjClosure(fn *ObjFunction) *ObjClosure {
	return &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.UpvalueCount)}
}

func (c *ObjClosure) Header() *Header { return &c.hdr }
func (c *ObjClosure) String() string  { return c.Function.String() }
func (c *ObjClosure) Truth() bool     { return true }
