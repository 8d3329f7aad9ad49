package value

import "fmt"

// NativeFn is the signature every native (host-provided) function must
// implement. It receives its arguments and returns either a result or an
// error that the machine turns into a runtime error (spec §6, "the host may
// register native functions ... into the globals map").
type NativeFn func(args []Value) (Value, error)

// ObjNative wraps a host function pointer so it can be called like any other
// callable value (spec §3's Native kind).
type ObjNative struct {
	hdr   Header
	Arity int
	Name  string
	Fn    NativeFn
}

var _ Object = (*ObjNative)(nil)

func (n *ObjNative) Header() *Header { return &n.hdr }
func (n *ObjNative) String() string  { return fmt.Sprintf("<native fn %s>", n.Name) }
func (n *ObjNative) Truth() bool     { return true }
