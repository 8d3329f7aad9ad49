package value

import "fmt"

// ObjInstance is an instance of a class: a class reference plus its own
// field values, keyed by interned field-name string (spec §3). A field
// lookup on an instance shadows a same-named method on its class (spec §9,
// "field-shadows-method rule"), which the machine implements by checking
// Fields before consulting Class.Methods.
type ObjInstance struct {
	hdr    Header
	Class  *ObjClass
	Fields map[*ObjString]Value
}

var _ Object = (*ObjInstance)(nil)

// NewObjInstance returns a new, fieldless instance of class.
func NewObjInstance(class *ObjClass) *ObjInstance {
	return &ObjInstance{Class: class, Fields: make(map[*ObjString]Value)}
}

func (i *ObjInstance) Header() *Header { return &i.hdr }
func (i *ObjInstance) String() string  { return fmt.Sprintf("<%s instance>", i.Class.Name.Chars) }
func (i *ObjInstance) Truth() bool     { return true }
