package value

// ObjClass is a class: a name plus its own (non-inherited) methods, keyed by
// the interned method-name string (spec §3). Inheritance is implemented by
// the INHERIT opcode copying the superclass's method entries into the
// subclass at class-definition time, not by a parent pointer walked at
// lookup time (spec §4.3 "Inherit").
//
// Methods is a plain Go map rather than the dolthub/swiss table used for the
// machine's globals and string-intern tables (see heap.go): per-class method
// sets are small and short-lived compared to those two VM-wide tables, so
// the swiss table's flat-probing layout buys nothing here.
type ObjClass struct {
	hdr     Header
	Name    *ObjString
	Methods map[*ObjString]*ObjClosure
}

var _ Object = (*ObjClass)(nil)

// NewObjClass returns a new class with no methods.
func NewObjClass(name *ObjString) *ObjClass {
	return &ObjClass{Name: name, Methods: make(map[*ObjString]*ObjClosure)}
}

func (c *ObjClass) Header() *Header { return &c.hdr }
func (c *ObjClass) String() string  { return c.Name.Chars }
func (c *ObjClass) Truth() bool     { return true }
