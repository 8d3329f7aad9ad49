package value

import "fmt"

// ObjFunction is a compiled function body: its arity, the number of upvalues
// its closures must capture, its Chunk, and an optional name (spec §3). The
// top-level script is itself represented as an ObjFunction with a nil Name.
type ObjFunction struct {
	hdr          Header
	Arity        int
	UpvalueCount int
	Chunk        Chunk
	Name         *ObjString
}

var _ Object = (*ObjFunction)(nil)

func (f *ObjFunction) Header() *Header { return &f.hdr }

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

func (f *ObjFunction) Truth() bool { return true }
