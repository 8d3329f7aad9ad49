package value

// ObjBoundMethod pairs a receiver with one of its class's methods, the value
// produced by a plain (non-fused) obj.method property read (spec §3, §4.3).
// The fused INVOKE/SUPER_INVOKE opcodes call the method directly without
// allocating one of these (spec §9 "Fused method calls").
type ObjBoundMethod struct {
	hdr      Header
	Receiver Value
	Method   *ObjClosure
}

var _ Object = (*ObjBoundMethod)(nil)

func (b *ObjBoundMethod) Header() *Header { return &b.hdr }
func (b *ObjBoundMethod) String() string  { return b.Method.String() }
func (b *ObjBoundMethod) Truth() bool     { return true }
