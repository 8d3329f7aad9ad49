package value

import "strconv"

// ObjString is the heap representation of a string. Every ObjString that
// reaches the machine's value stack or globals table has been produced by
// heap.Intern, which guarantees that two strings with equal bytes share one
// ObjString (spec §4.4): comparing two *ObjString with == is therefore a
// correct content-equality test, not just a coincidence of identity.
type ObjString struct {
	hdr   Header
	Chars string
	Hash  uint32
}

var _ Object = (*ObjString)(nil)

// NewObjString allocates a new, uninterned ObjString. Callers outside
// package heap should use heap.Intern instead so strings with equal bytes
// share identity.
func NewObjString(s string) *ObjString {
	return &ObjString{Chars: s, Hash: HashString(s)}
}

func (s *ObjString) Header() *Header { return &s.hdr }
func (s *ObjString) String() string  { return s.Chars }
func (s *ObjString) Truth() bool     { return true }

// Quoted returns the string with Go-style quoting. The PRINT opcode and the
// disassembler use String instead, which returns the raw content (spec §6).
func (s *ObjString) Quoted() string { return strconv.Quote(s.Chars) }

// HashString computes the FNV-1a hash of s, used both to bucket the string in
// the intern table and as the cached Hash field of the resulting ObjString
// (spec §3, "String: byte sequence, cached hash").
func HashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
