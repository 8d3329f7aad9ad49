// Package value implements the tagged Value model (spec §3): the small set
// of immediate kinds (Bool, Number, Nil) plus the Object variants that live
// on the heap and are managed by the collector in package heap. It also
// defines Chunk, the packed bytecode + constant pool + line table that the
// compiler emits into and the machine executes (spec §2, "Chunk").
//
// Mirroring the teacher's lang/types package, every kind is a small type
// implementing a common Value interface rather than a single tagged struct:
// Go's interface dispatch already gives the tagged-union behavior the
// specification calls for, including reference-identity comparisons for
// object kinds simply by relying on Go's native interface equality.
package value

// Value is implemented by every value the machine can put on its operand
// stack or store in a variable: the three immediate kinds below, and every
// Object kind in this package.
type Value interface {
	// String returns the value's canonical textual form, as printed by the
	// PRINT opcode (spec §6).
	String() string
	// Truth reports whether the value is truthy. Only Nil and the boolean
	// false are falsey (spec §4.3 "Truthiness"); everything else, including
	// the number 0 and the empty string, is truthy.
	Truth() bool
}

// Bool is the type of the two boolean values.
type Bool bool

const (
	False Bool = false
	True  Bool = true
)

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b Bool) Truth() bool { return bool(b) }

// Nil is the type of the single nil value.
type Nil struct{}

// NilValue is the only instance of Nil that should ever be used; being an
// empty struct, any Nil{} literal compares equal to it, but sharing one
// instance keeps call sites readable.
var NilValue = Nil{}

func (Nil) String() string { return "nil" }
func (Nil) Truth() bool    { return false }

// Equal implements the equality relation of spec §3: numbers compare by IEEE
// equality, booleans and nil by tag identity, and object references
// (including strings, which are interned) by referential identity. Go's
// native interface comparison already has exactly these semantics for the
// concrete types in this package, since every Object kind is always held
// behind a pointer.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a == b
}

// TypeName returns a short, human-readable name for v's dynamic type.
func TypeName(v Value) string {
	switch v.(type) {
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case Nil:
		return "nil"
	case *ObjString:
		return "string"
	case *ObjFunction, *ObjClosure, *ObjNative:
		return "function"
	case *ObjClass:
		return "class"
	case *ObjInstance:
		return "instance"
	case *ObjBoundMethod:
		return "method"
	case *ObjUpvalue:
		return "upvalue"
	default:
		return "value"
	}
}
