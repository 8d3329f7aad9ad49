package compiler

import (
	"testing"

	"github.com/mna/loxvm/lang/compileerr"
	"github.com/mna/loxvm/lang/heap"
	"github.com/mna/loxvm/lang/opcode"
	"github.com/mna/loxvm/lang/value"
)

func mustCompile(t *testing.T, src string) []byte {
	t.Helper()
	h := heap.New()
	fn, err := Compile(h, src)
	if err != nil {
		t.Fatalf("Compile(%q) error: %v", src, err)
	}
	return fn.Chunk.Code
}

func TestCompileArithmeticPrecedence(t *testing.T) {
	code := mustCompile(t, "print 1 + 2 * 3;")
	wantOps := []opcode.Op{
		opcode.CONSTANT, opcode.CONSTANT, opcode.CONSTANT,
		opcode.MULTIPLY, opcode.ADD, opcode.PRINT,
		opcode.NIL, opcode.RETURN,
	}
	assertOpsSubsequence(t, code, wantOps)
}

func TestCompileVarAndGlobal(t *testing.T) {
	code := mustCompile(t, `var a = "hi"; print a + a;`)
	assertOpsSubsequence(t, code, []opcode.Op{
		opcode.CONSTANT, opcode.DEFINE_GLOBAL,
		opcode.GET_GLOBAL, opcode.GET_GLOBAL, opcode.ADD, opcode.PRINT,
	})
}

func TestCompileLocalsNoGlobalOps(t *testing.T) {
	code := mustCompile(t, `{ var a = 1; print a; }`)
	for i := 0; i < len(code); i++ {
		op := opcode.Op(code[i])
		if op == opcode.GET_GLOBAL || op == opcode.SET_GLOBAL || op == opcode.DEFINE_GLOBAL {
			t.Errorf("found global op %s in locals-only program", op)
		}
	}
}

func TestCompileIfElseEmitsJumps(t *testing.T) {
	code := mustCompile(t, `if (true) { print 1; } else { print 2; }`)
	assertOpsSubsequence(t, code, []opcode.Op{
		opcode.TRUE, opcode.JUMP_IF_FALSE, opcode.POP,
		opcode.CONSTANT, opcode.PRINT, opcode.JUMP, opcode.POP,
		opcode.CONSTANT, opcode.PRINT,
	})
}

func TestCompileWhileLoopsBack(t *testing.T) {
	code := mustCompile(t, `while (true) print 1;`)
	found := false
	for _, b := range code {
		if opcode.Op(b) == opcode.LOOP {
			found = true
		}
	}
	if !found {
		t.Error("expected an OP_LOOP in compiled while-loop code")
	}
}

func TestCompileFunctionEmitsClosure(t *testing.T) {
	code := mustCompile(t, `fun outer(){ var x="v"; fun inner(){ print x; } return inner; }`)
	found := false
	for _, b := range code {
		if opcode.Op(b) == opcode.CLOSURE {
			found = true
		}
	}
	if !found {
		t.Error("expected an OP_CLOSURE emitted for top-level fun declaration")
	}
}

func TestCompileClassWithMethodAndSuper(t *testing.T) {
	h := heap.New()
	fn, err := Compile(h, `class A { m(){ return "A"; } } class B < A { m(){ return super.m()+"B"; } }`)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	code := fn.Chunk.Code
	assertOpsSubsequence(t, code, []opcode.Op{
		opcode.CLASS, opcode.DEFINE_GLOBAL, opcode.GET_GLOBAL,
		opcode.CLOSURE, opcode.METHOD, opcode.POP,
	})
	// super.m() is compiled into B.m's own chunk, a function constant of the
	// top-level chunk.
	hasSuperInvoke := false
	for _, k := range fn.Chunk.Constants {
		nested, ok := k.(*value.ObjFunction)
		if !ok {
			continue
		}
		for _, b := range nested.Chunk.Code {
			if opcode.Op(b) == opcode.SUPER_INVOKE {
				hasSuperInvoke = true
			}
		}
	}
	if !hasSuperInvoke {
		t.Error("expected OP_SUPER_INVOKE for fused super.m() call")
	}
}

func TestCompileErrorInvalidAssignmentTarget(t *testing.T) {
	h := heap.New()
	_, err := Compile(h, `1 + 2 = 3;`)
	if err == nil {
		t.Fatal("expected a compile error for an invalid assignment target")
	}
}

func TestCompileErrorReportsMultiple(t *testing.T) {
	h := heap.New()
	_, err := Compile(h, "var ;\nvar ;\n")
	if err == nil {
		t.Fatal("expected compile errors")
	}
	list, ok := err.(*compileerr.List)
	if !ok || list.Len() != 2 {
		t.Fatalf("expected one error per bad declaration (2), got %v", err)
	}
}

func TestCompileReturnInInitializerIsError(t *testing.T) {
	h := heap.New()
	_, err := Compile(h, `class A { init(){ return 1; } }`)
	if err == nil {
		t.Fatal("expected a compile error for returning a value from an initializer")
	}
}

func TestCompileThisOutsideClassIsError(t *testing.T) {
	h := heap.New()
	_, err := Compile(h, `print this;`)
	if err == nil {
		t.Fatal("expected a compile error for 'this' outside of a class")
	}
}

// assertOpsSubsequence checks that wantOps appears, in order (but not
// necessarily contiguously at the opcode level, since operand bytes are
// interspersed), within code.
func assertOpsSubsequence(t *testing.T, code []byte, wantOps []opcode.Op) {
	t.Helper()
	i := 0
	offset := 0
	for offset < len(code) && i < len(wantOps) {
		op := opcode.Op(code[offset])
		if op == wantOps[i] {
			i++
		}
		offset += 1 + operandWidth(op)
	}
	if i != len(wantOps) {
		t.Errorf("expected ops %v as a subsequence, matched %d of %d in code", wantOps, i, len(wantOps))
	}
}

func operandWidth(op opcode.Op) int {
	switch {
	case op == opcode.CLOSURE:
		return 1 // descriptor bytes aren't modeled here; tests using CLOSURE only check presence
	default:
		return opcode.NumOperandBytes(op)
	}
}
