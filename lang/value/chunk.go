package value

import (
	"fmt"
	"io"

	"github.com/mna/loxvm/lang/opcode"
)

// lineRun is one entry of the run-length-encoded line table: Count
// consecutive bytes of Chunk.Code all originate from source Line (spec §4.3,
// "Chunk holds ... a run-length-encoded line-number table parallel to the
// bytecode"). The exact encoding is not observable (spec §9 open question);
// this one is chosen for simplicity, not compactness.
type lineRun struct {
	Line  int
	Count int
}

// Chunk is a compiled function body: its bytecode stream, constant pool and
// line table (spec §2, §3). Once a byte has been appended it is never
// rewritten except by PatchJump, which backpatches a previously emitted
// 2-byte jump operand (spec invariant 5).
type Chunk struct {
	Code      []byte
	Constants []Value
	lines     []lineRun
}

// Write appends a single byte, produced while compiling source line, and
// returns the index the byte was written to.
func (c *Chunk) Write(b byte, line int) int {
	c.Code = append(c.Code, b)
	if n := len(c.lines); n > 0 && c.lines[n-1].Line == line {
		c.lines[n-1].Count++
	} else {
		c.lines = append(c.lines, lineRun{Line: line, Count: 1})
	}
	return len(c.Code) - 1
}

// LineAt returns the source line that produced the byte at code offset pc.
func (c *Chunk) LineAt(pc int) int {
	remaining := pc
	for _, run := range c.lines {
		if remaining < run.Count {
			return run.Line
		}
		remaining -= run.Count
	}
	if len(c.lines) > 0 {
		return c.lines[len(c.lines)-1].Line
	}
	return 0
}

// AddConstant appends v to the constant pool and returns its index. The
// compiler is responsible for rejecting a chunk that would need a 257th
// constant (spec §4.2, "operand is a single byte (≤256 constants)").
func (c *Chunk) AddConstant(v Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// PatchJump overwrites the 2-byte big-endian operand at byte offset so that,
// when executed, it jumps to the chunk's current end. offset must be the
// index returned by Write for the first of the two operand bytes.
func (c *Chunk) PatchJump(offset int) {
	dist := len(c.Code) - (offset + 2)
	c.Code[offset] = byte(dist >> 8)
	c.Code[offset+1] = byte(dist)
}

// Disassemble writes a human-readable listing of every instruction in the
// chunk to w, one per line, prefixed by name. It is a read-only debugging
// aid (spec §12 "Disassembly view") grounded on the teacher's
// compiler/asm.go pseudo-assembly serialization, scoped down to a one-way
// text dump: it does not round-trip back into a Chunk and is not a
// debugger (no breakpoints, no stepping).
func (c *Chunk) Disassemble(w io.Writer, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = c.DisassembleInstruction(w, offset)
	}
}

// DisassembleInstruction writes the instruction at offset and returns the
// offset of the next instruction.
func (c *Chunk) DisassembleInstruction(w io.Writer, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	line := c.LineAt(offset)
	if offset > 0 && line == c.LineAt(offset-1) {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", line)
	}

	op := opcode.Op(c.Code[offset])
	switch {
	case op == opcode.CLOSURE:
		return c.disasmClosure(w, offset)
	case op == opcode.INVOKE || op == opcode.SUPER_INVOKE:
		return c.disasmInvoke(w, op, offset)
	case opcode.IsJump(op):
		return c.disasmJump(w, op, offset)
	case opcode.NumOperandBytes(op) == 1:
		return c.disasmByteOperand(w, op, offset)
	default:
		fmt.Fprintln(w, op)
		return offset + 1
	}
}

func (c *Chunk) constantName(ix byte) string {
	if int(ix) < len(c.Constants) {
		return c.Constants[ix].String()
	}
	return "?"
}

func (c *Chunk) disasmByteOperand(w io.Writer, op opcode.Op, offset int) int {
	slot := c.Code[offset+1]
	switch op {
	case opcode.CONSTANT, opcode.GET_GLOBAL, opcode.SET_GLOBAL, opcode.DEFINE_GLOBAL,
		opcode.GET_PROPERTY, opcode.SET_PROPERTY, opcode.GET_SUPER, opcode.CLASS, opcode.METHOD:
		fmt.Fprintf(w, "%-16s %4d '%s'\n", op, slot, c.constantName(slot))
	default:
		fmt.Fprintf(w, "%-16s %4d\n", op, slot)
	}
	return offset + 2
}

func (c *Chunk) disasmJump(w io.Writer, op opcode.Op, offset int) int {
	dist := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	target := offset + 3
	if op == opcode.LOOP {
		target -= dist
	} else {
		target += dist
	}
	fmt.Fprintf(w, "%-16s %4d -> %d\n", op, offset, target)
	return offset + 3
}

func (c *Chunk) disasmInvoke(w io.Writer, op opcode.Op, offset int) int {
	nameIx := c.Code[offset+1]
	argc := c.Code[offset+2]
	fmt.Fprintf(w, "%-16s (%d args) %4d '%s'\n", op, argc, nameIx, c.constantName(nameIx))
	return offset + 3
}

func (c *Chunk) disasmClosure(w io.Writer, offset int) int {
	constIx := c.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", opcode.CLOSURE, constIx, c.constantName(constIx))
	offset += 2

	fn, _ := c.Constants[constIx].(*ObjFunction)
	if fn == nil {
		return offset
	}
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := c.Code[offset]
		index := c.Code[offset+1]
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(w, "%04d      |                     %s %d\n", offset, kind, index)
		offset += 2
	}
	return offset
}
