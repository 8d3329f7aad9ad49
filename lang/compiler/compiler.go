// Package compiler implements the single-pass, Pratt-style compiler that
// lowers source text directly into bytecode: there is no intermediate AST.
// It walks tokens with one-token lookahead, emitting into the current
// function's Chunk as it goes, and resolves locals and upvalues as names are
// referenced rather than in a separate pass.
package compiler

import (
	"fmt"

	"github.com/mna/loxvm/lang/compileerr"
	"github.com/mna/loxvm/lang/heap"
	"github.com/mna/loxvm/lang/opcode"
	"github.com/mna/loxvm/lang/scanner"
	"github.com/mna/loxvm/lang/token"
	"github.com/mna/loxvm/lang/value"
)

// Compile compiles source into a top-level script function, or reports the
// accumulated compile errors. Compilation always runs to EOF so every
// syntax error in source is reported, even after the first (spec §4.2
// "Error handling").
func Compile(h *heap.Heap, source string) (*value.ObjFunction, error) {
	p := &Parser{h: h, scan: scanner.New(source)}
	h.PushRoot(p.markRoots)
	defer h.PopRoot()

	p.cur = newFuncCompiler(p, nil, funcTypeScript, "")
	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}
	fn := p.endFuncCompiler()

	if err := p.errs.Err(); err != nil {
		return nil, err
	}
	return fn, nil
}

// Parser holds all mutable state for one compilation: the token stream, the
// in-progress function/class compiler stacks, and accumulated errors.
type Parser struct {
	h    *heap.Heap
	scan *scanner.Scanner

	current, previous scanner.Token

	errs      compileerr.List
	panicMode bool

	cur   *funcCompiler
	class *classCompiler
}

// markRoots is the heap.RootFunc registered for the lifetime of Compile,
// exposing every Function under construction in the FunctionCompiler chain
// (spec §4.4 phase 1, "when invoked during compilation").
func (p *Parser) markRoots(mark func(value.Value)) {
	for fc := p.cur; fc != nil; fc = fc.enclosing {
		mark(fc.fn)
	}
}

func (p *Parser) advance() {
	p.previous = p.current
	for {
		p.current = p.scan.Next()
		if p.current.Kind != token.ILLEGAL {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *Parser) check(k token.Token) bool { return p.current.Kind == k }

func (p *Parser) match(k token.Token) bool {
	if !p.check(k) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) consume(k token.Token, msg string) {
	if p.current.Kind == k {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

func (p *Parser) errorAtCurrent(msg string) { p.errorAt(p.current, msg) }
func (p *Parser) error(msg string)          { p.errorAt(p.previous, msg) }

func (p *Parser) errorAt(tok scanner.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	switch tok.Kind {
	case token.EOF:
		p.errs.Add(tok.Line, "at end: %s", msg)
	case token.ILLEGAL:
		// The scanner already put a human-readable description in Lexeme
		// (e.g. "unterminated string"); msg is that same description, so
		// there is no separate token spelling worth quoting.
		p.errs.Add(tok.Line, "%s", msg)
	default:
		p.errs.Add(tok.Line, "at '%s': %s", tok.Lexeme, msg)
	}
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.error(fmt.Sprintf(format, args...))
}

// synchronize discards tokens until it reaches a likely statement boundary,
// so compilation can resume reporting further errors (spec §4.2).
func (p *Parser) synchronize() {
	p.panicMode = false
	for p.current.Kind != token.EOF {
		if p.previous.Kind == token.SEMI {
			return
		}
		switch p.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF,
			token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

func (p *Parser) chunk() *value.Chunk { return &p.cur.fn.Chunk }

func (p *Parser) emitByte(b byte) {
	p.chunk().Write(b, p.previous.Line)
}

func (p *Parser) emitOp(op opcode.Op) { p.emitByte(byte(op)) }

func (p *Parser) emitBytes(op opcode.Op, b byte) {
	p.emitOp(op)
	p.emitByte(b)
}

func (p *Parser) emitLoop(loopStart int) {
	p.emitOp(opcode.LOOP)
	offset := len(p.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		p.error("loop body too large")
	}
	p.emitByte(byte(offset >> 8))
	p.emitByte(byte(offset))
}

// emitJump emits op followed by a two-byte placeholder operand and returns
// the offset of that placeholder, to be patched later by patchJump.
func (p *Parser) emitJump(op opcode.Op) int {
	p.emitOp(op)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.chunk().Code) - 2
}

func (p *Parser) patchJump(offset int) {
	if len(p.chunk().Code)-(offset+2) > 0xffff {
		p.error("too much code to jump over")
	}
	p.chunk().PatchJump(offset)
}

func (p *Parser) emitReturn() {
	if p.cur.fnType == funcTypeInitializer {
		p.emitBytes(opcode.GET_LOCAL, 0)
	} else {
		p.emitOp(opcode.NIL)
	}
	p.emitOp(opcode.RETURN)
}

// makeConstant adds v to the current chunk's constant pool and returns its
// index, reporting an error if the pool (256 entries, one byte operand) is
// exhausted.
func (p *Parser) makeConstant(v value.Value) byte {
	ix := p.chunk().AddConstant(v)
	if ix > 0xff {
		p.error("too many constants in one chunk")
		return 0
	}
	return byte(ix)
}

func (p *Parser) identifierConstant(name string) byte {
	return p.makeConstant(p.h.Intern(name))
}

func (p *Parser) emitConstant(v value.Value) {
	p.emitBytes(opcode.CONSTANT, p.makeConstant(v))
}
