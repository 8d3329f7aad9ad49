package compiler

import (
	"github.com/mna/loxvm/lang/opcode"
	"github.com/mna/loxvm/lang/value"
)

// funcType distinguishes the kind of function currently being compiled, so
// bare `return` and slot-0 naming can follow the rules in spec §4.2.
type funcType int

const (
	funcTypeFunction funcType = iota
	funcTypeInitializer
	funcTypeMethod
	funcTypeScript
)

const (
	maxLocals   = 256
	maxUpvalues = 256
)

// local is one entry in a funcCompiler's locals array (spec §4.2). depth of
// -1 marks a local that has been declared but whose initializer has not yet
// completed; reading it in that state is a compile error.
type local struct {
	name     string
	depth    int
	captured bool
}

// upvalueRef is one entry in a funcCompiler's upvalues array: either a
// direct reference to a local slot in the immediately enclosing function, or
// a reference to one of that function's own upvalues.
type upvalueRef struct {
	index   int
	isLocal bool
}

// funcCompiler is the per-nested-function compilation state described in
// spec §4.2: one is pushed per function (including the outermost script)
// and owns the Function object being built, its locals, its upvalues, and
// the current scope depth.
type funcCompiler struct {
	enclosing *funcCompiler

	fn      *value.ObjFunction
	fnType  funcType

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
}

// newFuncCompiler allocates fn's backing ObjFunction through p's heap,
// reserves local slot 0 per the fnType's naming rule, and links it onto p's
// compiler stack.
func newFuncCompiler(p *Parser, enclosing *funcCompiler, fnType funcType, name string) *funcCompiler {
	fc := &funcCompiler{
		enclosing: enclosing,
		fn:        p.h.NewFunction(),
		fnType:    fnType,
	}
	// Link first so fc.fn is a GC root before interning its name allocates.
	p.cur = fc
	if fnType != funcTypeScript {
		fc.fn.Name = p.h.Intern(name)
	}

	slot0 := ""
	if fnType == funcTypeMethod || fnType == funcTypeInitializer {
		slot0 = "this"
	}
	fc.locals = append(fc.locals, local{name: slot0, depth: 0})

	return fc
}

// endFuncCompiler finishes the current function, emits its implicit return,
// pops the compiler stack, and returns the finished Function.
func (p *Parser) endFuncCompiler() *value.ObjFunction {
	p.emitReturn()
	fn := p.cur.fn
	p.cur = p.cur.enclosing
	return fn
}

func (p *Parser) beginScope() { p.cur.scopeDepth++ }

// endScope pops every local declared in the scope just closed, emitting
// CloseUpvalue for locals that were captured by a nested closure and Pop
// otherwise (spec §4.2 "Variable declaration").
func (p *Parser) endScope() {
	fc := p.cur
	fc.scopeDepth--
	for len(fc.locals) > 0 && fc.locals[len(fc.locals)-1].depth > fc.scopeDepth {
		last := fc.locals[len(fc.locals)-1]
		if last.captured {
			p.emitOp(opcode.CLOSE_UPVALUE)
		} else {
			p.emitOp(opcode.POP)
		}
		fc.locals = fc.locals[:len(fc.locals)-1]
	}
}

// declareVariable registers name as a new local in the current scope,
// rejecting a duplicate declaration within the same scope (spec §7
// "duplicate variable in scope"). Globals are not declared here: they are
// resolved dynamically by name at runtime.
func (p *Parser) declareVariable(name string) {
	fc := p.cur
	if fc.scopeDepth == 0 {
		return
	}
	for i := len(fc.locals) - 1; i >= 0; i-- {
		l := fc.locals[i]
		if l.depth != -1 && l.depth < fc.scopeDepth {
			break
		}
		if l.name == name {
			p.error("already a variable with this name in this scope")
		}
	}
	p.addLocal(name)
}

func (p *Parser) addLocal(name string) {
	fc := p.cur
	if len(fc.locals) >= maxLocals {
		p.error("too many local variables in function")
		return
	}
	fc.locals = append(fc.locals, local{name: name, depth: -1})
}

func (p *Parser) markInitialized() {
	fc := p.cur
	if fc.scopeDepth == 0 {
		return
	}
	fc.locals[len(fc.locals)-1].depth = fc.scopeDepth
}

// resolveLocal searches fc's locals from the top for name, returning its
// slot index or -1. It is an error to reference a local still mid-
// initialization (spec §4.2 "resolve_local").
func resolveLocal(p *Parser, fc *funcCompiler, name string) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			if fc.locals[i].depth == -1 {
				p.error("can't read local variable in its own initializer")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue recurses into fc's enclosing compiler looking for name,
// threading an upvalue reference through every intervening function (spec
// §4.2 "resolve_upvalue"). Returns the upvalue index in fc, or -1 if name is
// not a local anywhere in the enclosing chain (and must be a global).
func resolveUpvalue(p *Parser, fc *funcCompiler, name string) int {
	if fc.enclosing == nil {
		return -1
	}
	if local := resolveLocal(p, fc.enclosing, name); local != -1 {
		fc.enclosing.locals[local].captured = true
		return addUpvalue(p, fc, local, true)
	}
	if up := resolveUpvalue(p, fc.enclosing, name); up != -1 {
		return addUpvalue(p, fc, up, false)
	}
	return -1
}

func addUpvalue(p *Parser, fc *funcCompiler, index int, isLocal bool) int {
	for i, uv := range fc.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fc.upvalues) >= maxUpvalues {
		p.error("too many closure variables in function")
		return 0
	}
	fc.upvalues = append(fc.upvalues, upvalueRef{index: index, isLocal: isLocal})
	fc.fn.UpvalueCount = len(fc.upvalues)
	return len(fc.upvalues) - 1
}
