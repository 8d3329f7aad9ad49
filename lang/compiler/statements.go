package compiler

import (
	"github.com/mna/loxvm/lang/opcode"
	"github.com/mna/loxvm/lang/token"
)

// declaration parses one top-level or block-level declaration, recovering
// via synchronize if a parse error was reported while parsing it (spec §4.2
// "Error handling").
func (p *Parser) declaration() {
	switch {
	case p.match(token.CLASS):
		p.classDeclaration()
	case p.match(token.FUN):
		p.funDeclaration()
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.statement()
	}

	if p.panicMode {
		p.synchronize()
	}
}

func (p *Parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.FOR):
		p.forStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.LBRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *Parser) block() {
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RBRACE, "expect '}' after block")
}

func (p *Parser) printStatement() {
	p.expression()
	p.consume(token.SEMI, "expect ';' after value")
	p.emitOp(opcode.PRINT)
}

func (p *Parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMI, "expect ';' after expression")
	p.emitOp(opcode.POP)
}

func (p *Parser) ifStatement() {
	p.consume(token.LPAREN, "expect '(' after 'if'")
	p.expression()
	p.consume(token.RPAREN, "expect ')' after condition")

	thenJump := p.emitJump(opcode.JUMP_IF_FALSE)
	p.emitOp(opcode.POP)
	p.statement()

	elseJump := p.emitJump(opcode.JUMP)
	p.patchJump(thenJump)
	p.emitOp(opcode.POP)

	if p.match(token.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *Parser) whileStatement() {
	loopStart := len(p.chunk().Code)
	p.consume(token.LPAREN, "expect '(' after 'while'")
	p.expression()
	p.consume(token.RPAREN, "expect ')' after condition")

	exitJump := p.emitJump(opcode.JUMP_IF_FALSE)
	p.emitOp(opcode.POP)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(opcode.POP)
}

// forStatement desugars the three-clause for loop into the while-loop shape
// described by spec §4.2, entirely within a scope so a `var` initializer is
// local to the loop.
func (p *Parser) forStatement() {
	p.beginScope()
	p.consume(token.LPAREN, "expect '(' after 'for'")

	switch {
	case p.match(token.SEMI):
		// no initializer
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.chunk().Code)
	exitJump := -1
	if !p.match(token.SEMI) {
		p.expression()
		p.consume(token.SEMI, "expect ';' after loop condition")
		exitJump = p.emitJump(opcode.JUMP_IF_FALSE)
		p.emitOp(opcode.POP)
	}

	if !p.match(token.RPAREN) {
		bodyJump := p.emitJump(opcode.JUMP)
		incrStart := len(p.chunk().Code)
		p.expression()
		p.emitOp(opcode.POP)
		p.consume(token.RPAREN, "expect ')' after for clauses")

		p.emitLoop(loopStart)
		loopStart = incrStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(opcode.POP)
	}

	p.endScope()
}

// returnStatement also accepts `return` at the top level: the script is
// compiled as an implicit zero-arity function (funcTypeScript), so it needs
// no special case here to make a bare `return;` a legal early exit.
func (p *Parser) returnStatement() {
	if p.match(token.SEMI) {
		p.emitReturn()
		return
	}
	if p.cur.fnType == funcTypeInitializer {
		p.error("can't return a value from an initializer")
	}
	p.expression()
	p.consume(token.SEMI, "expect ';' after return value")
	p.emitOp(opcode.RETURN)
}

func (p *Parser) varDeclaration() {
	global := p.parseVariable("expect variable name")

	if p.match(token.EQ) {
		p.expression()
	} else {
		p.emitOp(opcode.NIL)
	}
	p.consume(token.SEMI, "expect ';' after variable declaration")
	p.defineVariable(global)
}

// parseVariable consumes the variable's name, declares it if local, and
// returns the identifier-constant index to use if it turns out to be global
// (defineVariable ignores the return value for locals).
func (p *Parser) parseVariable(errMsg string) byte {
	p.consume(token.IDENT, errMsg)
	name := p.previous.Lexeme
	p.declareVariable(name)
	if p.cur.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(name)
}

func (p *Parser) defineVariable(global byte) {
	if p.cur.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitBytes(opcode.DEFINE_GLOBAL, global)
}

func (p *Parser) funDeclaration() {
	global := p.parseVariable("expect function name")
	p.markInitialized()
	p.function(funcTypeFunction)
	p.defineVariable(global)
}

// function compiles one function body (shared by top-level `fun`
// declarations and methods) as a nested funcCompiler, then emits Closure
// with its trailing upvalue descriptors (spec §4.2 "fun name(params) body").
func (p *Parser) function(fnType funcType) {
	name := p.previous.Lexeme
	p.cur = newFuncCompiler(p, p.cur, fnType, name)
	p.beginScope()

	p.consume(token.LPAREN, "expect '(' after function name")
	if !p.check(token.RPAREN) {
		for {
			p.cur.fn.Arity++
			if p.cur.fn.Arity > 255 {
				p.errorAtCurrent("can't have more than 255 parameters")
			}
			paramName := p.parseVariable("expect parameter name")
			p.defineVariable(paramName)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "expect ')' after parameters")
	p.consume(token.LBRACE, "expect '{' before function body")
	p.block()

	fc := p.cur
	fn := p.endFuncCompiler()

	ix := p.makeConstant(fn)
	p.emitBytes(opcode.CLOSURE, ix)
	for _, uv := range fc.upvalues {
		if uv.isLocal {
			p.emitByte(1)
		} else {
			p.emitByte(0)
		}
		p.emitByte(byte(uv.index))
	}
}

// classDeclaration implements spec §4.2's class lowering: the class value is
// bound as a variable, then (if there's a superclass) a synthetic `super`
// local scope wraps method compilation, which attaches each method's
// Closure directly to the class object left on the stack.
func (p *Parser) classDeclaration() {
	p.consume(token.IDENT, "expect class name")
	className := p.previous.Lexeme
	nameConst := p.identifierConstant(className)
	p.declareVariable(className)

	p.emitBytes(opcode.CLASS, nameConst)
	p.defineVariable(nameConst)

	cc := &classCompiler{enclosing: p.class}
	p.class = cc

	if p.match(token.LT) {
		p.consume(token.IDENT, "expect superclass name")
		p.variable(false)
		if p.previous.Lexeme == className {
			p.error("a class can't inherit from itself")
		}

		p.beginScope()
		p.addLocal("super")
		p.defineVariable(0)

		p.syntheticLocal(className)
		p.emitOp(opcode.INHERIT)
		cc.hasSuperclass = true
	}

	p.syntheticLocal(className)
	p.consume(token.LBRACE, "expect '{' before class body")
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.method()
	}
	p.consume(token.RBRACE, "expect '}' after class body")
	p.emitOp(opcode.POP)

	if cc.hasSuperclass {
		p.endScope()
	}
	p.class = cc.enclosing
}

func (p *Parser) method() {
	p.consume(token.IDENT, "expect method name")
	name := p.previous.Lexeme
	nameConst := p.identifierConstant(name)

	fnType := funcTypeMethod
	if name == "init" {
		fnType = funcTypeInitializer
	}
	p.function(fnType)
	p.emitBytes(opcode.METHOD, nameConst)
}
