package compiler

import (
	"strconv"
	"strings"

	"github.com/mna/loxvm/lang/opcode"
	"github.com/mna/loxvm/lang/token"
	"github.com/mna/loxvm/lang/value"
)

// precedence is the Pratt-parser precedence ladder of spec §4.2, lowest to
// highest.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type (
	prefixFn func(p *Parser, canAssign bool)
	infixFn  func(p *Parser, canAssign bool)
)

type rule struct {
	prefix     prefixFn
	infix      infixFn
	precedence precedence
}

var rules map[token.Token]rule

func init() {
	rules = map[token.Token]rule{
		token.LPAREN:   {prefix: (*Parser).grouping, infix: (*Parser).call, precedence: precCall},
		token.DOT:      {infix: (*Parser).dot, precedence: precCall},
		token.MINUS:    {prefix: (*Parser).unary, infix: (*Parser).binary, precedence: precTerm},
		token.PLUS:     {infix: (*Parser).binary, precedence: precTerm},
		token.SLASH:    {infix: (*Parser).binary, precedence: precFactor},
		token.STAR:     {infix: (*Parser).binary, precedence: precFactor},
		token.BANG:     {prefix: (*Parser).unary},
		token.BANG_EQ:  {infix: (*Parser).binary, precedence: precEquality},
		token.EQ_EQ:    {infix: (*Parser).binary, precedence: precEquality},
		token.GT:       {infix: (*Parser).binary, precedence: precComparison},
		token.GE:       {infix: (*Parser).binary, precedence: precComparison},
		token.LT:       {infix: (*Parser).binary, precedence: precComparison},
		token.LE:       {infix: (*Parser).binary, precedence: precComparison},
		token.IDENT:    {prefix: (*Parser).variable},
		token.STRING:   {prefix: (*Parser).stringLit},
		token.NUMBER:   {prefix: (*Parser).number},
		token.AND:      {infix: (*Parser).and_, precedence: precAnd},
		token.OR:       {infix: (*Parser).or_, precedence: precOr},
		token.FALSE:    {prefix: (*Parser).literal},
		token.NIL:      {prefix: (*Parser).literal},
		token.TRUE:     {prefix: (*Parser).literal},
		token.THIS:     {prefix: (*Parser).this},
		token.SUPER:    {prefix: (*Parser).super},
	}
}

func ruleFor(k token.Token) rule { return rules[k] }

// parsePrecedence parses and emits one expression of at least prec
// precedence, handling assignment-target legality via the canAssign flag
// threaded through every prefix/infix rule (spec §9 "Assignment-target
// detection").
func (p *Parser) parsePrecedence(prec precedence) {
	p.advance()
	prefix := ruleFor(p.previous.Kind).prefix
	if prefix == nil {
		p.error("expect expression")
		return
	}

	canAssign := prec <= precAssignment
	prefix(p, canAssign)

	for prec <= ruleFor(p.current.Kind).precedence {
		p.advance()
		infix := ruleFor(p.previous.Kind).infix
		infix(p, canAssign)
	}

	if canAssign && p.match(token.EQ) {
		p.error("invalid assignment target")
	}
}

func (p *Parser) expression() { p.parsePrecedence(precAssignment) }

func (p *Parser) grouping(_ bool) {
	p.expression()
	p.consume(token.RPAREN, "expect ')' after expression")
}

func (p *Parser) number(_ bool) {
	n, err := strconv.ParseFloat(p.previous.Lexeme, 64)
	if err != nil {
		p.error("invalid number literal")
		return
	}
	p.emitConstant(value.Number(n))
}

func (p *Parser) stringLit(_ bool) {
	raw := p.previous.Lexeme
	s := strings.TrimSuffix(strings.TrimPrefix(raw, `"`), `"`)
	p.emitConstant(p.h.Intern(s))
}

func (p *Parser) literal(_ bool) {
	switch p.previous.Kind {
	case token.FALSE:
		p.emitOp(opcode.FALSE)
	case token.NIL:
		p.emitOp(opcode.NIL)
	case token.TRUE:
		p.emitOp(opcode.TRUE)
	}
}

func (p *Parser) unary(_ bool) {
	opTok := p.previous.Kind
	p.parsePrecedence(precUnary)
	switch opTok {
	case token.BANG:
		p.emitOp(opcode.NOT)
	case token.MINUS:
		p.emitOp(opcode.NEGATE)
	}
}

func (p *Parser) binary(_ bool) {
	opTok := p.previous.Kind
	r := ruleFor(opTok)
	p.parsePrecedence(r.precedence + 1)

	switch opTok {
	case token.BANG_EQ:
		p.emitOp(opcode.EQUAL)
		p.emitOp(opcode.NOT)
	case token.EQ_EQ:
		p.emitOp(opcode.EQUAL)
	case token.GT:
		p.emitOp(opcode.GREATER)
	case token.GE:
		p.emitOp(opcode.LESS)
		p.emitOp(opcode.NOT)
	case token.LT:
		p.emitOp(opcode.LESS)
	case token.LE:
		p.emitOp(opcode.GREATER)
		p.emitOp(opcode.NOT)
	case token.PLUS:
		p.emitOp(opcode.ADD)
	case token.MINUS:
		p.emitOp(opcode.SUBTRACT)
	case token.STAR:
		p.emitOp(opcode.MULTIPLY)
	case token.SLASH:
		p.emitOp(opcode.DIVIDE)
	}
}

// and_ implements short-circuiting `and`: if the left operand is falsey,
// skip the right operand and leave it on the stack as the result.
func (p *Parser) and_(_ bool) {
	endJump := p.emitJump(opcode.JUMP_IF_FALSE)
	p.emitOp(opcode.POP)
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

// or_ implements short-circuiting `or`: if the left operand is truthy, skip
// the right operand.
func (p *Parser) or_(_ bool) {
	elseJump := p.emitJump(opcode.JUMP_IF_FALSE)
	endJump := p.emitJump(opcode.JUMP)

	p.patchJump(elseJump)
	p.emitOp(opcode.POP)

	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

func (p *Parser) variable(canAssign bool) {
	p.namedVariable(p.previous.Lexeme, canAssign)
}

func (p *Parser) namedVariable(name string, canAssign bool) {
	var getOp, setOp opcode.Op
	arg := resolveLocal(p, p.cur, name)
	if arg != -1 {
		getOp, setOp = opcode.GET_LOCAL, opcode.SET_LOCAL
	} else if arg = resolveUpvalue(p, p.cur, name); arg != -1 {
		getOp, setOp = opcode.GET_UPVALUE, opcode.SET_UPVALUE
	} else {
		arg = int(p.identifierConstant(name))
		getOp, setOp = opcode.GET_GLOBAL, opcode.SET_GLOBAL
	}

	if canAssign && p.match(token.EQ) {
		p.expression()
		p.emitBytes(setOp, byte(arg))
	} else {
		p.emitBytes(getOp, byte(arg))
	}
}

// syntheticLocal resolves a compiler-introduced name (`this`, `super`) the
// same way a user-written identifier would be, without consuming a token.
func (p *Parser) syntheticLocal(name string) {
	p.namedVariable(name, false)
}

func (p *Parser) this(_ bool) {
	if p.class == nil {
		p.error("can't use 'this' outside of a class")
		return
	}
	p.variable(false)
}

func (p *Parser) super(_ bool) {
	switch {
	case p.class == nil:
		p.error("can't use 'super' outside of a class")
	case !p.class.hasSuperclass:
		p.error("can't use 'super' in a class with no superclass")
	}

	p.consume(token.DOT, "expect '.' after 'super'")
	p.consume(token.IDENT, "expect superclass method name")
	name := p.identifierConstant(p.previous.Lexeme)

	p.syntheticLocal("this")
	if p.match(token.LPAREN) {
		argc := p.argumentList()
		p.syntheticLocal("super")
		p.emitBytes(opcode.SUPER_INVOKE, name)
		p.emitByte(argc)
		return
	}
	p.syntheticLocal("super")
	p.emitBytes(opcode.GET_SUPER, name)
}

func (p *Parser) dot(canAssign bool) {
	p.consume(token.IDENT, "expect property name after '.'")
	name := p.identifierConstant(p.previous.Lexeme)

	switch {
	case canAssign && p.match(token.EQ):
		p.expression()
		p.emitBytes(opcode.SET_PROPERTY, name)
	case p.match(token.LPAREN):
		argc := p.argumentList()
		p.emitBytes(opcode.INVOKE, name)
		p.emitByte(argc)
	default:
		p.emitBytes(opcode.GET_PROPERTY, name)
	}
}

func (p *Parser) call(_ bool) {
	argc := p.argumentList()
	p.emitBytes(opcode.CALL, argc)
}

// argumentList parses a parenthesized, comma-separated argument list whose
// opening '(' has already been consumed, and returns the argument count
// (capped at 255, spec §4.2).
func (p *Parser) argumentList() byte {
	var argc int
	if !p.check(token.RPAREN) {
		for {
			p.expression()
			if argc == 255 {
				p.error("can't have more than 255 arguments")
			}
			argc++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "expect ')' after arguments")
	return byte(argc)
}
