// Package scanner implements the lazy, single-token-lookahead tokenizer
// consumed by the compiler (spec §4.1). It never allocates heap objects:
// every Token's Lexeme is a slice of the original source string, except for
// ILLEGAL tokens, whose Lexeme is a constant error message.
package scanner

import "github.com/mna/loxvm/lang/token"

// Token is one lexical token: its kind, the exact source text it covers,
// and the 1-based line it starts on.
type Token struct {
	Kind   token.Token
	Lexeme string
	Line   int
}

// Scanner produces tokens lazily from src, one Next call at a time.
type Scanner struct {
	src     string
	start   int
	current int
	line    int
}

// New returns a Scanner positioned at the start of src.
func New(src string) *Scanner {
	return &Scanner{src: src, line: 1}
}

// Next scans and returns the next token, advancing past it. Once EOF is
// returned, every subsequent call keeps returning EOF.
func (s *Scanner) Next() Token {
	s.skipWhitespaceAndComments()
	s.start = s.current

	if s.atEnd() {
		return s.make(token.EOF)
	}

	c := s.advance()
	switch {
	case isAlpha(c):
		return s.identifier()
	case isDigit(c):
		return s.number()
	}

	switch c {
	case '(':
		return s.make(token.LPAREN)
	case ')':
		return s.make(token.RPAREN)
	case '{':
		return s.make(token.LBRACE)
	case '}':
		return s.make(token.RBRACE)
	case ';':
		return s.make(token.SEMI)
	case ',':
		return s.make(token.COMMA)
	case '.':
		return s.make(token.DOT)
	case '-':
		return s.make(token.MINUS)
	case '+':
		return s.make(token.PLUS)
	case '/':
		return s.make(token.SLASH)
	case '*':
		return s.make(token.STAR)
	case '!':
		return s.make(s.ifMatch('=', token.BANG_EQ, token.BANG))
	case '=':
		return s.make(s.ifMatch('=', token.EQ_EQ, token.EQ))
	case '<':
		return s.make(s.ifMatch('=', token.LE, token.LT))
	case '>':
		return s.make(s.ifMatch('=', token.GE, token.GT))
	case '"':
		return s.string()
	}

	return s.errTok("unexpected character")
}

func (s *Scanner) atEnd() bool { return s.current >= len(s.src) }

func (s *Scanner) advance() byte {
	c := s.src[s.current]
	s.current++
	return c
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.src) {
		return 0
	}
	return s.src[s.current+1]
}

func (s *Scanner) match(want byte) bool {
	if s.atEnd() || s.src[s.current] != want {
		return false
	}
	s.current++
	return true
}

func (s *Scanner) ifMatch(want byte, yes, no token.Token) token.Token {
	if s.match(want) {
		return yes
	}
	return no
}

func (s *Scanner) skipWhitespaceAndComments() {
	for {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.current++
		case '\n':
			s.line++
			s.current++
		case '/':
			if s.peekNext() == '/' {
				for s.peek() != '\n' && !s.atEnd() {
					s.current++
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (s *Scanner) make(kind token.Token) Token {
	return Token{Kind: kind, Lexeme: s.src[s.start:s.current], Line: s.line}
}

func (s *Scanner) errTok(msg string) Token {
	return Token{Kind: token.ILLEGAL, Lexeme: msg, Line: s.line}
}

func (s *Scanner) string() Token {
	startLine := s.line
	for s.peek() != '"' && !s.atEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.current++
	}
	if s.atEnd() {
		return Token{Kind: token.ILLEGAL, Lexeme: "unterminated string", Line: startLine}
	}
	s.current++ // closing quote
	return s.make(token.STRING)
}

func (s *Scanner) number() Token {
	for isDigit(s.peek()) {
		s.current++
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.current++ // consume '.'
		for isDigit(s.peek()) {
			s.current++
		}
	}
	return s.make(token.NUMBER)
}

func (s *Scanner) identifier() Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.current++
	}
	return s.make(token.LookupIdent(s.src[s.start:s.current]))
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
