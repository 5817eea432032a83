package drivedb

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenLBrace
	tokenRBrace
	tokenComma
	tokenString
	tokenInvalid
)

func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of file"
	case tokenLBrace:
		return "'{'"
	case tokenRBrace:
		return "'}'"
	case tokenComma:
		return "','"
	case tokenString:
		return "string"
	}
	return "invalid token"
}

// Position locates a token in the source
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

type token struct {
	kind tokenKind
	text string
	pos  Position
	// err is set for tokenInvalid
	err string
}

// lexer splits a drive database source into tokens. It operates on an
// in-memory buffer through peek and advance.
type lexer struct {
	src  []byte
	off  int
	line int
	col  int
	name string
}

func newLexer(name string, src []byte) *lexer {
	return &lexer{src: src, line: 1, col: 1, name: name}
}

func (l *lexer) peek() byte {
	if l.off >= len(l.src) {
		return 0
	}
	return l.src[l.off]
}

func (l *lexer) peekAt(n int) byte {
	if l.off+n >= len(l.src) {
		return 0
	}
	return l.src[l.off+n]
}

func (l *lexer) eof() bool {
	return l.off >= len(l.src)
}

func (l *lexer) advance() byte {
	if l.eof() {
		return 0
	}
	c := l.src[l.off]
	l.off++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) pos() Position {
	return Position{File: l.name, Line: l.line, Column: l.col}
}

// skipSpace skips whitespace and comments. An unterminated block comment is
// returned as an invalid token.
func (l *lexer) skipSpace() *token {
	for !l.eof() {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			l.advance()
		case c == '/' && l.peekAt(1) == '/':
			for !l.eof() && l.peek() != '\n' {
				l.advance()
			}
		case c == '/' && l.peekAt(1) == '*':
			start := l.pos()
			l.advance()
			l.advance()
			closed := false
			for !l.eof() {
				if l.peek() == '*' && l.peekAt(1) == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return &token{kind: tokenInvalid, pos: start, err: "unterminated comment"}
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *lexer) next() token {
	if tok := l.skipSpace(); tok != nil {
		return *tok
	}
	start := l.pos()
	if l.eof() {
		return token{kind: tokenEOF, pos: start}
	}
	switch c := l.peek(); c {
	case '{':
		l.advance()
		return token{kind: tokenLBrace, text: "{", pos: start}
	case '}':
		l.advance()
		return token{kind: tokenRBrace, text: "}", pos: start}
	case ',':
		l.advance()
		return token{kind: tokenComma, text: ",", pos: start}
	case '"':
		return l.readString(start)
	default:
		l.advance()
		return token{kind: tokenInvalid, text: string(c), pos: start, err: fmt.Sprintf("unexpected character %q", c)}
	}
}

// readString reads a quoted literal. A literal cannot span lines. A bad
// escape sequence still consumes the literal up to its closing quote.
func (l *lexer) readString(start Position) token {
	l.advance()
	var sb strings.Builder
	bad := ""
	for {
		if l.eof() || l.peek() == '\n' {
			return token{kind: tokenInvalid, pos: start, err: "missing terminating '\"'"}
		}
		c := l.advance()
		if c == '"' {
			if bad != "" {
				return token{kind: tokenInvalid, pos: start, err: bad}
			}
			return token{kind: tokenString, text: sb.String(), pos: start}
		}
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		if l.eof() || l.peek() == '\n' {
			return token{kind: tokenInvalid, pos: start, err: "missing terminating '\"'"}
		}
		switch e := l.advance(); e {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case '\\', '"', '\'':
			sb.WriteByte(e)
		default:
			if bad == "" {
				bad = fmt.Sprintf("unknown escape sequence '\\%c'", e)
			}
		}
	}
}
