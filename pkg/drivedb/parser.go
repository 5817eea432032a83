package drivedb

import (
	"fmt"
	"strings"
)

// number of string fields of a record
const recordFields = 5

// ParseError is a syntax or validation error in an external database
type ParseError struct {
	Pos Position
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// ParseErrors collects all errors found while loading a file
type ParseErrors []*ParseError

func (e ParseErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, pe := range e {
		msgs = append(msgs, pe.Error())
	}
	return fmt.Sprintf("%d error(s) in drive database: %s", len(e), strings.Join(msgs, "; "))
}

type parserState int

const (
	// expecting '{' or end of file
	stateRecordStart parserState = iota
	// skipping tokens up to the next '{' after an error
	stateResync
	stateDone
)

// parser is a recursive-descent parser for the brace-delimited record syntax:
//
//	file   = { record [ "," ] }
//	record = "{" string "," string "," string "," string "," string [ "," ] "}"
//	string = literal { literal }
type parser struct {
	lex  *lexer
	tok  token
	errs ParseErrors
}

func newParser(name string, src []byte) *parser {
	p := &parser{lex: newLexer(name, src)}
	p.advance()
	return p
}

func (p *parser) advance() {
	p.tok = p.lex.next()
}

func (p *parser) peek() token {
	return p.tok
}

func (p *parser) errorf(pos Position, format string, args ...interface{}) {
	p.errs = append(p.errs, &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (p *parser) unexpected(want string) {
	tok := p.peek()
	if tok.kind == tokenInvalid {
		p.errorf(tok.pos, "%s", tok.err)
		return
	}
	p.errorf(tok.pos, "expected %s, found %s", want, tok.kind)
}

// parseAll returns every syntactically valid record. Errors are collected
// and parsing resumes at the next '{'.
func (p *parser) parseAll() []*Record {
	var records []*Record
	state := stateRecordStart
	for state != stateDone {
		switch state {
		case stateRecordStart:
			switch p.peek().kind {
			case tokenEOF:
				state = stateDone
			case tokenLBrace:
				rec, ok := p.parseRecord()
				if !ok {
					state = stateResync
					continue
				}
				records = append(records, rec)
				if p.peek().kind == tokenComma {
					p.advance()
				}
			default:
				p.unexpected("'{'")
				p.advance()
				state = stateResync
			}
		case stateResync:
			for p.peek().kind != tokenLBrace && p.peek().kind != tokenEOF {
				p.advance()
			}
			state = stateRecordStart
		}
	}
	return records
}

func (p *parser) parseRecord() (*Record, bool) {
	start := p.peek().pos
	p.advance()

	var fields []string
	for len(fields) < recordFields {
		s, ok := p.parseString()
		if !ok {
			p.unexpected("string")
			return nil, false
		}
		fields = append(fields, s)
		if len(fields) < recordFields {
			if p.peek().kind != tokenComma {
				p.unexpected("','")
				return nil, false
			}
			p.advance()
		}
	}
	if p.peek().kind == tokenComma {
		p.advance()
	}
	if p.peek().kind != tokenRBrace {
		p.unexpected("'}'")
		return nil, false
	}
	p.advance()

	return &Record{
		Family:          fields[0],
		ModelPattern:    fields[1],
		FirmwarePattern: fields[2],
		Warning:         fields[3],
		Presets:         fields[4],
		Source:          fmt.Sprintf("%s:%d", start.File, start.Line),
		pos:             start,
	}, true
}

// parseString concatenates adjacent literals
func (p *parser) parseString() (string, bool) {
	if p.peek().kind != tokenString {
		return "", false
	}
	var sb strings.Builder
	for p.peek().kind == tokenString {
		sb.WriteString(p.peek().text)
		p.advance()
	}
	return sb.String(), true
}

// parseSource parses and validates the records of src. Records that fail
// validation are dropped and reported.
func parseSource(name string, src []byte) ([]*Record, ParseErrors) {
	p := newParser(name, src)
	parsed := p.parseAll()

	records := make([]*Record, 0, len(parsed))
	for _, rec := range parsed {
		if err := rec.compile(); err != nil {
			p.errs = append(p.errs, &ParseError{Pos: rec.pos, Msg: err.Error()})
			continue
		}
		records = append(records, rec)
	}
	return records, p.errs
}
