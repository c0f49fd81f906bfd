// Package grammar parses pbxproj text into a value.Map.
//
// The grammar is
//
//	file   := object
//	object := '{' field* '}'
//	field  := key '=' value ';'
//	array  := '(' (value ',')* ')'
//	value  := array | object | string | bool | kind | number | uuid | ident
//	key    := ident | string
//
// Bare tokens are tried as bool, kind, uuid and number in that order before
// falling back to a plain identifier. uuid and ident both produce strings.
package grammar

import (
	"strconv"
	"strings"

	"github.com/dejo1307/xcodemcp/internal/pbxproj/kind"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/pbxerr"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/value"
)

const uuidLen = 24

// Parse parses a complete pbxproj document. The top level must be a single
// object; anything other than whitespace and comments after it is an error.
func Parse(src []byte) (value.Map, error) {
	p := newParser(src)
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if p.peek() != '{' {
		return nil, p.fail("'{'")
	}
	m, err := p.parseObject()
	if err != nil {
		return nil, err
	}
	if err := p.skipSpace(); err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, p.fail("end of input")
	}
	return m, nil
}

// ParseValue parses a single value, e.g. `1.4.2` or `( A, B, )`.
func ParseValue(src []byte) (value.Value, error) {
	p := newParser(src)
	if err := p.skipSpace(); err != nil {
		return value.Value{}, err
	}
	v, err := p.parseValue()
	if err != nil {
		return value.Value{}, err
	}
	if err := p.skipSpace(); err != nil {
		return value.Value{}, err
	}
	if !p.eof() {
		return value.Value{}, p.fail("end of input")
	}
	return v, nil
}

// ParseBool accepts exactly YES or NO.
func ParseBool(token string) (bool, error) {
	switch token {
	case "YES":
		return true, nil
	case "NO":
		return false, nil
	}
	return false, pbxerr.Syntax(1, 1, 0, "YES or NO", token)
}

type parser struct {
	src  []byte
	pos  int
	line int
	col  int
}

func newParser(src []byte) *parser {
	return &parser{src: src, line: 1, col: 1}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) peekAt(off int) byte {
	if p.pos+off >= len(p.src) {
		return 0
	}
	return p.src[p.pos+off]
}

func (p *parser) advance() byte {
	c := p.src[p.pos]
	p.pos++
	if c == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return c
}

// fail builds a syntax error at the current position.
func (p *parser) fail(expected string) error {
	return pbxerr.Syntax(p.line, p.col, p.pos, expected, p.found())
}

func (p *parser) found() string {
	if p.eof() {
		return "end of input"
	}
	end := p.pos
	for end < len(p.src) && end-p.pos < 16 && !isSpace(p.src[end]) {
		end++
	}
	if end == p.pos {
		end++
	}
	return string(p.src[p.pos:end])
}

// skipSpace consumes whitespace and comments.
func (p *parser) skipSpace() error {
	for !p.eof() {
		c := p.peek()
		switch {
		case isSpace(c):
			p.advance()
		case c == '/' && p.peekAt(1) == '*':
			line, col, pos := p.line, p.col, p.pos
			p.advance()
			p.advance()
			closed := false
			for !p.eof() {
				if p.peek() == '*' && p.peekAt(1) == '/' {
					p.advance()
					p.advance()
					closed = true
					break
				}
				p.advance()
			}
			if !closed {
				return pbxerr.Syntax(line, col, pos, "closing '*/'", "end of input")
			}
		case c == '/' && p.peekAt(1) == '/':
			for !p.eof() && p.peek() != '\n' {
				p.advance()
			}
		default:
			return nil
		}
	}
	return nil
}

func (p *parser) expect(c byte) error {
	if err := p.skipSpace(); err != nil {
		return err
	}
	if p.peek() != c || p.eof() {
		return p.fail(strconv.QuoteRune(rune(c)))
	}
	p.advance()
	return nil
}

func (p *parser) parseObject() (value.Map, error) {
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	m := make(value.Map)
	for {
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		if p.eof() {
			return nil, p.fail("field or '}'")
		}
		if p.peek() == '}' {
			p.advance()
			return m, nil
		}
		key, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		if err := p.expect('='); err != nil {
			return nil, err
		}
		if err := p.skipSpace(); err != nil {
			return nil, err
		}
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if err := p.expect(';'); err != nil {
			return nil, err
		}
		m[key] = v
	}
}

func (p *parser) parseArray() (value.Value, error) {
	if err := p.expect('('); err != nil {
		return value.Value{}, err
	}
	items := []value.Value{}
	for {
		if err := p.skipSpace(); err != nil {
			return value.Value{}, err
		}
		if p.eof() {
			return value.Value{}, p.fail("value or ')'")
		}
		if p.peek() == ')' {
			p.advance()
			return value.Array(items...), nil
		}
		v, err := p.parseValue()
		if err != nil {
			return value.Value{}, err
		}
		items = append(items, v)
		if err := p.skipSpace(); err != nil {
			return value.Value{}, err
		}
		switch p.peek() {
		case ',':
			p.advance()
		case ')':
			// last element without a trailing comma
		default:
			return value.Value{}, p.fail("',' or ')'")
		}
	}
}

func (p *parser) parseKey() (string, error) {
	if p.peek() == '"' {
		return p.parseQuoted()
	}
	tok := p.parseBare()
	if tok == "" {
		return "", p.fail("key")
	}
	return tok, nil
}

// parseValue expects leading space to have been skipped.
func (p *parser) parseValue() (value.Value, error) {
	switch c := p.peek(); {
	case p.eof():
		return value.Value{}, p.fail("value")
	case c == '(':
		return p.parseArray()
	case c == '{':
		m, err := p.parseObject()
		if err != nil {
			return value.Value{}, err
		}
		return value.Object(m), nil
	case c == '"':
		s, err := p.parseQuoted()
		if err != nil {
			return value.Value{}, err
		}
		return value.String(s), nil
	}

	tok := p.parseBare()
	if tok == "" {
		return value.Value{}, p.fail("value")
	}
	return classifyBare(tok), nil
}

// classifyBare applies the ordered bare-token alternatives.
func classifyBare(tok string) value.Value {
	if b, err := ParseBool(tok); err == nil {
		return value.Bool(b)
	}
	if k, ok := kind.Lookup(tok); ok {
		return value.KindOf(k)
	}
	if isUUID(tok) {
		return value.String(tok)
	}
	if isDigits(tok) {
		if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return value.Number(n)
		}
	}
	return value.String(tok)
}

func (p *parser) parseBare() string {
	start := p.pos
	for !p.eof() && isBare(p.peek()) {
		p.advance()
	}
	return string(p.src[start:p.pos])
}

// parseQuoted reads a double-quoted string and decodes its escapes.
func (p *parser) parseQuoted() (string, error) {
	line, col, pos := p.line, p.col, p.pos
	p.advance() // opening quote
	var sb strings.Builder
	for !p.eof() {
		c := p.advance()
		switch c {
		case '"':
			return sb.String(), nil
		case '\\':
			if p.eof() {
				return "", pbxerr.Syntax(line, col, pos, "closing '\"'", "end of input")
			}
			esc := p.advance()
			switch esc {
			case '"', '\\', '\'':
				sb.WriteByte(esc)
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			}
		default:
			sb.WriteByte(c)
		}
	}
	return "", pbxerr.Syntax(line, col, pos, "closing '\"'", "end of input")
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isBare(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c >= 0x80:
		return true
	}
	switch c {
	case '_', '$', '+', '/', ':', '.', '-':
		return true
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isUUID(s string) bool {
	if len(s) != uuidLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'A' && c <= 'F' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
