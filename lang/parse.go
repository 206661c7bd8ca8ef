package lang

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/ardnew/strudel/log"
)

// Expectation descriptions reported for character classes.
const (
	expectText       = `<any character other than "@">`
	expectLetter     = "[a-zA-Z]"
	expectIdentRest  = "[a-zA-Z0-9_]"
	expectDigit      = "[0-9]"
	expectSign       = `[+\-]`
	expectExponent   = "[eE]"
	expectQuotedText = `[^"]`
	expectFinite     = "<finite number>"
)

// parse converts source into a template. The whole input must be consumed.
func parse(ctx context.Context, source string, logger log.Logger) (*Template, error) {
	p := &parser{input: source, logger: logger}

	t := p.start()

	if p.halted || p.pos != len(p.input) {
		offset := max(p.pos, p.failPos)
		if p.halted {
			offset = p.failPos
		}

		expected := slices.Clone(p.expected)
		if offset != p.failPos {
			expected = nil
		}

		slices.Sort(expected)
		expected = slices.Compact(expected)

		err := newSyntaxError(source, offset, expected)

		p.logger.DebugContext(ctx, "parse failed", slog.Any("error", err))

		return nil, err
	}

	p.logger.TraceContext(ctx, "parse complete",
		slog.Int("source_bytes", len(source)),
		slog.Int("item_count", len(t.Items)))

	return t, nil
}

// parser holds the parser state.
//
// Every alternative that fails records what it expected at the position it
// reached. Only the rightmost such position is kept, since that is where the
// input most plausibly went wrong.
type parser struct {
	logger   log.Logger
	input    string
	expected []string
	pos      int
	failPos  int
	halted   bool
}

func (p *parser) eof() bool { return p.pos >= len(p.input) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}

	return p.input[p.pos]
}

// fail records desc as expected at the current position.
func (p *parser) fail(desc string) {
	switch {
	case p.halted:
		return
	case p.pos < p.failPos:
		return
	case p.pos > p.failPos:
		p.failPos = p.pos
		p.expected = p.expected[:0]
	}

	if !slices.Contains(p.expected, desc) {
		p.expected = append(p.expected, desc)
	}
}

// literal consumes s if the input continues with it.
func (p *parser) literal(s string) bool {
	if strings.HasPrefix(p.input[p.pos:], s) {
		p.pos += len(s)

		return true
	}

	p.fail(strconv.Quote(s))

	return false
}

// class consumes one byte satisfying match.
func (p *parser) class(desc string, match func(byte) bool) bool {
	if !p.eof() && match(p.peek()) {
		p.pos++

		return true
	}

	p.fail(desc)

	return false
}

// many consumes zero or more bytes satisfying match and returns the count.
func (p *parser) many(desc string, match func(byte) bool) int {
	n := 0
	for p.class(desc, match) {
		n++
	}

	return n
}

func isLetter(c byte) bool    { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }
func isDigit(c byte) bool     { return '0' <= c && c <= '9' }
func isIdentRest(c byte) bool { return isLetter(c) || isDigit(c) || c == '_' }
func isSign(c byte) bool      { return c == '+' || c == '-' }
func isExponent(c byte) bool  { return c == 'e' || c == 'E' }
func notQuote(c byte) bool    { return c != '"' }
func notMarker(c byte) bool   { return c != '@' }

// start parses template*.
func (p *parser) start() *Template {
	t := &Template{}

	for {
		n, ok := p.template()
		if !ok {
			return t
		}

		t.Items = append(t.Items, n)
	}
}

// template parses literal | block.
func (p *parser) template() (Node, bool) {
	if text := p.text(); text != "" {
		return &Literal{Text: text}, true
	}

	return p.block()
}

// text parses a maximal run of bytes other than the marker.
func (p *parser) text() string {
	begin := p.pos
	p.many(expectText, notMarker)

	return p.input[begin:p.pos]
}

// block parses the marker forms. The named form shares its prefix between the
// "@end" and "@else" alternatives so the consequent is parsed once.
func (p *parser) block() (Node, bool) {
	begin := p.pos

	if p.literal("@@") {
		return &Literal{Text: "@"}, true
	}

	if p.literal("@(") {
		if e, ok := p.expression(); ok && p.literal(")") {
			return e, true
		}

		p.pos = begin
	}

	if p.literal("@((") {
		if e, ok := p.expression(); ok && p.literal("))") {
			e.Raw = true

			return e, true
		}

		p.pos = begin
	}

	if b, ok := p.named(); ok {
		return b, true
	}

	p.pos = begin

	return nil, false
}

// named parses "@" name "(" expression ")" start ("@end" | "@else" start "@end").
func (p *parser) named() (*Block, bool) {
	if !p.literal("@") {
		return nil, false
	}

	name, ok := p.name()
	if !ok || !p.literal("(") {
		return nil, false
	}

	expr, ok := p.expression()
	if !ok || !p.literal(")") {
		return nil, false
	}

	b := &Block{Name: name, Expression: expr, Consequent: p.start()}

	if p.literal("@end") {
		return b, true
	}

	if !p.literal("@else") {
		return nil, false
	}

	b.Alternative = p.start()

	if !p.literal("@end") {
		return nil, false
	}

	return b, true
}

// expression parses attributes | (name " ")? path (" " attributes)?.
func (p *parser) expression() (*Expression, bool) {
	begin := p.pos

	if attrs, ok := p.attributes(); ok {
		return &Expression{Attributes: attrs}, true
	}

	p.pos = begin

	e := &Expression{}

	if name, ok := p.name(); ok && p.literal(" ") {
		e.Helper = name
	} else {
		p.pos = begin
	}

	path, ok := p.path()
	if !ok {
		p.pos = begin

		return nil, false
	}

	e.Path = path

	mark := p.pos
	if p.literal(" ") {
		if attrs, ok := p.attributes(); ok {
			e.Attributes = attrs
		} else {
			p.pos = mark
		}
	}

	return e, true
}

// path parses name ("." name | "[" index "]")*.
func (p *parser) path() ([]Component, bool) {
	first, ok := p.name()
	if !ok {
		return nil, false
	}

	path := []Component{first}

	for {
		mark := p.pos

		switch {
		case p.literal("."):
			if name, ok := p.name(); ok {
				path = append(path, name)

				continue
			}

		case p.literal("["):
			if index, ok := p.index(); ok && p.literal("]") {
				path = append(path, index)

				continue
			}
		}

		p.pos = mark

		return path, true
	}
}

// name parses [a-zA-Z] [a-zA-Z0-9_]*.
func (p *parser) name() (*Name, bool) {
	begin := p.pos

	if !p.class(expectLetter, isLetter) {
		return nil, false
	}

	p.many(expectIdentRest, isIdentRest)

	return &Name{Ident: p.input[begin:p.pos]}, true
}

// index parses [0-9]+.
func (p *parser) index() (*Index, bool) {
	begin := p.pos

	if p.many(expectDigit, isDigit) == 0 {
		return nil, false
	}

	n, err := strconv.Atoi(p.input[begin:p.pos])
	if err != nil {
		// Only overflow is possible.
		n = math.MaxInt
	}

	return &Index{Pos: n}, true
}

// attributes parses keyValuePair (" " keyValuePair)*. A repeated key keeps
// its last value.
func (p *parser) attributes() (Attributes, bool) {
	key, val, ok := p.keyValue()
	if !ok {
		return nil, false
	}

	attrs := Attributes{key: val}

	for {
		mark := p.pos

		if !p.literal(" ") {
			return attrs, true
		}

		key, val, ok := p.keyValue()
		if !ok {
			p.pos = mark

			return attrs, true
		}

		attrs[key] = val
	}
}

// keyValue parses name " "? "=" " "? value.
func (p *parser) keyValue() (string, any, bool) {
	begin := p.pos

	key, ok := p.name()
	if !ok {
		return "", nil, false
	}

	p.literal(" ")

	if !p.literal("=") {
		p.pos = begin

		return "", nil, false
	}

	p.literal(" ")

	val, ok := p.value()
	if !ok {
		p.pos = begin

		return "", nil, false
	}

	return key.Ident, val, true
}

// value parses quotedString | number | path.
func (p *parser) value() (any, bool) {
	if s, ok := p.quoted(); ok {
		return s, true
	}

	if f, ok := p.number(); ok {
		return f, true
	}

	if path, ok := p.path(); ok {
		return &Expression{Path: path}, true
	}

	return nil, false
}

// quoted parses "\"" [^"]* "\"". There are no escape sequences.
func (p *parser) quoted() (string, bool) {
	begin := p.pos

	if !p.literal(`"`) {
		return "", false
	}

	p.many(expectQuotedText, notQuote)

	if !p.literal(`"`) {
		p.pos = begin

		return "", false
	}

	return p.input[begin+1 : p.pos-1], true
}

// number parses [+-]? [0-9]+ ("." [0-9]+)? ([eE] [+-]? [0-9]+)?.
func (p *parser) number() (float64, bool) {
	begin := p.pos

	p.class(expectSign, isSign)

	if p.many(expectDigit, isDigit) == 0 {
		p.pos = begin

		return 0, false
	}

	if mark := p.pos; p.literal(".") {
		if p.many(expectDigit, isDigit) == 0 {
			p.pos = mark
		}
	}

	if mark := p.pos; p.class(expectExponent, isExponent) {
		p.class(expectSign, isSign)

		if p.many(expectDigit, isDigit) == 0 {
			p.pos = mark
		}
	}

	// Only a range error is possible, for which f is the signed infinity or
	// zero. Infinities have no serialized form, so they end the parse.
	f, _ := strconv.ParseFloat(p.input[begin:p.pos], 64)
	if math.IsInf(f, 0) {
		p.halt(begin, expectFinite)

		return 0, false
	}

	return f, true
}

// halt reports desc as the only expectation at offset and ignores every
// later failure, so the parse fails there whatever is tried next.
func (p *parser) halt(offset int, desc string) {
	p.pos = offset
	p.failPos = offset
	p.expected = append(p.expected[:0], desc)
	p.halted = true
}
