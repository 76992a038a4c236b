package pego

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hucsmn/pego/internal/ir"
)

// ParseGrammar reads the §6.1 grammar text format and returns an
// unfinalized Grammar ready for Compile. Definitions are collected in
// encounter order. "<-" produces a bare definition; "<" wraps the body in
// an auto-ignore marker that Compile's optimizer pass expands around the
// configured ignore expression.
func ParseGrammar(source string) (*Grammar, error) {
	p := &textParser{src: source, calc: newPositionCalculator(source)}
	p.skipSpace()
	gr := NewGrammar()
	if p.pos >= len(p.src) {
		return nil, ir.ErrEmptyGrammar
	}
	for p.pos < len(p.src) {
		name, err := p.ident()
		if err != nil {
			return nil, p.wrap(err)
		}
		ignore, err := p.expectArrow()
		if err != nil {
			return nil, p.wrap(err)
		}
		body, err := p.choice()
		if err != nil {
			return nil, p.wrap(err)
		}
		if ignore {
			body = ir.Ign(body)
		}
		if err := gr.Define(name, body); err != nil {
			return nil, p.wrap(err)
		}
		p.skipSpace()
	}
	return gr, nil
}

type textParser struct {
	src  string
	pos  int
	calc *positionCalculator
}

func (p *textParser) wrap(err error) error {
	return newParseError(p.src, p.pos, err)
}

func (p *textParser) skipSpace() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '#' {
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f' {
			p.pos++
			continue
		}
		break
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (p *textParser) ident() (string, error) {
	if p.pos >= len(p.src) || !isIdentStart(p.src[p.pos]) {
		return "", errorf("expected an identifier")
	}
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos], nil
}

// expectArrow consumes "<-" or "<", reporting whether it was the
// auto-ignore form.
func (p *textParser) expectArrow() (ignore bool, err error) {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], "<-") {
		p.pos += 2
		p.skipSpace()
		return false, nil
	}
	if strings.HasPrefix(p.src[p.pos:], "<") {
		p.pos++
		p.skipSpace()
		return true, nil
	}
	return false, errorf("expected '<-' or '<'")
}

func (p *textParser) choice() (*Expression, error) {
	first, err := p.seq()
	if err != nil {
		return nil, err
	}
	alts := []*Expression{first}
	for {
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == '/' {
			p.pos++
			p.skipSpace()
			next, err := p.seq()
			if err != nil {
				return nil, err
			}
			alts = append(alts, next)
			continue
		}
		break
	}
	return Chc(alts...), nil
}

func (p *textParser) atSeqEnd() bool {
	if p.pos >= len(p.src) {
		return true
	}
	switch p.src[p.pos] {
	case '/', ')', '#':
		return true
	}
	// An identifier followed by an arrow starts the next definition.
	if isIdentStart(p.src[p.pos]) {
		j := p.pos
		for j < len(p.src) && isIdentPart(p.src[j]) {
			j++
		}
		for j < len(p.src) && strings.IndexByte(" \t\r\n\v\f", p.src[j]) >= 0 {
			j++
		}
		return j < len(p.src) && p.src[j] == '<'
	}
	return false
}

func (p *textParser) seq() (*Expression, error) {
	var items []*Expression
	for {
		p.skipSpace()
		if p.atSeqEnd() {
			break
		}
		item, err := p.prefix()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, errorf("expected an expression")
	}
	return Seq(items...), nil
}

func (p *textParser) prefix() (*Expression, error) {
	p.skipSpace()
	if p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '&':
			p.pos++
			e, err := p.prefix()
			if err != nil {
				return nil, err
			}
			return And(e), nil
		case '!':
			p.pos++
			e, err := p.prefix()
			if err != nil {
				return nil, err
			}
			return Not(e), nil
		case '~':
			p.pos++
			e, err := p.prefix()
			if err != nil {
				return nil, err
			}
			return Cap(e), nil
		}
	}
	return p.bindOrSuffix()
}

func (p *textParser) bindOrSuffix() (*Expression, error) {
	save := p.pos
	if p.pos < len(p.src) && isIdentStart(p.src[p.pos]) {
		name, _ := p.ident()
		if p.pos < len(p.src) && p.src[p.pos] == ':' {
			p.pos++
			e, err := p.prefix()
			if err != nil {
				return nil, err
			}
			return Bnd(e, name), nil
		}
		p.pos = save
	}
	return p.suffix()
}

func (p *textParser) suffix() (*Expression, error) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		if p.pos >= len(p.src) {
			return e, nil
		}
		switch p.src[p.pos] {
		case '?':
			p.pos++
			e = Opt(e)
		case '*':
			p.pos++
			e = Str(e)
		case '+':
			p.pos++
			e = Pls(e)
		case '{':
			e, err = p.repeat(e)
			if err != nil {
				return nil, err
			}
		default:
			return e, nil
		}
	}
}

// repeat desugars "{min,max}"/"{count}" into a sequence of mandatory copies
// followed by an optional tail, since the IR has no native bounded-count
// operator.
func (p *textParser) repeat(e *Expression) (*Expression, error) {
	p.pos++ // '{'
	min, err := p.number()
	if err != nil {
		return nil, err
	}
	max := min
	if p.pos < len(p.src) && p.src[p.pos] == ',' {
		p.pos++
		if p.pos < len(p.src) && p.src[p.pos] == '}' {
			max = -1 // unbounded
		} else {
			max, err = p.number()
			if err != nil {
				return nil, err
			}
		}
	}
	if p.pos >= len(p.src) || p.src[p.pos] != '}' {
		return nil, errorf("expected '}'")
	}
	p.pos++

	var items []*Expression
	for i := 0; i < min; i++ {
		items = append(items, e.Clone())
	}
	switch {
	case max < 0:
		items = append(items, Str(e.Clone()))
	case max > min:
		for i := min; i < max; i++ {
			items = append(items, Opt(e.Clone()))
		}
	}
	if len(items) == 0 {
		return nil, errorf("{0} repetition is not representable")
	}
	return Seq(items...), nil
}

func (p *textParser) number() (int, error) {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, errorf("expected a number")
	}
	n, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (p *textParser) primary() (*Expression, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, errorf("unexpected end of grammar")
	}
	switch p.src[p.pos] {
	case '(':
		p.pos++
		e, err := p.choice()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ')' {
			return nil, errorf("expected ')'")
		}
		p.pos++
		return e, nil
	case '"', '\'':
		return p.stringLit()
	case '[':
		return p.classLit()
	case '.':
		p.pos++
		return Dot(), nil
	default:
		if isIdentStart(p.src[p.pos]) {
			name, err := p.ident()
			if err != nil {
				return nil, err
			}
			return Sym(name), nil
		}
		return nil, errorf("unexpected character %q", p.src[p.pos])
	}
}

func (p *textParser) stringLit() (*Expression, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return nil, errorf("unterminated string literal")
		}
		c := p.src[p.pos]
		if c == quote {
			p.pos++
			break
		}
		if c == '\\' {
			r, n, err := scanEscape(p.src[p.pos:])
			if err != nil {
				return nil, err
			}
			b.WriteRune(r)
			p.pos += n
			continue
		}
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		b.WriteRune(r)
		p.pos += size
	}
	return Lit(b.String()), nil
}

func (p *textParser) classLit() (*Expression, error) {
	p.pos++ // '['
	negate := false
	if p.pos < len(p.src) && p.src[p.pos] == '^' {
		negate = true
		p.pos++
	}
	var ranges []Range
	for {
		if p.pos >= len(p.src) {
			return nil, errorf("unterminated character class")
		}
		if p.src[p.pos] == ']' {
			p.pos++
			break
		}
		lo, err := p.classRune()
		if err != nil {
			return nil, err
		}
		if p.pos+1 < len(p.src) && p.src[p.pos] == '-' && p.src[p.pos+1] != ']' {
			p.pos++
			hi, err := p.classRune()
			if err != nil {
				return nil, err
			}
			ranges = append(ranges, Range{Lo: lo, Hi: hi, HasHi: true})
		} else {
			ranges = append(ranges, Range{Lo: lo})
		}
	}
	return Cls(ranges, negate), nil
}

func (p *textParser) classRune() (rune, error) {
	if p.src[p.pos] == '\\' {
		r, n, err := scanEscape(p.src[p.pos:])
		if err != nil {
			return 0, err
		}
		p.pos += n
		return r, nil
	}
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	return r, nil
}

// scanEscape decodes one backslash escape at the start of s (s[0] == '\\'),
// returning the decoded rune and the number of bytes it consumed.
func scanEscape(s string) (rune, int, error) {
	if len(s) < 2 {
		return 0, 0, errorf("unterminated escape sequence")
	}
	switch s[1] {
	case 'n':
		return '\n', 2, nil
	case 'r':
		return '\r', 2, nil
	case 't':
		return '\t', 2, nil
	case 'v':
		return '\v', 2, nil
	case 'f':
		return '\f', 2, nil
	case '"':
		return '"', 2, nil
	case '\'':
		return '\'', 2, nil
	case '[':
		return '[', 2, nil
	case ']':
		return ']', 2, nil
	case '\\':
		return '\\', 2, nil
	case 'x':
		return scanHexEscape(s, 2)
	case 'u':
		return scanHexEscape(s, 4)
	case 'U':
		return scanHexEscape(s, 8)
	default:
		if s[1] >= '0' && s[1] <= '7' {
			return scanOctalEscape(s)
		}
		return 0, 0, errorf("unknown escape sequence %q", s[:2])
	}
}

func scanHexEscape(s string, ndigits int) (rune, int, error) {
	if len(s) < 2+ndigits {
		return 0, 0, errorf("truncated escape sequence %q", s)
	}
	v, err := strconv.ParseInt(s[2:2+ndigits], 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid escape sequence %q: %w", s[:2+ndigits], err)
	}
	return rune(v), 2 + ndigits, nil
}

func scanOctalEscape(s string) (rune, int, error) {
	n := 1
	for n < 3 && 1+n < len(s) && s[1+n] >= '0' && s[1+n] <= '7' {
		n++
	}
	v, err := strconv.ParseInt(s[1:1+n], 8, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid octal escape %q: %w", s[:1+n], err)
	}
	return rune(v), 1 + n, nil
}
