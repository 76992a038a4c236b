package pego

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hucsmn/pego/internal/ir"
)

// Format renders e back into the §6.1 grammar text syntax for a single
// expression (no "Name <- " prefix). It is the inverse of the expression
// grammar ParseGrammar parses: for any e built without RGX or RUL nodes,
// parsing Format(e) as the body of a definition reproduces an equivalent
// tree. RGX and RUL have no surface syntax and are rendered as comments
// describing their shape, since neither regex literals nor action
// attachment exist in the text format. IGN has no expression-level form
// (only a definition's "<" arrow produces it), so Format renders its child.
func Format(e *Expression) string {
	var b strings.Builder
	formatChoice(&b, e)
	return b.String()
}

// formatChoice renders e at choice precedence (the loosest level, used at
// the top and inside parentheses).
func formatChoice(b *strings.Builder, e *Expression) {
	if e.Op == ir.CHC {
		for i, c := range e.Children {
			if i > 0 {
				b.WriteString(" / ")
			}
			formatSeq(b, c)
		}
		return
	}
	formatSeq(b, e)
}

func formatSeq(b *strings.Builder, e *Expression) {
	if e.Op == ir.SEQ {
		for i, c := range e.Children {
			if i > 0 {
				b.WriteByte(' ')
			}
			formatPrefix(b, c)
		}
		return
	}
	formatPrefix(b, e)
}

func formatPrefix(b *strings.Builder, e *Expression) {
	switch e.Op {
	case ir.AND:
		b.WriteByte('&')
		formatPrefix(b, e.Child)
	case ir.NOT:
		b.WriteByte('!')
		formatPrefix(b, e.Child)
	case ir.CAP:
		b.WriteByte('~')
		formatPrefix(b, e.Child)
	case ir.BND:
		if e.Name != ir.AnonymousName {
			b.WriteString(e.Name)
			b.WriteByte(':')
		}
		formatPrefix(b, e.Child)
	case ir.DIS:
		// DIS has no dedicated surface form; a plain sub-expression already
		// discards its value unless wrapped in ~ or bound, so render the
		// child as-is.
		formatPrefix(b, e.Child)
	case ir.IGN:
		formatPrefix(b, e.Child)
	default:
		formatSuffix(b, e)
	}
}

func formatSuffix(b *strings.Builder, e *Expression) {
	switch e.Op {
	case ir.OPT:
		formatAtom(b, e.Child)
		b.WriteByte('?')
	case ir.STR:
		formatAtom(b, e.Child)
		b.WriteByte('*')
	case ir.PLS:
		formatAtom(b, e.Child)
		b.WriteByte('+')
	default:
		formatAtom(b, e)
	}
}

// formatAtom renders e at primary precedence, parenthesizing whenever e is
// not already a single lexical token.
func formatAtom(b *strings.Builder, e *Expression) {
	switch e.Op {
	case ir.DOT:
		b.WriteByte('.')
	case ir.LIT:
		formatLiteral(b, e.Lit)
	case ir.CLS:
		formatClass(b, e.Ranges, e.Negate)
	case ir.SYM:
		b.WriteString(e.Name)
	case ir.RGX:
		fmt.Fprintf(b, "#<regex %q flags=%q>", e.RegexPattern, e.RegexFlags)
	case ir.RUL:
		b.WriteByte('(')
		formatChoice(b, e.Child)
		b.WriteByte(')')
		fmt.Fprintf(b, " #<rule %s>", e.Name)
	default:
		b.WriteByte('(')
		formatChoice(b, e)
		b.WriteByte(')')
	}
}

func formatLiteral(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		writeEscaped(b, r, '"')
	}
	b.WriteByte('"')
}

func formatClass(b *strings.Builder, ranges []Range, negate bool) {
	b.WriteByte('[')
	if negate {
		b.WriteByte('^')
	}
	for _, r := range ranges {
		writeClassEscaped(b, r.Lo)
		if r.HasHi && r.Hi != r.Lo {
			b.WriteByte('-')
			writeClassEscaped(b, r.Hi)
		}
	}
	b.WriteByte(']')
}

func writeEscaped(b *strings.Builder, r rune, quote rune) {
	switch r {
	case '\n':
		b.WriteString(`\n`)
	case '\r':
		b.WriteString(`\r`)
	case '\t':
		b.WriteString(`\t`)
	case '\v':
		b.WriteString(`\v`)
	case '\f':
		b.WriteString(`\f`)
	case '\\':
		b.WriteString(`\\`)
	case quote:
		b.WriteByte('\\')
		b.WriteRune(quote)
	default:
		if r < 0x20 || !unicode.IsPrint(r) {
			if r > 0xFFFF {
				fmt.Fprintf(b, `\U%08x`, r)
			} else {
				fmt.Fprintf(b, `\u%04x`, r)
			}
			return
		}
		b.WriteRune(r)
	}
}

func writeClassEscaped(b *strings.Builder, r rune) {
	switch r {
	case ']', '\\':
		b.WriteByte('\\')
		b.WriteRune(r)
	case '^', '-':
		// The text format has no \^ or \- escape; octal keeps them literal.
		fmt.Fprintf(b, `\%03o`, r)
	default:
		writeEscaped(b, r, ']')
	}
}

// FormatGrammar renders every definition of gr in first-seen order, one
// "Name <- Expression" per line ("Name < Expression" for a definition whose
// body is an auto-ignore IGN node). gr must not contain RGX or RUL nodes for
// the result to round-trip through ParseGrammar.
func FormatGrammar(gr *Grammar) string {
	var b strings.Builder
	for _, name := range gr.Names() {
		e, ok := gr.g.Lookup(name)
		if !ok {
			continue
		}
		arrow := " <- "
		if e.Op == ir.IGN {
			arrow, e = " < ", e.Child
		}
		b.WriteString(name)
		b.WriteString(arrow)
		formatChoice(&b, e)
		b.WriteByte('\n')
	}
	return b.String()
}
