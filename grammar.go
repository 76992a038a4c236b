package pego

import (
	"fmt"
	"regexp"

	"golang.org/x/exp/slices"

	"github.com/hucsmn/pego/internal/ir"
)

// Expression is a single node of the parsing expression tree: the same
// operator-tagged IR the optimizer and both runtimes share.
type Expression = ir.Expression

// Range is a single character-class range; a lone character is (c, false).
type Range = ir.Range

// The programmatic expression constructors, mirroring the grammar text
// syntax one-for-one (see ParseGrammar). Seq and Chc flatten nested same-operator
// operands and collapse a single operand to itself.
var (
	Dot = ir.Dot
	Lit = ir.Lit
	Sym = ir.Sym
	Opt = ir.Opt
	Str = ir.Str
	Pls = ir.Pls
	And = ir.And
	Not = ir.Not
	Cap = ir.Cap
	Bnd = ir.Bnd
	Dis = ir.Dis
	Ign = ir.Ign
	Rul = ir.Rul
	Seq = ir.Seq
	Chc = ir.Chc
)

// Cls builds a character class node from an ordered list of ranges.
func Cls(ranges []Range, negate bool) *Expression {
	return ir.Cls(ranges, negate)
}

// Rgx compiles pattern (optionally under the given inline flags, e.g. "i")
// into a precompiled-regex node.
func Rgx(pattern, flags string) (*Expression, error) {
	full := pattern
	if flags != "" {
		full = fmt.Sprintf("(?%s:%s)", flags, pattern)
	}
	re, err := regexp.Compile(full)
	if err != nil {
		return nil, err
	}
	return ir.Rgx(re, pattern, flags), nil
}

// Grammar is a builder for a named, ordered set of definitions, mirroring
// the text-format grammar's shape. Build it either by hand with Define or by
// parsing grammar text with ParseGrammar; either path feeds Compile.
type Grammar struct {
	g *ir.Grammar
}

// NewGrammar returns an empty, unfinalized grammar builder.
func NewGrammar() *Grammar {
	return &Grammar{g: ir.NewGrammar()}
}

// Define adds (or, before Compile, replaces) a named definition, preserving
// first-seen order.
func (gr *Grammar) Define(name string, e *Expression) error {
	return gr.g.Define(name, e)
}

// SetAction attaches an action to a named definition, wrapped as the
// outermost rule around that definition's body at compile time.
func (gr *Grammar) SetAction(name string, action Action) error {
	return gr.g.SetAction(name, action)
}

// SetStart designates the start symbol; the first-defined name is used if
// this is never called.
func (gr *Grammar) SetStart(name string) error {
	return gr.g.SetStart(name)
}

// Names returns the definition names in first-seen order.
func (gr *Grammar) Names() []string {
	return slices.Clone(gr.g.Names())
}
