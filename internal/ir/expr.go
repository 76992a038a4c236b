// Package ir implements the expression intermediate representation shared by
// the optimizer and both parsing runtimes: a uniform, operator-tagged tree
// describing any parsing expression, annotated with a value kind derived by
// fixed-point analysis.
package ir

import (
	"regexp"

	"golang.org/x/exp/slices"

	"github.com/hucsmn/pego/internal/actions"
)

// Op identifies the operator of an Expression node.
type Op int

// The closed set of expression operators.
const (
	DOT Op = iota // any one char
	LIT           // literal string
	CLS           // character class
	RGX           // precompiled regular expression
	SYM           // non-terminal reference by name

	OPT // zero or one
	STR // zero or more, possessive
	PLS // one or more, possessive

	AND // positive lookahead
	NOT // negative lookahead

	CAP // emit matched substring as value
	BND // emit child's reduced value under a name
	DIS // match but emit nothing
	IGN // auto-ignore wrapper, removed by the optimizer
	RUL // apply an action to child's captures

	SEQ // sequence
	CHC // ordered choice
)

func (op Op) String() string {
	switch op {
	case DOT:
		return "DOT"
	case LIT:
		return "LIT"
	case CLS:
		return "CLS"
	case RGX:
		return "RGX"
	case SYM:
		return "SYM"
	case OPT:
		return "OPT"
	case STR:
		return "STR"
	case PLS:
		return "PLS"
	case AND:
		return "AND"
	case NOT:
		return "NOT"
	case CAP:
		return "CAP"
	case BND:
		return "BND"
	case DIS:
		return "DIS"
	case IGN:
		return "IGN"
	case RUL:
		return "RUL"
	case SEQ:
		return "SEQ"
	case CHC:
		return "CHC"
	}
	return "?"
}

// AnonymousName is the name attached to a BND or RUL node built without an
// explicit name.
const AnonymousName = "<anonymous>"

// Range is a single character-class range. A single character is stored as
// (c, HasHi=false); Hi is only meaningful when HasHi is true.
type Range struct {
	Lo    rune
	Hi    rune
	HasHi bool
}

// Single reports whether the range denotes exactly one character.
func (r Range) Single() bool {
	return !r.HasHi || r.Lo == r.Hi
}

// Expression is one node of the parsing expression IR: (op, args), where args
// is the fixed-shape tuple appropriate to op.
type Expression struct {
	Op Op

	// Terminal payloads.
	Lit          string
	Ranges       []Range
	Negate       bool
	Regex        *regexp.Regexp
	RegexPattern string
	RegexFlags   string

	// RegexFusible is meaningful only when Op == RGX. It reports whether
	// RegexPattern is a plain terminal run (DOT/LIT/CLS, or a concatenation
	// of those) that may be safely spliced into a single compiled pattern
	// together with an adjacent RGX sibling in a SEQ. A pattern built from a
	// quantifier or an ordered choice (OPT/STR/PLS/CHC) is never fusible:
	// RE2 still finds "the same match that a backtracking search would have
	// found first" (see regexp/syntax docs), so concatenating e.g. "(?:a)*"
	// with a following "a" into one pattern lets the engine give back
	// characters from the star to satisfy the trailing literal, which a
	// possessive PEG repetition must never do. Such nodes still run fine on
	// their own, just never fused with a sibling.
	RegexFusible bool

	// Reference / naming payload, used by SYM, BND and RUL.
	Name string

	// Unary children, used by OPT, STR, PLS, AND, NOT, CAP, BND, DIS, IGN, RUL.
	Child *Expression

	// N-ary children, used by SEQ and CHC.
	Children []*Expression

	// Action, only meaningful for RUL; nil means transparent.
	Action actions.Action

	// Kind is the value kind computed during finalization. Zero value
	// (KindEmpty) until attachKinds has run.
	Kind ValueKind
}

// Dot builds a DOT node.
func Dot() *Expression {
	return &Expression{Op: DOT}
}

// Lit builds a LIT node.
func Lit(s string) *Expression {
	return &Expression{Op: LIT, Lit: s}
}

// Cls builds a CLS node. Ranges are copied.
func Cls(ranges []Range, negate bool) *Expression {
	return &Expression{Op: CLS, Ranges: slices.Clone(ranges), Negate: negate}
}

// Rgx builds an RGX node from an already-compiled pattern, recording both the
// source pattern and flags for debugging and re-emission.
func Rgx(re *regexp.Regexp, pattern, flags string) *Expression {
	return &Expression{Op: RGX, Regex: re, RegexPattern: pattern, RegexFlags: flags}
}

// Sym builds a SYM node referencing a non-terminal by name.
func Sym(name string) *Expression {
	return &Expression{Op: SYM, Name: name}
}

// Opt builds an OPT node.
func Opt(e *Expression) *Expression {
	return &Expression{Op: OPT, Child: e}
}

// Str builds a STR node.
func Str(e *Expression) *Expression {
	return &Expression{Op: STR, Child: e}
}

// Pls builds a PLS node.
func Pls(e *Expression) *Expression {
	return &Expression{Op: PLS, Child: e}
}

// And builds an AND (positive lookahead) node.
func And(e *Expression) *Expression {
	return &Expression{Op: AND, Child: e}
}

// Not builds a NOT (negative lookahead) node.
func Not(e *Expression) *Expression {
	return &Expression{Op: NOT, Child: e}
}

// Cap builds a CAP node.
func Cap(e *Expression) *Expression {
	return &Expression{Op: CAP, Child: e}
}

// Bnd builds a BND node. An empty name is replaced by AnonymousName.
func Bnd(e *Expression, name string) *Expression {
	if name == "" {
		name = AnonymousName
	}
	return &Expression{Op: BND, Child: e, Name: name}
}

// Dis builds a DIS node.
func Dis(e *Expression) *Expression {
	return &Expression{Op: DIS, Child: e}
}

// Ign builds an IGN node. IGN never survives into optimized/compiled IR; the
// auto-ignore optimizer pass eliminates it.
func Ign(e *Expression) *Expression {
	return &Expression{Op: IGN, Child: e}
}

// Rul builds a RUL node. A nil action makes the node transparent. An empty
// name is replaced by AnonymousName.
func Rul(e *Expression, action actions.Action, name string) *Expression {
	if name == "" {
		name = AnonymousName
	}
	return &Expression{Op: RUL, Child: e, Name: name, Action: action}
}

// Seq builds a SEQ node. Nested SEQ operands are flattened and a single
// operand collapses to itself, per the IR invariants.
func Seq(es ...*Expression) *Expression {
	return variadic(SEQ, es)
}

// Chc builds a CHC node. Nested CHC operands are flattened and a single
// operand collapses to itself, per the IR invariants.
func Chc(es ...*Expression) *Expression {
	return variadic(CHC, es)
}

func variadic(op Op, es []*Expression) *Expression {
	flat := make([]*Expression, 0, len(es))
	for _, e := range es {
		if e == nil {
			continue
		}
		if e.Op == op {
			flat = append(flat, e.Children...)
		} else {
			flat = append(flat, e)
		}
	}
	switch len(flat) {
	case 0:
		return &Expression{Op: op}
	case 1:
		return flat[0]
	default:
		return &Expression{Op: op, Children: flat}
	}
}

// IsTerminal reports whether the node has no sub-expression children.
func (e *Expression) IsTerminal() bool {
	switch e.Op {
	case DOT, LIT, CLS, RGX, SYM:
		return true
	}
	return false
}

// Clone makes a deep copy of the expression tree. Compiled regexes and
// actions are shared (both are treated as immutable values).
func (e *Expression) Clone() *Expression {
	if e == nil {
		return nil
	}
	c := *e
	c.Ranges = slices.Clone(e.Ranges)
	c.Child = e.Child.Clone()
	if e.Children != nil {
		c.Children = make([]*Expression, len(e.Children))
		for i, ch := range e.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return &c
}

// Walk calls visit on every node of the tree in pre-order, including e
// itself.
func (e *Expression) Walk(visit func(*Expression)) {
	if e == nil {
		return
	}
	visit(e)
	e.Child.Walk(visit)
	for _, c := range e.Children {
		c.Walk(visit)
	}
}

// Transform rebuilds the tree bottom-up, replacing each node with the result
// of applying f to a copy of the node whose children have already been
// transformed. f may return its argument unchanged.
func Transform(e *Expression, f func(*Expression) *Expression) *Expression {
	if e == nil {
		return nil
	}
	n := *e
	n.Child = Transform(e.Child, f)
	if e.Children != nil {
		n.Children = make([]*Expression, len(e.Children))
		for i, c := range e.Children {
			n.Children[i] = Transform(c, f)
		}
	}
	return f(&n)
}
