package optimizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hucsmn/pego/internal/ir"
	"github.com/hucsmn/pego/internal/optimizer"
	"github.com/hucsmn/pego/internal/packrat"
)

func buildGrammar(t *testing.T, defs map[string]*ir.Expression, start string) *ir.Grammar {
	t.Helper()
	g := ir.NewGrammar()
	for name, e := range defs {
		require.NoError(t, g.Define(name, e))
	}
	require.NoError(t, g.SetStart(start))
	require.NoError(t, g.Finalize())
	return g
}

func TestOptimizeIsIdempotent(t *testing.T) {
	g := buildGrammar(t, map[string]*ir.Expression{
		"digit": ir.Cls([]ir.Range{{Lo: '0', Hi: '9', HasHi: true}}, false),
		"word":  ir.Pls(ir.Sym("letter")),
		"letter": ir.Chc(
			ir.Cls([]ir.Range{{Lo: 'a', Hi: 'z', HasHi: true}}, false),
			ir.Cls([]ir.Range{{Lo: 'A', Hi: 'Z', HasHi: true}}, false),
		),
	}, "word")

	opts := optimizer.Options{Inline: true, Merge: true, Regex: true}

	once := optimizer.Optimize(g, opts)
	twice := optimizer.Optimize(once, opts)

	for _, name := range once.Names() {
		a, _ := once.Lookup(name)
		b, _ := twice.Lookup(name)
		assert.Equal(t, formatOp(a), formatOp(b), "definition %q changed on re-optimization", name)
	}
}

func TestOptimizeInlineEliminatesNonRecursiveReference(t *testing.T) {
	g := buildGrammar(t, map[string]*ir.Expression{
		"S": ir.Seq(ir.Sym("T"), ir.Lit("!")),
		"T": ir.Lit("hi"),
	}, "S")

	out := optimizer.Optimize(g, optimizer.Options{Inline: true})
	def, ok := out.Lookup("S")
	require.True(t, ok)

	var sawSym bool
	def.Walk(func(e *ir.Expression) {
		if e.Op == ir.SYM && e.Name == "T" {
			sawSym = true
		}
	})
	assert.False(t, sawSym, "inline should have substituted the reference to T")
}

func TestOptimizeInlinePreservesRecursiveReference(t *testing.T) {
	g := buildGrammar(t, map[string]*ir.Expression{
		"S": ir.Chc(ir.Seq(ir.Lit("a"), ir.Sym("S")), ir.Lit("b")),
	}, "S")

	out := optimizer.Optimize(g, optimizer.Options{Inline: true})
	def, ok := out.Lookup("S")
	require.True(t, ok)

	var sawSym bool
	def.Walk(func(e *ir.Expression) {
		if e.Op == ir.SYM {
			sawSym = true
		}
	})
	assert.True(t, sawSym, "a recursive reference must never be inlined")
}

func TestOptimizeInlineSubstitutesNonRecursiveCallerOfRecursiveCallee(t *testing.T) {
	// A is not itself recursive; it merely references B, which is. A's own
	// reference to B must still be inlined, leaving only B's internal
	// self-reference behind.
	g := buildGrammar(t, map[string]*ir.Expression{
		"A": ir.Sym("B"),
		"B": ir.Chc(ir.Seq(ir.Sym("B"), ir.Lit("b")), ir.Lit("x")),
	}, "A")

	out := optimizer.Optimize(g, optimizer.Options{Inline: true})
	def, ok := out.Lookup("A")
	require.True(t, ok)

	assert.NotEqual(t, ir.SYM, def.Op, "A's reference to B should have been substituted")
	var sawSym bool
	def.Walk(func(e *ir.Expression) {
		if e.Op == ir.SYM {
			sawSym = true
			assert.Equal(t, "B", e.Name, "only B's own self-reference should remain")
		}
	})
	assert.True(t, sawSym, "B's self-reference must survive inside the substituted body")
}

func TestOptimizeMergeFusesAdjacentLiterals(t *testing.T) {
	g := buildGrammar(t, map[string]*ir.Expression{
		"S": ir.Seq(ir.Lit("a"), ir.Lit("b"), ir.Lit("c")),
	}, "S")

	out := optimizer.Optimize(g, optimizer.Options{Merge: true})
	def, _ := out.Lookup("S")
	require.Equal(t, ir.LIT, def.Op)
	assert.Equal(t, "abc", def.Lit)
}

func TestOptimizePreservesObservableBehavior(t *testing.T) {
	raw := buildGrammar(t, map[string]*ir.Expression{
		"S": ir.Seq(ir.Lit("foo"), ir.Sym("T")),
		"T": ir.Pls(ir.Cls([]ir.Range{{Lo: '0', Hi: '9', HasHi: true}}, false)),
	}, "S")

	optimized := optimizer.Optimize(raw, optimizer.Options{Inline: true, Merge: true, Regex: true})

	rawEval := packrat.New(raw.Definitions(), raw.Start(), false, 0)
	optEval := packrat.New(optimized.Definitions(), optimized.Start(), false, 0)

	for _, in := range []string{"foo123", "foo", "bar123", ""} {
		rEnd, _, _, rOk, rErr := rawEval.Match(in)
		oEnd, _, _, oOk, oErr := optEval.Match(in)
		require.NoError(t, rErr)
		require.NoError(t, oErr)
		assert.Equal(t, rOk, oOk, "input %q", in)
		if rOk {
			assert.Equal(t, rEnd, oEnd, "input %q", in)
		}
	}
}

// formatOp renders just enough of a node's shape to detect structural drift
// across re-optimization without needing a full grammar-text printer.
func formatOp(e *ir.Expression) string {
	if e == nil {
		return "nil"
	}
	s := e.Op.String()
	switch e.Op {
	case ir.LIT:
		s += ":" + e.Lit
	case ir.SYM:
		s += ":" + e.Name
	}
	s += "("
	s += formatOp(e.Child)
	for _, c := range e.Children {
		s += "," + formatOp(c)
	}
	s += ")"
	return s
}
