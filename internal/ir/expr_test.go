package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hucsmn/pego/internal/ir"
)

func TestSeqChcFlattenAndCollapse(t *testing.T) {
	a, b, c := ir.Lit("a"), ir.Lit("b"), ir.Lit("c")

	nested := ir.Seq(ir.Seq(a, b), c)
	require.Equal(t, ir.SEQ, nested.Op)
	assert.Equal(t, []*ir.Expression{a, b, c}, nested.Children)

	solo := ir.Chc(a)
	assert.Same(t, a, solo)

	empty := ir.Seq()
	assert.Equal(t, ir.SEQ, empty.Op)
	assert.Empty(t, empty.Children)
}

func TestBndAndRulDefaultName(t *testing.T) {
	b := ir.Bnd(ir.Dot(), "")
	assert.Equal(t, ir.AnonymousName, b.Name)

	r := ir.Rul(ir.Dot(), nil, "")
	assert.Equal(t, ir.AnonymousName, r.Name)
}

func TestCloneIsDeepAndIndependent(t *testing.T) {
	orig := ir.Seq(ir.Lit("a"), ir.Cls([]ir.Range{{Lo: 'a', Hi: 'z', HasHi: true}}, false))
	clone := orig.Clone()

	clone.Children[0].Lit = "z"
	clone.Children[1].Ranges[0].Lo = 'A'

	assert.Equal(t, "a", orig.Children[0].Lit)
	assert.Equal(t, rune('a'), orig.Children[1].Ranges[0].Lo)
}

func TestWalkVisitsEveryNode(t *testing.T) {
	tree := ir.Seq(ir.Opt(ir.Lit("a")), ir.Pls(ir.Lit("b")))
	var ops []ir.Op
	tree.Walk(func(e *ir.Expression) { ops = append(ops, e.Op) })
	assert.Equal(t, []ir.Op{ir.SEQ, ir.OPT, ir.LIT, ir.PLS, ir.LIT}, ops)
}

func TestTransformRebuildsBottomUp(t *testing.T) {
	tree := ir.Seq(ir.Lit("a"), ir.Lit("b"))
	out := ir.Transform(tree, func(e *ir.Expression) *ir.Expression {
		if e.Op == ir.LIT {
			n := *e
			n.Lit = n.Lit + n.Lit
			return &n
		}
		return e
	})
	require.Equal(t, ir.SEQ, out.Op)
	assert.Equal(t, "aa", out.Children[0].Lit)
	assert.Equal(t, "bb", out.Children[1].Lit)
	// original tree is untouched
	assert.Equal(t, "a", tree.Children[0].Lit)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, ir.Dot().IsTerminal())
	assert.True(t, ir.Lit("x").IsTerminal())
	assert.True(t, ir.Sym("R").IsTerminal())
	assert.False(t, ir.Opt(ir.Dot()).IsTerminal())
	assert.False(t, ir.Seq(ir.Dot(), ir.Dot()).IsTerminal())
}
