// Package internal holds the cross-backend parity tests: since packrat and
// machine are independent evaluators over the same IR, every grammar must
// produce byte-identical observable tuples (end, args, kwargs, ok) from
// both, the core invariant the two-runtime design exists to uphold.
package internal

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hucsmn/pego/internal/ir"
	"github.com/hucsmn/pego/internal/machine"
	"github.com/hucsmn/pego/internal/packrat"
)

type parityCase struct {
	name   string
	defs   map[string]*ir.Expression
	start  string
	inputs []string
}

func digit() *ir.Expression {
	return ir.Cls([]ir.Range{{Lo: '0', Hi: '9', HasHi: true}}, false)
}

func TestPackratMachineParity(t *testing.T) {
	cases := []parityCase{
		{
			name:   "literal sequence",
			defs:   map[string]*ir.Expression{"S": ir.Seq(ir.Lit("foo"), ir.Lit("bar"))},
			start:  "S",
			inputs: []string{"foobar", "foobaz", ""},
		},
		{
			name: "ordered choice with recursion",
			defs: map[string]*ir.Expression{
				"S": ir.Chc(ir.Seq(digit(), ir.Sym("S")), digit()),
			},
			start:  "S",
			inputs: []string{"123", "1", "", "a1"},
		},
		{
			name: "capture and bind",
			defs: map[string]*ir.Expression{
				"S": ir.Bnd(ir.Cap(ir.Pls(digit())), "n"),
			},
			start:  "S",
			inputs: []string{"42x", "x", "7"},
		},
		{
			name: "possessive repetition of optional",
			defs: map[string]*ir.Expression{
				"S": ir.Str(ir.Opt(ir.Lit("a"))),
			},
			start:  "S",
			inputs: []string{"aaab", "bbb", ""},
		},
		{
			name: "lookahead never consumes",
			defs: map[string]*ir.Expression{
				"S": ir.Seq(ir.And(ir.Lit("ab")), ir.Lit("a"), ir.Not(ir.Lit("c")), ir.Dot()),
			},
			start:  "S",
			inputs: []string{"ab", "ac", "xb"},
		},
		{
			name: "deeply nested choice",
			defs: map[string]*ir.Expression{
				"S": deepChoice(64),
			},
			start:  "S",
			inputs: []string{"z", "a"},
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			order := make([]string, 0, len(c.defs))
			for name := range c.defs {
				order = append(order, name)
			}

			prog := machine.Compile(order, c.defs)
			vm := machine.New(prog, c.start)
			pr := packrat.New(c.defs, c.start, false, 0)

			for _, in := range c.inputs {
				mEnd, mArgs, mKwargs, mOk, mErr := vm.Match(in)
				pEnd, pArgs, pKwargs, pOk, pErr := pr.Match(in)

				require.NoError(t, mErr, "machine: input %q", in)
				require.NoError(t, pErr, "packrat: input %q", in)
				require.Equal(t, pOk, mOk, "ok mismatch on input %q", in)
				if pOk {
					require.Equal(t, pEnd, mEnd, "end mismatch on input %q", in)
					if diff := cmp.Diff(pArgs, mArgs); diff != "" {
						t.Errorf("args mismatch on input %q (-packrat +machine):\n%s", in, diff)
					}
					if diff := cmp.Diff(pKwargs, mKwargs); diff != "" {
						t.Errorf("kwargs mismatch on input %q (-packrat +machine):\n%s", in, diff)
					}
				}
			}
		})
	}
}

// deepChoice builds a right-leaning chain of n single-character alternatives
// terminated by 'z', checking the machine's explicit-stack CHC compilation
// does not overflow where a naive recursive-descent encoding might strain.
func deepChoice(n int) *ir.Expression {
	alts := make([]*ir.Expression, 0, n+1)
	for i := 0; i < n; i++ {
		alts = append(alts, ir.Lit(string(rune('A'+i%26))))
	}
	alts = append(alts, ir.Lit("z"))
	return ir.Chc(alts...)
}
