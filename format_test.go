package pego_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hucsmn/pego"
)

func TestFormatRoundTrip(t *testing.T) {
	digit := pego.Cls([]pego.Range{{Lo: '0', Hi: '9', HasHi: true}}, false)
	cases := []struct {
		name    string
		e       *pego.Expression
		samples []string
	}{
		{"literal", pego.Lit("ab"), []string{"ab", "ac"}},
		{"class", digit, []string{"5", "x"}},
		{"choice", pego.Chc(pego.Lit("a"), pego.Lit("b")), []string{"a", "b", "c"}},
		{"star", pego.Str(pego.Lit("a")), []string{"aaa", ""}},
		{"lookahead", pego.Seq(pego.And(pego.Lit("ab")), pego.Lit("a")), []string{"ab", "ac"}},
		{"negation-seq", pego.Seq(pego.Not(pego.Lit("c")), pego.Dot()), []string{"a", "c"}},
		{"bind", pego.Bnd(pego.Cap(pego.Pls(digit.Clone())), "n"), []string{"42", "x"}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			gr1 := pego.NewGrammar()
			require.NoError(t, gr1.Define("S", c.e.Clone()))
			m1, err := pego.Compile(gr1, pego.Packrat, pego.DisableIgnore, pego.NONE)
			require.NoError(t, err)

			text := fmt.Sprintf("S <- %s\n", pego.Format(c.e))
			gr2, err := pego.ParseGrammar(text)
			require.NoError(t, err, "formatted text: %s", text)
			m2, err := pego.Compile(gr2, pego.Packrat, pego.DisableIgnore, pego.NONE)
			require.NoError(t, err)

			for _, in := range c.samples {
				match1, err1 := m1.Match(in, 0, pego.NONE)
				match2, err2 := m2.Match(in, 0, pego.NONE)
				require.NoError(t, err1)
				require.NoError(t, err2)
				if match1 == nil {
					assert.Nil(t, match2, "input %q", in)
					continue
				}
				require.NotNil(t, match2, "input %q", in)
				s1, e1 := match1.Span()
				s2, e2 := match2.Span()
				assert.Equal(t, s1, s2, "input %q", in)
				assert.Equal(t, e1, e2, "input %q", in)
			}
		})
	}
}

func TestFormatEscapesSpecialCharacters(t *testing.T) {
	e := pego.Lit("a\nb\"c")
	text := pego.Format(e)
	assert.Contains(t, text, `\n`)
	assert.Contains(t, text, `\"`)
}
