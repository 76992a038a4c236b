package pego_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hucsmn/pego"
)

func bothBackends(t *testing.T, source string, flags pego.Flags, f func(t *testing.T, m *pego.Matcher)) {
	t.Helper()
	for _, backend := range []pego.Backend{pego.Packrat, pego.Machine} {
		backend := backend
		t.Run(backend.String(), func(t *testing.T) {
			f(t, mustMatcher(t, source, backend, flags))
		})
	}
}

// Scenario 1: signed integer literal, no captures.
func TestEndToEndSignedInteger(t *testing.T) {
	bothBackends(t, `A <- "-"? [1-9] [0-9]*`, pego.NONE, func(t *testing.T, m *pego.Matcher) {
		match, err := m.Match("-123456", 0, pego.NONE)
		require.NoError(t, err)
		require.NotNil(t, match)
		start, end := match.Span()
		assert.Equal(t, 0, start)
		assert.Equal(t, 7, end)
		assert.Empty(t, match.Groups())
		assert.Nil(t, match.Value())
	})
}

// Scenario 2: capture of a choice.
func TestEndToEndCaptureOfChoice(t *testing.T) {
	bothBackends(t, `A <- ~("a" / "b" / "c")`, pego.NONE, func(t *testing.T, m *pego.Matcher) {
		match, err := m.Match("b", 0, pego.NONE)
		require.NoError(t, err)
		require.NotNil(t, match)
		_, end := match.Span()
		assert.Equal(t, 1, end)
		assert.Equal(t, []interface{}{"b"}, match.Groups())
		assert.Equal(t, "b", match.Value())
	})
}

// Scenario 3: capture survives the REGEX optimizer pass.
func TestEndToEndCaptureSurvivesRegexOptimization(t *testing.T) {
	bothBackends(t, `A <- "a" ~"b" "c"`, pego.REGEX, func(t *testing.T, m *pego.Matcher) {
		match, err := m.Match("abc", 0, pego.NONE)
		require.NoError(t, err)
		require.NotNil(t, match)
		assert.Equal(t, []interface{}{"b"}, match.Groups())
		assert.Equal(t, "b", match.Value())
	})
}

// Scenario 4: named bindings populate groupdict, not groups.
func TestEndToEndNamedBindings(t *testing.T) {
	bothBackends(t, `A <- x:~"a" y:~"b"`, pego.NONE, func(t *testing.T, m *pego.Matcher) {
		match, err := m.Match("ab", 0, pego.NONE)
		require.NoError(t, err)
		require.NotNil(t, match)
		assert.Empty(t, match.Groups())
		assert.Equal(t, map[string]interface{}{"x": "a", "y": "b"}, match.GroupDict())
	})
}

// Scenario 5: a Pack action assembles a comma-separated capture list.
func TestEndToEndPackedList(t *testing.T) {
	gr, err := pego.ParseGrammar(`A <- ~[0-9]+ ("," ~[0-9]+)*`)
	require.NoError(t, err)
	require.NoError(t, gr.SetAction("A", pego.Pack(func(args []interface{}, _ map[string]interface{}) (interface{}, error) {
		return args, nil
	})))

	for _, backend := range []pego.Backend{pego.Packrat, pego.Machine} {
		m, err := pego.Compile(gr, backend, pego.DisableIgnore, pego.NONE)
		require.NoError(t, err)
		match, err := m.Match("1,2,3", 0, pego.NONE)
		require.NoError(t, err)
		require.NotNil(t, match)
		assert.Equal(t, []interface{}{"1", "2", "3"}, match.Value())
	}
}

// Scenario 6: a small JSON-subset grammar (objects of string->number/array/null).
func TestEndToEndJSONSubset(t *testing.T) {
	const src = `
Json    <- Number / Array / Object / "null"
Number  <- ~[0-9]+
Array   <- "[" (Json ("," Json)*)? "]"
Object  <- "{" (Pair ("," Pair)*)? "}"
Pair    <- key:~String ":" value:Json
String  <- "\"" [a-zA-Z]* "\""
`
	gr, err := pego.ParseGrammar(src)
	require.NoError(t, err)
	require.NoError(t, gr.SetAction("Number", pego.Capture(func(s string) (interface{}, error) {
		return s, nil
	})))
	require.NoError(t, gr.SetStart("Json"))

	m, err := pego.Compile(gr, pego.Packrat, pego.DisableIgnore, pego.NONE)
	require.NoError(t, err)

	match, err := m.Match(`{"k":[1,2,null]}`, 0, pego.STRICT)
	require.NoError(t, err)
	require.NotNil(t, match)
	_, end := match.Span()
	assert.Equal(t, len(`{"k":[1,2,null]}`), end)
}

// Boundary: a possessive repetition whose body can match the empty string on
// every iteration (here OPT, which always succeeds) must still terminate
// instead of looping forever.
func TestBoundaryZeroWidthRepetitionTerminates(t *testing.T) {
	bothBackends(t, `A <- ("a"?)*`, pego.NONE, func(t *testing.T, m *pego.Matcher) {
		match, err := m.Match("bbb", 0, pego.NONE)
		require.NoError(t, err)
		require.NotNil(t, match)
		_, end := match.Span()
		assert.Equal(t, 0, end)
	})
}

// Boundary: a long chain of ordered-choice alternatives does not overflow.
func TestBoundaryDeeplyNestedChoiceDoesNotOverflow(t *testing.T) {
	var b strings.Builder
	b.WriteString("A <- ")
	for i := 0; i < 200; i++ {
		if i > 0 {
			b.WriteString(" / ")
		}
		b.WriteString(`"x"`)
	}
	bothBackends(t, b.String(), pego.NONE, func(t *testing.T, m *pego.Matcher) {
		match, err := m.Match("x", 0, pego.NONE)
		require.NoError(t, err)
		require.NotNil(t, match)
	})
}

// Boundary: lookahead never consumes input.
func TestBoundaryLookaheadNeverConsumes(t *testing.T) {
	bothBackends(t, `A <- &"abc" .`, pego.NONE, func(t *testing.T, m *pego.Matcher) {
		match, err := m.Match("abc", 0, pego.NONE)
		require.NoError(t, err)
		require.NotNil(t, match)
		_, end := match.Span()
		assert.Equal(t, 1, end)
	})
}

// Boundary: NOT NOT e is semantically equivalent to AND e.
func TestBoundaryDoubleNotEquivalentToAnd(t *testing.T) {
	notNot := mustMatcher(t, `A <- !!"abc" .`, pego.Packrat, pego.NONE)
	and := mustMatcher(t, `A <- &"abc" .`, pego.Packrat, pego.NONE)

	for _, in := range []string{"abc", "abd", ""} {
		m1, err1 := notNot.Match(in, 0, pego.NONE)
		m2, err2 := and.Match(in, 0, pego.NONE)
		require.NoError(t, err1)
		require.NoError(t, err2)
		if m1 == nil {
			assert.Nil(t, m2, "input %q", in)
			continue
		}
		require.NotNil(t, m2, "input %q", in)
		s1, e1 := m1.Span()
		s2, e2 := m2.Span()
		if diff := cmp.Diff([2]int{s1, e1}, [2]int{s2, e2}); diff != "" {
			t.Errorf("input %q: span mismatch (-notnot +and):\n%s", in, diff)
		}
	}
}

// Invariant: packrat and machine agree on a grammar that mixes bindings,
// captures, non-terminal references, optionals and repetition.
func TestPackratMachineAgreeOnMixedGrammar(t *testing.T) {
	const src = `
S   <- x:~Num ("+" y:~Num)*
Num <- "-"? [0-9]+
`
	gr, err := pego.ParseGrammar(src)
	require.NoError(t, err)

	packrat, err := pego.Compile(gr, pego.Packrat, pego.DisableIgnore, pego.NONE)
	require.NoError(t, err)
	machine, err := pego.Compile(gr, pego.Machine, pego.DisableIgnore, pego.NONE)
	require.NoError(t, err)

	for _, in := range []string{"1+2+3", "-1+2", "x", "1+"} {
		mp, errp := packrat.Match(in, 0, pego.NONE)
		mm, errm := machine.Match(in, 0, pego.NONE)
		require.NoError(t, errp)
		require.NoError(t, errm)
		if mp == nil {
			assert.Nil(t, mm, "input %q", in)
			continue
		}
		require.NotNil(t, mm, "input %q", in)
		sp, ep := mp.Span()
		sm, em := mm.Span()
		assert.Equal(t, sp, sm, "input %q", in)
		assert.Equal(t, ep, em, "input %q", in)
		if diff := cmp.Diff(mp.GroupDict(), mm.GroupDict()); diff != "" {
			t.Errorf("input %q: groupdict mismatch (-packrat +machine):\n%s", in, diff)
		}
	}
}
