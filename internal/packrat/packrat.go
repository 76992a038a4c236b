// Package packrat implements the recursive packrat parsing runtime: a
// direct recursive evaluator over the expression IR with optional
// per-(rule,position) memoization.
package packrat

import (
	"regexp"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hucsmn/pego/internal/actions"
	"github.com/hucsmn/pego/internal/ir"
)

// memoKey identifies one (rule, position) memoization slot.
type memoKey struct {
	name string
	pos  int
}

type memoEntry struct {
	ok      bool
	end     int
	args    []interface{}
	kwargs  map[string]interface{}
	matched bool // false means "a failure was memoized here"
}

// Evaluator runs packrat matching against a finalized, optimized grammar.
type Evaluator struct {
	defs   map[string]*ir.Expression
	start  string
	memo   *lru.Cache[memoKey, memoEntry]
	memoOn bool
}

// New builds an Evaluator. When memoize is true, a bounded LRU cache backs
// per-(rule,position) memoization; eviction only ever costs recomputation,
// never correctness, since evaluation is a pure function of
// (expression, input, position). capacity <= 0 selects a sensible default.
func New(defs map[string]*ir.Expression, start string, memoize bool, capacity int) *Evaluator {
	ev := &Evaluator{defs: defs, start: start, memoOn: memoize}
	if memoize {
		if capacity <= 0 {
			capacity = 4096
		}
		c, err := lru.New[memoKey, memoEntry](capacity)
		if err == nil {
			ev.memo = c
		}
	}
	return ev
}

// DefaultCapacity computes the C4 default memo capacity for a grammar of the
// given definition count against input of the given length, clamped to a
// sane floor and ceiling.
func DefaultCapacity(numDefs, inputLen int) int {
	c := 4 * numDefs * inputLen
	if c < 256 {
		c = 256
	}
	if c > 1<<20 {
		c = 1 << 20
	}
	return c
}

// Match evaluates the start symbol against input at pos 0 and returns the
// observable result tuple, or a non-nil error if an action raised one.
func (ev *Evaluator) Match(input string) (end int, args []interface{}, kwargs map[string]interface{}, ok bool, err error) {
	return ev.call(ev.start, input, 0)
}

func (ev *Evaluator) call(name string, input string, pos int) (int, []interface{}, map[string]interface{}, bool, error) {
	if ev.memoOn {
		key := memoKey{name: name, pos: pos}
		if e, found := ev.memo.Get(key); found {
			if !e.matched {
				return pos, nil, nil, false, nil
			}
			return e.end, e.args, e.kwargs, true, nil
		}
	}

	def, ok := ev.defs[name]
	if !ok {
		return pos, nil, nil, false, nil
	}
	end, args, kwargs, matched, err := ev.eval(def, input, pos)
	if err != nil {
		return pos, nil, nil, false, err
	}

	if ev.memoOn {
		key := memoKey{name: name, pos: pos}
		ev.memo.Add(key, memoEntry{end: end, args: args, kwargs: kwargs, matched: matched})
	}
	return end, args, kwargs, matched, nil
}

// eval is the single dispatch point over the operator set. It returns
// (end, positional args, named kwargs, matched, error).
func (ev *Evaluator) eval(e *ir.Expression, input string, pos int) (int, []interface{}, map[string]interface{}, bool, error) {
	switch e.Op {
	case ir.DOT:
		if pos >= len(input) {
			return pos, nil, nil, false, nil
		}
		_, size := utf8.DecodeRuneInString(input[pos:])
		return pos + size, nil, nil, true, nil

	case ir.LIT:
		if strings.HasPrefix(input[pos:], e.Lit) {
			return pos + len(e.Lit), nil, nil, true, nil
		}
		return pos, nil, nil, false, nil

	case ir.CLS:
		if pos >= len(input) {
			return pos, nil, nil, false, nil
		}
		r, size := utf8.DecodeRuneInString(input[pos:])
		if classMatches(e.Ranges, e.Negate, r) {
			return pos + size, nil, nil, true, nil
		}
		return pos, nil, nil, false, nil

	case ir.RGX:
		return evalRegex(e.Regex, input, pos)

	case ir.SYM:
		return ev.call(e.Name, input, pos)

	case ir.OPT:
		end, _, _, matched, err := ev.eval(e.Child, input, pos)
		if err != nil {
			return pos, nil, nil, false, err
		}
		if matched {
			return end, nil, nil, true, nil
		}
		return pos, nil, nil, true, nil

	case ir.STR:
		return ev.evalRepeat(e.Child, input, pos, 0)

	case ir.PLS:
		return ev.evalRepeat(e.Child, input, pos, 1)

	case ir.AND:
		_, _, _, matched, err := ev.eval(e.Child, input, pos)
		if err != nil {
			return pos, nil, nil, false, err
		}
		return pos, nil, nil, matched, nil

	case ir.NOT:
		_, _, _, matched, err := ev.eval(e.Child, input, pos)
		if err != nil {
			return pos, nil, nil, false, err
		}
		return pos, nil, nil, !matched, nil

	case ir.CAP:
		end, _, _, matched, err := ev.eval(e.Child, input, pos)
		if err != nil {
			return pos, nil, nil, false, err
		}
		if !matched {
			return pos, nil, nil, false, nil
		}
		return end, []interface{}{input[pos:end]}, nil, true, nil

	case ir.BND:
		end, args, kwargs, matched, err := ev.eval(e.Child, input, pos)
		if err != nil {
			return pos, nil, nil, false, err
		}
		if !matched {
			return pos, nil, nil, false, nil
		}
		out := mergeKwargs(kwargs, map[string]interface{}{e.Name: reduce(args)})
		return end, nil, out, true, nil

	case ir.DIS:
		end, _, _, matched, err := ev.eval(e.Child, input, pos)
		if err != nil {
			return pos, nil, nil, false, err
		}
		return end, nil, nil, matched, nil

	case ir.IGN:
		// IGN must never reach the runtime; the auto-ignore rewrite
		// eliminates it before compilation.
		return pos, nil, nil, false, errCornerCaseIgn

	case ir.RUL:
		end, args, kwargs, matched, err := ev.eval(e.Child, input, pos)
		if err != nil {
			return pos, nil, nil, false, err
		}
		if !matched {
			return pos, nil, nil, false, nil
		}
		if e.Action == nil {
			return end, args, kwargs, true, nil
		}
		newArgs, newKwargs, aerr := e.Action.Invoke(input, actions.Pos{Start: pos, End: end}, args, kwargs)
		if aerr != nil {
			return pos, nil, nil, false, aerr
		}
		return end, newArgs, newKwargs, true, nil

	case ir.SEQ:
		at := pos
		var args []interface{}
		var kwargs map[string]interface{}
		for _, c := range e.Children {
			end, cargs, ckwargs, matched, err := ev.eval(c, input, at)
			if err != nil {
				return pos, nil, nil, false, err
			}
			if !matched {
				return pos, nil, nil, false, nil
			}
			at = end
			args = append(args, cargs...)
			kwargs = mergeKwargs(kwargs, ckwargs)
		}
		return at, args, kwargs, true, nil

	case ir.CHC:
		for _, c := range e.Children {
			end, args, kwargs, matched, err := ev.eval(c, input, pos)
			if err != nil {
				return pos, nil, nil, false, err
			}
			if matched {
				return end, args, kwargs, true, nil
			}
		}
		return pos, nil, nil, false, nil
	}
	return pos, nil, nil, false, errCornerCaseOp
}

// evalRepeat implements both STR (min=0) and PLS (min=1): possessive, no
// backtracking once a child succeeds, stopping on the first failed or
// zero-width successful iteration. Per the value-kind rule, STR/PLS are
// empty: captures the child produces during repetition are discarded.
func (ev *Evaluator) evalRepeat(child *ir.Expression, input string, pos int, min int) (int, []interface{}, map[string]interface{}, bool, error) {
	at := pos
	count := 0
	for {
		end, _, _, matched, err := ev.eval(child, input, at)
		if err != nil {
			return pos, nil, nil, false, err
		}
		if !matched {
			break
		}
		count++
		if end == at {
			// Zero-width success terminates the repetition.
			at = end
			break
		}
		at = end
	}
	if count < min {
		return pos, nil, nil, false, nil
	}
	return at, nil, nil, true, nil
}

func evalRegex(re *regexp.Regexp, input string, pos int) (int, []interface{}, map[string]interface{}, bool, error) {
	loc := re.FindStringIndex(input[pos:])
	if loc == nil || loc[0] != 0 {
		return pos, nil, nil, false, nil
	}
	return pos + loc[1], nil, nil, true, nil
}

func classMatches(ranges []ir.Range, negate bool, r rune) bool {
	in := false
	for _, rg := range ranges {
		if rg.HasHi {
			if r >= rg.Lo && r <= rg.Hi {
				in = true
				break
			}
		} else if r == rg.Lo {
			in = true
			break
		}
	}
	if negate {
		return !in
	}
	return in
}

func reduce(args []interface{}) interface{} {
	switch len(args) {
	case 0:
		return nil
	case 1:
		return args[0]
	default:
		return args
	}
}

func mergeKwargs(a, b map[string]interface{}) map[string]interface{} {
	if a == nil && b == nil {
		return nil
	}
	out := make(map[string]interface{}, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
