package optimizer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hucsmn/pego/internal/ir"
)

// regexLift promotes DOT, LIT, CLS (and structurally, SEQ runs over
// already-regex children) to RGX nodes backed by a single compiled
// regexp.Regexp, bottom-up. OPT, STR, PLS and CHC are also lifted to RGX so
// that a quantifier or an ordered choice standing on its own can run as one
// regexp call instead of through the general-purpose runtimes, but the
// result is never spliced into the same compiled pattern as a sequence
// sibling (see RegexFusible on ir.Expression).
//
// Go's stdlib regexp package is RE2-based: no backreferences, no lookaround,
// and linear-time matching. But "linear-time, no catastrophic backtracking"
// is a performance guarantee, not a semantic one: the package explicitly
// documents that a match is "the same match that a backtracking search
// would have found first" (leftmost-first submatch semantics). That means a
// compiled pattern like "(?:a)*a" still gives back characters from the star
// to let the trailing literal succeed, exactly the backtracking a possessive
// PEG repetition must never exhibit once it has committed to a match. The
// originating specification's pseudocode guards against this with an
// atomic-group trick; RE2 has no atomic groups (and no lookaround to fake
// one with), so the only available fix is structural: never let a
// quantifier's or an ordered choice's compiled pattern become part of a
// larger fused pattern string. Each such node still executes correctly on
// its own, as a single RGX node evaluated independently by both runtimes.
// AND/NOT (lookaround) are never lifted to RGX at all, for the same
// underlying reason; they keep executing through the ordinary (non-regex)
// AND/NOT instruction templates, which already implement zero-width
// lookahead natively.
func regexLift(order []string, defs map[string]*ir.Expression, flags string, tracer Tracer) map[string]*ir.Expression {
	counter := 0
	out := make(map[string]*ir.Expression, len(defs))
	for _, name := range order {
		before := defs[name]
		// The NOT/DOT idiom is rewritten first, while its operands are still
		// plain CLS/LIT/DOT nodes rather than already-lifted RGX nodes.
		prepared := ir.Transform(before, func(e *ir.Expression) *ir.Expression {
			if e.Op != ir.SEQ {
				return e
			}
			return ir.Seq(specialCaseNotDot(e.Children, flags)...)
		})
		after := ir.Transform(prepared, func(e *ir.Expression) *ir.Expression {
			return liftNode(e, flags, &counter)
		})
		out[name] = after
		if before != after {
			tracer.Rewrite("regex", name, fmtOp(before.Op.String()), fmtOp(after.Op.String()))
		}
	}
	return out
}

func liftNode(e *ir.Expression, flags string, counter *int) *ir.Expression {
	switch e.Op {
	case ir.DOT:
		return mustRgx("(?s:.)", flags, true)
	case ir.LIT:
		return mustRgx(regexp.QuoteMeta(e.Lit), flags, true)
	case ir.CLS:
		return mustRgx(classPattern(e.Ranges, e.Negate), flags, true)
	case ir.OPT:
		if e.Child.Op == ir.RGX {
			return mustRgx(fmt.Sprintf("(?:%s)?", e.Child.RegexPattern), flags, false)
		}
	case ir.STR:
		if e.Child.Op == ir.RGX {
			return mustRgx(fmt.Sprintf("(?:%s)*", e.Child.RegexPattern), flags, false)
		}
	case ir.PLS:
		if e.Child.Op == ir.RGX {
			return mustRgx(fmt.Sprintf("(?:%s)+", e.Child.RegexPattern), flags, false)
		}
	case ir.CHC:
		if allRgx(e.Children) {
			return mustRgx(fmt.Sprintf("(?:%s)", joinRgx(e.Children, "|")), flags, false)
		}
	case ir.SEQ:
		return liftSeq(e, flags)
	}
	return e
}

func allRgx(es []*ir.Expression) bool {
	for _, c := range es {
		if c.Op != ir.RGX {
			return false
		}
	}
	return true
}

func joinRgx(es []*ir.Expression, sep string) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.RegexPattern
	}
	return strings.Join(parts, sep)
}

// liftSeq applies the SEQ(NOT(x), DOT) special case, then fuses maximal
// contiguous runs of already-RGX *and fusible* children into single RGX
// nodes. A child whose pattern came from a quantifier or ordered choice
// (RegexFusible == false) runs as its own independent RGX node instead:
// splicing it into the same compiled pattern as a neighbor would let RE2's
// backtracking-equivalent search give back characters to that neighbor,
// which a possessive PEG repetition or a committed ordered choice must
// never allow (see the package doc comment).
func liftSeq(e *ir.Expression, flags string) *ir.Expression {
	children := specialCaseNotDot(e.Children, flags)

	out := make([]*ir.Expression, 0, len(children))
	i := 0
	for i < len(children) {
		if children[i].Op == ir.RGX && children[i].RegexFusible {
			j := i + 1
			for j < len(children) && children[j].Op == ir.RGX && children[j].RegexFusible {
				j++
			}
			if j-i > 1 {
				out = append(out, mustRgx(joinRgx(children[i:j], ""), flags, true))
			} else {
				out = append(out, children[i])
			}
			i = j
			continue
		}
		out = append(out, children[i])
		i++
	}
	if len(out) == 1 {
		return out[0]
	}
	return ir.Seq(out...)
}

// specialCaseNotDot rewrites SEQ(NOT(x), DOT) where x is CLS or single-char
// LIT into a single negated-class RGX, a common idiom ("any char other than
// x") that would otherwise never lift because NOT itself never lifts.
// regexLift applies it to every SEQ before the bottom-up lift, since once
// the lift has run the DOT and x operands are RGX nodes and no longer match.
func specialCaseNotDot(children []*ir.Expression, flags string) []*ir.Expression {
	out := make([]*ir.Expression, 0, len(children))
	i := 0
	for i < len(children) {
		if i+1 < len(children) && children[i].Op == ir.NOT && children[i+1].Op == ir.DOT {
			x := children[i].Child
			if pat, ok := negatedClassPattern(x); ok {
				out = append(out, mustRgx(pat, flags, true))
				i += 2
				continue
			}
		}
		out = append(out, children[i])
		i++
	}
	return out
}

func negatedClassPattern(x *ir.Expression) (string, bool) {
	switch x.Op {
	case ir.CLS:
		return classPattern(x.Ranges, !x.Negate), true
	case ir.LIT:
		if len([]rune(x.Lit)) == 1 {
			r := []rune(x.Lit)[0]
			return classPattern([]ir.Range{{Lo: r}}, true), true
		}
	}
	return "", false
}

func mustRgx(pattern, flags string, fusible bool) *ir.Expression {
	full := pattern
	if flags != "" {
		full = fmt.Sprintf("(?%s:%s)", flags, pattern)
	}
	re, err := regexp.Compile(full)
	if err != nil {
		// Should not happen for mechanically constructed patterns; fall
		// back to an always-failing regex (a class excluding every rune)
		// rather than panicking.
		re = regexp.MustCompile(`[^\x00-\x{10FFFF}]`)
	}
	rgx := ir.Rgx(re, pattern, flags)
	rgx.RegexFusible = fusible
	return rgx
}

// classPattern renders a CLS node's ranges as a regexp bracket expression.
func classPattern(ranges []ir.Range, negate bool) string {
	var b strings.Builder
	b.WriteByte('[')
	if negate {
		b.WriteByte('^')
	}
	for _, r := range ranges {
		b.WriteString(escapeClassRune(r.Lo))
		if r.HasHi && r.Hi != r.Lo {
			b.WriteByte('-')
			b.WriteString(escapeClassRune(r.Hi))
		}
	}
	b.WriteByte(']')
	return b.String()
}

func escapeClassRune(r rune) string {
	switch r {
	case '\\', ']', '^', '-':
		return "\\" + string(r)
	}
	return string(r)
}
