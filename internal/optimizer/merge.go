package optimizer

import (
	"sort"
	"unicode/utf8"

	"golang.org/x/exp/slices"

	"github.com/hucsmn/pego/internal/ir"
)

// merge coalesces, within a SEQ, adjacent LIT and single-char CLS siblings
// into a single LIT, and, within a CHC, adjacent single-character
// alternatives (including length-1 LIT) into a single CLS. Merging never
// reaches across a CAP/RUL/BND sibling, which is automatic here since those
// nodes never match the LIT/single-char-CLS shapes being folded.
func merge(order []string, defs map[string]*ir.Expression, tracer Tracer) map[string]*ir.Expression {
	out := make(map[string]*ir.Expression, len(defs))
	for _, name := range order {
		before := defs[name]
		after := ir.Transform(before, mergeNode)
		out[name] = after
		if before != after {
			tracer.Rewrite("merge", name, fmtOp(before.Op.String()), fmtOp(after.Op.String()))
		}
	}
	return out
}

func mergeNode(e *ir.Expression) *ir.Expression {
	switch e.Op {
	case ir.SEQ:
		return mergeSeq(e)
	case ir.CHC:
		return mergeChc(e)
	}
	return e
}

func literalRune(e *ir.Expression) (rune, bool) {
	if e.Op == ir.LIT && utf8.RuneCountInString(e.Lit) == 1 {
		r, _ := utf8.DecodeRuneInString(e.Lit)
		return r, true
	}
	return 0, false
}

func singleCharClass(e *ir.Expression) (rune, bool) {
	if e.Op == ir.CLS && !e.Negate && len(e.Ranges) == 1 && e.Ranges[0].Single() {
		return e.Ranges[0].Lo, true
	}
	if r, ok := literalRune(e); ok {
		return r, true
	}
	return 0, false
}

func mergeSeq(e *ir.Expression) *ir.Expression {
	text := func(x *ir.Expression) (string, bool) {
		if x.Op == ir.LIT {
			return x.Lit, true
		}
		if r, ok := singleCharClass(x); ok {
			return string(r), true
		}
		return "", false
	}

	out := make([]*ir.Expression, 0, len(e.Children))
	i := 0
	for i < len(e.Children) {
		if s, ok := text(e.Children[i]); ok {
			lit := s
			j := i + 1
			for j < len(e.Children) {
				s2, ok2 := text(e.Children[j])
				if !ok2 {
					break
				}
				lit += s2
				j++
			}
			if j-i > 1 {
				out = append(out, ir.Lit(lit))
			} else {
				out = append(out, e.Children[i])
			}
			i = j
			continue
		}
		out = append(out, e.Children[i])
		i++
	}
	if len(out) == len(e.Children) {
		return e
	}
	return ir.Seq(out...)
}

func mergeChc(e *ir.Expression) *ir.Expression {
	mergeable := func(x *ir.Expression) bool {
		if x.Op == ir.CLS && !x.Negate {
			return true
		}
		_, ok := literalRune(x)
		return ok
	}

	out := make([]*ir.Expression, 0, len(e.Children))
	i := 0
	for i < len(e.Children) {
		if mergeable(e.Children[i]) {
			var ranges []ir.Range
			ranges = append(ranges, rangesOf(e.Children[i])...)
			j := i + 1
			for j < len(e.Children) && mergeable(e.Children[j]) {
				ranges = append(ranges, rangesOf(e.Children[j])...)
				j++
			}
			if j-i > 1 {
				out = append(out, ir.Cls(dedupRanges(ranges), false))
			} else {
				out = append(out, e.Children[i])
			}
			i = j
			continue
		}
		out = append(out, e.Children[i])
		i++
	}
	if len(out) == len(e.Children) {
		return e
	}
	return ir.Chc(out...)
}

func rangesOf(e *ir.Expression) []ir.Range {
	if e.Op == ir.CLS {
		return e.Ranges
	}
	r, _ := literalRune(e)
	return []ir.Range{{Lo: r}}
}

func dedupRanges(ranges []ir.Range) []ir.Range {
	out := slices.Clone(ranges)
	sort.Slice(out, func(i, j int) bool { return out[i].Lo < out[j].Lo })
	return out
}
