package optimizer

import "github.com/hucsmn/pego/internal/ir"

// autoIgnore rewrites every IGN(e) subtree by interleaving ignore around
// every item of the immediately enclosing SEQ: IGN(SEQ(a,b,c)) becomes
// SEQ(ignore, a, ignore, b, ignore, c, ignore). For non-SEQ children the
// result is SEQ(ignore, e, ignore). IGN nodes nested inside other IGN nodes
// use the same ignore expression and are not double-wrapped: a child that
// already starts/ends with ignore (because it was itself rewritten from a
// nested IGN) does not get a second separator spliced against it.
func autoIgnore(order []string, defs map[string]*ir.Expression, ignore *ir.Expression, tracer Tracer) map[string]*ir.Expression {
	if ignore == nil {
		return defs
	}
	out := make(map[string]*ir.Expression, len(defs))
	for _, name := range order {
		before := defs[name]
		after := ir.Transform(before, func(e *ir.Expression) *ir.Expression {
			if e.Op != ir.IGN {
				return e
			}
			return rewriteIgnore(e.Child, ignore)
		})
		out[name] = after
		if before != after {
			tracer.Rewrite("autoignore", name, fmtOp(before.Op.String()), fmtOp(after.Op.String()))
		}
	}
	return out
}

func rewriteIgnore(e *ir.Expression, ignore *ir.Expression) *ir.Expression {
	if e.Op != ir.SEQ {
		return ir.Seq(ignore, e, ignore)
	}
	parts := make([]*ir.Expression, 0, 2*len(e.Children)+1)
	if len(e.Children) == 0 || !startsWithIgnore(e.Children[0], ignore) {
		parts = append(parts, ignore)
	}
	for i, c := range e.Children {
		parts = append(parts, c)
		if i == len(e.Children)-1 || !startsWithIgnore(e.Children[i+1], ignore) {
			if !endsWithIgnore(c, ignore) {
				parts = append(parts, ignore)
			}
		}
	}
	return ir.Seq(parts...)
}

func startsWithIgnore(e, ignore *ir.Expression) bool {
	return e.Op == ir.SEQ && len(e.Children) > 0 && sameOp(e.Children[0], ignore)
}

func endsWithIgnore(e, ignore *ir.Expression) bool {
	return e.Op == ir.SEQ && len(e.Children) > 0 && sameOp(e.Children[len(e.Children)-1], ignore)
}

// sameOp is a shallow structural check sufficient to recognize "this is the
// configured ignore expression" without a full deep-equal traversal.
func sameOp(a, b *ir.Expression) bool {
	return a.Op == b.Op && a.Name == b.Name && a.Lit == b.Lit
}
