package optimizer

import (
	"github.com/hucsmn/pego/internal/ir"
)

// inline replaces every SYM(n) reference whose expansion does not
// recursively reach back into n by a fresh copy of n's definition. The
// "does not reach back into n" test is path-scoped, not global: expanding a
// reference only forbids re-entering that same reference later on the same
// expansion path, mirroring the original implementation's per-expansion
// visited set. A definition that is itself self- or mutually-recursive can
// still be inlined at a call site that never re-enters it; only the
// recursive SYM inside its own expansion stays a reference. Because
// Finalize already wraps a defined-with-action rule in its RUL before this
// pass ever runs, inlining a named definition automatically carries its
// action along.
func inline(order []string, defs map[string]*ir.Expression, tracer Tracer) map[string]*ir.Expression {
	out := make(map[string]*ir.Expression, len(defs))
	for _, name := range order {
		before := defs[name]
		after := inlineExpr(before, defs, map[string]bool{name: true})
		out[name] = after
		if before != after {
			tracer.Rewrite("inline", name, fmtOp(before.Op.String()), fmtOp(after.Op.String()))
		}
	}
	return out
}

func inlineExpr(e *ir.Expression, defs map[string]*ir.Expression, expanding map[string]bool) *ir.Expression {
	return ir.Transform(e, func(n *ir.Expression) *ir.Expression {
		if n.Op != ir.SYM {
			return n
		}
		if expanding[n.Name] {
			return n
		}
		body, ok := defs[n.Name]
		if !ok {
			return n
		}
		nextExpanding := make(map[string]bool, len(expanding)+1)
		for k := range expanding {
			nextExpanding[k] = true
		}
		nextExpanding[n.Name] = true
		return inlineExpr(body.Clone(), defs, nextExpanding)
	})
}
