// Package optimizer implements the semantics-preserving grammar rewrites:
// inlining of non-recursive rules, merging of adjacent terminals, lifting of
// terminal fragments into compiled regular expressions, and auto-insertion
// of whitespace-ignore patterns.
package optimizer

import (
	"github.com/rs/zerolog"

	"github.com/hucsmn/pego/internal/ir"
)

// Options configures a single Optimize call.
type Options struct {
	Inline bool
	Merge  bool
	Regex  bool

	// RegexFlags are passed through to every compiled RGX node, e.g. "i"
	// for case-insensitive matching.
	RegexFlags string

	// Ignore is the grammar-level ignore expression auto-inserted around
	// IGN subtrees. A nil Ignore leaves IGN nodes as-is (the grammar must
	// not then contain any, or the runtimes will reject it).
	Ignore *ir.Expression

	// Log receives one debug event per applied rewrite; the default
	// (zero value) Tracer uses zerolog.Nop(), which is free.
	Log zerolog.Logger
}

// Optimize returns a new, semantics-equivalent grammar with the configured
// passes applied, in the fixed order inline -> merge -> regex -> autoignore.
// Each pass is individually idempotent and the composition is idempotent as
// a whole: Optimize(Optimize(g, opts), opts) == Optimize(g, opts).
func Optimize(g *ir.Grammar, opts Options) *ir.Grammar {
	tracer := Tracer{Log: opts.Log}
	out := g.Clone()

	order := out.Names()
	defs := out.Definitions()

	if opts.Inline {
		defs = inline(order, defs, tracer)
	}
	if opts.Merge {
		defs = merge(order, defs, tracer)
	}
	if opts.Regex {
		defs = regexLift(order, defs, opts.RegexFlags, tracer)
	}
	// Auto-ignore always runs last and unconditionally, since IGN nodes
	// must not reach the runtimes; a nil Ignore is only valid when the
	// grammar contains no IGN nodes at all.
	defs = autoIgnore(order, defs, opts.Ignore, tracer)

	kinds := recomputeKinds(order, defs)
	out.ReplaceAll(defs, kinds)
	return out
}

func recomputeKinds(order []string, defs map[string]*ir.Expression) map[string]ir.ValueKind {
	g := ir.NewGrammar()
	for _, name := range order {
		_ = g.Define(name, defs[name])
	}
	_ = g.SetStart(order[0])
	// Finalize only to drive kind analysis; SYM resolution must already
	// hold since the optimizer never introduces new undefined references.
	_ = g.Finalize()
	kinds := make(map[string]ir.ValueKind, len(order))
	for _, name := range order {
		kinds[name] = g.Kind(name)
	}
	return kinds
}
