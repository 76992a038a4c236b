package ir

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/hucsmn/pego/internal/actions"
)

// Grammar is an ordered collection of named expressions plus a start symbol.
// It is mutable until Finalize is called, after which it must not be
// mutated further.
type Grammar struct {
	order     []string
	defs      map[string]*Expression
	actions   map[string]actions.Action
	start     string
	finalized bool
	kinds     map[string]ValueKind
}

// NewGrammar returns an empty, unfinalized grammar.
func NewGrammar() *Grammar {
	return &Grammar{
		defs:    make(map[string]*Expression),
		actions: make(map[string]actions.Action),
	}
}

// Define adds (or, before finalization, replaces) a named definition,
// preserving first-seen order.
func (g *Grammar) Define(name string, e *Expression) error {
	if g.finalized {
		return ErrAlreadyFinalized
	}
	if _, ok := g.defs[name]; !ok {
		g.order = append(g.order, name)
	}
	g.defs[name] = e
	return nil
}

// SetAction attaches an action to a named definition; it is wrapped as the
// outermost RUL around that definition's body during Finalize.
func (g *Grammar) SetAction(name string, action actions.Action) error {
	if g.finalized {
		return ErrAlreadyFinalized
	}
	g.actions[name] = action
	return nil
}

// SetStart designates the start symbol.
func (g *Grammar) SetStart(name string) error {
	if g.finalized {
		return ErrAlreadyFinalized
	}
	g.start = name
	return nil
}

// Start returns the start symbol name.
func (g *Grammar) Start() string {
	return g.start
}

// Names returns the definition names in first-seen order.
func (g *Grammar) Names() []string {
	return slices.Clone(g.order)
}

// Lookup returns the (possibly unfinalized) expression bound to name.
func (g *Grammar) Lookup(name string) (*Expression, bool) {
	e, ok := g.defs[name]
	return e, ok
}

// Kind returns the finalized value kind of a definition. Only meaningful
// after Finalize.
func (g *Grammar) Kind(name string) ValueKind {
	return g.kinds[name]
}

// Finalized reports whether Finalize has run.
func (g *Grammar) Finalized() bool {
	return g.finalized
}

// Finalize is a one-shot operation: it attaches each action as the outermost
// RUL wrapping its named definition, resolves all SYM references, computes
// value kinds, and marks the grammar immutable. Calling Finalize twice, or on
// an empty grammar, is an error.
func (g *Grammar) Finalize() error {
	if g.finalized {
		return ErrAlreadyFinalized
	}
	if len(g.order) == 0 {
		return ErrEmptyGrammar
	}

	for name, action := range g.actions {
		body, ok := g.defs[name]
		if !ok {
			return ErrUnknownSymbol(name)
		}
		g.defs[name] = Rul(body, action, name)
	}

	if g.start == "" {
		g.start = g.order[0]
	}
	if _, ok := g.defs[g.start]; !ok {
		return ErrUnknownSymbol(g.start)
	}

	var resolveErr error
	for _, name := range g.order {
		g.defs[name].Walk(func(e *Expression) {
			if resolveErr != nil {
				return
			}
			if e.Op == SYM {
				if _, ok := g.defs[e.Name]; !ok {
					resolveErr = ErrUnknownSymbol(e.Name)
				}
			}
		})
	}
	if resolveErr != nil {
		return resolveErr
	}

	g.kinds = analyzeKinds(g.order, g.defs)
	for _, name := range g.order {
		attachKinds(g.defs[name], g.kinds)
	}

	g.finalized = true
	return nil
}

// Clone deep-copies the grammar, including its finalized state. Definitions
// and actions are independently mutable copies; compiled regexes and action
// values are shared.
func (g *Grammar) Clone() *Grammar {
	out := &Grammar{
		order:     slices.Clone(g.order),
		defs:      make(map[string]*Expression, len(g.defs)),
		actions:   maps.Clone(g.actions),
		start:     g.start,
		finalized: g.finalized,
	}
	for k, v := range g.defs {
		out.defs[k] = v.Clone()
	}
	if g.kinds != nil {
		out.kinds = maps.Clone(g.kinds)
	}
	return out
}

// Definitions returns the map backing the grammar's definitions, which
// callers (the optimizer, the runtimes) are expected to replace wholesale
// via ReplaceAll rather than mutate in place.
func (g *Grammar) Definitions() map[string]*Expression {
	return g.defs
}

// ReplaceAll installs a new set of definitions (same name set, new bodies),
// as produced by an optimizer rewrite, and marks the grammar finalized
// (rewrites run on already-finalized grammars and preserve that status).
func (g *Grammar) ReplaceAll(defs map[string]*Expression, kinds map[string]ValueKind) {
	g.defs = defs
	g.kinds = kinds
	g.finalized = true
}
