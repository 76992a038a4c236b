// Package pego builds parsers from Parsing Expression Grammars (PEGs).
//
// A user supplies a textual grammar (ParseGrammar) or builds one
// programmatically (Grammar), optionally attaches semantic actions to
// rules, and compiles it (Compile) into a Matcher that, given an input
// string, either reports failure or returns a Match carrying the values
// computed by the actions.
//
// Grammar text
//
// A definition is "Name <- Expression" (or "Name < Expression" for
// auto-ignore). Expressions support ordered choice "/", sequencing by
// juxtaposition, the postfix quantifiers "?" "*" "+" and "{min,max}", the
// prefix operators "&" "!" "~" (capture), "name:expr" bindings, "( )"
// grouping, "…"/'…' literals, "[…]" character classes, "." (any char), and
// bare identifiers for non-terminal references. "#" starts a line comment.
//
// Two interchangeable runtimes
//
// Every compiled grammar can run on either of two runtimes that are
// required to agree on every observable result: a recursive packrat
// evaluator with optional memoization, and a stack-based parsing machine
// compiled to a flat instruction stream. Pick one with the Backend passed
// to Compile.
package pego

// Flags configures Compile and Match.
type Flags int

const (
	// NONE selects no optional behavior.
	NONE Flags = 0
	// DEBUG enables structured trace logging of optimizer rewrites.
	// Machine instruction dispatch is not logged.
	DEBUG Flags = 1 << (iota - 1)
	// STRICT turns a non-match into a *ParseError instead of a nil Match.
	STRICT
	// MEMOIZE enables packrat memoization (ignored by the machine backend).
	MEMOIZE
	// INLINE enables the inlining optimizer pass.
	INLINE
	// MERGE enables the adjacent-terminal merging optimizer pass.
	MERGE
	// REGEX enables the regex-lift optimizer pass.
	REGEX

	// OPTIMIZE is the recommended default optimizer configuration.
	OPTIMIZE = INLINE | REGEX
)

// Backend selects which runtime a Matcher executes a grammar on.
type Backend int

const (
	// Packrat selects the recursive, memoizing evaluator.
	Packrat Backend = iota
	// Machine selects the compiled stack-based interpreter.
	Machine
)

func (b Backend) String() string {
	switch b {
	case Packrat:
		return "packrat"
	case Machine:
		return "machine"
	}
	return "?"
}
