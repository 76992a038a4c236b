package ir

import "fmt"

// grammarError is the concrete type behind every sentinel and formatted
// grammar error raised by the ir package, mirroring the "pego: " prefixing
// convention used across the rest of this module.
type grammarError struct {
	msg string
}

func (err *grammarError) Error() string {
	return "pego: " + err.msg
}

func errorf(format string, v ...interface{}) error {
	return &grammarError{fmt.Sprintf(format, v...)}
}

var (
	// ErrAlreadyFinalized is returned by Grammar.Finalize when called on a
	// grammar that has already been finalized.
	ErrAlreadyFinalized = errorf("grammar already finalized")

	// ErrEmptyGrammar is returned by Grammar.Finalize when the grammar has
	// no definitions at all.
	ErrEmptyGrammar = errorf("empty grammar")

	// ErrNoStart reports a grammar without a start symbol. Grammar.Finalize
	// does not return it: an unset start defaults to the first definition,
	// and a grammar with no definitions reports ErrEmptyGrammar instead.
	ErrNoStart = errorf("grammar has no start symbol")
)

// ErrUnknownSymbol reports a SYM reference to an undefined non-terminal.
func ErrUnknownSymbol(name string) error {
	return errorf("unknown non-terminal %q", name)
}

// ErrUnresolvedValueKind reports a value-kind fixed point that could not be
// reached for a definition after the bounded number of worklist rounds.
func ErrUnresolvedValueKind(name string) error {
	return errorf("value kind of %q did not reach a fixed point", name)
}

// ErrRedefined reports a duplicate definition name supplied to a builder.
func ErrRedefined(name string) error {
	return errorf("non-terminal %q is already defined", name)
}
