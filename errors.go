package pego

import (
	"fmt"

	"github.com/hucsmn/pego/internal/ir"
)

// Grammar errors surface synchronously from grammar text parsing,
// finalization, or optimization; they are programmer errors and are never
// recovered internally. The ir package owns the sentinel values; they are
// re-exported here so callers never need to import internal/ir themselves.
var (
	ErrAlreadyFinalized = ir.ErrAlreadyFinalized
	ErrEmptyGrammar     = ir.ErrEmptyGrammar
	ErrNoStart          = ir.ErrNoStart
)

// ErrUnknownSymbol reports a reference to an undefined non-terminal.
func ErrUnknownSymbol(name string) error { return ir.ErrUnknownSymbol(name) }

// ErrUnresolvedValueKind reports a value-kind fixed point that never converged.
func ErrUnresolvedValueKind(name string) error { return ir.ErrUnresolvedValueKind(name) }

// ErrRedefined reports a duplicate definition name.
func ErrRedefined(name string) error { return ir.ErrRedefined(name) }

type pegoError struct {
	value string
}

func (err *pegoError) Error() string {
	return "pego: " + err.value
}

func errorf(format string, v ...interface{}) error {
	return &pegoError{fmt.Sprintf(format, v...)}
}

var (
	errorNoMatch       = errorf("no match")
	errorNilExpression = errorf("expression is nil")
	errorUnknownGroup  = func(key interface{}) error {
		return errorf("no such group %v", key)
	}
)

// ParseError reports a non-match only when STRICT is requested (a
// non-STRICT match signals failure by returning a nil *Match instead); an
// error raised by an action is reported as a ParseError either way. It
// carries the position the failure (or a Fail action) was raised at, plus a
// one-line excerpt of the offending input with a caret under the column.
type ParseError struct {
	Pos     Position
	Excerpt string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pego: %s at %s\n%s", e.Err, e.Pos.String(), e.Excerpt)
	}
	return fmt.Sprintf("pego: parse error at %s\n%s", e.Pos.String(), e.Excerpt)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(text string, offset int, err error) *ParseError {
	calc := newPositionCalculator(text)
	return &ParseError{
		Pos:     calc.calculate(offset),
		Excerpt: calc.excerpt(offset),
		Err:     err,
	}
}
