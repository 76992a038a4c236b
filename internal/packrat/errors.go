package packrat

import "errors"

// These should never surface to a caller; they guard against the IR
// invariants this package depends on (no stray IGN, closed operator set)
// being violated upstream.
var (
	errCornerCaseIgn = errors.New("pego: unexpected IGN node reached the packrat runtime")
	errCornerCaseOp  = errors.New("pego: unexpected operator reached the packrat runtime")
)
