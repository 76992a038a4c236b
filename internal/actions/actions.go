// Package actions implements the small closed set of value-transforming
// combinators invoked by the runtimes when a RUL or BND node is reduced.
// Actions are modeled as a tagged variant (the Action interface, implemented
// only by the types in this file) rather than a bare function pointer, so
// that the optimizer and the machine compiler can inspect and special-case
// specific kinds (Bind compiles specially; Capture allows fusion).
package actions

import "fmt"

// Pos is the half-open span an action is invoked over, passed through so
// that Fail can report an accurate error location.
type Pos struct {
	Start int
	End   int
}

// Action is implemented by every member of the action taxonomy. Invoke takes
// the full input, the span the owning expression matched, and the child's
// positional and named captures, and returns the replacement positional and
// named captures.
type Action interface {
	Invoke(input string, pos Pos, args []interface{}, kwargs map[string]interface{}) ([]interface{}, map[string]interface{}, error)
}

// ParseError is raised by a Fail action and carries the position it was
// raised at; callers substitute this into a host-level parse error.
type ParseError struct {
	Pos Pos
	Msg string
}

func (e *ParseError) Error() string {
	return e.Msg
}

// reduce implements the argument-collapsing rule used by Bind: none for
// empty, the sole element for a single value, the slice itself otherwise.
func reduce(args []interface{}) interface{} {
	switch len(args) {
	case 0:
		return nil
	case 1:
		return args[0]
	default:
		return args
	}
}

// Call invokes f with the positional and named captures spread as arguments
// and keyword arguments, emitting its single return value positionally.
type Call struct {
	F func(args []interface{}, kwargs map[string]interface{}) (interface{}, error)
}

func (a Call) Invoke(_ string, _ Pos, args []interface{}, kwargs map[string]interface{}) ([]interface{}, map[string]interface{}, error) {
	v, err := a.F(args, kwargs)
	if err != nil {
		return nil, nil, err
	}
	return []interface{}{v}, nil, nil
}

// Capture invokes f (identity by default) on the raw matched substring.
type Capture struct {
	F func(string) (interface{}, error)
}

func (a Capture) Invoke(input string, pos Pos, _ []interface{}, _ map[string]interface{}) ([]interface{}, map[string]interface{}, error) {
	text := input[pos.Start:pos.End]
	if a.F == nil {
		return []interface{}{text}, nil, nil
	}
	v, err := a.F(text)
	if err != nil {
		return nil, nil, err
	}
	return []interface{}{v}, nil, nil
}

// Constant always emits the same value, ignoring captures entirely.
type Constant struct {
	Value interface{}
}

func (a Constant) Invoke(string, Pos, []interface{}, map[string]interface{}) ([]interface{}, map[string]interface{}, error) {
	return []interface{}{a.Value}, nil, nil
}

// Pack invokes f with the whole positional argument slice and the named
// captures, emitting its return value positionally.
type Pack struct {
	F func(args []interface{}, kwargs map[string]interface{}) (interface{}, error)
}

func (a Pack) Invoke(_ string, _ Pos, args []interface{}, kwargs map[string]interface{}) ([]interface{}, map[string]interface{}, error) {
	v, err := a.F(args, kwargs)
	if err != nil {
		return nil, nil, err
	}
	return []interface{}{v}, nil, nil
}

// Pair is like Pack, but first zips args[0::2] with args[1::2] into a slice
// of two-element [key, value] pairs before calling f.
type Pair struct {
	F func(pairs [][2]interface{}, kwargs map[string]interface{}) (interface{}, error)
}

func (a Pair) Invoke(_ string, _ Pos, args []interface{}, kwargs map[string]interface{}) ([]interface{}, map[string]interface{}, error) {
	n := len(args) / 2
	pairs := make([][2]interface{}, n)
	for i := 0; i < n; i++ {
		pairs[i] = [2]interface{}{args[2*i], args[2*i+1]}
	}
	v, err := a.F(pairs, kwargs)
	if err != nil {
		return nil, nil, err
	}
	return []interface{}{v}, nil, nil
}

// Join stringifies and joins the positional captures with sep before
// invoking f (identity by default) on the result.
type Join struct {
	F   func(string) (interface{}, error)
	Sep string
}

func (a Join) Invoke(_ string, _ Pos, args []interface{}, _ map[string]interface{}) ([]interface{}, map[string]interface{}, error) {
	parts := make([]string, len(args))
	for i, v := range args {
		parts[i] = fmt.Sprint(v)
	}
	joined := sepJoin(parts, a.Sep)
	if a.F == nil {
		return []interface{}{joined}, nil, nil
	}
	v, err := a.F(joined)
	if err != nil {
		return nil, nil, err
	}
	return []interface{}{v}, nil, nil
}

func sepJoin(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}

// Getter emits the i-th positional capture, discarding the rest.
type Getter struct {
	Index int
}

func (a Getter) Invoke(_ string, _ Pos, args []interface{}, _ map[string]interface{}) ([]interface{}, map[string]interface{}, error) {
	if a.Index < 0 || a.Index >= len(args) {
		return nil, nil, fmt.Errorf("pego: getter index %d out of range (have %d captures)", a.Index, len(args))
	}
	return []interface{}{args[a.Index]}, nil, nil
}

// Bind emits nothing positionally; it reduces args by the atomic/iterable/
// empty rule and stores the result under Name in the named map.
type Bind struct {
	Name string
}

func (a Bind) Invoke(_ string, _ Pos, args []interface{}, _ map[string]interface{}) ([]interface{}, map[string]interface{}, error) {
	return nil, map[string]interface{}{a.Name: reduce(args)}, nil
}

// Fail raises a parse error at the action's position.
type Fail struct {
	Msg string
}

func (a Fail) Invoke(_ string, pos Pos, _ []interface{}, _ map[string]interface{}) ([]interface{}, map[string]interface{}, error) {
	return nil, nil, &ParseError{Pos: pos, Msg: a.Msg}
}

// Warn emits a non-fatal warning via Sink (if set) and passes args/kwargs
// through unchanged.
type Warn struct {
	Msg  string
	Sink func(string)
}

func (a Warn) Invoke(_ string, _ Pos, args []interface{}, kwargs map[string]interface{}) ([]interface{}, map[string]interface{}, error) {
	if a.Sink != nil {
		a.Sink(a.Msg)
	}
	return args, kwargs, nil
}
