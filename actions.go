package pego

import "github.com/hucsmn/pego/internal/actions"

// Action is the interface every rule/bind action implements; see the
// concrete constructors below for the closed set of kinds.
type Action = actions.Action

// Call invokes f with the positional and named captures, emitting its
// single return value positionally.
func Call(f func(args []interface{}, kwargs map[string]interface{}) (interface{}, error)) Action {
	return actions.Call{F: f}
}

// Capture invokes f (identity by default) on the raw matched substring.
func Capture(f func(string) (interface{}, error)) Action {
	return actions.Capture{F: f}
}

// Constant always emits the same value, ignoring captures entirely.
func Constant(value interface{}) Action {
	return actions.Constant{Value: value}
}

// Pack invokes f with the whole positional argument slice and the named
// captures, emitting its return value positionally.
func Pack(f func(args []interface{}, kwargs map[string]interface{}) (interface{}, error)) Action {
	return actions.Pack{F: f}
}

// Pair is like Pack, but zips args[0::2] with args[1::2] into [key, value]
// pairs before calling f.
func Pair(f func(pairs [][2]interface{}, kwargs map[string]interface{}) (interface{}, error)) Action {
	return actions.Pair{F: f}
}

// Join stringifies and joins the positional captures with sep before
// invoking f (identity by default) on the result.
func Join(f func(string) (interface{}, error), sep string) Action {
	return actions.Join{F: f, Sep: sep}
}

// Getter emits the i-th positional capture, discarding the rest.
func Getter(i int) Action {
	return actions.Getter{Index: i}
}

// Bind emits nothing positionally; it reduces args by the atomic/iterable/
// empty rule and stores the result under name in the named map.
func Bind(name string) Action {
	return actions.Bind{Name: name}
}

// Fail raises a parse error at the action's position.
func Fail(msg string) Action {
	return actions.Fail{Msg: msg}
}

// Warn emits a non-fatal warning via sink (if non-nil) and passes
// args/kwargs through unchanged.
func Warn(msg string, sink func(string)) Action {
	return actions.Warn{Msg: msg, Sink: sink}
}
