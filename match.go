package pego

import "github.com/hucsmn/pego/internal/ir"

// Match records one successful match: the input it was matched against,
// its half-open span, and the positional/named values produced by the
// expression's captures and rule actions.
type Match struct {
	input string
	start int
	end   int
	kind  ir.ValueKind

	args   []interface{}
	kwargs map[string]interface{}
}

// Span returns the half-open byte range the match covers.
func (m *Match) Span() (start, end int) {
	return m.start, m.end
}

// Group returns group 0 (the whole matched substring) when key is nil or
// omitted conceptually; pass an int for a positional capture, or a string
// for a named one. ok is false if the group does not exist.
func (m *Match) Group(key interface{}) (value interface{}, ok bool) {
	switch k := key.(type) {
	case nil:
		return m.input[m.start:m.end], true
	case int:
		if k == 0 {
			return m.input[m.start:m.end], true
		}
		i := k - 1
		if i < 0 || i >= len(m.args) {
			return nil, false
		}
		return m.args[i], true
	case string:
		v, ok := m.kwargs[k]
		return v, ok
	default:
		return nil, false
	}
}

// Groups returns the positional capture list (not including group 0).
func (m *Match) Groups() []interface{} {
	out := make([]interface{}, len(m.args))
	copy(out, m.args)
	return out
}

// GroupDict returns the named capture map.
func (m *Match) GroupDict() map[string]interface{} {
	out := make(map[string]interface{}, len(m.kwargs))
	for k, v := range m.kwargs {
		out[k] = v
	}
	return out
}

// Value returns the sole positional value if the matched expression is
// atomic, the positional list if iterable, or nil if empty.
func (m *Match) Value() interface{} {
	switch m.kind {
	case ir.KindAtomic:
		if len(m.args) == 0 {
			return nil
		}
		return m.args[0]
	case ir.KindIterable:
		return m.Groups()
	default:
		return nil
	}
}
