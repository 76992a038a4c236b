package pego

import (
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hucsmn/pego/internal/actions"
	"github.com/hucsmn/pego/internal/ir"
	"github.com/hucsmn/pego/internal/machine"
	"github.com/hucsmn/pego/internal/optimizer"
	"github.com/hucsmn/pego/internal/packrat"
)

// DisableIgnore, passed as the ignore expression to Compile, suppresses the
// default whitespace-skipping behavior entirely; the grammar must then
// contain no auto-ignore ("<") definitions.
var DisableIgnore = &Expression{}

// defaultIgnore is the whitespace-class-repeated pattern applied when no
// ignore expression is supplied.
func defaultIgnore() *Expression {
	return ir.Str(ir.Cls([]Range{
		{Lo: ' '},
		{Lo: '\t'},
		{Lo: '\n'},
		{Lo: '\r'},
		{Lo: '\v'},
		{Lo: '\f'},
	}, false))
}

// Compile finalizes (on its first use) and optimizes the grammar built by
// gr, and returns a Matcher ready to run against input; the same gr may be
// compiled again, e.g. for another backend. ignore selects the auto-ignore
// expression: nil applies defaultIgnore, DisableIgnore disables it, any
// other expression is used as given.
func Compile(gr *Grammar, backend Backend, ignore *Expression, flags Flags) (*Matcher, error) {
	if !gr.g.Finalized() {
		if err := gr.g.Finalize(); err != nil {
			return nil, err
		}
	}

	id := uuid.New()
	tracer := newTracer(flags&DEBUG != 0, id)

	var ignoreExpr *ir.Expression
	switch ignore {
	case DisableIgnore:
		ignoreExpr = nil
	case nil:
		ignoreExpr = defaultIgnore()
	default:
		ignoreExpr = ignore
	}

	opts := optimizer.Options{
		Inline:     flags&INLINE != 0,
		Merge:      flags&MERGE != 0,
		Regex:      flags&REGEX != 0,
		RegexFlags: "",
		Ignore:     ignoreExpr,
		Log:        tracer,
	}
	optimized := optimizer.Optimize(gr.g, opts)

	m := &Matcher{
		id:      id,
		start:   optimized.Start(),
		backend: backend,
		flags:   flags,
		log:     tracer,
		defs:    optimized.Definitions(),
	}
	if backend == Machine {
		order := optimized.Names()
		prog := machine.Compile(order, optimized.Definitions())
		m.vm = machine.New(prog, optimized.Start())
	}
	return m, nil
}

// Matcher is an immutable, compiled grammar bound to one backend. A Matcher
// may be shared across concurrent Match calls from different goroutines
// provided its actions are themselves pure or synchronize their own state;
// each call allocates its own runtime state.
type Matcher struct {
	id      uuid.UUID
	start   string
	backend Backend
	flags   Flags
	log     zerolog.Logger
	defs    map[string]*ir.Expression
	vm      *machine.VM
}

// ID returns the matcher's correlation ID, the same one stamped on its
// trace log lines.
func (m *Matcher) ID() uuid.UUID {
	return m.id
}

// Match runs the matcher against input starting at pos, returning the
// resulting Match, or nil if the grammar did not match (unless flags&STRICT
// is set, in which case a non-match is reported as a *ParseError).
func (m *Matcher) Match(input string, pos int, flags Flags) (*Match, error) {
	var end int
	var args []interface{}
	var kwargs map[string]interface{}
	var ok bool
	var err error

	switch m.backend {
	case Machine:
		end, args, kwargs, ok, err = m.vm.Match(input[pos:])
		end += pos
	default:
		ev := packrat.New(m.defs, m.start, flags&MEMOIZE != 0, packrat.DefaultCapacity(len(m.defs), len(input)-pos))
		end, args, kwargs, ok, err = ev.Match(input[pos:])
		end += pos
	}

	if err != nil {
		offset := pos
		var aerr *actions.ParseError
		if errors.As(err, &aerr) {
			offset = pos + aerr.Pos.Start
		}
		return nil, newParseError(input, offset, err)
	}
	if !ok {
		if flags&STRICT != 0 {
			return nil, newParseError(input, pos, nil)
		}
		return nil, nil
	}

	return &Match{
		input:   input,
		start:   pos,
		end:     end,
		kind:    m.defs[m.start].Kind,
		args:    args,
		kwargs:  kwargs,
	}, nil
}
