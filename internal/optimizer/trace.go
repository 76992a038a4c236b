package optimizer

import "github.com/rs/zerolog"

// Tracer narrows zerolog.Logger down to the one call site every pass needs,
// so passes stay easy to unit test with zerolog.Nop().
type Tracer struct {
	Log zerolog.Logger
}

// Rewrite logs one debug-level event for an applied rewrite. It is a no-op
// allocation-wise when the logger's level disables debug (the default,
// DEBUG-flag-off Tracer uses zerolog.Nop()).
func (t Tracer) Rewrite(pass, rule string, before, after fmtOp) {
	t.Log.Debug().
		Str("pass", pass).
		Str("rule", rule).
		Str("before", string(before)).
		Str("after", string(after)).
		Msg("rewrite applied")
}

type fmtOp string
