package pego

import (
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// newTracer builds the logger a Matcher carries: a no-op, disabled logger
// when debug is false (entirely off the hot path), otherwise a console
// writer at debug level stamped with the matcher's correlation ID so that
// concurrent matches sharing one immutable Matcher can be told apart in the
// log stream.
func newTracer(debug bool, id uuid.UUID) zerolog.Logger {
	if !debug {
		return zerolog.Nop()
	}
	return zerolog.New(defaultTraceWriter).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Str("matcher", id.String()).
		Logger()
}

var defaultTraceWriter io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
