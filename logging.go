package substrate

import (
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// logger backs the single uncaught-exception registration point required
// by spec.md section 7: a chain ended with Done() that carries an
// unhandled error must be reported exactly once, somewhere, without
// aborting the process.
var logger atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().Timestamp().Str("component", Namespace).Logger()
	logger.Store(&l)
}

// SetLogger overrides the logger used for uncaught-exception and
// abandoned-promise diagnostics. Safe for concurrent use.
func SetLogger(l zerolog.Logger) {
	logger.Store(&l)
}

// reportUncaught is the single call site for "done() reached the end of
// a chain with an unrecovered error": spec.md section 7 requires exactly
// one registration point for such reports.
func reportUncaught(err error, origin string) {
	l := logger.Load()
	ev := l.Error().Err(err)
	if origin != "" {
		ev = ev.Str("origin", origin)
	}
	ev.Msg("uncaught promise rejection")
}

func reportAbandoned(origin string) {
	l := logger.Load()
	ev := l.Warn()
	if origin != "" {
		ev = ev.Str("origin", origin)
	}
	ev.Msg("promise abandoned: defer dropped without being resolved")
}
