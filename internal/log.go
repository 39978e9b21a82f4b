package internal

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the engine's only line to the outside world: faulted epochs and
// aborted flushes land here. The engine formats messages itself, so any
// implementation just has to emit them.
type Logger interface {
	Log(msg string)
	Error(msg string)
}

// NewDefaultLogger returns the logger runtimes use when none is injected.
func NewDefaultLogger() Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).With().Timestamp().Str("app", "arbor").Logger()
	return &zeroLogger{log: logger}
}

type zeroLogger struct {
	log zerolog.Logger
}

func (z *zeroLogger) Log(msg string) {
	z.log.Info().Msg(msg)
}

func (z *zeroLogger) Error(msg string) {
	z.log.Error().Msg(msg)
}

// NopLogger drops everything. Useful for hosts that poll Tree.Err instead.
type NopLogger struct{}

func (NopLogger) Log(string)   {}
func (NopLogger) Error(string) {}
