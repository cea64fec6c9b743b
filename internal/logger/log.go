package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger creates a logger writing to stderr at logLevel and installs it as
// the global zerolog logger.
func NewLogger(logLevel string) zerolog.Logger {
	logger := New(os.Stderr, logLevel)
	log.Logger = logger
	return logger
}

// New creates a timestamped logger writing to w. Unknown levels fall back to debug.
func New(w io.Writer, logLevel string) zerolog.Logger {
	ll, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		ll = zerolog.DebugLevel
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(ll)
}
