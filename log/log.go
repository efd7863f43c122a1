package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger so callers can pass either the wrapper or the embedded logger.
type Logger struct {
	zerolog.Logger
}

// New builds a process logger for the given level. Unknown levels fall back to info.
func New(level string, pretty bool) Logger {
	return NewWithWriter(os.Stdout, level, pretty)
}

// NewWithWriter is New with an explicit sink.
func NewWithWriter(w io.Writer, level string, pretty bool) Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	return Logger{
		Logger: zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "lsp-deployer").Logger(),
	}
}
