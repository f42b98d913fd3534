package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog Logger writing to stdout.
// APP_ENV=dev (or development) uses a human-friendly console writer.
// Extra writers (e.g. a --log-file) always receive JSON.
func NewLogger(env, level string, extra ...io.Writer) zerolog.Logger {
	return NewLoggerTo(os.Stdout, env, level, extra...)
}

// NewLoggerTo is NewLogger with an explicit primary writer; the CLI logs to
// stderr so stdout stays free for the run summary.
func NewLoggerTo(w io.Writer, env, level string, extra ...io.Writer) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(level))

	out := w
	if env == "dev" || env == "development" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	if len(extra) > 0 {
		out = zerolog.MultiLevelWriter(append([]io.Writer{out}, extra...)...)
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
