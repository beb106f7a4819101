package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide logger. It writes to stderr until Init runs.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Level is a configured log level name
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration
type Config struct {
	Level      Level
	JSONOutput bool
	// Output defaults to stderr. Stdout is reserved for the stdio transport.
	Output io.Writer
}

// ParseLevel maps a configuration string to a Level, falling back to info
func ParseLevel(s string) Level {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel:
		return l
	default:
		return InfoLevel
	}
}

func (l Level) zerolog() zerolog.Level {
	lvl, err := zerolog.ParseLevel(string(l))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Init replaces the global logger. Console output is the default; JSON is
// meant for log collectors.
func Init(cfg Config) {
	zerolog.SetGlobalLevel(cfg.Level.zerolog())

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if !cfg.JSONOutput {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	Logger = zerolog.New(out).With().Timestamp().Logger()
}

// WithComponent creates a child logger with component field
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithCall creates a child logger for one tool call. operationID is set
// only for long-running calls.
func WithCall(tool, operationID string) zerolog.Logger {
	ctx := Logger.With().Str("component", "dispatch").Str("tool", tool)
	if operationID != "" {
		ctx = ctx.Str("operation_id", operationID)
	}
	return ctx.Logger()
}

// WithSession creates a child logger with session_id field
func WithSession(sessionID string) zerolog.Logger {
	return Logger.With().Str("session_id", sessionID).Logger()
}

// Errorf logs err at error level with msg
func Errorf(msg string, err error) {
	Logger.Error().Err(err).Msg(msg)
}
