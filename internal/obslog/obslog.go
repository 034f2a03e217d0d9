// Package obslog is the zerolog-backed implementation of pkg/logger.Logger
// that collab.Options wires in by default, built around zerolog's
// Config/WithComponent idiom.
package obslog

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/collabkit/collab/pkg/logger"
)

// Level is a logging threshold, matching the vocabulary zerolog uses.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Config configures a Logger. Explicit and constructor-injected rather
// than a process-wide global: a collab.Object built with one Config must
// not bleed log state into an Object built with another.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Logger adapts a zerolog.Logger to the logger.Logger contract.
type Logger struct {
	zl zerolog.Logger
}

var _ logger.Logger = (*Logger)(nil)

// New builds a Logger from cfg. A zero Config logs Info and above, in
// console form, to stdout.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	var writer io.Writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	if cfg.JSONOutput {
		writer = out
	}

	return &Logger{zl: zerolog.New(writer).Level(toZerologLevel(cfg.Level)).With().Timestamp().Logger()}
}

func toZerologLevel(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent returns a child Logger tagging every entry with
// component, e.g. "document.observer" or "undo".
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.event(ctx, l.zl.Error(), msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.event(ctx, l.zl.Warn(), msg, args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.event(ctx, l.zl.Info(), msg, args...)
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.event(ctx, l.zl.Debug(), msg, args...)
}

// event applies args as alternating key/value pairs, the same
// convention log/slog's handler-style loggers use.
func (l *Logger) event(_ context.Context, e *zerolog.Event, msg string, args ...any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, args[i+1])
	}
	e.Msg(msg)
}
