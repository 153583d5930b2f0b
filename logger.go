package linhash

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with the fields the table reports.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all output. Tables use it
// unless WithLogger is given.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// LogResize logs a change of the bucket count.
func (l *Logger) LogResize(from, to, records uint32) {
	if from < to {
		l.Debug("bucket count doubled",
			"from", from,
			"to", to,
			"records", records,
		)
	} else {
		l.Debug("bucket count halved",
			"from", from,
			"to", to,
			"records", records,
		)
	}
}

// LogAllocFailure logs an operation that failed because the link array
// could not grow.
func (l *Logger) LogAllocFailure(op string, records uint32, err error) {
	l.Warn("allocation failed",
		"op", op,
		"records", records,
		"error", err,
	)
}
