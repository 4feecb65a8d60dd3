package matdisco

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with run-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
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

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithRunID adds a run_id field to the logger.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// LogIteration logs one completed selection iteration.
func (l *Logger) LogIteration(ctx context.Context, iteration, moved, donorsLeft int, best float64) {
	l.DebugContext(ctx, "iteration completed",
		"iteration", iteration,
		"moved", moved,
		"donors_left", donorsLeft,
		"best_score", best,
	)
}

// LogSnapshot logs a snapshot hand-off to the sink.
func (l *Logger) LogSnapshot(ctx context.Context, seq, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"seq", seq,
			"rows", rows,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "snapshot saved",
			"seq", seq,
			"rows", rows,
		)
	}
}

// LogRun logs the outcome of a run.
func (l *Logger) LogRun(ctx context.Context, res *Result, err error) {
	if err != nil {
		l.ErrorContext(ctx, "run failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "run completed",
		"iterations", res.Iterations,
		"admitted", len(res.Admitted),
		"snapshots", len(res.Snapshots),
		"stop_reason", res.StopReason.String(),
	)
}
