// Package obs is the kernel's log sink: a thin wrapper around log/slog,
// grounded on cmd/bd's daemonLogger and sync_bridge.go's use of
// slog.Default(). The kernel only ever logs structured diagnostics here —
// ordinary control flow (visibility changes, compaction) is not logged at
// any level, which keeps the hot path quiet.
package obs

import (
	"context"
	"log/slog"
)

// Logger wraps *slog.Logger with the handful of call shapes the kernel
// needs, so kernel code never has to nil-check its logger field.
type Logger struct {
	slog *slog.Logger
}

// New wraps l. A nil l falls back to slog.Default().
func New(l *slog.Logger) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{slog: l}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return New(slog.New(slog.DiscardHandler))
}

func (l *Logger) Debug(msg string, args ...any) {
	if l == nil {
		return
	}
	l.slog.Debug(msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	if l == nil {
		return
	}
	l.slog.Info(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	if l == nil {
		return
	}
	l.slog.Warn(msg, args...)
}

func (l *Logger) WithGroup(name string) *Logger {
	if l == nil {
		return Nop()
	}
	return &Logger{slog: l.slog.WithGroup(name)}
}

// Context threads a logger through a context.Context, grounded on how the
// teacher's rpc and daemon packages pass a *slog.Logger alongside ctx.
type ctxKey struct{}

func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok && l != nil {
		return l
	}
	return New(nil)
}
