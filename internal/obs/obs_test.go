package obs

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWrapsGivenLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.New(slog.NewTextHandler(&buf, nil)))
	l.Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "k=v") {
		t.Fatalf("expected output to contain message and attrs, got %q", buf.String())
	}
}

func TestNewNilFallsBackToDefault(t *testing.T) {
	l := New(nil)
	if l == nil {
		t.Fatalf("New(nil) returned a nil Logger")
	}
	// Should not panic even though it writes through slog.Default().
	l.Debug("noop")
}

func TestNopDiscardsEverything(t *testing.T) {
	l := Nop()
	// Nothing to assert on output directly, but these must not panic, and a
	// nil *Logger receiver must also be safe to call.
	l.Debug("x")
	l.Info("x")
	l.Warn("x")

	var nilLogger *Logger
	nilLogger.Debug("x")
	nilLogger.Info("x")
	nilLogger.Warn("x")
}

func TestWithGroupScopesAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.New(slog.NewTextHandler(&buf, nil)))
	g := l.WithGroup("req")
	g.Info("served", "status", 200)
	if !strings.Contains(buf.String(), "req.status=200") {
		t.Fatalf("expected grouped attribute req.status=200, got %q", buf.String())
	}
}

func TestWithGroupOnNilLoggerReturnsNop(t *testing.T) {
	var nilLogger *Logger
	g := nilLogger.WithGroup("req")
	if g == nil {
		t.Fatalf("WithGroup on a nil *Logger must return a usable Logger, not nil")
	}
	g.Info("should not panic")
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := New(slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := WithContext(context.Background(), l)

	got := FromContext(ctx)
	got.Info("via context")
	if !strings.Contains(buf.String(), "via context") {
		t.Fatalf("logger recovered from context did not produce expected output, got %q", buf.String())
	}
}

func TestFromContextWithoutLoggerReturnsUsableDefault(t *testing.T) {
	l := FromContext(context.Background())
	if l == nil {
		t.Fatalf("FromContext on a bare context returned nil")
	}
	l.Info("should not panic")
}
