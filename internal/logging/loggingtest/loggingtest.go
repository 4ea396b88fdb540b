// Package loggingtest provides loggers for use in tests.
package loggingtest

import (
	"log/slog"
	"strings"
	"testing"
)

// NewForTesting creates a debug level logger that writes through t.Log, so output is only shown for failing tests.
func NewForTesting(t testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(&testWriter{t: t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testWriter struct {
	t testing.TB
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
