package logging

import (
	"bytes"
	"context"
	"log"
	"log/slog"
	"sync"
)

// Legacy returns a [log.Logger] for APIs that only accept a printf-style callback, such as the
// go/packages Logf hook. Every complete line it receives becomes one slog record at level.
func Legacy(logger *slog.Logger, level slog.Level) *log.Logger {
	return log.New(&lineWriter{logger: logger, level: level}, "", 0)
}

type lineWriter struct {
	logger *slog.Logger
	level  slog.Level

	lock    sync.Mutex
	pending bytes.Buffer
}

// Write emits each newline-terminated line and holds back any trailing fragment until it is completed.
func (l *lineWriter) Write(p []byte) (int, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.pending.Write(p)
	for {
		end := bytes.IndexByte(l.pending.Bytes(), '\n')
		if end < 0 {
			break
		}
		line := l.pending.Next(end + 1)
		l.logger.Log(context.Background(), l.level, string(line[:end]))
	}
	return len(p), nil
}
