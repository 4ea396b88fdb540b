package logging_test

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/alecthomas/zeroinject/internal/logging"
)

func newTextLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func lines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimSpace(buf.String()), "\n")
}

func TestLegacy(t *testing.T) {
	tests := []struct {
		name     string
		level    slog.Level
		input    string
		expected []string
	}{
		{name: "SingleLine", level: slog.LevelInfo, input: "go list ./...", expected: []string{`msg="go list ./..."`}},
		{name: "Empty", level: slog.LevelError, input: "", expected: []string{`msg=""`}},
		{name: "SplitsLines", level: slog.LevelWarn, input: "first\nsecond", expected: []string{"msg=first", "msg=second"}},
		{name: "Debug", level: slog.LevelDebug, input: "ready", expected: []string{"msg=ready"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newTextLogger()
			logging.Legacy(logger, tt.level).Print(tt.input)
			got := lines(buf)
			assert.Equal(t, len(tt.expected), len(got))
			for i, line := range got {
				assert.Contains(t, line, "level="+tt.level.String())
				assert.Contains(t, line, tt.expected[i])
			}
		})
	}
}

func TestLegacyPrintf(t *testing.T) {
	logger, buf := newTextLogger()
	legacy := logging.Legacy(logger, slog.LevelDebug)
	legacy.Printf("%d packages matched %q", 3, "./...")
	legacy.Println("done")
	got := lines(buf)
	assert.Equal(t, 2, len(got))
	assert.Contains(t, got[0], `3 packages matched`)
	assert.Contains(t, got[1], "msg=done")
}

func TestLegacyBuffersPartialLines(t *testing.T) {
	logger, buf := newTextLogger()
	writer := logging.Legacy(logger, slog.LevelInfo).Writer()

	_, err := writer.Write([]byte("loading "))
	assert.NoError(t, err)
	assert.Equal(t, "", buf.String())
	_, err = writer.Write([]byte("packages\nnext"))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(lines(buf)))
	assert.Contains(t, buf.String(), `msg="loading packages"`)

	buf.Reset()
	_, err = writer.Write([]byte(" line\na\nb\n"))
	assert.NoError(t, err)
	got := lines(buf)
	assert.Equal(t, 3, len(got))
	assert.Contains(t, got[0], `msg="next line"`)
}

func TestLegacyConcurrentWrites(t *testing.T) {
	logger, buf := newTextLogger()
	legacy := logging.Legacy(logger, slog.LevelInfo)
	wg := sync.WaitGroup{}
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			legacy.Printf("worker %d", i)
		}()
	}
	wg.Wait()
	assert.Equal(t, 4, len(lines(buf)))
}
