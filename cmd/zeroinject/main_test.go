package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"

	"github.com/alecthomas/zeroinject/internal/logging/loggingtest"
	"github.com/alecthomas/zeroinject/internal/report"
)

const testCode = `package main

//inject:component singleton
type Clock struct{}

type Service struct {
	Clock *Clock ` + "`inject:\"\"`" + `
}
`

func TestParseGoTags(t *testing.T) {
	tests := []struct {
		name     string
		goflags  string
		expected []string
	}{
		{"Empty", "", []string{}},
		{"SingleDash", "-tags=a,b", []string{"a", "b"}},
		{"DoubleDash", "-mod=mod --tags=integration", []string{"integration"}},
		{"Quoted", `-mod=mod "-tags=x,y"`, []string{"x", "y"}},
		{"Unbalanced", `"-tags=x`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GOFLAGS", tt.goflags)
			assert.Equal(t, tt.expected, parseGoTags())
		})
	}
}

func TestRun(t *testing.T) {
	writeTestModule(t)
	t.Setenv("GOFLAGS", "")
	cli := &CLI{Dest: ".", Format: report.JSON, Output: "inject.json", LockTimeout: time.Second}
	err := run(t.Context(), cli, loggingtest.NewForTesting(t))
	assert.NoError(t, err)

	data, err := os.ReadFile("inject.json")
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"type": "test.Service"`)
	assert.Contains(t, string(data), `"shared": "ROOT:test.Clock"`)

	cli.Check = true
	assert.NoError(t, run(t.Context(), cli, loggingtest.NewForTesting(t)))

	assert.NoError(t, os.WriteFile("inject.json", []byte("{}\n"), 0600))
	err = run(t.Context(), cli, loggingtest.NewForTesting(t))
	assert.EqualError(t, err, "inject.json is out of date")
}

func TestRunWerror(t *testing.T) {
	writeTestModule(t)
	t.Setenv("GOFLAGS", "")
	cli := &CLI{Dest: ".", Format: report.Text, Output: "inject.txt", LockTimeout: time.Second}
	assert.NoError(t, run(t.Context(), cli, loggingtest.NewForTesting(t)))

	cli.Werror = true
	err := run(t.Context(), cli, loggingtest.NewForTesting(t))
	assert.EqualError(t, err, "1 warning(s) treated as errors")
}

func TestRunCheckRequiresOutput(t *testing.T) {
	err := run(t.Context(), &CLI{Dest: ".", Check: true}, loggingtest.NewForTesting(t))
	assert.EqualError(t, err, "--check requires --output")
}

func writeTestModule(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module test\n\ngo 1.24\n"), 0600))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte(testCode), 0600))
	t.Chdir(dir)
}
