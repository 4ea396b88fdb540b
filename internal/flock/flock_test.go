package flock

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestFlock(t *testing.T) {
	ctx := t.Context()
	lockfile := filepath.Join(t.TempDir(), "report.json.lock")
	release, err := Acquire(ctx, lockfile, 0)
	assert.NoError(t, err)

	_, err = Acquire(ctx, lockfile, 0)
	assert.Error(t, err)

	err = release()
	assert.NoError(t, err)

	releaseb, err := Acquire(ctx, lockfile, 0)
	assert.NoError(t, err)
	assert.NoError(t, releaseb())
}

func TestFlockWaitsForRelease(t *testing.T) {
	lockfile := filepath.Join(t.TempDir(), "lock")
	release, err := Acquire(t.Context(), lockfile, 0)
	assert.NoError(t, err)
	go func() {
		time.Sleep(time.Millisecond * 50)
		_ = release()
	}()
	releaseb, err := Acquire(t.Context(), lockfile, time.Second*5)
	assert.NoError(t, err)
	assert.NoError(t, releaseb())
}

func TestFlockTimeout(t *testing.T) {
	lockfile := filepath.Join(t.TempDir(), "lock")
	release, err := Acquire(t.Context(), lockfile, 0)
	assert.NoError(t, err)
	defer release() //nolint:errcheck
	_, err = Acquire(t.Context(), lockfile, time.Millisecond*50)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to acquire lock")
}
