// Package flock provides advisory file locks, used to serialise concurrent writers of the same output.
package flock

import (
	"context"
	"os"
	"time"

	"github.com/alecthomas/errors"
	"github.com/jpillora/backoff"
	"golang.org/x/sys/unix"
)

// Acquire an exclusive lock on path, creating the file if necessary.
//
// If the lock is held elsewhere, Acquire retries until timeout has elapsed. A zero timeout makes a single attempt.
// The returned function releases the lock.
func Acquire(ctx context.Context, path string, timeout time.Duration) (release func() error, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600) //nolint:gosec
	if err != nil {
		return nil, errors.Errorf("failed to open lock file: %w", err)
	}
	deadline := time.Now().Add(timeout)
	retry := backoff.Backoff{Min: time.Millisecond * 10, Max: time.Millisecond * 500, Jitter: true}
	for {
		err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			break
		}
		if !errors.Is(err, unix.EWOULDBLOCK) || time.Now().After(deadline) {
			_ = f.Close()
			return nil, errors.Errorf("failed to acquire lock %s: %w", path, err)
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, errors.Errorf("failed to acquire lock %s: %w", path, ctx.Err())
		case <-time.After(retry.Duration()):
		}
	}
	return func() error {
		if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
			_ = f.Close()
			return errors.Errorf("failed to release lock %s: %w", path, err)
		}
		return errors.WithStack(f.Close())
	}, nil
}
