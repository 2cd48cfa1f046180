package cmakedocs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// ErrLockTimeout indicates a build lock acquisition timed out.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// BuildLock serializes table builds across processes sharing a base dir,
// using flock(2). One process builds as the leader while the others wait
// and then load the finished artifact. The kernel releases the lock when
// the holder exits, so a crashed leader never wedges followers.
type BuildLock struct {
	path string
	file *os.File
}

// NewBuildLock creates a build lock at the given path. The lock file and
// its parent directories are created on first acquisition.
func NewBuildLock(path string) *BuildLock {
	return &BuildLock{
		path: path,
	}
}

// TryLock attempts to acquire the lock without blocking. It returns true
// when this process became the leader and false when another holds the
// lock; errors are reserved for unexpected failures, not contention.
func (l *BuildLock) TryLock() (bool, error) {
	if err := l.open(); err != nil {
		return false, err
	}

	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = l.file.Close()
		l.file = nil
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return false, nil
		}
		return false, fmt.Errorf("flock failed: %w", err)
	}

	return true, nil
}

// LockWithContext acquires the lock, blocking until it is available, the
// timeout expires, or the context is cancelled. Followers use it to wait
// for the leader's build to finish. Returns ErrLockTimeout on timeout.
func (l *BuildLock) LockWithContext(ctx context.Context, timeout time.Duration) error {
	if err := l.open(); err != nil {
		return err
	}

	deadline := time.Now().Add(timeout)
	pollInterval := 10 * time.Millisecond
	const maxPollInterval = 500 * time.Millisecond

	for {
		if time.Now().After(deadline) {
			_ = l.file.Close()
			l.file = nil
			return ErrLockTimeout
		}

		err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return nil
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) {
			_ = l.file.Close()
			l.file = nil
			return fmt.Errorf("flock failed: %w", err)
		}

		select {
		case <-ctx.Done():
			_ = l.file.Close()
			l.file = nil
			return ctx.Err()
		case <-time.After(pollInterval):
			pollInterval = min(pollInterval*2, maxPollInterval)
		}
	}
}

// Unlock releases the lock. Calling Unlock on an unheld lock is a no-op.
func (l *BuildLock) Unlock() error {
	if l.file == nil {
		return nil
	}

	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if err != nil {
		return fmt.Errorf("flock unlock failed: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close failed: %w", closeErr)
	}

	return nil
}

// IsLocked reports whether this instance currently holds the lock.
func (l *BuildLock) IsLocked() bool {
	return l.file != nil
}

// Path returns the lock file path.
func (l *BuildLock) Path() string {
	return l.path
}

// open creates the lock file and its parents if needed.
func (l *BuildLock) open() error {
	if l.file != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}

	l.file = file
	return nil
}
