package flock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mrz1836/zipsign/internal/constants"
	zserrors "github.com/mrz1836/zipsign/internal/errors"
)

// ErrHeld is returned by Exclusive when the lock belongs to someone else.
var ErrHeld = errors.New("lock held by another process")

// File is an exclusive lock held on a lock file.
type File struct {
	path     string
	interval time.Duration
	file     *os.File
}

// New returns an unlocked File for path. The file is created on Lock.
func New(path string) *File {
	return &File{path: path, interval: constants.LockRetryInterval}
}

// Path returns the lock file path.
func (f *File) Path() string {
	return f.path
}

// Lock acquires the lock, retrying until timeout or ctx cancellation.
func (f *File) Lock(ctx context.Context, timeout time.Duration) error {
	file, err := os.OpenFile(f.path, os.O_RDWR|os.O_CREATE, 0o600) // #nosec G304 -- lock path is built by the caller
	if err != nil {
		return fmt.Errorf("opening lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			_ = file.Close()
			return err
		}

		err := Exclusive(file.Fd())
		if err == nil {
			f.file = file
			return nil
		}
		if !errors.Is(err, ErrHeld) {
			_ = file.Close()
			return fmt.Errorf("locking %s: %w", f.path, err)
		}

		if time.Now().After(deadline) {
			_ = file.Close()
			return fmt.Errorf("%w: %s after %v", zserrors.ErrLockTimeout, f.path, timeout)
		}

		timer := time.NewTimer(f.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = file.Close()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Unlock releases the lock and closes the file. Unlocking an unheld File is a no-op.
func (f *File) Unlock() error {
	if f.file == nil {
		return nil
	}
	_ = Unlock(f.file.Fd())
	err := f.file.Close()
	f.file = nil
	return err
}
