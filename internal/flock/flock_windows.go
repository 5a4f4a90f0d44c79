//go:build windows

package flock

import (
	"errors"
	"math"

	"golang.org/x/sys/windows"
)

// Exclusive locks the whole file behind fd without waiting. It returns
// ErrHeld when another handle owns the lock.
func Exclusive(fd uintptr) error {
	err := windows.LockFileEx(
		windows.Handle(fd),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0,
		math.MaxUint32, math.MaxUint32,
		&windows.Overlapped{},
	)
	if errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
		return ErrHeld
	}
	return err
}

// Unlock releases the range taken by Exclusive.
func Unlock(fd uintptr) error {
	return windows.UnlockFileEx(windows.Handle(fd), 0, math.MaxUint32, math.MaxUint32, &windows.Overlapped{})
}
