//go:build unix

package flock

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Exclusive takes a non-blocking exclusive flock on fd. It returns
// ErrHeld when another descriptor owns the lock.
func Exclusive(fd uintptr) error {
	for {
		err := unix.Flock(int(fd), unix.LOCK_EX|unix.LOCK_NB) //nolint:gosec // G115: descriptors fit in int
		switch {
		case err == nil:
			return nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EWOULDBLOCK):
			return ErrHeld
		default:
			return err
		}
	}
}

// Unlock drops the flock on fd.
func Unlock(fd uintptr) error {
	return unix.Flock(int(fd), unix.LOCK_UN) //nolint:gosec // G115: descriptors fit in int
}
