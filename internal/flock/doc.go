// Package flock provides advisory, cross-process file locks.
//
// The low-level Exclusive and Unlock calls are non-blocking and work on a raw
// descriptor. Most callers want File, which opens a lock file and retries
// Exclusive until it succeeds, the timeout expires, or the context ends:
//
//	lock := flock.New(filepath.Join(dir, ".keys.lock"))
//	if err := lock.Lock(ctx, 5*time.Second); err != nil {
//	    return err
//	}
//	defer func() { _ = lock.Unlock() }()
package flock
