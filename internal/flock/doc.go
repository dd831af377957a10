// Package flock provides cross-platform advisory file locks.
//
// Exclusive and Unlock are the non-blocking platform primitives. Acquire
// polls Exclusive until the lock is held, the timeout passes or the context
// is done; the file storage backend serializes writers with it.
//
//	lock, err := flock.Acquire(ctx, path+".lock", 5*time.Second)
//	if err != nil {
//	    return err
//	}
//	defer lock.Release()
package flock
