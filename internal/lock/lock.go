package lock

import "context"

// KeyLock serializes dispatch work per recipient key so the
// check-then-act sequence cannot run concurrently for the same key.
type KeyLock interface {
	// Acquire blocks until the key lock is held or ctx is done. The
	// returned release function must be called exactly once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}
