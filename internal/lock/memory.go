package lock

import (
	"context"
	"fmt"
	"sync"
)

// MemoryKeyLock is an in-process keyed mutex. Suitable for single-instance
// deployments and tests; multi-instance setups need the Redis lock.
type MemoryKeyLock struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	ch   chan struct{}
	refs int
}

func NewMemoryKeyLock() *MemoryKeyLock {
	return &MemoryKeyLock{entries: make(map[string]*memoryEntry)}
}

func (l *MemoryKeyLock) Acquire(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, fmt.Errorf("lock key is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &memoryEntry{ch: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(key, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			<-entry.ch
			l.drop(key, entry)
		})
	}
	return release, nil
}

func (l *MemoryKeyLock) drop(key string, entry *memoryEntry) {
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, key)
	}
	l.mu.Unlock()
}
