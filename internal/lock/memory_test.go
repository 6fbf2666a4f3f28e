package lock

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryKeyLockSerializesSameKey(t *testing.T) {
	t.Parallel()

	l := NewMemoryKeyLock()

	var mu sync.Mutex
	inCritical := 0
	maxInCritical := 0

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			release, err := l.Acquire(context.Background(), "a@x.com")
			if err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()

			release()
		}()
	}
	wg.Wait()

	if maxInCritical != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxInCritical)
	}
}

func TestMemoryKeyLockIndependentKeys(t *testing.T) {
	t.Parallel()

	l := NewMemoryKeyLock()

	releaseA, err := l.Acquire(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("Acquire(a) error = %v", err)
	}
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	releaseB, err := l.Acquire(ctx, "b@x.com")
	if err != nil {
		t.Fatalf("Acquire(b) should not block on a different key: %v", err)
	}
	releaseB()
}

func TestMemoryKeyLockHonorsContext(t *testing.T) {
	t.Parallel()

	l := NewMemoryKeyLock()

	release, err := l.Acquire(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := l.Acquire(ctx, "a@x.com"); err == nil {
		t.Fatal("Acquire() should fail once the context expires")
	}
}

func TestMemoryKeyLockReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	l := NewMemoryKeyLock()

	release, err := l.Acquire(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	release()
	release()

	again, err := l.Acquire(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	again()
}

func TestMemoryKeyLockRequiresKey(t *testing.T) {
	t.Parallel()

	l := NewMemoryKeyLock()
	if _, err := l.Acquire(context.Background(), ""); err == nil {
		t.Fatal("Acquire(\"\") should fail")
	}
}
