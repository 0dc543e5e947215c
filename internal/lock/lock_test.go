package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryLocker_SerialisesSameKey(t *testing.T) {
	l := NewMemoryLocker()
	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(context.Background(), "provider:1", func(context.Context) error {
				n := inside.Add(1)
				if n > maxSeen.Load() {
					maxSeen.Store(n)
				}
				time.Sleep(100 * time.Microsecond)
				inside.Add(-1)
				return nil
			})
			if err != nil {
				t.Errorf("WithLock error: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxSeen.Load() != 1 {
		t.Errorf("max concurrent holders = %d; want 1", maxSeen.Load())
	}
}

func TestMemoryLocker_IndependentKeys(t *testing.T) {
	l := NewMemoryLocker()
	held := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = l.WithLock(context.Background(), "room:a", func(context.Context) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.WithLock(ctx, "room:b", func(context.Context) error { return nil }); err != nil {
		t.Errorf("other key should not block: %v", err)
	}
	close(done)
}

func TestMemoryLocker_ContextCancelWhileWaiting(t *testing.T) {
	l := NewMemoryLocker()
	held := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = l.WithLock(context.Background(), "k", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	err := l.WithLock(ctx, "k", func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrLockNotAcquired) {
		t.Errorf("err = %v; want ErrLockNotAcquired", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v; want to wrap context.DeadlineExceeded", err)
	}
	if called {
		t.Error("fn must not run without the lock")
	}
}

func TestMemoryLocker_PropagatesError(t *testing.T) {
	l := NewMemoryLocker()
	boom := errors.New("boom")
	if err := l.WithLock(context.Background(), "k", func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v; want boom", err)
	}
	// Lock must be free again afterwards.
	if err := l.WithLock(context.Background(), "k", func(context.Context) error { return nil }); err != nil {
		t.Errorf("second WithLock err = %v", err)
	}
}

// size reports how many keys currently have holders or waiters.
func (l *MemoryLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func TestMemoryLocker_DropsIdleKeys(t *testing.T) {
	l := NewMemoryLocker()
	for i := 0; i < 100; i++ {
		key := fmt.Sprintf("provider:D%d:mon:09:00", i)
		if err := l.WithLock(context.Background(), key, func(context.Context) error { return nil }); err != nil {
			t.Fatalf("WithLock(%s): %v", key, err)
		}
	}
	if n := l.size(); n != 0 {
		t.Errorf("idle keys retained = %d; want 0", n)
	}

	held := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		_ = l.WithLock(context.Background(), "k", func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	if n := l.size(); n != 1 {
		t.Errorf("held keys = %d; want 1", n)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.WithLock(ctx, "k", func(context.Context) error { return nil }); !errors.Is(err, ErrLockNotAcquired) {
		t.Errorf("waiter err = %v; want ErrLockNotAcquired", err)
	}
	close(release)
	<-finished

	if n := l.size(); n != 0 {
		t.Errorf("keys after release = %d; want 0", n)
	}
}
