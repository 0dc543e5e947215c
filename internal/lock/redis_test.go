package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), RedisOptions{
		Addr:     mr.Addr(),
		PoolSize: 4,
		Timeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLocker(client, 5*time.Second)

	called := false
	err := l.WithLock(context.Background(), "provider:D1:mon:09:00", func(ctx context.Context) error {
		called = true
		if !mr.Exists("lock:provider:D1:mon:09:00") {
			t.Error("lock key should exist while held")
		}
		if ttl := mr.TTL("lock:provider:D1:mon:09:00"); ttl != 5*time.Second {
			t.Errorf("ttl = %s; want 5s", ttl)
		}
		if _, ok := ctx.Deadline(); !ok {
			t.Error("fn context should carry the lock ttl as deadline")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithLock: %v", err)
	}
	if !called {
		t.Fatal("fn was not called")
	}
	if mr.Exists("lock:provider:D1:mon:09:00") {
		t.Error("lock key should be deleted after release")
	}
}

func TestRedisLocker_ContentionFailsFast(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLocker(client, 5*time.Second)

	if err := mr.Set("lock:room:R1", "someone-else"); err != nil {
		t.Fatal(err)
	}

	called := false
	err := l.WithLock(context.Background(), "room:R1", func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrLockNotAcquired) {
		t.Errorf("err = %v; want ErrLockNotAcquired", err)
	}
	if called {
		t.Error("fn must not run without the lock")
	}
	if got, _ := mr.Get("lock:room:R1"); got != "someone-else" {
		t.Errorf("holder's key overwritten: %q", got)
	}

	// Other keys are unaffected.
	if err := l.WithLock(context.Background(), "room:R2", func(context.Context) error { return nil }); err != nil {
		t.Errorf("independent key: %v", err)
	}
}

func TestRedisLocker_ReleasesOnlyOwnToken(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLocker(client, 5*time.Second)

	err := l.WithLock(context.Background(), "patient:P1", func(context.Context) error {
		// The lock expired and another holder took it over.
		mr.Del("lock:patient:P1")
		return mr.Set("lock:patient:P1", "new-owner")
	})
	if err != nil {
		t.Fatalf("WithLock: %v", err)
	}
	if got, err := mr.Get("lock:patient:P1"); err != nil || got != "new-owner" {
		t.Errorf("other holder's lock = %q, %v; want it left in place", got, err)
	}
}

func TestRedisLocker_PropagatesErrorAndReleases(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLocker(client, 5*time.Second)
	boom := errors.New("boom")

	if err := l.WithLock(context.Background(), "k", func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v; want boom", err)
	}
	if mr.Exists("lock:k") {
		t.Error("lock should be released after fn fails")
	}
}

func TestRedisLocker_UnreachableServer(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLocker(client, time.Second)
	mr.Close()

	err := l.WithLock(context.Background(), "k", func(context.Context) error { return nil })
	if err == nil || errors.Is(err, ErrLockNotAcquired) {
		t.Errorf("err = %v; want a connection error distinct from contention", err)
	}
}

func TestNewRedisClient_PingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisClient(context.Background(), RedisOptions{Addr: addr, Timeout: 200 * time.Millisecond}); err == nil {
		t.Error("NewRedisClient should fail when the server is down")
	}
}

func TestRedisOptions_ClientOptions(t *testing.T) {
	opts := RedisOptions{Addr: "cache:6380", Username: "app", Password: "s3cret", DB: 2, PoolSize: 16, Timeout: 3 * time.Second}.clientOptions()
	if opts.Addr != "cache:6380" || opts.Username != "app" || opts.Password != "s3cret" || opts.DB != 2 {
		t.Errorf("connection fields = %+v", opts)
	}
	if opts.PoolSize != 16 || opts.MinIdleConns != 1 {
		t.Errorf("pool = %d/%d", opts.PoolSize, opts.MinIdleConns)
	}
	if opts.DialTimeout != 3*time.Second || opts.ReadTimeout != 3*time.Second || opts.WriteTimeout != 3*time.Second {
		t.Errorf("timeouts = %s %s %s", opts.DialTimeout, opts.ReadTimeout, opts.WriteTimeout)
	}

	zero := RedisOptions{Addr: "cache:6379"}.clientOptions()
	if zero.PoolSize != 0 || zero.ReadTimeout != 0 || zero.MinIdleConns != 0 {
		t.Errorf("zero options should defer to go-redis defaults: %+v", zero)
	}
}
