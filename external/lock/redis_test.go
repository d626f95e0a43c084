package lock

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLocker(rdb), mr
}

func TestTryLock_Exclusive(t *testing.T) {
	l, _ := newTestLocker(t)
	ctx := context.Background()

	unlock, ok, err := l.TryLock(ctx, "battle:judge:b1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first lock, got ok=%v err=%v", ok, err)
	}
	if _, ok, err := l.TryLock(ctx, "battle:judge:b1", time.Minute); err != nil || ok {
		t.Fatalf("expected second lock to be refused, got ok=%v err=%v", ok, err)
	}
	if _, ok, _ := l.TryLock(ctx, "battle:judge:b2", time.Minute); !ok {
		t.Fatal("expected other key to be free")
	}

	if err := unlock(ctx); err != nil {
		t.Fatalf("unexpected unlock error: %v", err)
	}
	if _, ok, _ := l.TryLock(ctx, "battle:judge:b1", time.Minute); !ok {
		t.Fatal("expected lock to be free after unlock")
	}
}

func TestTryLock_ExpiredLeaseIsNotReleasedByOldHolder(t *testing.T) {
	l, mr := newTestLocker(t)
	ctx := context.Background()

	stale, ok, _ := l.TryLock(ctx, "k", time.Second)
	if !ok {
		t.Fatal("expected lock")
	}
	mr.FastForward(2 * time.Second)

	if _, ok, _ := l.TryLock(ctx, "k", time.Minute); !ok {
		t.Fatal("expected lock after expiry")
	}
	if err := stale(ctx); err != nil {
		t.Fatalf("unexpected unlock error: %v", err)
	}
	if !mr.Exists("k") {
		t.Fatal("stale holder must not delete the new lease")
	}
}
