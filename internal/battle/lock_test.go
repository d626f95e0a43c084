package battle

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLocker(t *testing.T) {
	l := NewMemoryLocker()
	base := time.Now()
	l.now = func() time.Time { return base }
	ctx := context.Background()

	unlock, ok, err := l.TryLock(ctx, "k", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected lock, got ok=%v err=%v", ok, err)
	}
	if _, ok, _ := l.TryLock(ctx, "k", time.Minute); ok {
		t.Fatal("expected second lock to be refused")
	}
	_ = unlock(ctx)
	if _, ok, _ := l.TryLock(ctx, "k", time.Minute); !ok {
		t.Fatal("expected lock after unlock")
	}
}

func TestMemoryLocker_Expiry(t *testing.T) {
	l := NewMemoryLocker()
	base := time.Now()
	l.now = func() time.Time { return base }
	ctx := context.Background()

	stale, _, _ := l.TryLock(ctx, "k", time.Second)
	l.now = func() time.Time { return base.Add(2 * time.Second) }
	if _, ok, _ := l.TryLock(ctx, "k", time.Minute); !ok {
		t.Fatal("expected expired lease to be taken over")
	}
	_ = stale(ctx)
	if _, ok, _ := l.TryLock(ctx, "k", time.Minute); ok {
		t.Fatal("stale unlock must not release the new lease")
	}
}
