package battle

import (
	"context"
	"sync"
	"time"
)

// Unlock releases a lock obtained from a Locker.
type Unlock func(ctx context.Context) error

type Locker interface {
	// TryLock reports false without blocking when another holder owns key.
	TryLock(ctx context.Context, key string, ttl time.Duration) (Unlock, bool, error)
}

// MemoryLocker is a process-local Locker with expiring entries.
type MemoryLocker struct {
	mu   sync.Mutex
	now  func() time.Time
	held map[string]memoryLease
	seq  uint64
}

type memoryLease struct {
	token   uint64
	expires time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{now: time.Now, held: make(map[string]memoryLease)}
}

func (l *MemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (Unlock, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if lease, ok := l.held[key]; ok && now.Before(lease.expires) {
		return nil, false, nil
	}
	l.seq++
	token := l.seq
	l.held[key] = memoryLease{token: token, expires: now.Add(ttl)}
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if lease, ok := l.held[key]; ok && lease.token == token {
			delete(l.held, key)
		}
		return nil
	}, true, nil
}
