package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foxseedlab/debaide/internal/battle"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lease taken over by another holder is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements battle.Locker with SET NX PX so that several backend
// processes never judge the same battle at once.
type RedisLocker struct {
	rdb *redis.Client
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (battle.Unlock, bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return func(ctx context.Context) error {
		err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("redis release %s: %w", key, err)
		}
		return nil
	}, true, nil
}

// Shutdown closes the client when the injector shuts down.
func (l *RedisLocker) Shutdown() error {
	return l.rdb.Close()
}
