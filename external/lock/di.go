package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/foxseedlab/debaide/internal/battle"
	"github.com/foxseedlab/debaide/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
)

const redisInitTimeout = 5 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (battle.Locker, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.RedisURL == "" {
			slog.Warn("REDIS_URL is empty, judge lock is process-local")
			return battle.NewMemoryLocker(), nil
		}
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("REDIS_URL is invalid: %w", err)
		}
		rdb := redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), redisInitTimeout)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		return NewRedisLocker(rdb), nil
	})
}
