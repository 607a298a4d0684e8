package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"coupon-ledger/internal/infra/lock"
	"coupon-ledger/internal/pkg/config"
	"coupon-ledger/internal/usecase/commands"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var LockModule = fx.Module("lock",
	fx.Provide(
		NewLocker,
	),
)

// NewLocker builds the redemption lock selected by LOCK_BACKEND. The local
// lock only serializes redemptions inside one process.
func NewLocker(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (commands.Locker, error) {
	switch cfg.Lock.Backend {
	case config.LockBackendLocal:
		return lock.NewLocalLocker(), nil

	case config.LockBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Lock.RedisAddr,
			Password: cfg.Lock.RedisPassword,
			DB:       cfg.Lock.RedisDB,
		})
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := client.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("failed to connect to redis at %s: %w", cfg.Lock.RedisAddr, err)
				}
				return nil
			},
			OnStop: func(_ context.Context) error {
				return client.Close()
			},
		})
		return lock.NewRedisLocker(client, cfg.Lock.TTL, cfg.Lock.Wait, logger), nil

	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Lock.Backend)
	}
}
