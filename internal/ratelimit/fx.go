package ratelimit

import (
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/omsms/tenantgate/internal/config"
)

// newRedisClient returns nil when redis is disabled; Locker and
// SignupLimiter both degrade to permit-all in that case.
func newRedisClient(cfg config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func newSignupLimiter(client *redis.Client, cfg config.Config) *SignupLimiter {
	return NewSignupLimiter(client, cfg.Redis.SignupLimit, cfg.Redis.SignupWindow)
}

var Module = fx.Module("ratelimit",
	fx.Provide(newRedisClient),
	fx.Provide(NewLocker),
	fx.Provide(newSignupLimiter),
)
