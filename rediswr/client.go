package rediswr

import (
	"context"

	"github.com/avast/retry-go/v4"
	"github.com/code19m/errx"
	"github.com/redis/go-redis/v9"

	"github.com/rise-and-shine/redq/observability/logger"
)

// New creates a new Redis client. It does not contact the server.
func New(cfg Config) redis.UniversalClient {
	addrs := cfg.addrList()

	if cfg.IsClusterMode {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			PoolSize: cfg.PoolSize,
		})
	}

	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    addrs,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// Connect creates a client and pings the server until it answers or the retries are spent.
func Connect(ctx context.Context, cfg Config) (redis.UniversalClient, error) {
	client := New(cfg)
	log := logger.Named("rediswr").WithContext(ctx)

	attempts := cfg.DialRetries
	if attempts == 0 {
		attempts = 1
	}

	err := retry.Do(
		func() error {
			return client.Ping(ctx).Err()
		},
		retry.Attempts(attempts),
		retry.Delay(cfg.DialRetryDelay),
		retry.MaxJitter(cfg.DialRetryDelay/2+1),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.With("attempt", n+1).With("max_attempts", attempts).With("error", err.Error()).
				Warn("redis ping failed, retrying")
		}),
		retry.Context(ctx),
	)
	if err != nil {
		_ = client.Close()
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"addrs": cfg.Addrs}))
	}

	return client, nil
}
