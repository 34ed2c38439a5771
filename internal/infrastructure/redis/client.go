package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Options tunes the client built by Connect.
type Options struct {
	// PoolSize overrides the URL's pool size when positive.
	PoolSize int
	// MaxWait bounds how long Connect keeps retrying the first ping.
	MaxWait time.Duration
	Logger  zerolog.Logger
}

// NewClient creates a new Redis client and pings it once.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	return Connect(ctx, redisURL, Options{Logger: zerolog.Nop()})
}

// Connect creates a Redis client, retrying the initial ping with
// exponential backoff until it answers, opts.MaxWait elapses or ctx ends.
func Connect(ctx context.Context, redisURL string, opts Options) (*redis.Client, error) {
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if opts.PoolSize > 0 {
		parsed.PoolSize = opts.PoolSize
	}

	client := redis.NewClient(parsed)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = opts.MaxWait

	var policy backoff.BackOff = backoff.WithContext(b, ctx)
	if opts.MaxWait <= 0 {
		policy = backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if err := client.Ping(ctx).Err(); err != nil {
			opts.Logger.Warn().Err(err).Int("attempt", attempt).Msg("redis not reachable, retrying")
			return err
		}
		return nil
	}, policy)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	opts.Logger.Debug().Str("addr", parsed.Addr).Int("attempts", attempt).Msg("connected to redis")
	return client, nil
}
