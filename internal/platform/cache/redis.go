package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// RedisOptions identifies the Redis instance shared by sessions, the sale cache
// and the job queue.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// Client returns the go-redis options.
func (o RedisOptions) Client() *redis.Options {
	return &redis.Options{Addr: o.Addr, Password: o.Password, DB: o.DB}
}

// Connect creates a client and pings it. The client is returned even when the
// ping fails so callers can choose to run degraded.
func Connect(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(opts.Client())

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return client, fmt.Errorf("platform/cache: ping %s: %w", opts.Addr, err)
	}
	return client, nil
}
