package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPingTimeout bounds the startup ping.
const DefaultPingTimeout = 5 * time.Second

// Options configures the session store connection.
type Options struct {
	Addr        string
	Password    string
	DB          int
	PingTimeout time.Duration
}

// New connects to Redis and verifies the server answers a ping. The client is
// closed again when the ping fails.
func New(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping %s: %w", opts.Addr, err)
	}

	return client, nil
}
