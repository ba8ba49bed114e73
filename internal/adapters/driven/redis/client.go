package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/sercha-integrity/internal/core/domain"
)

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, settings domain.RedisSettings) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     settings.Addr,
		Password: settings.Password,
		DB:       settings.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", settings.Addr, err)
	}
	return client, nil
}

// keyspace builds namespaced keys.
type keyspace string

func (k keyspace) key(parts ...string) string {
	s := string(k)
	for _, p := range parts {
		s += ":" + p
	}
	return s
}
