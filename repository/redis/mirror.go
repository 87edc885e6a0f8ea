package redis

import (
	"context"
	"errors"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/lucidportal/backend/repository"
)

// Mirror is a Redis-backed LocalMirror. Keys never expire.
type Mirror struct {
	client  *redislib.Client
	timeout time.Duration
}

var _ repository.LocalMirror = (*Mirror)(nil)

// NewMirror creates a Redis-backed local mirror.
func NewMirror(client *redislib.Client, timeout time.Duration) *Mirror {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Mirror{client: client, timeout: timeout}
}

func (m *Mirror) Get(key string) (string, bool, error) {
	ctx, cancel := m.context()
	defer cancel()

	value, err := m.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (m *Mirror) Set(key, value string) error {
	ctx, cancel := m.context()
	defer cancel()
	return m.client.Set(ctx, key, value, 0).Err()
}

func (m *Mirror) Remove(key string) error {
	ctx, cancel := m.context()
	defer cancel()
	return m.client.Del(ctx, key).Err()
}

// Size returns the number of keys in the selected database.
func (m *Mirror) Size() (int, error) {
	ctx, cancel := m.context()
	defer cancel()
	n, err := m.client.DBSize(ctx).Result()
	return int(n), err
}

// Details reports connection pool counters for the health endpoint.
func (m *Mirror) Details() map[string]any {
	stats := m.client.PoolStats()
	return map[string]any{
		"driver":      "redis",
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
	}
}

func (m *Mirror) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}
