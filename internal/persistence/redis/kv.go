// Package redis is the Redis-backed history store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/sawpanic/cascade/infra/breakers"
	"github.com/sawpanic/cascade/internal/persistence"
)

const scanCount = 100

// KV implements persistence.KV on a Redis client. Every call goes through
// a circuit breaker so a dead server fails fast.
type KV struct {
	client  goredis.UniversalClient
	breaker *breakers.Breaker
	timeout time.Duration
}

// Options configures the store.
type Options struct {
	Addr             string
	DB               int
	Timeout          time.Duration
	FailureThreshold int
	OpenFor          time.Duration
}

// New connects to Redis at opts.Addr.
func New(opts Options) *KV {
	client := goredis.NewClient(&goredis.Options{Addr: opts.Addr, DB: opts.DB})
	return NewWithClient(client, opts)
}

// NewWithClient wraps an existing client.
func NewWithClient(client goredis.UniversalClient, opts Options) *KV {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &KV{
		client: client,
		breaker: breakers.New(breakers.Settings{
			Name:             "redis-history",
			FailureThreshold: opts.FailureThreshold,
			OpenFor:          opts.OpenFor,
		}),
		timeout: timeout,
	}
}

func (s *KV) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var missing bool
	v, err := s.breaker.Execute(func() (any, error) {
		b, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			missing = true
			return nil, nil
		}
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	if missing {
		return nil, persistence.ErrNotFound
	}
	return v.([]byte), nil
}

func (s *KV) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.client.Set(ctx, key, value, 0).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *KV) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.client.Del(ctx, key).Err()
	})
	if err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Keys scans with a MATCH pattern; prefix must not contain glob characters.
func (s *KV) Keys(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	v, err := s.breaker.Execute(func() (any, error) {
		var (
			keys   []string
			cursor uint64
		)
		for {
			batch, next, err := s.client.Scan(ctx, cursor, prefix+"*", scanCount).Result()
			if err != nil {
				return nil, err
			}
			keys = append(keys, batch...)
			if next == 0 {
				return keys, nil
			}
			cursor = next
		}
	})
	if err != nil {
		return nil, fmt.Errorf("redis scan %s*: %w", prefix, err)
	}
	keys := v.([]string)
	sort.Strings(keys)
	return keys, nil
}

// Ping checks connectivity.
func (s *KV) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *KV) Close() error {
	return s.client.Close()
}
