package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/lborres/assessgate/core"
)

const DefaultPrefix = "assessgate:"

// Adapter implements core.EntryStore on Redis.
// Entries live under Prefix+key and optionally expire after TTL.
type Adapter struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ core.EntryStore = (*Adapter)(nil)

type Options struct {
	Prefix string
	// TTL of zero keeps entries until logout.
	TTL time.Duration
}

func New(client redis.UniversalClient, opts Options) *Adapter {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	return &Adapter{client: client, prefix: opts.Prefix, ttl: opts.TTL}
}

func (a *Adapter) key(k string) string {
	return a.prefix + k
}

func (a *Adapter) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = a.key(k)
	}

	values, err := a.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session entries: %w", err)
	}

	for i, v := range values {
		// missing keys come back as nil
		if s, ok := v.(string); ok {
			out[keys[i]] = s
		}
	}
	return out, nil
}

// Put writes all entries in a MULTI/EXEC block.
func (a *Adapter) Put(ctx context.Context, entries map[string]string) error {
	_, err := a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range entries {
			pipe.Set(ctx, a.key(k), v, a.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save session entries: %w", err)
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = a.key(k)
	}
	if err := a.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete session entries: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}
