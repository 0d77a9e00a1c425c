// Package redis provides a Redis-backed implementation of
// ports.AnalysisCache so lookup results can be shared across processes.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

// DefaultPrefix namespaces cache keys so the Redis instance can be
// shared with other applications.
const DefaultPrefix = "hfstol:analysis:"

// Cache implements ports.AnalysisCache using Redis. Result sets are
// stored as JSON under prefix+key, optionally with a TTL.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// WithTTL expires entries after ttl. Zero keeps them until Redis evicts
// them on its own terms.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// New connects to a Redis instance and wraps it in a Cache.
func New(addr, password string, db int, opts ...Option) *Cache {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient wraps an existing Redis client.
func NewFromClient(client *backend.Client, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached analyses for key, if present.
func (c *Cache) Get(ctx context.Context, key string) ([]fst.Analysis, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var analyses []fst.Analysis
	if err := json.Unmarshal(data, &analyses); err != nil {
		return nil, false, fmt.Errorf("decode cached analyses: %w", err)
	}
	return analyses, true, nil
}

// Set stores analyses under key, replacing any previous value. An empty
// result set is stored like any other.
func (c *Cache) Set(ctx context.Context, key string, analyses []fst.Analysis) error {
	data, err := json.Marshal(analyses)
	if err != nil {
		return fmt.Errorf("encode analyses: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping verifies the connection, for startup checks and health probes.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
