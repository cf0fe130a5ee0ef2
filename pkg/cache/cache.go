// Package cache is a small read-through cache for catalog reads.
//
// A Store is picked once at startup from CACHE_DRIVER:
//
//	store, err := cache.Connect(ctx)   // "redis" or "none"
//	if cache.Get(ctx, store, "products:all", &list) { ... }
//
// Every failure path degrades to a miss; the catalog never fails because
// the cache did.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/solestore/solestore/config"
	"github.com/solestore/solestore/pkg/metrics"
)

// ErrMiss is returned by Store.Get when the key is absent.
var ErrMiss = errors.New("cache: miss")

// Store is a byte-level key/value cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Driver() string
}

// Connect builds the configured store. An unknown driver is an error; a
// redis store that cannot be pinged is returned as an error too so the
// caller can decide whether to fall back to Nop.
func Connect(ctx context.Context) (Store, error) {
	switch config.CacheDriver() {
	case "", "none":
		return Nop{}, nil
	case "redis":
		return NewRedis(ctx, config.RedisAddr(), config.RedisPassword())
	default:
		return nil, fmt.Errorf("cache: unknown driver %q", config.CacheDriver())
	}
}

// Get loads key from s and decodes it into dest. It reports a hit only when
// both the lookup and the decode succeed.
func Get(ctx context.Context, s Store, key string, dest any) bool {
	raw, err := s.Get(ctx, key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues(s.Driver()).Inc()
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		metrics.CacheMisses.WithLabelValues(s.Driver()).Inc()
		return false
	}
	metrics.CacheHits.WithLabelValues(s.Driver()).Inc()
	return true
}

// Set encodes value as JSON and stores it under key.
func Set(ctx context.Context, s Store, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %q: %w", key, err)
	}
	return s.Set(ctx, key, data, ttl)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, error)              { return nil, ErrMiss }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Del(context.Context, ...string) error                     { return nil }
func (Nop) Driver() string                                           { return "none" }
