// Package cache stores model verdicts keyed by content hash.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache is a byte-value store with per-entry TTL. Get returns nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// Config selects and sizes the cache backend
type Config struct {
	Type          string // none, memory or redis
	MaxSize       int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// New creates a cache from configuration. It returns nil, nil when caching is disabled.
func New(cfg Config) (Cache, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return NewLRUCache(cfg.MaxSize), nil
	case "redis":
		rc, err := NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// Key derives a cache key from an operation name and its inputs
func Key(operation string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return operation + ":" + hex.EncodeToString(h.Sum(nil))
}
