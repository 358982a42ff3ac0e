// Package cache stores fetched article payloads so repeated inference runs
// do not hit the gateway again.
package cache

import (
	"strconv"
	"time"

	"github.com/ppiankov/needscore/internal/model"
)

const keyPrefix = "needscore:v1:"

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ArticleKey is the cache key for a gateway article payload
func ArticleKey(id int64) string {
	return keyPrefix + "article:" + strconv.FormatInt(id, 10)
}

// New builds the cache described by cfg, or nil when caching is disabled
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}
