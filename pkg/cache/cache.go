// Package cache is a small JSON key/value cache backed by Redis.
//
// When Redis is unreachable the cache degrades to an in-process memory store
// so that sessions (and the carts inside them) keep working on a single
// instance — the same degrade path the original deployment used with
// filesystem sessions. Multi-instance deployments need Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sheapwilliams/lunch/config"
	"github.com/sheapwilliams/lunch/pkg/metrics"
)

var RDB *redis.Client
var Ctx = context.Background()

// memoryStore is the fallback used when RDB is nil.
type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

var (
	memMu    sync.RWMutex
	memStore = map[string]memoryEntry{}
)

// Connect initialises the Redis client and verifies the connection with a
// ping. On error the memory fallback stays active; the caller decides whether
// that is acceptable (it is for local dev, not for multi-instance prod).
func Connect() error {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	if err := RDB.Ping(Ctx).Err(); err != nil {
		RDB = nil
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	return nil
}

// Get retrieves a cached value by key and unmarshals into dest.
// Returns true on a cache hit, false on miss or error.
func Get(key string, dest interface{}) bool {
	if RDB == nil {
		memMu.RLock()
		entry, ok := memStore[key]
		memMu.RUnlock()
		if !ok || time.Now().After(entry.expiresAt) {
			metrics.CacheMisses.WithLabelValues("memory").Inc()
			return false
		}
		metrics.CacheHits.WithLabelValues("memory").Inc()
		return json.Unmarshal(entry.data, dest) == nil
	}

	val, err := RDB.Get(Ctx, key).Result()
	if err != nil {
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return false
	}

	metrics.CacheHits.WithLabelValues("redis").Inc()
	return json.Unmarshal([]byte(val), dest) == nil
}

// Set stores value under key for the given TTL.
func Set(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if RDB == nil {
		memMu.Lock()
		memStore[key] = memoryEntry{data: data, expiresAt: time.Now().Add(ttl)}
		memMu.Unlock()
		return nil
	}

	return RDB.Set(Ctx, key, data, ttl).Err()
}

// Del removes one or more keys.
func Del(keys ...string) error {
	if RDB == nil {
		memMu.Lock()
		for _, k := range keys {
			delete(memStore, k)
		}
		memMu.Unlock()
		return nil
	}
	return RDB.Del(Ctx, keys...).Err()
}

// Flush clears the memory fallback. Intended for tests.
func Flush() {
	memMu.Lock()
	memStore = map[string]memoryEntry{}
	memMu.Unlock()
}
