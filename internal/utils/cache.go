package utils

import (
	"context" // Context for Redis operations
	"strconv" // Version formatting
	"time"    // Time durations

	"github.com/goccy/go-json"     // JSON encoding/decoding
	"github.com/redis/go-redis/v9" // Redis client
)

// Every helper is a no-op on a nil client so the server runs without Redis.

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	val, err := rdb.Get(ctx, key).Bytes() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal(val, dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// CacheVersion returns the current generation of a cache namespace.
// Keys built with it go stale together when BumpCacheVersion runs.
func CacheVersion(ctx context.Context, rdb *redis.Client, namespace string) (string, error) {
	if rdb == nil {
		return "0", nil
	}
	v, err := rdb.Get(ctx, namespace+":version").Result()
	if err == redis.Nil {
		return "0", nil
	}
	return v, err
}

// BumpCacheVersion invalidates every key built from the namespace's previous version
func BumpCacheVersion(ctx context.Context, rdb *redis.Client, namespace string) error {
	if rdb == nil {
		return nil
	}
	return rdb.Incr(ctx, namespace+":version").Err()
}

// VersionedKey joins namespace, version and parts into a cache key
func VersionedKey(namespace, version string, parts ...string) string {
	key := namespace + ":v" + version
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// PageKey is the cache key suffix for a page/limit pair
func PageKey(page, limit int) string {
	return "page=" + strconv.Itoa(page) + ":limit=" + strconv.Itoa(limit)
}
