package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gigbridge/gigbridge/internal/pkg/env"
	"github.com/redis/go-redis/v9"
)

var (
	client *redis.Client
	ctx    = context.Background()
)

// SetupCache initializes the connection to the redis cache server.
func SetupCache() {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0, // use default DB
	})

	// Test the connection
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Printf("Warning: Could not connect to cache: %v", err)
	} else {
		log.Printf("Successfully connected to cache: %s", pong)
	}
}

// GetClient returns the underlying redis client (may be nil before setup).
func GetClient() *redis.Client {
	return client
}

// Set stores a value with TTL. No-op when the cache is unavailable.
func Set(key string, value string, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	return client.Set(ctx, key, value, ttl).Err()
}

// Get reads a value; returns empty string on miss or cache unavailability.
func Get(key string) string {
	if client == nil {
		return ""
	}
	val, err := client.Get(ctx, key).Result()
	if err != nil {
		return ""
	}
	return val
}

// Delete removes keys. No-op when the cache is unavailable.
func Delete(keys ...string) error {
	if client == nil || len(keys) == 0 {
		return nil
	}
	return client.Del(ctx, keys...).Err()
}
