// Package cache holds the Redis-backed security caches: the token
// blacklist hot copy and rate-limit counters. Authorization decisions are
// deliberately never cached here; every permission check re-reads
// membership and farm state so a revocation cannot serve a stale allow.
package cache

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"vinesight-backend/shared/config"
)

type CacheManager struct {
	client *redis.Client
	ctx    context.Context
}

var globalCacheManager *CacheManager

// InitCacheManager initializes the global cache manager
func InitCacheManager() error {
	cfg := config.GetConfig()

	redisDB, err := strconv.Atoi(cfg.RedisDB)
	if err != nil {
		log.Printf("❌ Invalid Redis DB number: %s, using default 0", cfg.RedisDB)
		redisDB = 0
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       redisDB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	globalCacheManager = &CacheManager{
		client: client,
		ctx:    ctx,
	}

	log.Printf("✅ Redis Cache Manager initialized successfully - %s:%s DB:%d",
		cfg.RedisHost, cfg.RedisPort, redisDB)

	return nil
}

// GetCacheManager returns the global cache manager instance
func GetCacheManager() *CacheManager {
	if globalCacheManager == nil {
		if err := InitCacheManager(); err != nil {
			log.Printf("❌ Failed to initialize cache manager: %v", err)
			return nil
		}
	}
	return globalCacheManager
}

func blacklistKey(tokenHash string) string {
	return "auth:blacklist:" + tokenHash
}

func rateLimitKey(scope, key string) string {
	return fmt.Sprintf("ratelimit:%s:%s", scope, key)
}

// BlacklistToken marks a token hash as revoked until its natural expiry.
// Postgres stays the source of truth; this is the per-request hot path.
func (cm *CacheManager) BlacklistToken(tokenHash string, ttl time.Duration) error {
	if cm == nil || cm.client == nil {
		return fmt.Errorf("cache manager not initialized")
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return cm.client.Set(cm.ctx, blacklistKey(tokenHash), "revoked", ttl).Err()
}

// IsTokenBlacklisted reports whether the token hash has been revoked. A
// Redis failure surfaces as an error so callers can fall back to the
// database instead of silently accepting the token.
func (cm *CacheManager) IsTokenBlacklisted(tokenHash string) (bool, error) {
	if cm == nil || cm.client == nil {
		return false, fmt.Errorf("cache manager not initialized")
	}
	_, err := cm.client.Get(cm.ctx, blacklistKey(tokenHash)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %v", err)
	}
	return true, nil
}

// IncrementRateLimit bumps the counter for a scope+key pair and returns
// the count inside the current window. The first hit sets the window TTL.
func (cm *CacheManager) IncrementRateLimit(scope, key string, window time.Duration) (int64, error) {
	if cm == nil || cm.client == nil {
		return 0, fmt.Errorf("cache manager not initialized")
	}

	redisKey := rateLimitKey(scope, key)
	count, err := cm.client.Incr(cm.ctx, redisKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment rate limit: %v", err)
	}
	if count == 1 {
		if err := cm.client.Expire(cm.ctx, redisKey, window).Err(); err != nil {
			return count, fmt.Errorf("failed to set rate limit window: %v", err)
		}
	}
	return count, nil
}

// ResetRateLimit clears the counter for a scope+key pair
func (cm *CacheManager) ResetRateLimit(scope, key string) error {
	if cm == nil || cm.client == nil {
		return fmt.Errorf("cache manager not initialized")
	}
	return cm.client.Del(cm.ctx, rateLimitKey(scope, key)).Err()
}

// BlockKey blocks a scope+key pair for the given duration
func (cm *CacheManager) BlockKey(scope, key string, duration time.Duration) error {
	if cm == nil || cm.client == nil {
		return fmt.Errorf("cache manager not initialized")
	}
	blockKey := rateLimitKey(scope, key) + ":blocked"
	return cm.client.Set(cm.ctx, blockKey, "blocked", duration).Err()
}

// IsKeyBlocked reports whether a scope+key pair is currently blocked
func (cm *CacheManager) IsKeyBlocked(scope, key string) (bool, error) {
	if cm == nil || cm.client == nil {
		return false, fmt.Errorf("cache manager not initialized")
	}
	blockKey := rateLimitKey(scope, key) + ":blocked"
	_, err := cm.client.Get(cm.ctx, blockKey).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check block: %v", err)
	}
	return true, nil
}

// TestConnection tests the Redis connection
func (cm *CacheManager) TestConnection() error {
	if cm == nil || cm.client == nil {
		return fmt.Errorf("cache manager not initialized")
	}

	testKey := "test:connection"
	testValue := "connection_test_ok"

	if err := cm.client.Set(cm.ctx, testKey, testValue, time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to set test value: %v", err)
	}

	result, err := cm.client.Get(cm.ctx, testKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get test value: %v", err)
	}

	if result != testValue {
		return fmt.Errorf("test value mismatch: expected %s, got %s", testValue, result)
	}

	if err := cm.client.Del(cm.ctx, testKey).Err(); err != nil {
		return fmt.Errorf("failed to delete test value: %v", err)
	}

	log.Println("✅ Redis connection test passed")
	return nil
}

// Close closes the cache manager connection
func (cm *CacheManager) Close() error {
	if cm != nil && cm.client != nil {
		return cm.client.Close()
	}
	return nil
}
