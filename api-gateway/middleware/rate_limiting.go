package middleware

import (
	"net/http"
	"sync"
	"time"

	"vinesight-backend/shared/config"
	"vinesight-backend/shared/utils/cache"

	"github.com/gin-gonic/gin"
)

// RateLimit holds the counter window for one client key
type RateLimit struct {
	Count      int
	ResetAt    time.Time
	LastAccess time.Time
	Blocked    bool
	BlockUntil time.Time
}

// RateLimiter throttles gateway traffic per client IP. Redis keeps the
// counters shared across gateway replicas; the in-memory store takes over
// when Redis is unreachable.
type RateLimiter struct {
	store       map[string]*RateLimit
	mutex       sync.RWMutex
	cleanupTime time.Duration
}

// RateLimitConfig carries the limiter thresholds
type RateLimitConfig struct {
	MaxRequests   int
	TimeWindow    time.Duration
	BlockDuration time.Duration
}

// NewRateLimitConfig builds a RateLimitConfig from environment variables
func NewRateLimitConfig() RateLimitConfig {
	cfg := config.GetConfig()

	return RateLimitConfig{
		MaxRequests:   cfg.GetRateLimitMaxRequests(),
		TimeWindow:    time.Duration(cfg.GetRateLimitTimeWindowSeconds()) * time.Second,
		BlockDuration: time.Duration(cfg.GetRateLimitBlockDurationMinutes()) * time.Minute,
	}
}

// NewRateLimiter creates a RateLimiter and starts its cleanup loop
func NewRateLimiter(cleanupTime time.Duration) *RateLimiter {
	limiter := &RateLimiter{
		store:       make(map[string]*RateLimit),
		cleanupTime: cleanupTime,
	}

	go limiter.cleanup()

	return limiter
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupTime)
	defer ticker.Stop()

	for range ticker.C {
		rl.mutex.Lock()
		now := time.Now()
		for key, limit := range rl.store {
			if now.Sub(limit.LastAccess) > 24*time.Hour {
				delete(rl.store, key)
			}
		}
		rl.mutex.Unlock()
	}
}

// isAllowed decides whether the request fits the client's window. Redis
// is consulted first; local counters are the fallback.
func (rl *RateLimiter) isAllowed(key string, config RateLimitConfig) bool {
	if cm := cache.GetCacheManager(); cm != nil {
		blocked, err := cm.IsKeyBlocked("gateway", key)
		if err == nil {
			if blocked {
				return false
			}
			count, incErr := cm.IncrementRateLimit("gateway", key, config.TimeWindow)
			if incErr == nil {
				if count > int64(config.MaxRequests) {
					cm.BlockKey("gateway", key, config.BlockDuration)
					return false
				}
				return true
			}
		}
	}

	return rl.isAllowedLocal(key, config)
}

func (rl *RateLimiter) isAllowedLocal(key string, config RateLimitConfig) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	limit, exists := rl.store[key]

	if !exists {
		rl.store[key] = &RateLimit{
			Count:      1,
			ResetAt:    now.Add(config.TimeWindow),
			LastAccess: now,
			Blocked:    false,
		}
		return true
	}

	if limit.Blocked {
		if now.After(limit.BlockUntil) {
			limit.Blocked = false
			limit.Count = 1
			limit.ResetAt = now.Add(config.TimeWindow)
			limit.LastAccess = now
			return true
		}
		return false
	}

	if now.After(limit.ResetAt) {
		limit.Count = 1
		limit.ResetAt = now.Add(config.TimeWindow)
		limit.LastAccess = now
		return true
	}

	if limit.Count >= config.MaxRequests {
		limit.Blocked = true
		limit.BlockUntil = now.Add(config.BlockDuration)
		limit.LastAccess = now
		return false
	}

	limit.Count++
	limit.LastAccess = now
	return true
}

// GlobalRateLimitMiddleware applies the limiter to every gateway request
func (rl *RateLimiter) GlobalRateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		key := "global:" + clientIP

		if !rl.isAllowed(key, config) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"message":     "Too many requests from this IP. Please try again later.",
				"retry_after": config.BlockDuration.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
