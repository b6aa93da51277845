// Package ratelimit throttles scoring requests per client IP. A Redis
// backend keeps limits consistent across replicas; without Redis the
// limiter degrades to per-process token buckets.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"
)

// Config holds rate limiter settings.
type Config struct {
	RequestsPerMin  int
	BurstMultiplier int
}

// DefaultConfig allows a generous interactive budget.
func DefaultConfig() Config {
	return Config{
		RequestsPerMin:  60,
		BurstMultiplier: 2,
	}
}

// Result is the outcome of one limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter checks per-IP budgets against Redis with in-memory fallback.
type Limiter struct {
	redisLimiter *redis_rate.Limiter
	redisClient  *RedisClient
	config       Config

	fallback      map[string]*rate.Limiter
	fallbackMutex sync.Mutex
}

// NewLimiter builds a limiter over an optional Redis client.
func NewLimiter(redisClient *RedisClient, config Config) *Limiter {
	l := &Limiter{
		redisClient: redisClient,
		config:      config,
		fallback:    make(map[string]*rate.Limiter),
	}

	if redisClient.IsEnabled() {
		l.redisLimiter = redis_rate.NewLimiter(redisClient.Client())
		slog.Info("Redis rate limiter initialized")
	} else {
		slog.Info("Rate limiting is in-memory only")
	}

	go l.cleanupFallback()
	return l
}

// AllowIP checks the per-minute budget for a client IP.
func (l *Limiter) AllowIP(ctx context.Context, ip string) *Result {
	key := "ratelimit:ip:" + ip

	if l.redisLimiter != nil {
		res, err := l.allowRedis(ctx, key)
		if err == nil {
			return res
		}
		slog.Warn("Redis rate limit check failed, using fallback", "error", err)
	}
	return l.allowFallback(key)
}

func (l *Limiter) allowRedis(ctx context.Context, key string) (*Result, error) {
	res, err := l.redisLimiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   l.config.RequestsPerMin,
		Burst:  l.config.RequestsPerMin * l.config.BurstMultiplier,
		Period: time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}

	return &Result{
		Allowed:    res.Allowed > 0,
		Limit:      res.Limit.Rate,
		Remaining:  res.Remaining,
		RetryAfter: res.RetryAfter,
	}, nil
}

func (l *Limiter) allowFallback(key string) *Result {
	l.fallbackMutex.Lock()
	limiter, exists := l.fallback[key]
	if !exists {
		rps := rate.Limit(float64(l.config.RequestsPerMin) / 60)
		burst := l.config.RequestsPerMin * l.config.BurstMultiplier
		if burst < 5 {
			burst = 5
		}
		limiter = rate.NewLimiter(rps, burst)
		l.fallback[key] = limiter
	}
	l.fallbackMutex.Unlock()

	allowed := limiter.Allow()
	remaining := int(limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}

	res := &Result{
		Allowed:   allowed,
		Limit:     l.config.RequestsPerMin,
		Remaining: remaining,
	}
	if !allowed {
		res.RetryAfter = time.Minute
	}
	return res
}

// cleanupFallback bounds fallback map growth under churny client IPs.
func (l *Limiter) cleanupFallback() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		l.fallbackMutex.Lock()
		if len(l.fallback) > 1000 {
			slog.Info("Resetting fallback rate limiters", "count", len(l.fallback))
			l.fallback = make(map[string]*rate.Limiter)
		}
		l.fallbackMutex.Unlock()
	}
}
