package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/resortstay/resort-booking/pkg/telemetry"
)

// RateLimitConfig holds token bucket rate limiting settings
type RateLimitConfig struct {
	// RequestsPerSecond per client IP (0 = unlimited)
	RequestsPerSecond int
	// BurstSize is the bucket capacity
	BurstSize int
	// RedisClient enables distributed limiting; nil falls back to a local
	// in-process bucket
	RedisClient *goredis.Client
	// KeyPrefix for Redis keys
	KeyPrefix string
	// EntryTTL is how long an idle local bucket survives
	EntryTTL time.Duration
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         50,
		KeyPrefix:         "ratelimit:",
		EntryTTL:          time.Minute,
	}
}

type bucket struct {
	tokens     float64
	lastUpdate time.Time
	mu         sync.Mutex
}

// localLimiter is an in-memory token bucket keyed by client IP
type localLimiter struct {
	config   RateLimitConfig
	buckets  sync.Map
	done     chan struct{}
	stopOnce sync.Once
}

func newLocalLimiter(config RateLimitConfig) *localLimiter {
	l := &localLimiter{config: config, done: make(chan struct{})}
	go l.cleanup()
	return l
}

// stop ends the cleanup goroutine; the limiter itself stays usable
func (l *localLimiter) stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func (l *localLimiter) allow(key string) (bool, float64) {
	now := time.Now()
	entry, _ := l.buckets.LoadOrStore(key, &bucket{
		tokens:     float64(l.config.BurstSize),
		lastUpdate: now,
	})
	b := entry.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastUpdate).Seconds()
	b.tokens += elapsed * float64(l.config.RequestsPerSecond)
	if b.tokens > float64(l.config.BurstSize) {
		b.tokens = float64(l.config.BurstSize)
	}
	b.lastUpdate = now

	if b.tokens >= 1 {
		b.tokens--
		return true, b.tokens
	}
	return false, b.tokens
}

func (l *localLimiter) cleanup() {
	ttl := l.config.EntryTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-ttl)
			l.buckets.Range(func(key, value interface{}) bool {
				b := value.(*bucket)
				b.mu.Lock()
				if b.lastUpdate.Before(cutoff) {
					l.buckets.Delete(key)
				}
				b.mu.Unlock()
				return true
			})
		}
	}
}

// tokenBucketScript refills and drains a bucket atomically in Redis
const tokenBucketScript = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call("HMGET", key, "tokens", "last_update")
local tokens = tonumber(data[1]) or burst
local last_update = tonumber(data[2]) or now

tokens = math.min(burst, tokens + (now - last_update) * rate)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end
redis.call("HMSET", key, "tokens", tokens, "last_update", now)
redis.call("EXPIRE", key, 60)
return {allowed, tostring(tokens)}
`

type redisLimiter struct {
	config RateLimitConfig
	script *goredis.Script
}

func newRedisLimiter(config RateLimitConfig) *redisLimiter {
	return &redisLimiter{
		config: config,
		script: goredis.NewScript(tokenBucketScript),
	}
}

func (l *redisLimiter) allow(ctx context.Context, key string) (bool, float64, error) {
	now := float64(time.Now().UnixNano()) / 1e9
	values, err := l.script.Run(ctx, l.config.RedisClient,
		[]string{l.config.KeyPrefix + key},
		float64(l.config.RequestsPerSecond),
		float64(l.config.BurstSize),
		now,
	).Slice()
	if err != nil {
		return false, 0, err
	}
	if len(values) < 2 {
		return false, 0, nil
	}
	allowed, _ := values[0].(int64)
	remaining := 0.0
	if s, ok := values[1].(string); ok {
		remaining, _ = strconv.ParseFloat(s, 64)
	}
	return allowed == 1, remaining, nil
}

// IPRateLimiter bundles the limiting middleware with the lifecycle of its
// background cleanup. Close releases the cleanup goroutine of the local
// fallback; the middleware itself keeps working afterwards.
type IPRateLimiter struct {
	config      RateLimitConfig
	local       *localLimiter
	distributed *redisLimiter
}

// NewIPRateLimiter creates a limiter per the config. A zero rate disables
// limiting entirely.
func NewIPRateLimiter(config RateLimitConfig) *IPRateLimiter {
	rl := &IPRateLimiter{config: config}
	if config.RequestsPerSecond <= 0 {
		return rl
	}
	if config.RedisClient != nil {
		rl.distributed = newRedisLimiter(config)
	} else {
		rl.local = newLocalLimiter(config)
	}
	return rl
}

// Close stops the local bucket cleanup goroutine. Safe to call repeatedly.
func (rl *IPRateLimiter) Close() {
	if rl.local != nil {
		rl.local.stop()
	}
}

// RateLimiter limits requests per client IP with a token bucket for the
// lifetime of the process. Redis errors fail open. Use NewIPRateLimiter when
// the caller needs to shut the limiter down.
func RateLimiter(config RateLimitConfig) gin.HandlerFunc {
	return NewIPRateLimiter(config).Middleware()
}

// Middleware returns the gin handler enforcing the limit
func (rl *IPRateLimiter) Middleware() gin.HandlerFunc {
	config := rl.config
	if config.RequestsPerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	local, distributed := rl.local, rl.distributed

	return func(c *gin.Context) {
		ctx, span := telemetry.StartSpan(c.Request.Context(), "middleware.rate_limiter")
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		clientIP := c.ClientIP()
		span.SetAttributes(attribute.String("client_ip", clientIP))

		var allowed bool
		var remaining float64
		if distributed != nil {
			var err error
			allowed, remaining, err = distributed.allow(ctx, clientIP)
			if err != nil {
				allowed = true
				remaining = float64(config.BurstSize)
			}
		} else {
			allowed, remaining = local.allow(clientIP)
		}

		span.SetAttributes(attribute.Bool("allowed", allowed))

		rem := int(remaining)
		if rem < 0 {
			rem = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerSecond))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(rem))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))

		if !allowed {
			span.SetStatus(codes.Error, "rate limit exceeded")
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "TOO_MANY_REQUESTS",
				"message": "rate limit exceeded, retry shortly",
			})
			return
		}

		span.SetStatus(codes.Ok, "")
		c.Next()
	}
}
