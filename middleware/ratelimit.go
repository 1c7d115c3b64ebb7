package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow atomically trims the window, counts it and admits the request
// when under the limit. Returns 1 when admitted.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)

	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, ttl)
		return 1
	end

	return 0
`)

// RedisRateLimiter implements a sliding window rate limiter backed by Redis,
// so the limit holds across instances.
type RedisRateLimiter struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisRateLimiter creates a new Redis-backed rate limiter.
func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{
		rdb:    rdb,
		prefix: "rl:web:",
		now:    time.Now,
	}
}

// RateLimitConfig configures the rate limit for a specific scope.
type RateLimitConfig struct {
	Limit  int           // Max requests allowed
	Window time.Duration // Time window
	KeyFn  func(r *http.Request) string
}

// Middleware returns an HTTP middleware that enforces the rate limit.
func (l *RedisRateLimiter) Middleware(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFn := cfg.KeyFn
	if keyFn == nil {
		keyFn = KeyByIP
	}
	retryAfter := strconv.Itoa(int(cfg.Window.Round(time.Second) / time.Second))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.rdb == nil {
				// Fail open if Redis is not configured
				next.ServeHTTP(w, r)
				return
			}

			key := l.prefix + keyFn(r)

			allowed, err := l.isAllowed(r.Context(), key, cfg.Limit, cfg.Window)
			if err != nil {
				// Fail open on Redis errors
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				w.Header().Set("Retry-After", retryAfter)
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (l *RedisRateLimiter) isAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := l.now().UnixMilli()
	windowStart := now - window.Milliseconds()
	member := strconv.FormatInt(now, 10) + "-" + uuid.NewString()

	result, err := slidingWindow.Run(ctx, l.rdb, []string{key}, now, windowStart, limit, window.Milliseconds(), member).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

// KeyByIP returns the client IP as the rate limit key. It expects chi's RealIP
// to have already resolved proxy headers into RemoteAddr.
func KeyByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// RateLimit limits requests per client IP. With a Redis client the window is
// shared between instances; without one each instance counts on its own.
func RateLimit(rdb *redis.Client, limit int, window time.Duration) func(http.Handler) http.Handler {
	if rdb == nil {
		return httprate.LimitByIP(limit, window)
	}
	return NewRedisRateLimiter(rdb).Middleware(RateLimitConfig{
		Limit:  limit,
		Window: window,
		KeyFn:  KeyByIP,
	})
}
