package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"mercator-hq/rsql/pkg/config"
)

// tokenBucket allows bursts up to capacity while keeping the average rate
// at refillRate tokens per second.
type tokenBucket struct {
	capacity   float64
	tokens     float64
	refillRate float64
	lastRefill time.Time
}

func newTokenBucket(capacity, refillRate float64, now time.Time) *tokenBucket {
	return &tokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: now,
	}
}

// take consumes one token. When none is available it returns how long
// until one will be.
func (b *tokenBucket) take(now time.Time) (bool, time.Duration) {
	b.refill(now)
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	seconds := (1 - b.tokens) / b.refillRate
	return false, time.Duration(seconds * float64(time.Second))
}

func (b *tokenBucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens = math.Min(b.capacity, b.tokens+elapsed*b.refillRate)
	b.lastRefill = now
}

// full reports whether the bucket has refilled completely by now.
func (b *tokenBucket) full(now time.Time) bool {
	return b.tokens+now.Sub(b.lastRefill).Seconds()*b.refillRate >= b.capacity
}

// RateLimiter throttles requests per client address with one token bucket
// per address.
type RateLimiter struct {
	rate  float64
	burst float64
	now   func() time.Time

	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	lastSweep time.Time
}

// sweepInterval is how often buckets that have refilled are dropped.
const sweepInterval = time.Minute

// NewRateLimiter creates a limiter for cfg, or returns nil when rate
// limiting is disabled.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = max(int(2*cfg.RequestsPerSecond), 1)
	}
	return &RateLimiter{
		rate:    cfg.RequestsPerSecond,
		burst:   float64(burst),
		now:     time.Now,
		buckets: make(map[string]*tokenBucket),
	}
}

// Allow takes a token for client. When the client is over its rate it
// returns false and the time until the next request would be allowed.
func (l *RateLimiter) Allow(client string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= sweepInterval {
		for k, b := range l.buckets {
			if b.full(now) {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[client]
	if !ok {
		b = newTokenBucket(l.burst, l.rate, now)
		l.buckets[client] = b
	}
	return b.take(now)
}

// RateLimitMiddleware rejects requests over the client's rate with 429 and
// a Retry-After header. A nil limiter disables the middleware.
func RateLimitMiddleware(l *RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retryAfter := l.Allow(clientAddr(r))
			if !ok {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
				writeError(w, r, errRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr is the host part of the request's remote address.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
