package middleware

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter throttles the public booking form per client IP with a token
// bucket. The form is the only unauthenticated write surface, so this is what
// stands between a scripted submitter and a pile of provider prompt SMS.
type RateLimiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	rate        float64
	burst       float64
	lastEvicted time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

// NewRateLimiter allows rate requests/sec with the given burst per IP.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	return &RateLimiter{
		buckets:     make(map[string]*bucket),
		rate:        rate,
		burst:       float64(burst),
		lastEvicted: time.Now(),
	}
}

// Allow reports whether a request from ip fits the budget right now.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.evictStale(now)

	b, ok := rl.buckets[ip]
	if !ok {
		b = &bucket{tokens: rl.burst, seen: now}
		rl.buckets[ip] = b
	}

	b.tokens += now.Sub(b.seen).Seconds() * rl.rate
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// evictStale drops buckets idle long enough to be full again. Runs at most
// once per minute, under the lock the caller already holds.
func (rl *RateLimiter) evictStale(now time.Time) {
	if now.Sub(rl.lastEvicted) < time.Minute {
		return
	}
	rl.lastEvicted = now
	cutoff := now.Add(-10 * time.Minute)
	for ip, b := range rl.buckets {
		if b.seen.Before(cutoff) {
			delete(rl.buckets, ip)
		}
	}
}

// RateLimit rejects requests over the budget with 429.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// chi's RealIP middleware has already folded X-Forwarded-For
			// into RemoteAddr by the time we run.
			if !limiter.Allow(r.RemoteAddr) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
