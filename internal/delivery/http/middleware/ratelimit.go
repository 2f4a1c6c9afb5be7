package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	h "eventmanager/internal/delivery/http/helpers"
)

const (
	limiterTTL      = 15 * time.Minute
	sweepEveryCalls = 1024
)

// RateLimiter throttles requests per client IP with a token bucket refilled
// at perMinute tokens per minute and a burst of perMinute.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	interval time.Duration
	burst    int
	calls    int
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter returns a RateLimiter, or nil when perMinute <= 0 (no limit).
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		interval: time.Minute / time.Duration(perMinute),
		burst:    perMinute,
		now:      time.Now,
	}
}

// Wrap limits next. A nil RateLimiter returns next unchanged.
func (l *RateLimiter) Wrap(next http.HandlerFunc) http.HandlerFunc {
	if l == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.limiter(clientIP(r)).AllowN(l.now(), 1) {
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter()))
			h.WriteJSONError(w, http.StatusTooManyRequests, h.ErrCodeTooManyRequests, "too many requests, retry later")
			return
		}
		next(w, r)
	}
}

// retryAfter is the number of whole seconds until one token refills.
func (l *RateLimiter) retryAfter() int {
	return int(math.Ceil(l.interval.Seconds()))
}

func (l *RateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.calls++
	if l.calls%sweepEveryCalls == 0 {
		for k, e := range l.limiters {
			if now.Sub(e.lastSeen) > limiterTTL {
				delete(l.limiters, k)
			}
		}
	}
	if e, ok := l.limiters[key]; ok {
		e.lastSeen = now
		return e.limiter
	}
	e := &limiterEntry{limiter: rate.NewLimiter(rate.Every(l.interval), l.burst), lastSeen: now}
	l.limiters[key] = e
	return e.limiter
}

// clientIP uses the connection address only. Forwarded headers are ignored
// because no trusted proxy list is configured.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
