package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/siterisk/backend/pkg/auth"
)

// SecurityHeaders adds response headers for a JSON-only API.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// RateLimiter caps requests per caller in a sliding one-minute window. The
// caller is the authenticated owner when there is one, else the client IP.
type RateLimiter struct {
	maxPerMinute      int
	trustedProxyCount int
	now               func() time.Time

	mu      sync.Mutex
	callers map[string][]time.Time
}

// NewRateLimiter creates a limiter. Stale callers are pruned until ctx is done.
// Assumes a single trusted reverse proxy.
func NewRateLimiter(ctx context.Context, maxPerMinute int) *RateLimiter {
	rl := &RateLimiter{
		maxPerMinute:      maxPerMinute,
		trustedProxyCount: 1,
		now:               time.Now,
		callers:           make(map[string][]time.Time),
	}
	go rl.cleanupLoop(ctx, 5*time.Minute)
	return rl
}

func (rl *RateLimiter) cleanupLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.prune()
		}
	}
}

func (rl *RateLimiter) prune() {
	windowStart := rl.now().Add(-time.Minute)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, hits := range rl.callers {
		if hits = within(hits, windowStart); len(hits) == 0 {
			delete(rl.callers, key)
		} else {
			rl.callers[key] = hits
		}
	}
}

// within filters hits in place, keeping those after start.
func within(hits []time.Time, start time.Time) []time.Time {
	valid := hits[:0]
	for _, ts := range hits {
		if ts.After(start) {
			valid = append(valid, ts)
		}
	}
	return valid
}

// allow records a hit for key and reports the wait when the limit is reached.
func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	hits := within(rl.callers[key], now.Add(-time.Minute))
	if len(hits) >= rl.maxPerMinute {
		rl.callers[key] = hits
		return false, hits[0].Add(time.Minute).Sub(now)
	}
	rl.callers[key] = append(hits, now)
	return true, 0
}

// Middleware returns an http.Handler that enforces the limit.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.callerKey(r)
		ok, wait := rl.allow(key)
		if !ok {
			slog.Warn("rate limit exceeded", "caller", key, "path", r.URL.Path)
			w.Header().Set("Retry-After", retryAfterSeconds(wait))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate_limited"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(max(1, int(d.Seconds())+1))
}

func (rl *RateLimiter) callerKey(r *http.Request) string {
	if ownerID, ok := auth.OwnerIDFromContext(r.Context()); ok {
		return "owner:" + ownerID
	}
	return "ip:" + rl.clientIP(r)
}

// clientIP reads the rightmost trusted proxy position in X-Forwarded-For so
// clients cannot spoof it.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" && rl.trustedProxyCount > 0 {
		parts := strings.Split(xff, ",")
		idx := len(parts) - rl.trustedProxyCount
		if idx >= 0 && idx < len(parts) {
			return strings.TrimSpace(parts[idx])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
