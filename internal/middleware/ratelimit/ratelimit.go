// Package ratelimit throttles mutating API requests per client IP using
// fixed one-minute windows.
package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"budgetlens/internal/cache"
)

const window = time.Minute

type Config struct {
	RequestsPerMinute int
	MaxClients        int
}

func DefaultConfig() Config {
	return Config{RequestsPerMinute: 60, MaxClients: 10000}
}

// Limiter counts requests per client. Windows live in an LRU so the
// number of tracked clients stays bounded.
type Limiter struct {
	limit   int
	windows *cache.LRUCache[int]
	limited int64
}

func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = def.MaxClients
	}
	return &Limiter{
		limit:   cfg.RequestsPerMinute,
		windows: cache.NewLRUCache[int](cfg.MaxClients, window),
	}
}

// Allow records one request from clientIP and reports whether it fits in
// the current window.
func (l *Limiter) Allow(clientIP string) bool {
	n := l.windows.Update(clientIP, func(count int, _ bool) int { return count + 1 })
	if n > l.limit {
		atomic.AddInt64(&l.limited, 1)
		return false
	}
	return true
}

// Cleaner exposes the window cache for periodic cleanup.
func (l *Limiter) Cleaner() cache.Cleaner {
	return l.windows
}

func (l *Limiter) ActiveClients() int {
	return l.windows.Size()
}

// Limited returns how many requests were rejected so far.
func (l *Limiter) Limited() int64 {
	return atomic.LoadInt64(&l.limited)
}

// Middleware rejects mutating requests over the limit with 429. Safe
// methods pass through uncounted.
func (l *Limiter) Middleware(extractIP func(*http.Request) string, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			ip := extractIP(r)
			if !l.Allow(ip) {
				slog.WarnContext(r.Context(), "Rate limit exceeded", "client_ip", ip, "method", r.Method, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				if onLimit != nil {
					onLimit(w, r)
					return
				}
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isSafeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}
