package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"comandas/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// rateEntry tracks request counts per IP within one window.
type rateEntry struct {
	count     int
	windowEnd time.Time
}

// rateLimiter is a fixed-window counter per client IP.
type rateLimiter struct {
	limit   int
	window  time.Duration
	mu      sync.Mutex
	entries map[string]*rateEntry
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{limit: limit, window: window, entries: make(map[string]*rateEntry)}
}

// allow counts one request for ip and reports whether it is within the limit,
// plus the end of the current window.
func (l *rateLimiter) allow(ip string, now time.Time) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[ip]
	if !ok || now.After(e.windowEnd) {
		e = &rateEntry{windowEnd: now.Add(l.window)}
		l.entries[ip] = e
	}
	e.count++
	return e.count <= l.limit, e.windowEnd
}

// purge drops expired windows and returns how many were removed.
func (l *rateLimiter) purge(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for ip, e := range l.entries {
		if now.After(e.windowEnd) {
			delete(l.entries, ip)
			n++
		}
	}
	return n
}

// RateLimiter limits each client IP to limit requests per window. Expired
// entries are purged in the background until ctx is cancelled.
func RateLimiter(ctx context.Context, limit int, window time.Duration) gin.HandlerFunc {
	l := newRateLimiter(limit, window)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := l.purge(now); n > 0 {
					log.Debug().Int("entries_purged", n).Msg("rate limiter purged")
				}
			}
		}
	}()

	return func(c *gin.Context) {
		ok, windowEnd := l.allow(c.ClientIP(), time.Now())
		if !ok {
			c.Header("Retry-After", windowEnd.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Demasiadas solicitudes. Intente nuevamente en un momento."))
			return
		}
		c.Next()
	}
}
