package http

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// rateLimiter enforces a fixed one-minute window per client IP. Stale
// clients are swept lazily during allow calls, so no background
// goroutine needs shutting down.
type rateLimiter struct {
	mu        sync.Mutex
	perMinute int
	clients   map[string]*clientWindow
	lastSweep time.Time
}

type clientWindow struct {
	windowStart time.Time
	count       int
}

const sweepInterval = 5 * time.Minute

func newRateLimiter(perMinute int) *rateLimiter {
	return &rateLimiter{
		perMinute: perMinute,
		clients:   make(map[string]*clientWindow),
		lastSweep: time.Now(),
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > sweepInterval {
		rl.sweep(now)
	}

	client, ok := rl.clients[ip]
	if !ok || now.Sub(client.windowStart) > time.Minute {
		rl.clients[ip] = &clientWindow{windowStart: now, count: 1}
		return true
	}

	client.count++
	return client.count <= rl.perMinute
}

// sweep drops clients whose window expired. Caller holds the lock.
func (rl *rateLimiter) sweep(now time.Time) {
	for ip, client := range rl.clients {
		if now.Sub(client.windowStart) > time.Minute {
			delete(rl.clients, ip)
		}
	}
	rl.lastSweep = now
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP trusts the first X-Forwarded-For hop when present, which is
// what the reverse proxy in front of the API sets.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
