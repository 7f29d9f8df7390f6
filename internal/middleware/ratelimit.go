package middleware

import (
	"net/http"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// RateLimiter is a per-IP fixed-window limiter. It sits in front of the AI
// coach endpoints, which fan out to a metered upstream.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	limit   int
	window  time.Duration
}

func NewRateLimiter(limit int, windowLen time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*window),
		limit:   limit,
		window:  windowLen,
	}

	// Drop windows that closed without further traffic.
	go func() {
		for {
			time.Sleep(windowLen)
			rl.mu.Lock()
			for ip, w := range rl.clients {
				if time.Since(w.start) > windowLen {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		}
	}()

	return rl
}

// allow counts a request against the caller's current window and reports
// whether it is within the limit.
func (rl *RateLimiter) allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.clients[ip]
	if !ok || now.Sub(w.start) > rl.window {
		rl.clients[ip] = &window{start: now, count: 1}
		return true
	}

	w.count++
	return w.count <= rl.limit
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.", r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
