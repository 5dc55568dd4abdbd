package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures per-client HTTP rate limiting. Reads take one
// token; requests that change the game take WriteCost tokens.
type RateLimitConfig struct {
	RequestsPerSecond float64       // sustained tokens per second per client
	Burst             int           // bucket size
	WriteCost         int           // tokens per POST/PUT/DELETE, 0 = 1
	CleanupInterval   time.Duration // how often idle clients are forgotten
}

// DefaultRateLimitConfig lets a viewer poll /api/frame.png at 10 fps while
// keeping shuffle and reset spam in check.
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 20,
	Burst:             40,
	WriteCost:         2,
	CleanupInterval:   5 * time.Minute,
}

type clientBucket struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client address
type IPRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	config  RateLimitConfig

	allowed  atomic.Uint64
	rejected atomic.Uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewIPRateLimiter creates a limiter and starts its cleanup loop. Call Stop
// to end the loop.
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultRateLimitConfig.CleanupInterval
	}
	if cfg.WriteCost <= 0 {
		cfg.WriteCost = 1
	}
	// A cost above the bucket size could never be paid
	if cfg.Burst > 0 && cfg.WriteCost > cfg.Burst {
		cfg.WriteCost = cfg.Burst
	}

	rl := &IPRateLimiter{
		clients: make(map[string]*clientBucket),
		config:  cfg,
		stop:    make(chan struct{}),
	}
	go rl.forgetIdle()
	return rl
}

// Stop ends the cleanup loop
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Allow takes one token from ip's bucket
func (rl *IPRateLimiter) Allow(ip string) bool {
	return rl.AllowN(ip, 1)
}

// AllowN takes cost tokens from ip's bucket, creating the bucket on first use
func (rl *IPRateLimiter) AllowN(ip string, cost int) bool {
	now := time.Now()

	rl.mu.Lock()
	b, ok := rl.clients[ip]
	if !ok {
		b = &clientBucket{tokens: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.Burst)}
		rl.clients[ip] = b
	}
	b.lastSeen = now
	ok = b.tokens.AllowN(now, cost)
	rl.mu.Unlock()

	if ok {
		rl.allowed.Add(1)
	} else {
		rl.rejected.Add(1)
	}
	return ok
}

// Middleware rejects over-limit requests with 429 and a Retry-After hint
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cost := rl.requestCost(r)
		if !rl.AllowN(GetClientIP(r), cost) {
			RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", strconv.Itoa(rl.retryAfter(cost)))
			writeError(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *IPRateLimiter) requestCost(r *http.Request) int {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return 1
	}
	return rl.config.WriteCost
}

// retryAfter is the whole seconds an empty bucket needs to refill cost tokens
func (rl *IPRateLimiter) retryAfter(cost int) int {
	if rl.config.RequestsPerSecond <= 0 {
		return 1
	}
	secs := int(math.Ceil(float64(cost) / rl.config.RequestsPerSecond))
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (rl *IPRateLimiter) forgetIdle() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.forget(now.Add(-2 * rl.config.CleanupInterval))
		}
	}
}

// forget drops buckets not used since cutoff. A forgotten client starts
// again with a full bucket.
func (rl *IPRateLimiter) forget(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, b := range rl.clients {
		if b.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// GetStats returns request counters and the number of tracked clients
func (rl *IPRateLimiter) GetStats() map[string]uint64 {
	rl.mu.Lock()
	clients := len(rl.clients)
	rl.mu.Unlock()

	return map[string]uint64{
		"allowed":  rl.allowed.Load(),
		"rejected": rl.rejected.Load(),
		"clients":  uint64(clients),
	}
}

// GetClientIP returns the caller's address: a valid first X-Forwarded-For
// entry, then X-Real-IP, then the connection's remote host. Forwarded
// headers are taken as given, so only expose the server behind a proxy
// that sets them.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}

	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip.String()
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// WebSocketRateLimiter caps concurrent WebSocket connections per client
type WebSocketRateLimiter struct {
	mu       sync.Mutex
	open     map[string]int
	maxPerIP int
}

// NewWebSocketRateLimiter creates a connection limiter
func NewWebSocketRateLimiter(maxPerIP int) *WebSocketRateLimiter {
	return &WebSocketRateLimiter{open: make(map[string]int), maxPerIP: maxPerIP}
}

// Allow reserves a connection slot for ip. Pair every true result with Release.
func (wrl *WebSocketRateLimiter) Allow(ip string) bool {
	wrl.mu.Lock()
	defer wrl.mu.Unlock()
	if wrl.open[ip] >= wrl.maxPerIP {
		return false
	}
	wrl.open[ip]++
	return true
}

// Release frees a slot reserved by Allow
func (wrl *WebSocketRateLimiter) Release(ip string) {
	wrl.mu.Lock()
	defer wrl.mu.Unlock()
	if n := wrl.open[ip]; n <= 1 {
		delete(wrl.open, ip)
	} else {
		wrl.open[ip] = n - 1
	}
}

// DefaultAllowedOrigins are the origins accepted when none are configured.
// A trailing ":*" matches any port, the same pattern go-chi/cors accepts.
var DefaultAllowedOrigins = []string{
	"http://localhost:*",
	"http://127.0.0.1:*",
}

// IsAllowedOrigin checks an Origin header against a list of allowed origins
func IsAllowedOrigin(origin string, allowed []string) bool {
	if origin == "" {
		return false
	}

	for _, pattern := range allowed {
		if pattern == "*" || origin == pattern {
			return true
		}
		if prefix, ok := strings.CutSuffix(pattern, ":*"); ok {
			rest, found := strings.CutPrefix(origin, prefix)
			if found && (rest == "" || isPort(rest)) {
				return true
			}
		}
	}

	return false
}

// isPort reports whether s looks like ":1234"
func isPort(s string) bool {
	if len(s) < 2 || s[0] != ':' {
		return false
	}
	for _, c := range s[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
