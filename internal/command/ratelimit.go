package command

import (
	"sync"
	"time"
)

// RateLimiter implements per-source command rate limiting
type RateLimiter struct {
	mu           sync.Mutex
	sourceCounts map[string]*sourceLimit
	config       RateLimitConfig
	stop         chan struct{}
	stopOnce     sync.Once
}

type sourceLimit struct {
	count     int
	windowEnd time.Time
	lastCmd   time.Time
}

// RateLimitConfig configures rate limiting behavior
type RateLimitConfig struct {
	// MaxPerWindow is max commands per window
	MaxPerWindow int
	// WindowDuration is the fixed window size
	WindowDuration time.Duration
	// CooldownDuration is minimum time between commands
	CooldownDuration time.Duration
}

// DefaultRateLimitConfig for remote clients
var DefaultRateLimitConfig = RateLimitConfig{
	MaxPerWindow:     10,                     // 10 commands
	WindowDuration:   5 * time.Second,        // per 5 seconds
	CooldownDuration: 100 * time.Millisecond, // 100ms between commands
}

// NewRateLimiter creates a new rate limiter with a background cleanup loop.
// Call Stop to end the loop.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		sourceCounts: make(map[string]*sourceLimit),
		config:       cfg,
		stop:         make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow checks if a source can execute a command
func (rl *RateLimiter) Allow(source string) bool {
	return rl.allowAt(source, time.Now())
}

func (rl *RateLimiter) allowAt(source string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limit, exists := rl.sourceCounts[source]
	if !exists {
		rl.sourceCounts[source] = &sourceLimit{
			count:     1,
			windowEnd: now.Add(rl.config.WindowDuration),
			lastCmd:   now,
		}
		return true
	}

	// Check cooldown
	if now.Sub(limit.lastCmd) < rl.config.CooldownDuration {
		return false
	}

	// Check/reset window
	if now.After(limit.windowEnd) {
		limit.count = 1
		limit.windowEnd = now.Add(rl.config.WindowDuration)
		limit.lastCmd = now
		return true
	}

	if limit.count >= rl.config.MaxPerWindow {
		return false
	}

	limit.count++
	limit.lastCmd = now
	return true
}

// Stop ends the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// cleanup removes old entries every minute
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case now := <-ticker.C:
			rl.prune(now.Add(-5 * time.Minute))
		}
	}
}

func (rl *RateLimiter) prune(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, limit := range rl.sourceCounts {
		if limit.lastCmd.Before(cutoff) {
			delete(rl.sourceCounts, key)
		}
	}
}
