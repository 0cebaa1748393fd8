package ratelimit

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per client key.
type Limiter struct {
	mu           sync.Mutex
	clients      map[string]*client
	limit        rate.Limit
	burst        int
	idleTTL      time.Duration
	rejected     atomic.Int64
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	Burst             int
	CleanupInterval   time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 120,
		Burst:             20,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter creates a limiter and starts its idle-client cleanup.
func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.Burst <= 0 {
		config.Burst = def.Burst
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}

	rl := &Limiter{
		clients:     make(map[string]*client),
		limit:       rate.Limit(float64(config.RequestsPerMinute) / 60),
		burst:       config.Burst,
		idleTTL:     2 * config.CleanupInterval,
		stopCleanup: make(chan struct{}),
	}
	go rl.cleanupLoop(config.CleanupInterval)
	return rl
}

// Allow reports whether key may make a request now.
func (rl *Limiter) Allow(key string) bool {
	rl.mu.Lock()
	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = time.Now()
	rl.mu.Unlock()

	if c.limiter.Allow() {
		return true
	}
	rl.rejected.Add(1)
	return false
}

func (rl *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(time.Now().Add(-rl.idleTTL))
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *Limiter) evictIdle(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// ActiveClients returns the number of currently tracked clients
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Rejected returns how many requests were refused.
func (rl *Limiter) Rejected() int64 {
	return rl.rejected.Load()
}

// Stop gracefully shuts down the rate limiter cleanup goroutine
func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() { close(rl.stopCleanup) })
}

// Middleware rejects over-limit requests with 429 via onLimit.
func (rl *Limiter) Middleware(key func(*http.Request) string, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(key(r)) {
				w.Header().Set("Retry-After", "60")
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
