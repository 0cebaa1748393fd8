// Package cache holds derived views (year overviews, chart series) that are
// expensive to rebuild on every dashboard request. Entries are invalidated
// wholesale whenever the ledger changes.
package cache

import (
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/log"
)

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

var _ Cleaner = (*LRUCache[struct{}])(nil)

// Manager runs periodic cleanup over registered caches.
type Manager struct {
	mu          sync.Mutex
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	started     bool
}

// NewManager creates a new cache manager
func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(cache Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	go m.cleanup(interval)
}

// CleanNow runs one cleanup pass and returns the number of entries removed.
func (m *Manager) CleanNow() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanNow(); n > 0 {
				slog.Debug("Expired cache entries removed", log.FieldComponent, log.ComponentCache, "count", n)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop gracefully stops the cleanup routine
func (m *Manager) Stop() {
	m.mu.Lock()
	started := m.started
	m.started = false
	m.mu.Unlock()

	if started {
		close(m.stopCleanup)
		<-m.cleanupDone
	}
}
