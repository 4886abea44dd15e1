package services

import (
	"sync"
	"time"

	domain "github.com/inference-gateway/toolgate/internal/domain"
)

const (
	defaultBreakerThreshold = 3
	defaultBreakerWindow    = 60 * time.Second
)

// CircuitBreaker tracks per-server discovery failures. A server is skipped
// while it has failed threshold times and its last failure is within window.
type CircuitBreaker struct {
	threshold int
	window    time.Duration
	now       func() time.Time

	mu     sync.RWMutex
	health map[string]domain.ServerHealth
}

// NewCircuitBreaker creates a breaker; non-positive values fall back to 3 failures / 60s
func NewCircuitBreaker(threshold int, window time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = defaultBreakerThreshold
	}
	if window <= 0 {
		window = defaultBreakerWindow
	}
	return &CircuitBreaker{
		threshold: threshold,
		window:    window,
		now:       time.Now,
		health:    make(map[string]domain.ServerHealth),
	}
}

// IsOpen reports whether discovery against server should be skipped
func (b *CircuitBreaker) IsOpen(server string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	h, ok := b.health[server]
	if !ok {
		return false
	}
	return h.ErrorCount >= b.threshold && b.now().Sub(h.LastErrorAt) < b.window
}

// RecordFailure increments the server's error count
func (b *CircuitBreaker) RecordFailure(server string) domain.ServerHealth {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := b.health[server]
	h.Server = server
	h.ErrorCount++
	h.LastErrorAt = b.now()
	b.health[server] = h
	return h
}

// RecordSuccess clears the server's error count
func (b *CircuitBreaker) RecordSuccess(server string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.health, server)
}

// Health returns the current record for server
func (b *CircuitBreaker) Health(server string) domain.ServerHealth {
	b.mu.RLock()
	defer b.mu.RUnlock()

	h, ok := b.health[server]
	if !ok {
		return domain.ServerHealth{Server: server}
	}
	return h
}

// Restore seeds a record, e.g. one read back from the shared cache
func (b *CircuitBreaker) Restore(h domain.ServerHealth) {
	if h.Server == "" || h.ErrorCount == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if current, ok := b.health[h.Server]; ok && !current.LastErrorAt.Before(h.LastErrorAt) {
		return
	}
	b.health[h.Server] = h
}

// Reset forgets everything known about server
func (b *CircuitBreaker) Reset(server string) {
	b.RecordSuccess(server)
}
