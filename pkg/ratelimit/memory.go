package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryWindow struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps windows in process memory. Suitable for tests and
// single-instance deployments; expired windows are evicted on access.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	config  Config
	now     func() time.Time
}

func NewMemoryLimiter(config Config) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*memoryWindow),
		config:  config,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictExpired(now)

	window, ok := l.windows[key]
	if !ok || !now.Before(window.resetAt) {
		window = &memoryWindow{resetAt: now.Add(l.config.Window)}
		l.windows[key] = window
	}

	window.count++

	return window.count <= l.config.Limit, nil
}

func (l *MemoryLimiter) evictExpired(now time.Time) {
	for key, window := range l.windows {
		if !now.Before(window.resetAt) {
			delete(l.windows, key)
		}
	}
}
