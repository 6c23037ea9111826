// Package ratelimit provides an injected, actor-keyed rate limiter with
// explicit TTL eviction. Keys are independent fixed windows: the first
// hit opens a window, subsequent hits count against it until the TTL
// expires.
package ratelimit

import (
	"context"
	"time"
)

// Limiter answers whether one more hit is allowed for a key right now.
type Limiter interface {
	// Allow records a hit for key and reports whether it fits within the
	// configured limit for the current window.
	Allow(ctx context.Context, key string) (bool, error)
}

// Config bounds a limiter: at most Limit hits per key per Window.
type Config struct {
	Limit  int
	Window time.Duration
}

// DefaultConfig allows 30 hits per actor per minute.
func DefaultConfig() Config {
	return Config{Limit: 30, Window: time.Minute}
}
