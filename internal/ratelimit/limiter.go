// Package ratelimit provides per-key rate limiting for HTTP requests using a
// sliding-window algorithm: the countable interval moves continuously with the
// clock, so a burst at the edge of a fixed minute cannot double the effective
// rate. Quotas are supplied per call because each account carries its own.
package ratelimit

import "time"

// Limiter defines the rate limiting contract. Implementations must be safe for
// concurrent use.
type Limiter interface {
	// Allow checks whether a request identified by key should be admitted
	// under the given quota at the given instant. Returns whether the request
	// is allowed and rate information for populating response headers.
	Allow(key string, quota int, now time.Time) (allowed bool, info Info)

	// Close stops background goroutines and releases resources.
	Close()
}

// Info contains rate limit state for populating response headers.
type Info struct {
	Limit      int           // Maximum requests per window
	Remaining  int           // Requests remaining in the current window
	ResetAt    time.Time     // When the oldest counted request leaves the window
	RetryAfter time.Duration // How long to wait (meaningful only when denied)
}
