package ratelimit

import (
	"sync"
	"time"
)

// window holds the admission timestamps for one key, oldest first, plus the
// last access time for idle eviction.
type window struct {
	stamps   []time.Time
	lastSeen time.Time
}

// WindowLimiter is an in-memory sliding-window rate limiter. Each key owns an
// ordered sequence of admission timestamps within the trailing window; a
// request is admitted only while the sequence is shorter than the quota.
// A background goroutine periodically evicts windows that have not been
// accessed within 2x the cleanup interval.
type WindowLimiter struct {
	window          time.Duration
	cleanupInterval time.Duration

	mu      sync.Mutex
	windows map[string]*window
	done    chan struct{}
	closed  bool
}

// NewWindowLimiter creates a sliding-window limiter with the given window size
// and cleanup interval. It starts a background goroutine for eviction.
func NewWindowLimiter(windowSize, cleanupInterval time.Duration) *WindowLimiter {
	l := &WindowLimiter{
		window:          windowSize,
		cleanupInterval: cleanupInterval,
		windows:         make(map[string]*window),
		done:            make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Allow checks whether a request for key should be admitted under quota at
// time now. The check-prune-append sequence runs under the limiter lock, so
// concurrent requests for the same key observe a serialized view of the
// window: no lost entries, no double-admission beyond quota.
func (l *WindowLimiter) Allow(key string, quota int, now time.Time) (bool, Info) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[key]
	if !exists {
		w = &window{}
		l.windows[key] = w
	}
	w.lastSeen = now

	// Drop entries that have aged out of the trailing window.
	cutoff := now.Add(-l.window)
	kept := w.stamps[:0]
	for _, t := range w.stamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.stamps = kept

	info := Info{
		Limit:   quota,
		ResetAt: now,
	}
	if len(w.stamps) > 0 {
		info.ResetAt = w.stamps[0].Add(l.window)
	}

	// A non-positive quota admits nothing.
	if quota <= 0 || len(w.stamps) >= quota {
		info.Remaining = 0
		if len(w.stamps) > 0 {
			info.RetryAfter = w.stamps[0].Add(l.window).Sub(now)
		} else {
			info.RetryAfter = l.window
		}
		return false, info
	}

	w.stamps = append(w.stamps, now)
	info.Remaining = quota - len(w.stamps)
	if info.ResetAt.Equal(now) {
		info.ResetAt = w.stamps[0].Add(l.window)
	}
	return true, info
}

// Close stops the background cleanup goroutine.
func (l *WindowLimiter) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		close(l.done)
	}
}

// cleanup periodically evicts windows that have not been accessed within
// 2x the cleanup interval.
func (l *WindowLimiter) cleanup() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.evictStale()
		}
	}
}

// evictStale removes windows idle for longer than 2x the cleanup interval.
func (l *WindowLimiter) evictStale() {
	cutoff := time.Now().Add(-2 * l.cleanupInterval)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.windows {
		if w.lastSeen.Before(cutoff) {
			delete(l.windows, key)
		}
	}
}
