package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindowLimiter(t *testing.T) {
	limiter := NewWindowLimiter(time.Minute, 5*time.Minute)
	defer limiter.Close()

	assert.NotNil(t, limiter)
}

func TestWindowLimiter_Allow_UnderQuota(t *testing.T) {
	limiter := NewWindowLimiter(time.Minute, 5*time.Minute)
	defer limiter.Close()

	now := time.Now()
	allowed, info := limiter.Allow("key-1", 10, now)
	assert.True(t, allowed)
	assert.Equal(t, 10, info.Limit)
	assert.Equal(t, 9, info.Remaining)
	assert.Equal(t, now.Add(time.Minute), info.ResetAt)
}

func TestWindowLimiter_Allow_ExhaustsQuota(t *testing.T) {
	limiter := NewWindowLimiter(time.Minute, 5*time.Minute)
	defer limiter.Close()

	now := time.Now()
	key := "key-1"

	// quota = 2, three rapid requests: Allowed, Allowed, Throttled
	allowed, _ := limiter.Allow(key, 2, now)
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(key, 2, now.Add(300*time.Millisecond))
	assert.True(t, allowed)
	allowed, info := limiter.Allow(key, 2, now.Add(time.Second))
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.True(t, info.RetryAfter > 0)
}

func TestWindowLimiter_Allow_WindowSlides(t *testing.T) {
	limiter := NewWindowLimiter(time.Minute, 5*time.Minute)
	defer limiter.Close()

	now := time.Now()
	key := "key-1"

	for i := 0; i < 3; i++ {
		allowed, _ := limiter.Allow(key, 3, now.Add(time.Duration(i)*time.Second))
		require.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, _ := limiter.Allow(key, 3, now.Add(10*time.Second))
	assert.False(t, allowed, "quota exhausted inside the window")

	// 61s after the first admission, one slot has aged out.
	allowed, _ = limiter.Allow(key, 3, now.Add(61*time.Second))
	assert.True(t, allowed, "window should have slid past the oldest entry")
}

func TestWindowLimiter_Allow_DeniedWithoutMutation(t *testing.T) {
	limiter := NewWindowLimiter(time.Minute, 5*time.Minute)
	defer limiter.Close()

	now := time.Now()
	key := "key-1"

	limiter.Allow(key, 1, now)

	// Denied attempts must not extend the window: after the original entry
	// ages out the key is admitted again even after many denials.
	for i := 0; i < 5; i++ {
		allowed, _ := limiter.Allow(key, 1, now.Add(time.Duration(i+1)*time.Second))
		require.False(t, allowed)
	}

	allowed, _ := limiter.Allow(key, 1, now.Add(61*time.Second))
	assert.True(t, allowed)
}

func TestWindowLimiter_Allow_ZeroQuota(t *testing.T) {
	limiter := NewWindowLimiter(time.Minute, 5*time.Minute)
	defer limiter.Close()

	allowed, info := limiter.Allow("key-1", 0, time.Now())
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)

	allowed, _ = limiter.Allow("key-1", -3, time.Now())
	assert.False(t, allowed)
}

func TestWindowLimiter_Allow_DifferentKeysIndependent(t *testing.T) {
	limiter := NewWindowLimiter(time.Minute, 5*time.Minute)
	defer limiter.Close()

	now := time.Now()

	limiter.Allow("key-1", 1, now)
	allowed1, _ := limiter.Allow("key-1", 1, now)
	assert.False(t, allowed1, "key-1 should be denied")

	allowed2, _ := limiter.Allow("key-2", 1, now)
	assert.True(t, allowed2, "key-2 should be allowed")
}

func TestWindowLimiter_ConcurrentAccess_NoOverAdmission(t *testing.T) {
	limiter := NewWindowLimiter(time.Minute, 5*time.Minute)
	defer limiter.Close()

	const quota = 25
	now := time.Now()

	var admitted int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, _ := limiter.Allow("shared", quota, now)
			if allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(quota), admitted, "exactly quota admissions under contention")
}

func TestWindowLimiter_ConcurrentAccess_ManyKeys(t *testing.T) {
	limiter := NewWindowLimiter(time.Minute, 5*time.Minute)
	defer limiter.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("client-%d", id%5)
			for j := 0; j < 20; j++ {
				limiter.Allow(key, 1000, time.Now())
			}
		}(i)
	}
	wg.Wait()
	// No panics or data races -- run with -race flag
}

func TestWindowLimiter_Close(t *testing.T) {
	limiter := NewWindowLimiter(time.Minute, 100*time.Millisecond)
	limiter.Close()
	// Should not panic on double close
	limiter.Close()
}

func TestWindowLimiter_Cleanup(t *testing.T) {
	// Use very short cleanup interval for testing
	limiter := NewWindowLimiter(time.Minute, 50*time.Millisecond)
	defer limiter.Close()

	limiter.Allow("ephemeral-key", 10, time.Now())

	limiter.mu.Lock()
	_, exists := limiter.windows["ephemeral-key"]
	limiter.mu.Unlock()
	require.True(t, exists, "window should exist before cleanup")

	// Wait for cleanup to run (2x cleanup interval for the staleness check)
	time.Sleep(200 * time.Millisecond)

	limiter.mu.Lock()
	_, exists = limiter.windows["ephemeral-key"]
	limiter.mu.Unlock()
	assert.False(t, exists, "window should be evicted after inactivity")
}
