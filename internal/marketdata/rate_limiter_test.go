package marketdata

import (
	"context"
	"sync"
	"testing"
	"time"
)

// TestRateLimiterFirstCallImmediate tests that the first slot is granted
// without waiting
func TestRateLimiterFirstCallImmediate(t *testing.T) {
	limiter := NewRateLimiter(time.Second)

	start := time.Now()
	if err := limiter.AwaitSlot(context.Background()); err != nil {
		t.Fatalf("AwaitSlot failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("First call should return immediately, took %v", elapsed)
	}
}

// TestRateLimiterSpacing tests that N sequential calls take at least
// (N-1) intervals of wall time
func TestRateLimiterSpacing(t *testing.T) {
	interval := 50 * time.Millisecond
	limiter := NewRateLimiter(interval)

	const n = 4
	start := time.Now()
	for i := 0; i < n; i++ {
		if err := limiter.AwaitSlot(context.Background()); err != nil {
			t.Fatalf("AwaitSlot failed: %v", err)
		}
	}

	if elapsed := time.Since(start); elapsed < (n-1)*interval {
		t.Errorf("Expected at least %v elapsed for %d calls, got %v", (n-1)*interval, n, elapsed)
	}
}

// TestRateLimiterConcurrent tests that concurrent callers are serialized
// and still respect the spacing
func TestRateLimiterConcurrent(t *testing.T) {
	interval := 40 * time.Millisecond
	limiter := NewRateLimiter(interval)

	const n = 3
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.AwaitSlot(context.Background()); err != nil {
				t.Errorf("AwaitSlot failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if elapsed := time.Since(start); elapsed < (n-1)*interval {
		t.Errorf("Concurrent callers passed too quickly: %v", elapsed)
	}
}

// TestRateLimiterCancellation tests that a canceled context aborts the wait
func TestRateLimiterCancellation(t *testing.T) {
	limiter := NewRateLimiter(time.Hour)

	if err := limiter.AwaitSlot(context.Background()); err != nil {
		t.Fatalf("First AwaitSlot failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.AwaitSlot(ctx); err == nil {
		t.Error("AwaitSlot should fail when the context expires during the wait")
	}
}
