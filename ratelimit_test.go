package jose

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestLimiter(maxRate int, window time.Duration) (*RateLimiter, *time.Time) {
	now := time.Unix(1700000000, 0)
	rl := NewRateLimiter(maxRate, window)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiterBurstAndRefill(t *testing.T) {
	rl, now := newTestLimiter(5, time.Minute)
	defer rl.Close()

	for i := 0; i < 5; i++ {
		if !rl.Allow("user") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if rl.Allow("user") {
		t.Fatal("sixth request within the window should be rejected")
	}

	// One token refills every window/maxRate.
	*now = now.Add(13 * time.Second)
	if !rl.Allow("user") {
		t.Error("request after refill should be allowed")
	}
	if rl.Allow("user") {
		t.Error("only one token should have refilled")
	}

	*now = now.Add(time.Hour)
	if !rl.AllowN("user", 5) {
		t.Error("bucket should be full after a long pause")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter(2, time.Minute)
	defer rl.Close()

	rl.AllowN("a", 2)
	if rl.Allow("a") {
		t.Error("key a should be exhausted")
	}
	if !rl.Allow("b") {
		t.Error("key b should be unaffected")
	}
}

func TestRateLimiterEdgeCases(t *testing.T) {
	rl, _ := newTestLimiter(3, time.Minute)
	defer rl.Close()

	if rl.Allow("") {
		t.Error("empty key should be rejected")
	}
	if !rl.AllowN("", 0) || !rl.AllowN("user", -1) {
		t.Error("n <= 0 should always be allowed")
	}
	if rl.AllowN("user", 4) {
		t.Error("a request larger than the burst should be rejected")
	}
	if !rl.AllowN("user", 3) {
		t.Error("a rejected oversized request must not consume tokens")
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	defer rl.Close()

	if rl.burst != 100 {
		t.Errorf("burst = %d, want 100", rl.burst)
	}
	if !rl.AllowN("user", 100) {
		t.Error("default limiter should allow 100 requests")
	}
}

func TestRateLimiterReset(t *testing.T) {
	rl, _ := newTestLimiter(1, time.Minute)
	defer rl.Close()

	rl.Allow("user")
	if rl.Allow("user") {
		t.Fatal("limit should be reached")
	}

	rl.Reset("user")
	rl.Reset("")
	if !rl.Allow("user") {
		t.Error("request after Reset should be allowed")
	}
}

func TestRateLimiterEviction(t *testing.T) {
	rl, now := newTestLimiter(1, time.Minute)
	defer rl.Close()
	rl.maxBuckets = 2

	rl.Allow("first")
	*now = now.Add(time.Millisecond)
	rl.Allow("second")
	*now = now.Add(time.Millisecond)
	rl.Allow("third")

	if len(rl.buckets) != 2 {
		t.Fatalf("bucket count = %d, want 2", len(rl.buckets))
	}
	if _, ok := rl.buckets["first"]; ok {
		t.Error("least recently used bucket should be evicted")
	}
}

func TestRateLimiterClose(t *testing.T) {
	rl := NewRateLimiter(10, time.Minute)
	rl.Close()
	rl.Close()

	if rl.Allow("user") {
		t.Error("closed limiter should reject requests")
	}
}

func TestRateLimiterConcurrent(t *testing.T) {
	rl := NewRateLimiter(50, time.Hour)
	defer rl.Close()

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("shared") {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := allowed.Load(); got != 50 {
		t.Errorf("allowed = %d, want 50", got)
	}
}
