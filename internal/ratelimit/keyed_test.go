package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/torneiomaker/messenger-bot/internal/metrics"
)

func TestKeyedLimiter_Basic(t *testing.T) {
	t.Parallel()
	kl := NewKeyedLimiter(KeyedConfig{
		Name:          "sender",
		Burst:         1,
		RefillRate:    0.01,
		CleanupPeriod: time.Hour,
	})
	defer kl.Stop()

	if !kl.Allow("user1") {
		t.Error("user1 first event denied")
	}
	if kl.Allow("user1") {
		t.Error("user1 second event allowed (should limit)")
	}
	if !kl.Allow("user2") {
		t.Error("user2 first event denied")
	}
	if !kl.Allow("") {
		t.Error("empty key denied")
	}
}

func TestKeyedLimiter_Cleanup(t *testing.T) {
	t.Parallel()
	kl := NewKeyedLimiter(KeyedConfig{
		Name:          "cleanup_test",
		Burst:         10,
		RefillRate:    100, // Fast refill to fill bucket quickly
		CleanupPeriod: 50 * time.Millisecond,
	})
	defer kl.Stop()

	kl.Allow("u1")
	if count := kl.GetActiveCount(); count != 1 {
		t.Errorf("Active count = %d, want 1", count)
	}

	// Wait for refill (bucket full) + cleanup tick
	time.Sleep(200 * time.Millisecond)

	if count := kl.GetActiveCount(); count != 0 {
		t.Errorf("Active count = %d, want 0 after cleanup", count)
	}
}

func TestKeyedLimiter_ThreadSafety(t *testing.T) {
	t.Parallel()
	kl := NewKeyedLimiter(KeyedConfig{
		Name:          "concurrency_test",
		Burst:         1000,
		RefillRate:    1,
		CleanupPeriod: time.Hour,
	})
	defer kl.Stop()

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Go(func() {
			key := fmt.Sprintf("user%d", i%10) // 10 distinct keys
			kl.Allow(key)
			kl.GetAvailable(key)
		})
	}
	wg.Wait()

	if count := kl.GetActiveCount(); count != 10 {
		t.Errorf("Active count = %d, want 10", count)
	}
}

func TestKeyedLimiter_GetAvailable(t *testing.T) {
	t.Parallel()
	kl := NewKeyedLimiter(KeyedConfig{Name: "avail", Burst: 10, RefillRate: 1})
	defer kl.Stop()

	if v := kl.GetAvailable("new"); v != 10 {
		t.Errorf("New key available = %f, want 10", v)
	}

	kl.Allow("user1")
	if v := kl.GetAvailable("user1"); v >= 10 {
		t.Errorf("Used key available = %f, want < 10", v)
	}
}

func TestKeyedLimiter_Metrics(t *testing.T) {
	t.Parallel()
	m := metrics.New(prometheus.NewRegistry())
	kl := NewKeyedLimiter(KeyedConfig{
		Name:          "sender",
		Burst:         1,
		RefillRate:    0.01,
		CleanupPeriod: time.Hour,
		Metrics:       m,
	})
	defer kl.Stop()

	kl.Allow("u1")
	kl.Allow("u1")
	kl.Allow("u1")

	if got := testutil.ToFloat64(m.RateLimiterDropsTotal.WithLabelValues("sender")); got != 2 {
		t.Errorf("drops = %v, want 2", got)
	}
}

func TestKeyedLimiter_StopTwice(t *testing.T) {
	t.Parallel()
	kl := NewKeyedLimiter(KeyedConfig{Name: "stop", Burst: 1})
	kl.Stop()
	kl.Stop()
}
