package ratekeeper

import (
	"testing"
	"time"
)

func mustSpec(t *testing.T, limits ...BandwidthLimit) BucketSpec {
	t.Helper()
	spec, err := NewBucketSpec(limits...)
	if err != nil {
		t.Fatalf("NewBucketSpec: %v", err)
	}
	return spec
}

func mustLimit(t *testing.T, name string, capacity, refill int64, period time.Duration) BandwidthLimit {
	t.Helper()
	l, err := NewBandwidthLimit(name, capacity, refill, period)
	if err != nil {
		t.Fatalf("NewBandwidthLimit(%s): %v", name, err)
	}
	return l
}

// A fresh bucket admits exactly capacity consumptions when no time passes.
func TestBucket_CapacityInvariant(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBucket(mustSpec(t, mustLimit(t, "l", 5, 5, time.Minute)), base)

	for i := 0; i < 5; i++ {
		res := b.tryConsume(1, base)
		if !res.Allowed {
			t.Fatalf("consumption %d denied, want allowed", i+1)
		}
		if want := int64(4 - i); res.Remaining != want {
			t.Errorf("consumption %d: Remaining = %d, want %d", i+1, res.Remaining, want)
		}
	}

	res := b.tryConsume(1, base)
	if res.Allowed {
		t.Fatal("consumption beyond capacity allowed")
	}
	if res.RetryAfter <= 0 {
		t.Errorf("denied RetryAfter = %s, want positive", res.RetryAfter)
	}
}

// After draining the bucket, one refill period restores refillTokens.
func TestBucket_RefillAccrual(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBucket(mustSpec(t, mustLimit(t, "l", 3, 3, time.Minute)), base)

	for i := 0; i < 3; i++ {
		b.tryConsume(1, base)
	}
	if res := b.tryConsume(1, base); res.Allowed {
		t.Fatal("bucket should be empty")
	}

	later := base.Add(time.Minute)
	for i := 0; i < 3; i++ {
		if res := b.tryConsume(1, later); !res.Allowed {
			t.Fatalf("consumption %d after full refill denied", i+1)
		}
	}
}

// Greedy refill: tokens accrue proportionally to elapsed time, not at period
// boundaries.
func TestBucket_GreedyRefill(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBucket(mustSpec(t, mustLimit(t, "l", 10, 10, time.Minute)), base)

	for i := 0; i < 10; i++ {
		b.tryConsume(1, base)
	}

	// 6 seconds earns exactly one token out of 10/minute.
	sixSec := base.Add(6 * time.Second)
	if res := b.tryConsume(1, sixSec); !res.Allowed {
		t.Fatal("one token should have accrued after 6s")
	}
	if res := b.tryConsume(1, sixSec); res.Allowed {
		t.Fatal("only one token should have accrued after 6s")
	}
}

// Exhausting the short tier denies even though the long tier has capacity,
// and the long tier loses nothing on denied attempts.
func TestBucket_AllOrNothingAcrossTiers(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBucket(mustSpec(t,
		mustLimit(t, "per-minute", 2, 2, time.Minute),
		mustLimit(t, "per-hour", 100, 100, time.Hour),
	), base)

	for i := 0; i < 2; i++ {
		if res := b.tryConsume(1, base); !res.Allowed {
			t.Fatalf("consumption %d denied", i+1)
		}
	}

	for i := 0; i < 5; i++ {
		res := b.tryConsume(1, base)
		if res.Allowed {
			t.Fatal("per-minute tier exhausted, request must be denied")
		}
	}

	// One minute later the short tier is full again; the long tier must
	// still hold 98 tokens: denied attempts deducted nothing.
	later := base.Add(time.Minute)
	allowed := 0
	for i := 0; i < 3; i++ {
		if res := b.tryConsume(1, later); res.Allowed {
			allowed++
		}
	}
	if allowed != 2 {
		t.Fatalf("allowed %d after refill, want 2 (short tier bound)", allowed)
	}

	b.mu.Lock()
	longTokens := b.tiers[1].tokens
	b.mu.Unlock()
	// 100 - 4 real consumptions + ~1.67 tokens earned over the minute.
	if longTokens < 97.5 || longTokens > 97.8 {
		t.Errorf("long tier tokens = %.2f, want ~97.67", longTokens)
	}
}

// The reported wait is governed by the worst tier, and waiting it out makes
// the next attempt succeed.
func TestBucket_RetryAfterWorstTier(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBucket(mustSpec(t,
		mustLimit(t, "per-minute", 10, 10, time.Minute),
		mustLimit(t, "per-hour", 10, 10, time.Hour),
	), base)

	for i := 0; i < 10; i++ {
		b.tryConsume(1, base)
	}

	res := b.tryConsume(1, base)
	if res.Allowed {
		t.Fatal("expected denial")
	}
	// Both tiers are empty; the hour tier needs 6 minutes per token and
	// must govern the reported wait.
	if res.RetryAfter < 6*time.Minute || res.RetryAfter > 6*time.Minute+time.Second {
		t.Fatalf("RetryAfter = %s, want ~6m", res.RetryAfter)
	}

	if res2 := b.tryConsume(1, base.Add(res.RetryAfter)); !res2.Allowed {
		t.Fatal("waiting out RetryAfter must make the next attempt succeed")
	}
}

func TestBucket_DenialRetryAfterSingleTier(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBucket(mustSpec(t, mustLimit(t, "l", 1, 1, time.Minute)), base)

	b.tryConsume(1, base)
	res := b.tryConsume(1, base)
	if res.Allowed {
		t.Fatal("expected denial")
	}
	if res.RetryAfter != time.Minute {
		t.Errorf("RetryAfter = %s, want 1m", res.RetryAfter)
	}
	if res.Limit != 1 {
		t.Errorf("Limit = %d, want capacity 1 of the limiting tier", res.Limit)
	}

	if res2 := b.tryConsume(1, base.Add(res.RetryAfter)); !res2.Allowed {
		t.Fatal("attempt after RetryAfter denied")
	}
}

func TestBucket_InitialTokensOverride(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limit := mustLimit(t, "l", 10, 10, time.Minute).WithInitialTokens(2)
	b := newBucket(mustSpec(t, limit), base)

	if res := b.tryConsume(1, base); !res.Allowed || res.Remaining != 1 {
		t.Fatalf("first consume: allowed=%v remaining=%d, want allowed remaining=1", res.Allowed, res.Remaining)
	}
	b.tryConsume(1, base)
	if res := b.tryConsume(1, base); res.Allowed {
		t.Fatal("bucket started with 2 tokens, third consume must be denied")
	}
}

func TestBucket_ConsumeCost(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newBucket(mustSpec(t, mustLimit(t, "l", 10, 10, time.Minute)), base)

	res := b.tryConsume(4, base)
	if !res.Allowed || res.Remaining != 6 {
		t.Fatalf("cost 4: allowed=%v remaining=%d, want allowed remaining=6", res.Allowed, res.Remaining)
	}
	res = b.tryConsume(7, base)
	if res.Allowed {
		t.Fatal("cost 7 with 6 tokens must be denied")
	}
	// Denial must not deduct: cost 6 still fits.
	if res = b.tryConsume(6, base); !res.Allowed {
		t.Fatal("denied attempt deducted tokens")
	}
}
