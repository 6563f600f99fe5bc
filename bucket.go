package ratekeeper

import (
	"math"
	"sync"
	"time"
)

// tierState is the mutable runtime state for one bandwidth tier of a bucket.
type tierState struct {
	limit      BandwidthLimit
	tokens     float64
	lastRefill time.Time
}

// bucket holds the token balances for every tier of one (strategy,
// identifier) pair. All mutation happens under mu, so concurrent consumers
// of the same identifier observe a serialized sequence of decisions.
// Different identifiers use different buckets and never contend.
type bucket struct {
	mu       sync.Mutex
	tiers    []tierState
	lastSeen time.Time
}

func newBucket(spec BucketSpec, now time.Time) *bucket {
	limits := spec.Limits()
	tiers := make([]tierState, len(limits))
	for i, l := range limits {
		tiers[i] = tierState{
			limit:      l,
			tokens:     float64(l.InitialTokens()),
			lastRefill: now,
		}
	}
	return &bucket{tiers: tiers, lastSeen: now}
}

// tryConsume attempts to take cost tokens from every tier at once.
//
// Refill is greedy: each tier first earns elapsed/refillPeriod*refillTokens
// tokens (capped at capacity) and advances its refill instant. Consumption
// is then all-or-nothing: either every tier has at least cost tokens and
// they are all debited, or no tier is touched. Refill earned on a denied
// attempt is kept.
//
// On success, Remaining is the floor of the lowest post-debit tier balance
// and Limit is that tier's capacity. On denial, RetryAfter is the longest
// wait among the under-supplied tiers, so a client that waits it out will
// succeed against every tier.
func (b *bucket) tryConsume(cost int64, now time.Time) Result {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastSeen = now
	fcost := float64(cost)

	for i := range b.tiers {
		t := &b.tiers[i]
		elapsed := now.Sub(t.lastRefill)
		if elapsed > 0 {
			earned := float64(elapsed) / float64(t.limit.RefillPeriod) * float64(t.limit.RefillTokens)
			t.tokens += earned
			if t.tokens > float64(t.limit.Capacity) {
				t.tokens = float64(t.limit.Capacity)
			}
		}
		t.lastRefill = now
	}

	var retryAfter time.Duration
	var limitingCapacity int64
	for i := range b.tiers {
		t := &b.tiers[i]
		if t.tokens >= fcost {
			continue
		}
		missing := fcost - t.tokens
		waitNanos := missing / float64(t.limit.RefillTokens) * float64(t.limit.RefillPeriod)
		wait := time.Duration(math.Ceil(waitNanos))
		if wait > retryAfter {
			retryAfter = wait
			limitingCapacity = t.limit.Capacity
		}
	}
	if retryAfter > 0 {
		return Result{
			Allowed:    false,
			Limit:      limitingCapacity,
			Remaining:  flooredMinBalance(b.tiers),
			RetryAfter: retryAfter,
		}
	}

	for i := range b.tiers {
		b.tiers[i].tokens -= fcost
	}

	minIdx := 0
	for i := range b.tiers {
		if b.tiers[i].tokens < b.tiers[minIdx].tokens {
			minIdx = i
		}
	}
	return Result{
		Allowed:   true,
		Limit:     b.tiers[minIdx].limit.Capacity,
		Remaining: int64(math.Floor(b.tiers[minIdx].tokens)),
	}
}

// idleSince reports whether the bucket has seen no traffic since cutoff.
func (b *bucket) idleSince(cutoff time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSeen.Before(cutoff)
}

func flooredMinBalance(tiers []tierState) int64 {
	min := tiers[0].tokens
	for _, t := range tiers[1:] {
		if t.tokens < min {
			min = t.tokens
		}
	}
	n := int64(math.Floor(min))
	if n < 0 {
		n = 0
	}
	return n
}
