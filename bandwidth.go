package ratekeeper

import (
	"fmt"
	"time"
)

// BandwidthLimit describes a single rate limit tier: how many tokens the
// bucket can hold, and how fast it refills.
//
// A tier is a pure value object. It is validated once at construction and
// never mutated afterwards; buckets copy the values they need.
//
// Example:
//
//	perMinute, err := ratekeeper.NewBandwidthLimit("per-minute", 10, 10, time.Minute)
//	perHour, err := ratekeeper.NewBandwidthLimit("per-hour", 100, 100, time.Hour)
type BandwidthLimit struct {
	// Name identifies the tier in logs and errors. It carries no semantics.
	Name string
	// Capacity is the maximum number of tokens the tier can hold.
	Capacity int64
	// RefillTokens is the number of tokens added per RefillPeriod.
	RefillTokens int64
	// RefillPeriod is the window over which RefillTokens accrue. Refill is
	// greedy: tokens become available continuously as time elapses, not in
	// discrete jumps at period boundaries.
	RefillPeriod time.Duration

	// initialTokens is the starting balance of a fresh bucket. Defaults to
	// Capacity; override with WithInitialTokens.
	initialTokens int64
	hasInitial    bool
}

// NewBandwidthLimit creates a validated BandwidthLimit.
//
// Returns a *ConfigError if capacity, refillTokens, or refillPeriod is not
// strictly positive.
func NewBandwidthLimit(name string, capacity, refillTokens int64, refillPeriod time.Duration) (BandwidthLimit, error) {
	l := BandwidthLimit{
		Name:         name,
		Capacity:     capacity,
		RefillTokens: refillTokens,
		RefillPeriod: refillPeriod,
	}
	if err := l.Validate(); err != nil {
		return BandwidthLimit{}, err
	}
	return l, nil
}

// WithInitialTokens returns a copy of the limit whose fresh buckets start
// with n tokens instead of Capacity. n is clamped to [0, Capacity].
func (l BandwidthLimit) WithInitialTokens(n int64) BandwidthLimit {
	if n < 0 {
		n = 0
	}
	if n > l.Capacity {
		n = l.Capacity
	}
	l.initialTokens = n
	l.hasInitial = true
	return l
}

// InitialTokens reports the starting balance of a fresh bucket for this tier.
func (l BandwidthLimit) InitialTokens() int64 {
	if l.hasInitial {
		return l.initialTokens
	}
	return l.Capacity
}

// Validate checks the tier invariants. Returns a *ConfigError naming the
// offending field, or nil.
func (l BandwidthLimit) Validate() error {
	if l.Capacity <= 0 {
		return newConfigError(l.Name, "capacity", fmt.Sprintf("must be positive, got %d", l.Capacity))
	}
	if l.RefillTokens <= 0 {
		return newConfigError(l.Name, "refillTokens", fmt.Sprintf("must be positive, got %d", l.RefillTokens))
	}
	if l.RefillPeriod <= 0 {
		return newConfigError(l.Name, "refillPeriod", fmt.Sprintf("must be positive, got %s", l.RefillPeriod))
	}
	return nil
}

// BucketSpec is an ordered, immutable list of bandwidth tiers that must ALL
// admit a request for it to pass. This is the classic layered pattern: a
// short burst window combined with a longer sustained window.
type BucketSpec struct {
	limits []BandwidthLimit
}

// NewBucketSpec builds a BucketSpec from one or more tiers.
//
// Returns a *ConfigError if no tiers are given or any tier is invalid.
func NewBucketSpec(limits ...BandwidthLimit) (BucketSpec, error) {
	if len(limits) == 0 {
		return BucketSpec{}, newConfigError("", "limits", "bucket spec requires at least one bandwidth limit")
	}
	for _, l := range limits {
		if err := l.Validate(); err != nil {
			return BucketSpec{}, err
		}
	}
	copied := make([]BandwidthLimit, len(limits))
	copy(copied, limits)
	return BucketSpec{limits: copied}, nil
}

// Limits returns a copy of the spec's tiers in declaration order.
func (s BucketSpec) Limits() []BandwidthLimit {
	out := make([]BandwidthLimit, len(s.limits))
	copy(out, s.limits)
	return out
}

// Len reports the number of tiers in the spec.
func (s BucketSpec) Len() int { return len(s.limits) }
