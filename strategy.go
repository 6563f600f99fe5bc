package ratekeeper

import "strings"

// Strategy selects which admission policy applies to a request.
//
// The two strategies are a closed set: AUTH protects authentication
// endpoints with a fixed layered set of limits keyed by client IP, and
// BUSINESS enforces plan-based quotas keyed by API key. The same identifier
// string under different strategies always resolves to independent buckets.
type Strategy int

const (
	// StrategyAuth applies the statically configured layered limits
	// (for example 10/minute AND 100/hour) uniformly to every identifier.
	StrategyAuth Strategy = iota
	// StrategyBusiness applies a single limit chosen by resolving the
	// identifier's pricing plan.
	StrategyBusiness
)

// String returns the strategy's cache-key prefix.
func (s Strategy) String() string {
	if s == StrategyBusiness {
		return "business"
	}
	return "auth"
}

// SpecSource builds complete bucket specifications for each strategy from
// declaratively configured limits. It is the seam between external
// configuration and the runtime bucket engine: the service calls it once per
// bucket creation and caches the resulting bucket, so lookups here are never
// on the per-request hot path in the steady state.
type SpecSource struct {
	auth  BucketSpec
	plans map[string]BandwidthLimit // keyed by lowercase plan name
}

// NewSpecSource creates a SpecSource from the AUTH tier list and the
// business plan map. Plan names are matched case-insensitively.
//
// Returns a *ConfigError if the auth list is empty or any limit is invalid.
// An empty plan map is allowed only if the business strategy is never used;
// requesting a business spec will then fail per plan.
func NewSpecSource(authLimits []BandwidthLimit, plans map[string]BandwidthLimit) (*SpecSource, error) {
	authSpec, err := NewBucketSpec(authLimits...)
	if err != nil {
		return nil, err
	}
	normalized := make(map[string]BandwidthLimit, len(plans))
	for name, limit := range plans {
		if err := limit.Validate(); err != nil {
			return nil, err
		}
		normalized[strings.ToLower(name)] = limit
	}
	return &SpecSource{auth: authSpec, plans: normalized}, nil
}

// AuthSpec returns the layered AUTH bucket specification. Every configured
// tier must admit a request for it to pass.
func (s *SpecSource) AuthSpec() BucketSpec {
	return s.auth
}

// BusinessSpec returns the single-tier bucket specification for the named
// plan. The lookup is case-insensitive.
//
// An unknown plan is a configuration error, not a fallback to FREE: a
// misconfigured plan map must fail loud at bucket-creation time rather than
// silently mis-limit traffic.
func (s *SpecSource) BusinessSpec(planName string) (BucketSpec, error) {
	limit, ok := s.plans[strings.ToLower(planName)]
	if !ok {
		err := newConfigError(planName, "plan", "is not present in the configured plan map")
		err.wrapped = ErrUnknownPlan
		return BucketSpec{}, err
	}
	return NewBucketSpec(limit)
}
