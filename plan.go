package ratekeeper

import "strings"

// PricingPlan is a quota tier assigned to an API key. Each plan maps to
// exactly one BandwidthLimit in the business plan map.
type PricingPlan int

const (
	// PlanFree is the default tier, assigned to any identifier whose prefix
	// is not recognized.
	PlanFree PricingPlan = iota
	// PlanBasic is the entry paid tier.
	PlanBasic
	// PlanProfessional is the highest tier.
	PlanProfessional
)

// String returns the canonical plan name, matching the keys of the
// configured plan map (case-insensitively).
func (p PricingPlan) String() string {
	switch p {
	case PlanBasic:
		return "BASIC"
	case PlanProfessional:
		return "PROFESSIONAL"
	default:
		return "FREE"
	}
}

// planPrefix associates an API key prefix with a plan. Prefixes are matched
// in order, highest tier first, so a more specific prefix can never be
// shadowed by a lower tier.
type planPrefix struct {
	prefix string
	plan   PricingPlan
}

// PlanResolver maps an opaque identifier (an API key) to a PricingPlan by
// ordered prefix matching. It never rejects input: empty or malformed
// identifiers resolve to PlanFree.
//
// Resolution is deterministic and side-effect free, so resolvers are safe
// for concurrent use.
type PlanResolver struct {
	prefixes []planPrefix
}

// NewPlanResolver creates a resolver with the standard key prefixes:
// "PX001-" for PROFESSIONAL, "BX001-" for BASIC, "FX001-" for FREE.
func NewPlanResolver() *PlanResolver {
	return &PlanResolver{
		prefixes: []planPrefix{
			{prefix: "PX001-", plan: PlanProfessional},
			{prefix: "BX001-", plan: PlanBasic},
			{prefix: "FX001-", plan: PlanFree},
		},
	}
}

// Resolve returns the plan for the given identifier, or PlanFree when no
// known prefix matches.
func (r *PlanResolver) Resolve(identifier string) PricingPlan {
	for _, p := range r.prefixes {
		if strings.HasPrefix(identifier, p.prefix) {
			return p.plan
		}
	}
	return PlanFree
}
