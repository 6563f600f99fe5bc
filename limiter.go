// Package ratekeeper provides request-admission rate limiting for
// authentication and business API endpoints.
//
// It implements a layered token-bucket gate: authentication endpoints share
// a fixed multi-window policy (brute-force protection), while business
// endpoints get a per-API-key quota chosen by resolving the key's pricing
// plan. Buckets live in an in-process concurrent cache keyed by strategy and
// identifier; this is deliberately a single-instance design with no shared
// state across processes.
//
// The package defines three core pieces:
//   - Service: owns the bucket cache and exposes Consume
//   - SpecSource: builds the multi-tier bucket specification per strategy
//   - Result: the admission decision, useful for HTTP headers
package ratekeeper

import (
	"context"
	"time"
)

// Result contains the outcome of an admission check.
//
// It provides the data needed to populate standard rate-limiting HTTP
// headers such as `X-RateLimit-Limit`, `X-RateLimit-Remaining`, and
// `Retry-After`.
type Result struct {
	// Allowed indicates whether the request is permitted.
	Allowed bool
	// Limit is the capacity of the most constrained tier.
	Limit int64
	// Remaining is the number of whole tokens left in the most constrained
	// tier after this decision.
	Remaining int64
	// RetryAfter is zero when allowed; when denied it is the wait after
	// which a retry will succeed against every tier (absent other
	// consumers).
	RetryAfter time.Duration
}

// Limiter is the admission contract consumed by the HTTP middleware.
//
// Implementations decide whether the request identified by identifier may
// proceed under the given strategy. A denial is reported through
// Result.Allowed, not through the error return; a non-nil error indicates a
// configuration defect (see ConfigError).
type Limiter interface {
	// Consume attempts to take one token from the identifier's bucket.
	//
	// Parameters:
	//   - ctx: context for the caller's request scope
	//   - identifier: unique client identifier (IP address for AUTH,
	//     API key for BUSINESS)
	//   - strategy: which admission policy applies
	Consume(ctx context.Context, identifier string, strategy Strategy) (Result, error)
}
