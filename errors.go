package ratekeeper

import (
	"errors"
	"fmt"
)

// ErrExceeded is returned by helpers (and passed to middleware error
// handlers) when a client exceeds its rate limit.
//
// Use errors.Is(err, ratekeeper.ErrExceeded) to detect this condition.
// Note that Service.Consume itself never returns ErrExceeded: a denial is a
// normal outcome reported through Result.Allowed, not an error.
var ErrExceeded = errors.New("rate limit exceeded")

// ErrUnknownPlan is wrapped by the *ConfigError returned when a business
// bucket is requested for a plan name absent from the configured plan map.
var ErrUnknownPlan = errors.New("unknown pricing plan")

// ConfigError reports malformed or missing rate-limit configuration: a
// non-positive bandwidth parameter, an empty bucket spec, or an unknown plan
// name at bucket-build time.
//
// Configuration errors are deployment defects, not client mistakes. They
// propagate out of bucket creation as hard failures so a misconfigured plan
// map is visible immediately instead of silently under- or over-limiting.
type ConfigError struct {
	// Limit is the name of the bandwidth limit or plan involved, if any.
	Limit string
	// Field is the offending parameter.
	Field string
	// Reason describes what is wrong with it.
	Reason string

	wrapped error
}

func newConfigError(limit, field, reason string) *ConfigError {
	return &ConfigError{Limit: limit, Field: field, Reason: reason}
}

func (e *ConfigError) Error() string {
	if e.Limit != "" {
		return fmt.Sprintf("ratekeeper: invalid config for %q: %s %s", e.Limit, e.Field, e.Reason)
	}
	return fmt.Sprintf("ratekeeper: invalid config: %s %s", e.Field, e.Reason)
}

// Unwrap exposes a wrapped sentinel (e.g. ErrUnknownPlan) to errors.Is.
func (e *ConfigError) Unwrap() error { return e.wrapped }
