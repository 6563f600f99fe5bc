// Package nethttp integrates ratekeeper with the standard net/http stack.
package nethttp

import (
	"net/http"
	"strconv"

	"github.com/yacosta738/ratekeeper"
)

// Middleware creates an admission middleware for the standard `net/http`
// library.
//
// It wraps an existing `http.Handler` and checks incoming requests against
// the provided Limiter under the given strategy. On every admitted request
// it adds the `X-RateLimit-*` headers; denials short-circuit with the
// configured ErrorHandler (429 + Retry-After by default). A configuration
// error — an unknown pricing plan at bucket-creation time — is a deployment
// defect and maps to 500, never to a silent admit or deny.
//
// Example:
//
//	svc := ratekeeper.New(source)
//	mux := http.NewServeMux()
//	mux.HandleFunc("/api/auth/login", loginHandler)
//
//	guard := nethttp.Middleware(svc, ratekeeper.StrategyAuth)
//	http.ListenAndServe(":8080", guard(mux))
func Middleware(limiter ratekeeper.Limiter, strategy ratekeeper.Strategy, options ...ratekeeper.Option) func(http.Handler) http.Handler {
	cfg := newConfig(strategy, options...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, err := cfg.KeyFunc(r)
			if err != nil {
				cfg.Logger.Errorf("failed to extract identifier: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			result, err := limiter.Consume(r.Context(), key, strategy)
			if err != nil {
				cfg.Logger.Errorf("admission check failed for %q: %v", key, err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))

			if !result.Allowed {
				cfg.Logger.Debugf(
					"request denied for %q, remaining %d of %d, retry after %s",
					key, result.Remaining, result.Limit, result.RetryAfter,
				)
				cfg.ErrorHandler(w, r, ratekeeper.ErrExceeded, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// newConfig picks the strategy's natural identifier extraction as the
// default: client IP for AUTH, X-API-Key header for BUSINESS. Options can
// still override it.
func newConfig(strategy ratekeeper.Strategy, options ...ratekeeper.Option) *ratekeeper.Config {
	defaults := []ratekeeper.Option{}
	if strategy == ratekeeper.StrategyBusiness {
		defaults = append(defaults, ratekeeper.WithKeyFunc(ratekeeper.APIKeyFunc("X-API-Key")))
	}
	return ratekeeper.NewConfig(append(defaults, options...)...)
}
