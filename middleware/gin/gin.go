// Package gin integrates ratekeeper with the Gin web framework.
package gin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yacosta738/ratekeeper"
)

// RateLimiter creates a Gin middleware that admits or rejects requests
// through the provided Limiter under the given strategy.
//
// Behavior can be customized with functional options, such as changing how
// a client is identified (WithKeyFunc) or how denials are rendered
// (WithErrorHandler). Configuration errors raised at bucket creation abort
// the request with 500.
//
// Example:
//
//	svc := ratekeeper.New(source)
//	router := gin.Default()
//	auth := router.Group("/api/auth")
//	auth.Use(ginmw.RateLimiter(svc, ratekeeper.StrategyAuth))
func RateLimiter(limiter ratekeeper.Limiter, strategy ratekeeper.Strategy, options ...ratekeeper.Option) gin.HandlerFunc {
	cfg := newConfig(strategy, options...)

	return func(c *gin.Context) {
		key, err := cfg.KeyFunc(c.Request)
		if err != nil {
			cfg.Logger.Errorf("failed to extract identifier: %v", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		result, err := limiter.Consume(c.Request.Context(), key, strategy)
		if err != nil {
			cfg.Logger.Errorf("admission check failed for %q: %v", key, err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))

		if !result.Allowed {
			cfg.Logger.Debugf(
				"request denied for %q, remaining %d of %d, retry after %s",
				key, result.Remaining, result.Limit, result.RetryAfter,
			)
			cfg.ErrorHandler(c.Writer, c.Request, ratekeeper.ErrExceeded, result)
			c.Abort()
			return
		}

		c.Next()
	}
}

func newConfig(strategy ratekeeper.Strategy, options ...ratekeeper.Option) *ratekeeper.Config {
	defaults := []ratekeeper.Option{}
	if strategy == ratekeeper.StrategyBusiness {
		defaults = append(defaults, ratekeeper.WithKeyFunc(ratekeeper.APIKeyFunc("X-API-Key")))
	}
	return ratekeeper.NewConfig(append(defaults, options...)...)
}
