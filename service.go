package ratekeeper

import (
	"context"
	"sync"
	"time"
)

// Service is the rate limiter: it owns the concurrent (strategy, identifier)
// → bucket cache and delegates admission decisions to the token bucket
// engine. Create one Service at process start and share it; it holds no
// external resources and needs no teardown.
//
// By default cache entries are never evicted, matching the behavior this
// limiter was modeled on: identifiers that stop sending traffic keep their
// (tiny) bucket for the life of the process. Deployments that rate-limit by
// high-cardinality keys such as rotating client IPs can opt into idle
// eviction with WithIdleTTL.
//
// Example:
//
//	source, _ := ratekeeper.NewSpecSource(authLimits, planLimits)
//	svc := ratekeeper.New(source)
//	res, err := svc.Consume(ctx, clientIP, ratekeeper.StrategyAuth)
type Service struct {
	source   *SpecSource
	resolver *PlanResolver
	buckets  sync.Map // cache key → *bucket
	now      func() time.Time
	logger   Logger
	idleTTL  time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger used for bucket lifecycle events.
func WithServiceLogger(l Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPlanResolver replaces the default prefix-based plan resolver.
func WithPlanResolver(r *PlanResolver) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithClock overrides the time source. Intended for tests that need to
// advance time deterministically instead of sleeping.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIdleTTL enables eviction of buckets idle for longer than d. Call
// StartJanitor to run the periodic sweep. Zero (the default) disables
// eviction entirely.
func WithIdleTTL(d time.Duration) ServiceOption {
	return func(s *Service) { s.idleTTL = d }
}

// New creates a Service backed by the given spec source.
func New(source *SpecSource, opts ...ServiceOption) *Service {
	s := &Service{
		source:   source,
		resolver: NewPlanResolver(),
		now:      time.Now,
		logger:   &noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Consume attempts to take one token from the bucket for (strategy,
// identifier), creating the bucket on first use.
//
// A denial is a normal outcome carried in the Result; the error return is
// reserved for configuration defects such as an unknown pricing plan, which
// surface at bucket-creation time and should fail the request with a server
// error.
func (s *Service) Consume(ctx context.Context, identifier string, strategy Strategy) (Result, error) {
	return s.ConsumeN(ctx, identifier, strategy, 1)
}

// ConsumeN is Consume with an explicit token cost.
func (s *Service) ConsumeN(_ context.Context, identifier string, strategy Strategy, cost int64) (Result, error) {
	key := strategy.String() + ":" + identifier

	b, err := s.bucketFor(key, identifier, strategy)
	if err != nil {
		return Result{}, err
	}
	res := b.tryConsume(cost, s.now())
	if !res.Allowed {
		s.logger.Debugf("denied %s for %q, retry after %s", strategy, identifier, res.RetryAfter)
	}
	return res, nil
}

// bucketFor returns the bucket for key, building it on first access. The
// LoadOrStore insert guarantees exactly one bucket per key even when many
// goroutines race on the first request; a duplicate would silently double
// the identifier's quota.
func (s *Service) bucketFor(key, identifier string, strategy Strategy) (*bucket, error) {
	if v, ok := s.buckets.Load(key); ok {
		return v.(*bucket), nil
	}

	spec, err := s.specFor(identifier, strategy)
	if err != nil {
		return nil, err
	}
	fresh := newBucket(spec, s.now())
	actual, loaded := s.buckets.LoadOrStore(key, fresh)
	if !loaded {
		s.logger.Debugf("created %s bucket for %q (%d tiers)", strategy, identifier, spec.Len())
	}
	return actual.(*bucket), nil
}

func (s *Service) specFor(identifier string, strategy Strategy) (BucketSpec, error) {
	if strategy == StrategyBusiness {
		plan := s.resolver.Resolve(identifier)
		spec, err := s.source.BusinessSpec(plan.String())
		if err != nil {
			s.logger.Errorf("no bandwidth limit configured for plan %s: %v", plan, err)
			return BucketSpec{}, err
		}
		return spec, nil
	}
	return s.source.AuthSpec(), nil
}

// CacheSize reports the number of live buckets. Diagnostic only.
func (s *Service) CacheSize() int {
	n := 0
	s.buckets.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Reset drops every bucket. Test support only; not a production code path.
func (s *Service) Reset() {
	s.buckets.Range(func(k, _ any) bool {
		s.buckets.Delete(k)
		return true
	})
}

// StartJanitor starts a goroutine that periodically evicts buckets idle for
// longer than the configured idle TTL. It is a no-op unless WithIdleTTL was
// set. Stop it by cancelling the context.
func (s *Service) StartJanitor(ctx context.Context, sweepEvery time.Duration) {
	if s.idleTTL <= 0 || sweepEvery <= 0 {
		return
	}
	ticker := time.NewTicker(sweepEvery)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.evictIdle()
			}
		}
	}()
}

func (s *Service) evictIdle() {
	cutoff := s.now().Add(-s.idleTTL)
	s.buckets.Range(func(k, v any) bool {
		if v.(*bucket).idleSince(cutoff) {
			s.buckets.Delete(k)
		}
		return true
	})
}
