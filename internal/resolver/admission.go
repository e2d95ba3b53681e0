package resolver

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Upstream endpoint classes with independent rate budgets.
const (
	endpointUUID     = "uuid"
	endpointUUIDs    = "uuids"
	endpointProfile  = "profile"
	endpointTextures = "textures"
)

// AdmissionConfig bounds outbound mojang traffic.
type AdmissionConfig struct {
	// MaxInFlight caps concurrent upstream requests across all endpoints.
	MaxInFlight int64

	// RatePerInterval and Interval define the per-endpoint budget.
	RatePerInterval int
	Interval        time.Duration

	// Burst is the per-endpoint bucket size.
	Burst int
}

// DefaultAdmissionConfig mirrors the public mojang limits with headroom:
// at most 32 concurrent requests, 500 requests per 10 minutes per endpoint.
func DefaultAdmissionConfig() AdmissionConfig {
	return AdmissionConfig{
		MaxInFlight:     32,
		RatePerInterval: 500,
		Interval:        10 * time.Minute,
		Burst:           10,
	}
}

// admission gates every upstream call behind a shared concurrency semaphore
// and a token bucket per endpoint class. The bucket waits rather than
// rejects; an upstream 429 still surfaces immediately to the caller.
type admission struct {
	sem     *semaphore.Weighted
	buckets map[string]*rate.Limiter
}

func newAdmission(cfg AdmissionConfig) *admission {
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 32
	}
	limit := rate.Inf
	if cfg.RatePerInterval > 0 && cfg.Interval > 0 {
		limit = rate.Limit(float64(cfg.RatePerInterval) / cfg.Interval.Seconds())
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	buckets := make(map[string]*rate.Limiter, 4)
	for _, ep := range []string{endpointUUID, endpointUUIDs, endpointProfile, endpointTextures} {
		buckets[ep] = rate.NewLimiter(limit, burst)
	}
	return &admission{
		sem:     semaphore.NewWeighted(cfg.MaxInFlight),
		buckets: buckets,
	}
}

// acquire blocks until an upstream slot and a token for endpoint are
// available, or ctx ends. The returned release must be called once the
// upstream request finishes.
func (a *admission) acquire(ctx context.Context, endpoint string) (release func(), err error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := a.buckets[endpoint].Wait(ctx); err != nil {
		a.sem.Release(1)
		return nil, err
	}
	return func() { a.sem.Release(1) }, nil
}
