package ratelimit

import "context"

// RateLimiter bounds outbound send throughput per notice kind so sweeps and
// batch deliveries respect the messenger gateway's rate limits.
type RateLimiter interface {
	Allow(ctx context.Context, kind string) (bool, error)
	Wait(ctx context.Context, kind string) error
}
