package storage

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// PresignResolver turns storage keys into presigned GET URLs.
// It implements urlcache.Resolver.
type PresignResolver struct {
	client  Client
	bucket  string
	limiter *rate.Limiter
}

// NewPresignResolver creates a resolver for bucket. A zero rate disables throttling.
func NewPresignResolver(client Client, bucket string, perSecond float64, burst int) *PresignResolver {
	r := &PresignResolver{client: client, bucket: bucket}
	if perSecond > 0 {
		if burst <= 0 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return r
}

// ResolveAccessURL returns a URL for key valid for ttl.
func (r *PresignResolver) ResolveAccessURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty storage key")
	}
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("presign throttled: %w", err)
		}
	}

	u, err := r.client.PresignedGetObject(ctx, r.bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return u.String(), nil
}
