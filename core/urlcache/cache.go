package urlcache

import (
	"context"
	"errors"
	"sync"
	"time"

	"gallery/core/backoff"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTTL is the lifetime requested for every access URL.
	DefaultTTL = time.Hour
	// DefaultSafetyMargin is subtracted from the TTL before caching.
	DefaultSafetyMargin = 5 * time.Minute
)

// Resolver is the remote call that issues an access URL for a storage key.
type Resolver interface {
	ResolveAccessURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, key string, ttl time.Duration) (string, error)

// ResolveAccessURL calls f.
func (f ResolverFunc) ResolveAccessURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return f(ctx, key, ttl)
}

// Config holds configuration for the URL cache.
type Config struct {
	// TTL is the lifetime requested from the resolver.
	TTL time.Duration `mapstructure:"ttl" default:"1h"`
	// SafetyMargin is subtracted from TTL so cached URLs outlive render latency.
	SafetyMargin time.Duration `mapstructure:"safety_margin" default:"5m"`
	// Retry configures the resolution retry policy.
	Retry backoff.Config `mapstructure:"retry"`
}

// Options tune a Cache.
type Options struct {
	TTL          time.Duration
	SafetyMargin time.Duration
	Policy       backoff.Policy
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// OptionsFromConfig builds Options from configuration.
func OptionsFromConfig(cfg Config) Options {
	return Options{
		TTL:          cfg.TTL,
		SafetyMargin: cfg.SafetyMargin,
		Policy:       cfg.Retry.Policy(),
	}
}

type entry struct {
	url       string
	expiresAt time.Time
}

// Cache maps storage keys to access URLs.
// Concurrent resolutions of one key share a single remote call.
type Cache struct {
	resolver Resolver
	ttl      time.Duration
	margin   time.Duration
	policy   backoff.Policy
	now      func() time.Time
	logger   *zap.Logger

	mu      sync.Mutex
	entries map[string]entry
	sf      singleflight.Group
}

// New creates an empty cache in front of resolver.
func New(resolver Resolver, opts Options, logger *zap.Logger) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.SafetyMargin < 0 || opts.SafetyMargin >= opts.TTL {
		opts.SafetyMargin = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		resolver: resolver,
		ttl:      opts.TTL,
		margin:   opts.SafetyMargin,
		policy:   opts.Policy,
		now:      opts.Now,
		logger:   logger,
		entries:  make(map[string]entry),
	}
}

// Resolve returns an access URL for key that is valid for at least the
// safety margin. ok is false when resolution failed after retries; callers
// must mark the item unresolved rather than treat it as imageless.
func (c *Cache) Resolve(ctx context.Context, key string) (url string, ok bool) {
	if e, hit := c.lookup(key); hit {
		return e.url, true
	}

	for {
		ch := c.sf.DoChan(key, func() (interface{}, error) {
			return c.fetch(ctx, key)
		})

		select {
		case <-ctx.Done():
			return "", false
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(entry).url, true
			}
			// The caller that started the shared call went away; we did not.
			if errors.Is(res.Err, context.Canceled) && ctx.Err() == nil {
				continue
			}
			c.logger.Warn("Access URL resolution failed", zap.String("key", key), zap.Error(res.Err))
			return "", false
		}
	}
}

// ExpiresAt returns the expiry of the live cached entry for key.
func (c *Cache) ExpiresAt(key string) (time.Time, bool) {
	e, ok := c.lookup(key)
	return e.expiresAt, ok
}

// Invalidate forces the next Resolve of key to go remote.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	c.sf.Forget(key)
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// lookup returns a live entry, evicting an expired one.
func (c *Cache) lookup(key string) (entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return entry{}, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return entry{}, false
	}
	return e, true
}

func (c *Cache) fetch(ctx context.Context, key string) (entry, error) {
	// Another flight may have filled the entry between lookup and DoChan.
	if e, hit := c.lookup(key); hit {
		return e, nil
	}

	url, err := backoff.Do(ctx, c.policy, func(ctx context.Context) (string, error) {
		return c.resolver.ResolveAccessURL(ctx, key, c.ttl)
	})
	if err != nil {
		return entry{}, err
	}
	if err := ctx.Err(); err != nil {
		return entry{}, err
	}

	e := entry{url: url, expiresAt: c.now().Add(c.ttl - c.margin)}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return e, nil
}
