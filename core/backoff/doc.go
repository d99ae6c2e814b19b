// Package backoff implements the retry policy shared by every remote call
// of the feed synchronization engine.
//
// A Policy decides whether a failed attempt should be retried and how long
// to wait before the next one. The delay grows linearly with the attempt
// number (BaseDelay * attempt) and every attempt runs under its own timeout,
// which counts as a retryable failure.
//
// # Usage
//
//	p := backoff.Policy{MaxAttempts: 3, BaseDelay: time.Second, Timeout: 5 * time.Second}
//	url, err := backoff.Do(ctx, p, func(ctx context.Context) (string, error) {
//	    return resolver.ResolveAccessURL(ctx, key, time.Hour)
//	})
//	if errors.Is(err, backoff.ErrExhausted) {
//	    // surface the terminal failure
//	}
package backoff
