// Package urlcache translates stable storage keys into short-lived access
// URLs while keeping remote resolution calls to a minimum.
//
// A cached URL is handed out only while it is still valid for at least the
// safety margin: an entry created at T with a one hour TTL and a five
// minute margin is served until T+55m and re-resolved afterwards. Expired
// entries are evicted lazily on lookup.
//
// Resolution runs under the shared backoff policy, and concurrent requests
// for the same key are coalesced with singleflight so only one remote call
// is issued.
//
// # Usage
//
//	cache := urlcache.New(resolver, urlcache.Options{TTL: time.Hour, SafetyMargin: 5 * time.Minute}, logger)
//	if url, ok := cache.Resolve(ctx, record.StoragePath); !ok {
//	    // mark the item unresolved
//	}
//	cache.Invalidate(record.StoragePath) // manual retry
package urlcache
