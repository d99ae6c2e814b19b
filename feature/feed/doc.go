// Package feed implements the paginated, infinitely scrolling image feed.
//
// A Fetcher turns page indices into offset queries against the remote store
// and resolves each record's display URL through the URL cache. A State holds
// the visible list: pages are committed strictly in page index order and
// records already shown are dropped, so a record shifted across a page
// boundary by concurrent inserts never appears twice.
//
// A Feed coordinates both for a single consumer:
//
//	f := feed.New(fetcher, 12, onGrowth, log)
//	added, err := f.LoadNext(ctx)
//
// A page that fails after its retry halts the feed. LoadNext then reports
// ErrHalted until Retry refetches the failed pages. Close discards the
// results of loads still in flight.
package feed
