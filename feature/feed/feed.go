package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gallery/core/backoff"
	"gallery/feature/gallery/models"

	"go.uber.org/zap"
)

var (
	// ErrHalted is returned by LoadNext after a page failure until Retry succeeds.
	ErrHalted = errors.New("pagination halted")
	// ErrClosed is returned once the feed has been torn down.
	ErrClosed = errors.New("feed closed")
	// ErrUnknownItem is returned by RetryItem for ids not in the feed.
	ErrUnknownItem = errors.New("item not in feed")
)

// Config holds configuration for pagination.
type Config struct {
	// PageSize is the number of records per page.
	PageSize int `mapstructure:"page_size" default:"12"`
	// QueryAttempts is the number of page query attempts; 2 retries a failed query once.
	QueryAttempts int `mapstructure:"query_attempts" default:"2"`
	// QueryBaseDelay is the backoff unit between page query attempts.
	QueryBaseDelay time.Duration `mapstructure:"query_base_delay" default:"1s"`
	// QueryTimeout bounds a single page query.
	QueryTimeout time.Duration `mapstructure:"query_timeout" default:"5s"`
}

// Policy returns the page query retry policy.
func (c Config) Policy() backoff.Policy {
	return backoff.Policy{
		MaxAttempts: c.QueryAttempts,
		BaseDelay:   c.QueryBaseDelay,
		Timeout:     c.QueryTimeout,
	}
}

// GrowthHook runs after new items became visible.
type GrowthHook func(ctx context.Context, added []models.ResolvedImage)

// Snapshot is a point-in-time view of a Feed.
type Snapshot struct {
	Items  []models.ResolvedImage `json:"items"`
	Done   bool                   `json:"done"`
	Halted bool                   `json:"halted"`
	Error  string                 `json:"error,omitempty"`
}

// Feed drives incremental loading for one consumer (one scrolling view).
type Feed struct {
	fetcher  *Fetcher
	resolver URLResolver
	state    *State
	pageSize int
	onGrowth GrowthHook
	logger   *zap.Logger

	life   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	claimed  int
	lastPage int
	// requeued holds pages abandoned by a cancelled caller, in index order.
	requeued []int
	failed   []int
	haltErr  error
	closed   bool
}

// New creates a feed over fetcher. onGrowth may be nil.
func New(fetcher *Fetcher, pageSize int, onGrowth GrowthHook, logger *zap.Logger) *Feed {
	if pageSize <= 0 {
		pageSize = 12
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	life, cancel := context.WithCancel(context.Background())
	return &Feed{
		fetcher:  fetcher,
		resolver: fetcher.resolver,
		state:    NewState(),
		pageSize: pageSize,
		onGrowth: onGrowth,
		logger:   logger,
		life:     life,
		cancel:   cancel,
		lastPage: -1,
	}
}

// LoadNext fetches the next unclaimed page and merges it.
// Concurrent calls each claim their own page index.
// It returns the items that became visible, nil once the feed is done.
func (f *Feed) LoadNext(ctx context.Context) ([]models.ResolvedImage, error) {
	f.mu.Lock()
	switch {
	case f.closed:
		f.mu.Unlock()
		return nil, ErrClosed
	case f.haltErr != nil:
		err := f.haltErr
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrHalted, err)
	}
	var idx int
	switch {
	case len(f.requeued) > 0:
		idx = f.requeued[0]
		f.requeued = f.requeued[1:]
	case f.pastEnd(f.claimed):
		f.mu.Unlock()
		return nil, nil
	default:
		idx = f.claimed
		f.claimed++
	}
	f.mu.Unlock()

	return f.load(ctx, idx)
}

// Retry clears a halted state and refetches the failed pages in order.
func (f *Feed) Retry(ctx context.Context) ([]models.ResolvedImage, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, ErrClosed
	}
	failed := f.failed
	f.failed = nil
	f.haltErr = nil
	f.mu.Unlock()

	var added []models.ResolvedImage
	for i, idx := range failed {
		items, err := f.load(ctx, idx)
		if err != nil {
			rest := failed[i+1:]
			f.mu.Lock()
			if f.haltErr != nil {
				// Keep the rest queued for the next explicit retry.
				f.failed = mergeIndices(f.failed, rest)
			} else if f.lastPage >= 0 {
				f.requeued = mergeIndices(f.requeued, trimAfter(rest, f.lastPage))
			} else {
				f.requeued = mergeIndices(f.requeued, rest)
			}
			f.mu.Unlock()
			return added, err
		}
		added = append(added, items...)
	}
	return added, nil
}

// RetryItem re-resolves the display URL of one item, bypassing the cache.
func (f *Feed) RetryItem(ctx context.Context, id string) (models.ResolvedImage, error) {
	item, ok := f.state.Get(id)
	if !ok {
		return models.ResolvedImage{}, ErrUnknownItem
	}

	ctx, stop := f.bind(ctx)
	defer stop()

	f.resolver.Invalidate(item.StoragePath)
	fresh := f.fetcher.Resolve(ctx, item.ImageRecord)
	fresh.Layout = item.Layout

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return models.ResolvedImage{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return models.ResolvedImage{}, err
	}
	f.state.Update(fresh)
	return fresh, nil
}

// State returns the underlying feed state.
func (f *Feed) State() *State {
	return f.state
}

// Done reports whether every page through the last one is visible.
func (f *Feed) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPage >= 0 && f.state.NextPage() > f.lastPage
}

// Snapshot returns the current view of the feed.
func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := Snapshot{
		Items:  f.state.Items(),
		Done:   f.lastPage >= 0 && f.state.NextPage() > f.lastPage,
		Halted: f.haltErr != nil,
	}
	if f.haltErr != nil {
		s.Error = f.haltErr.Error()
	}
	return s
}

// Close tears the feed down. In-flight loads finish without touching state.
func (f *Feed) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.cancel()
}

func (f *Feed) load(ctx context.Context, idx int) ([]models.ResolvedImage, error) {
	ctx, stop := f.bind(ctx)
	defer stop()

	page, fetchErr := f.fetcher.FetchPage(ctx, idx, f.pageSize)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		// The caller gave up; the next LoadNext claims this page first.
		if !f.pastEnd(idx) {
			f.requeued = mergeIndices(f.requeued, []int{idx})
		}
		f.mu.Unlock()
		return nil, err
	}
	if fetchErr != nil {
		if f.pastEnd(idx) {
			f.mu.Unlock()
			f.logger.Debug("Feed page past the end failed", zap.Int("page", idx), zap.Error(fetchErr))
			return nil, nil
		}
		f.failed = mergeIndices(f.failed, []int{idx})
		f.haltErr = fetchErr
		f.mu.Unlock()
		f.logger.Error("Feed page failed, pagination halted", zap.Int("page", idx), zap.Error(fetchErr))
		return nil, fetchErr
	}
	if page.IsLastPage && (f.lastPage < 0 || idx < f.lastPage) {
		f.setLastPage(idx)
	}
	added := f.state.Merge(idx, page.Items)
	f.mu.Unlock()

	f.logger.Debug("Feed page merged",
		zap.Int("page", idx),
		zap.Int("fetched", len(page.Items)),
		zap.Int("added", len(added)),
		zap.Bool("last", page.IsLastPage),
	)

	if len(added) > 0 && f.onGrowth != nil {
		f.onGrowth(ctx, added)
	}
	return added, nil
}

// pastEnd reports whether idx lies beyond the known last page. Must hold f.mu.
func (f *Feed) pastEnd(idx int) bool {
	return f.lastPage >= 0 && idx > f.lastPage
}

// setLastPage drops work queued for pages past last. Must hold f.mu.
func (f *Feed) setLastPage(last int) {
	f.lastPage = last
	f.requeued = trimAfter(f.requeued, last)
	f.failed = trimAfter(f.failed, last)
	if len(f.failed) == 0 {
		f.haltErr = nil
	}
}

// bind derives a context cancelled by either ctx or Close.
func (f *Feed) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(f.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func mergeIndices(a, b []int) []int {
	seen := make(map[int]struct{}, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, v := range append(append([]int(nil), a...), b...) {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func trimAfter(sorted []int, last int) []int {
	i := sort.SearchInts(sorted, last+1)
	return sorted[:i]
}
