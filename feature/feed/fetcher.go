package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gallery/core/backoff"
	"gallery/feature/gallery/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// resolveConcurrency bounds parallel URL resolutions within one page.
const resolveConcurrency = 8

// ErrPageFailed is returned when the page query failed after its retry.
var ErrPageFailed = errors.New("page query failed")

// PageQuerier is the remote store side of pagination.
type PageQuerier interface {
	// QueryPage returns up to limit records from offset, newest first, ties by id ascending.
	QueryPage(ctx context.Context, offset, limit int) ([]models.ImageRecord, error)
	// CountImages returns the total number of records.
	CountImages(ctx context.Context) (int64, error)
}

// URLResolver resolves storage keys to display URLs.
type URLResolver interface {
	Resolve(ctx context.Context, key string) (string, bool)
	// Invalidate drops any cached URL for key.
	Invalidate(key string)
}

// expiryReporter is implemented by urlcache.Cache.
type expiryReporter interface {
	ExpiresAt(key string) (time.Time, bool)
}

// Page is one fetched batch.
type Page struct {
	Index      int
	Items      []models.ResolvedImage
	IsLastPage bool
	// Total is the record count reported by the store, or -1 when unknown.
	Total int64
}

// Fetcher retrieves pages and resolves their display URLs.
type Fetcher struct {
	querier  PageQuerier
	resolver URLResolver
	policy   backoff.Policy
	logger   *zap.Logger
}

// NewFetcher creates a fetcher. The policy should allow two attempts so a
// failed page query is retried once.
func NewFetcher(querier PageQuerier, resolver URLResolver, policy backoff.Policy, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{querier: querier, resolver: resolver, policy: policy, logger: logger}
}

// FetchPage fetches page pageIndex (0-based) of size pageSize.
func (f *Fetcher) FetchPage(ctx context.Context, pageIndex, pageSize int) (Page, error) {
	if pageIndex < 0 || pageSize <= 0 {
		return Page{}, fmt.Errorf("invalid page %d of size %d", pageIndex, pageSize)
	}
	offset := pageIndex * pageSize

	records, err := backoff.Do(ctx, f.policy, func(ctx context.Context) ([]models.ImageRecord, error) {
		return f.querier.QueryPage(ctx, offset, pageSize)
	})
	if err != nil {
		if ctx.Err() != nil {
			return Page{}, ctx.Err()
		}
		return Page{}, fmt.Errorf("%w: page %d: %w", ErrPageFailed, pageIndex, err)
	}

	// The count only helps to stop early; a failure leaves the total unknown.
	total := int64(-1)
	if n, err := backoff.Do(ctx, f.policy, f.querier.CountImages); err == nil {
		total = n
	} else if ctx.Err() == nil {
		f.logger.Debug("Image count unavailable", zap.Error(err))
	}

	page := Page{
		Index: pageIndex,
		Items: make([]models.ResolvedImage, len(records)),
		Total: total,
	}
	page.IsLastPage = len(records) < pageSize ||
		(total >= 0 && int64(offset+len(records)) >= total)

	var g errgroup.Group
	g.SetLimit(resolveConcurrency)
	for i, rec := range records {
		g.Go(func() error {
			page.Items[i] = f.resolve(ctx, rec)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	return page, nil
}

// Resolve turns one record into a displayable item.
func (f *Fetcher) Resolve(ctx context.Context, rec models.ImageRecord) models.ResolvedImage {
	return f.resolve(ctx, rec)
}

func (f *Fetcher) resolve(ctx context.Context, rec models.ImageRecord) models.ResolvedImage {
	item := models.ResolvedImage{ImageRecord: rec, Layout: models.NewLayoutHint()}

	url, ok := f.resolver.Resolve(ctx, rec.StoragePath)
	if !ok {
		item.Unresolved = true
		f.logger.Warn("Image left unresolved", zap.String("image_id", rec.ID), zap.String("storage_path", rec.StoragePath))
		return item
	}
	item.DisplayURL = url
	if er, ok := f.resolver.(expiryReporter); ok {
		item.URLExpiresAt, _ = er.ExpiresAt(rec.StoragePath)
	}
	return item
}
