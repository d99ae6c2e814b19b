package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gallery/feature/gallery/models"
)

var errDown = errors.New("store unavailable")

type fakeQuerier struct {
	mu       sync.Mutex
	records  []models.ImageRecord
	failures int
	countErr error
	queries  int
	// gate, when set, blocks queries for the page offset until closed.
	gate map[int]chan struct{}
	// failAt makes queries for the page offset fail after passing the gate.
	failAt map[int]bool
}

func newQuerier(n int) *fakeQuerier {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	q := &fakeQuerier{}
	for i := 0; i < n; i++ {
		q.records = append(q.records, models.ImageRecord{
			ID:          fmt.Sprintf("img-%02d", i),
			StoragePath: fmt.Sprintf("public/%02d.jpg", i),
			CreatedAt:   base.Add(-time.Duration(i) * time.Minute),
		})
	}
	return q
}

func (q *fakeQuerier) QueryPage(ctx context.Context, offset, limit int) ([]models.ImageRecord, error) {
	q.mu.Lock()
	q.queries++
	gate, fail := q.gate[offset], q.failAt[offset]
	if q.failures > 0 {
		q.failures--
		q.mu.Unlock()
		return nil, errDown
	}
	q.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, errDown
	}

	if offset >= len(q.records) {
		return nil, nil
	}
	end := min(offset+limit, len(q.records))
	return append([]models.ImageRecord(nil), q.records[offset:end]...), nil
}

func (q *fakeQuerier) CountImages(ctx context.Context) (int64, error) {
	if q.countErr != nil {
		return 0, q.countErr
	}
	return int64(len(q.records)), nil
}

func (q *fakeQuerier) queryCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.queries
}

type fakeResolver struct {
	mu          sync.Mutex
	broken      map[string]bool
	invalidated []string
}

func (r *fakeResolver) Resolve(ctx context.Context, key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.broken[key] {
		return "", false
	}
	return "https://cdn.test/" + key, true
}

func (r *fakeResolver) Invalidate(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, key)
}

func (r *fakeResolver) fix(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.broken, key)
}
