package likes

import (
	"context"
	"errors"
	"sync"
	"time"

	"gallery/core/backoff"
)

var errRemote = errors.New("remote unavailable")

type call struct {
	op string
	id string
}

type fakeEdges struct {
	mu      sync.Mutex
	liked   map[string]map[string]bool
	version int64
	calls   []call

	// writeGate, when set, is received from before every create or delete.
	writeGate chan error
	// afterWrite runs once a write has committed, before it returns.
	afterWrite func()
	// failWrites makes every create and delete fail.
	failWrites bool
	// failQuery reports whether a reconcile query for ids must fail.
	failQuery func(ids []string) bool
	countErr  error
}

func newEdges() *fakeEdges {
	return &fakeEdges{liked: make(map[string]map[string]bool)}
}

func (f *fakeEdges) set(user, id string, liked bool) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.liked[user] == nil {
		f.liked[user] = make(map[string]bool)
	}
	if liked {
		f.liked[user][id] = true
	} else {
		delete(f.liked[user], id)
	}
	f.version++
	return f.version
}

func (f *fakeEdges) write(ctx context.Context, op, user, id string, liked bool) (int64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{op: op, id: id})
	gate, fail, after := f.writeGate, f.failWrites, f.afterWrite
	f.mu.Unlock()

	if gate != nil {
		select {
		case err := <-gate:
			if err != nil {
				return 0, err
			}
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if fail {
		return 0, errRemote
	}
	v := f.set(user, id, liked)
	if after != nil {
		after()
	}
	return v, nil
}

func (f *fakeEdges) CreateLikeEdge(ctx context.Context, user, id string) (int64, error) {
	return f.write(ctx, "create", user, id, true)
}

func (f *fakeEdges) DeleteLikeEdge(ctx context.Context, user, id string) (int64, error) {
	return f.write(ctx, "delete", user, id, false)
}

func (f *fakeEdges) QueryLikeEdges(ctx context.Context, user string, ids []string) ([]string, error) {
	if f.failQuery != nil && f.failQuery(ids) {
		return nil, errRemote
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, id := range ids {
		if f.liked[user][id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeEdges) CountLikes(ctx context.Context, user string) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.liked[user])), nil
}

func (f *fakeEdges) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func testOptions() Options {
	return Options{
		BatchSize:   50,
		Concurrency: 2,
		Policy:      backoff.Policy{MaxAttempts: 2, BaseDelay: -1, Timeout: time.Second},
	}
}

type fixedSession struct{ user string }

func (s fixedSession) CurrentUserID() (string, bool) { return s.user, s.user != "" }

func (s fixedSession) OnChange(fn func(string)) func() { return func() {} }
