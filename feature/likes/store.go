package likes

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gallery/core/backoff"
	"gallery/core/realtime"
	"gallery/core/session"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrToggleFailed is returned when a like or unlike was not persisted.
	// The displayed state has been rolled back when it is returned.
	ErrToggleFailed = errors.New("toggle failed")
	// ErrNoSession is returned when no user is signed in.
	ErrNoSession = errors.New("no signed-in user")
	// ErrPartialReconcile is returned when some reconcile chunks failed.
	// Ids in failed chunks keep their previous value.
	ErrPartialReconcile = errors.New("partial reconcile")
)

// EdgeStore is the remote store side of like edges.
type EdgeStore interface {
	// QueryLikeEdges returns the subset of imageIDs liked by userID.
	QueryLikeEdges(ctx context.Context, userID string, imageIDs []string) ([]string, error)
	// CountLikes returns the authoritative number of likes of userID.
	CountLikes(ctx context.Context, userID string) (int64, error)
	// CreateLikeEdge and DeleteLikeEdge return the server change version.
	CreateLikeEdge(ctx context.Context, userID, imageID string) (int64, error)
	DeleteLikeEdge(ctx context.Context, userID, imageID string) (int64, error)
}

// Config holds configuration for the like state store.
type Config struct {
	// BatchSize is the number of ids per reconcile query.
	BatchSize int `mapstructure:"batch_size" default:"50"`
	// Concurrency bounds reconcile chunks in flight.
	Concurrency int `mapstructure:"concurrency" default:"4"`
	// Retry configures the retry policy of every like edge call.
	Retry backoff.Config `mapstructure:"retry"`
}

// Options tune a Store.
type Options struct {
	BatchSize   int
	Concurrency int
	Policy      backoff.Policy
}

// OptionsFromConfig builds Options from configuration.
func OptionsFromConfig(cfg Config) Options {
	return Options{
		BatchSize:   cfg.BatchSize,
		Concurrency: cfg.Concurrency,
		Policy:      cfg.Retry.Policy(),
	}
}

type entry struct {
	confirmed bool
	// version is the newest server change applied to confirmed.
	version int64
	// touched is the local sequence of the last confirmed write.
	touched uint64
	// pending is the optimistic target of the toggle in flight.
	pending *bool
}

func (e *entry) displayed() bool {
	if e.pending != nil {
		return *e.pending
	}
	return e.confirmed
}

// Store answers "does the current user like image X" for the whole process.
// It is scoped to one session and clears itself whenever the user changes.
type Store struct {
	edges       EdgeStore
	policy      backoff.Policy
	batchSize   int
	concurrency int
	logger      *zap.Logger

	mu       sync.Mutex
	userID   string
	epoch    uint64
	seq      uint64
	// writes moves when a toggle starts or finishes its remote call.
	writes   uint64
	count    int64
	entries  map[string]*entry
	inflight map[string]*entry

	turns turnLocks

	stopWatch func()
}

// NewStore creates a store for the user currently signed in to sessions.
func NewStore(edges EdgeStore, sessions session.Source, opts Options, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	s := &Store{
		edges:       edges,
		policy:      opts.Policy,
		batchSize:   opts.BatchSize,
		concurrency: opts.Concurrency,
		logger:      logger,
		entries:     make(map[string]*entry),
		inflight:    make(map[string]*entry),
		turns:       turnLocks{m: make(map[string]*turn)},
	}
	if sessions != nil {
		s.userID, _ = sessions.CurrentUserID()
		s.stopWatch = sessions.OnChange(s.switchUser)
	}
	return s
}

// Close detaches the store from session changes.
func (s *Store) Close() {
	if s.stopWatch != nil {
		s.stopWatch()
	}
}

// UserID returns the user the store is scoped to.
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// IsLiked reports the displayed membership of id, including a toggle in flight.
func (s *Store) IsLiked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return ok && e.displayed()
}

// LikedCount returns the number of liked images as displayed.
func (s *Store) LikedCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.count
	for _, e := range s.inflight {
		n += b2i(*e.pending) - b2i(e.confirmed)
	}
	return max(n, 0)
}

// Reset drops all state and rescopes the store to userID.
func (s *Store) Reset(userID string) {
	s.switchUser(userID)
}

func (s *Store) switchUser(userID string) {
	s.mu.Lock()
	s.userID = userID
	s.epoch++
	s.count = 0
	s.entries = make(map[string]*entry)
	s.inflight = make(map[string]*entry)
	s.mu.Unlock()
	s.logger.Debug("Like state reset", zap.String("user_id", userID))
}

// Toggle flips the like of id. The new state is visible immediately and
// rolled back if the remote call fails. Toggles of one id run one at a time;
// each computes its target from the state left by the previous one.
func (s *Store) Toggle(ctx context.Context, id string) error {
	release, err := s.turns.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	if s.userID == "" {
		s.mu.Unlock()
		return ErrNoSession
	}
	user, epoch := s.userID, s.epoch
	e := s.entry(id)
	target := !e.displayed()
	e.pending = &target
	s.inflight[id] = e
	s.writes++
	s.mu.Unlock()

	version, callErr := backoff.Do(ctx, s.policy, func(ctx context.Context) (int64, error) {
		if target {
			return s.edges.CreateLikeEdge(ctx, user, id)
		}
		return s.edges.DeleteLikeEdge(ctx, user, id)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.epoch != epoch {
		return fmt.Errorf("%w: session changed", ErrToggleFailed)
	}
	e.pending = nil
	delete(s.inflight, id)

	if callErr != nil {
		s.logger.Warn("Like toggle rolled back",
			zap.String("image_id", id),
			zap.Bool("target", target),
			zap.Error(callErr),
		)
		return fmt.Errorf("%w: %w", ErrToggleFailed, callErr)
	}
	s.confirm(e, target, version)
	return nil
}

// Apply applies one realtime edge change. Changes older than what is already
// known for the id are ignored, as are changes of other users.
func (s *Store) Apply(ev realtime.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.UserID != s.userID || s.userID == "" {
		return
	}
	s.confirm(s.entry(ev.ImageID), ev.Type == realtime.EdgeAdded, ev.Version)
}

// Reconcile replaces the membership of ids with the server's answer.
// Chunks are queried independently; a failed chunk leaves its ids as they
// were and is reported through an error matching ErrPartialReconcile.
func (s *Store) Reconcile(ctx context.Context, ids []string) error {
	s.mu.Lock()
	user, epoch, start := s.userID, s.epoch, s.seq
	s.mu.Unlock()
	if user == "" {
		return ErrNoSession
	}

	chunks := chunk(dedup(ids), s.batchSize)

	var (
		errMu sync.Mutex
		errs  error
		g     errgroup.Group
	)
	g.SetLimit(s.concurrency)
	for i, c := range chunks {
		g.Go(func() error {
			liked, err := backoff.Do(ctx, s.policy, func(ctx context.Context) ([]string, error) {
				return s.edges.QueryLikeEdges(ctx, user, c)
			})
			if err != nil {
				errMu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("chunk %d: %w", i, err))
				errMu.Unlock()
				return nil
			}
			s.replace(epoch, start, c, liked)
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	before, writes := s.seq, s.writes
	s.mu.Unlock()

	total, err := backoff.Do(ctx, s.policy, func(ctx context.Context) (int64, error) {
		return s.edges.CountLikes(ctx, user)
	})
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("count: %w", err))
	} else {
		s.mu.Lock()
		// The total is stale if anything changed while counting, and
		// ambiguous while a toggle may or may not have committed. The
		// incremental value is kept until the next pass.
		if s.epoch == epoch && s.seq == before && s.writes == writes && len(s.inflight) == 0 {
			s.count = total
		}
		s.mu.Unlock()
	}

	if errs != nil {
		failed := len(multierr.Errors(errs))
		s.logger.Warn("Partial like reconcile",
			zap.Int("chunks", len(chunks)),
			zap.Int("failed", failed),
			zap.Error(errs),
		)
		return fmt.Errorf("%w: %w", ErrPartialReconcile, errs)
	}
	return nil
}

func (s *Store) replace(epoch, start uint64, ids, liked []string) {
	set := make(map[string]struct{}, len(liked))
	for _, id := range liked {
		set[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return
	}
	for _, id := range ids {
		e := s.entry(id)
		if e.touched > start {
			// Newer than the query.
			continue
		}
		_, ok := set[id]
		s.setConfirmed(e, ok)
	}
}

// confirm applies a versioned server state. Must hold s.mu.
func (s *Store) confirm(e *entry, liked bool, version int64) {
	if version <= e.version {
		return
	}
	e.version = version
	s.setConfirmed(e, liked)
}

// setConfirmed must hold s.mu.
func (s *Store) setConfirmed(e *entry, liked bool) {
	s.seq++
	e.touched = s.seq
	if e.confirmed == liked {
		return
	}
	e.confirmed = liked
	if liked {
		s.count++
	} else if s.count > 0 {
		s.count--
	}
}

// entry must hold s.mu.
func (s *Store) entry(id string) *entry {
	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	return e
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > 0 {
		n := min(size, len(ids))
		out = append(out, ids[:n])
		ids = ids[n:]
	}
	return out
}

// turnLocks hands out one turn per id at a time.
type turnLocks struct {
	mu sync.Mutex
	m  map[string]*turn
}

type turn struct {
	ch   chan struct{}
	refs int
}

func (l *turnLocks) acquire(ctx context.Context, id string) (func(), error) {
	l.mu.Lock()
	t, ok := l.m[id]
	if !ok {
		t = &turn{ch: make(chan struct{}, 1)}
		l.m[id] = t
	}
	t.refs++
	l.mu.Unlock()

	select {
	case t.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(id, t)
		return nil, ctx.Err()
	}
	return func() {
		<-t.ch
		l.unref(id, t)
	}, nil
}

func (l *turnLocks) unref(id string, t *turn) {
	l.mu.Lock()
	t.refs--
	if t.refs == 0 {
		delete(l.m, id)
	}
	l.mu.Unlock()
}
