package likes

import (
	"context"
	"errors"
	"sync"

	"gallery/core/realtime"
	"gallery/core/session"

	"go.uber.org/zap"
)

// ErrStarted is returned by Start on a reconciler already running.
var ErrStarted = errors.New("reconciler already started")

// Subscriber is the push channel of like edge changes.
type Subscriber interface {
	Subscribe(filter realtime.Filter, onEvent func(realtime.Event)) realtime.Subscription
}

// Reconciler keeps a Store current with changes made elsewhere.
// It only applies single edge deltas; it never runs a full reconcile.
type Reconciler struct {
	store    *Store
	sub      Subscriber
	sessions session.Source
	logger   *zap.Logger

	mu        sync.Mutex
	started   bool
	stopped   bool
	current   realtime.Subscription
	stopWatch func()
	done      chan struct{}
	stopOnce  sync.Once
}

// NewReconciler creates a reconciler feeding store from sub.
func NewReconciler(store *Store, sub Subscriber, sessions session.Source, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		store:    store,
		sub:      sub,
		sessions: sessions,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start subscribes for the signed-in user and follows session changes until
// Stop is called or ctx is done.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrStarted
	}
	r.started = true
	if user, ok := r.sessions.CurrentUserID(); ok {
		r.subscribeLocked(user)
	}
	// Registered after the store, so the store is rescoped before resubscribing.
	r.stopWatch = r.sessions.OnChange(r.follow)
	r.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			r.Stop()
		case <-r.done:
		}
	}()
	return nil
}

// Stop releases the subscription. It is safe to call more than once.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		stop := r.stopWatch
		r.releaseLocked()
		r.mu.Unlock()

		if stop != nil {
			stop()
		}
		close(r.done)
		r.logger.Debug("Like reconciler stopped")
	})
}

// Done is closed once the reconciler has stopped.
func (r *Reconciler) Done() <-chan struct{} {
	return r.done
}

func (r *Reconciler) follow(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.releaseLocked()
	if userID != "" {
		r.subscribeLocked(userID)
	}
}

func (r *Reconciler) subscribeLocked(userID string) {
	r.current = r.sub.Subscribe(realtime.Filter{UserID: userID}, r.store.Apply)
	r.logger.Debug("Like reconciler subscribed", zap.String("user_id", userID))
}

func (r *Reconciler) releaseLocked() {
	if r.current != nil {
		r.current.Unsubscribe()
		r.current = nil
	}
}
