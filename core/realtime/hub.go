package realtime

import (
	"sync"

	"go.uber.org/zap"
)

// EventType is the kind of like edge change.
type EventType string

const (
	// EdgeAdded is pushed when a like edge is created.
	EdgeAdded EventType = "added"
	// EdgeRemoved is pushed when a like edge is deleted.
	EdgeRemoved EventType = "removed"
)

// Event is one like edge change.
type Event struct {
	Type    EventType `json:"type"`
	UserID  string    `json:"user_id"`
	ImageID string    `json:"image_id"`
	// Version is the server change sequence; larger is newer.
	Version int64 `json:"version"`
}

// Filter selects the events delivered to a subscription.
type Filter struct {
	// UserID restricts delivery to one user's edges. Empty means all users.
	UserID string
}

func (f Filter) match(e Event) bool {
	return f.UserID == "" || f.UserID == e.UserID
}

// Subscription is a cancellable registration on a Hub.
type Subscription interface {
	// Unsubscribe stops delivery. It is safe to call more than once.
	Unsubscribe()
}

// Hub fans events out to subscribers. Each subscriber has its own queue
// drained by one goroutine, so events reach a subscriber in publish order
// and a slow subscriber never blocks Publish.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*subscription]struct{}
	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[*subscription]struct{}),
		logger: logger,
	}
}

// Subscribe registers onEvent for events matching filter.
func (h *Hub) Subscribe(filter Filter, onEvent func(Event)) Subscription {
	s := &subscription{
		hub:     h,
		filter:  filter,
		onEvent: onEvent,
	}
	s.cond = sync.NewCond(&s.mu)

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	go s.run()
	h.logger.Debug("Realtime subscription opened", zap.String("user_id", filter.UserID))
	return s
}

// Publish enqueues e for every matching subscriber.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		if s.filter.match(e) {
			s.enqueue(e)
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(s *subscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

type subscription struct {
	hub     *Hub
	filter  Filter
	onEvent func(Event)

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Event
	closed bool
	once   sync.Once
}

func (s *subscription) enqueue(e Event) {
	s.mu.Lock()
	if !s.closed {
		s.queue = append(s.queue, e)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *subscription) run() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		e := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.onEvent(e)
	}
}

// Unsubscribe removes the subscription and drops undelivered events.
// A delivery already in progress runs to completion.
func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.remove(s)
		s.mu.Lock()
		s.closed = true
		s.queue = nil
		s.cond.Broadcast()
		s.mu.Unlock()
		s.hub.logger.Debug("Realtime subscription closed", zap.String("user_id", s.filter.UserID))
	})
}
