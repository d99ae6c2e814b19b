package feed

import (
	"sync"

	"go.uber.org/zap"
)

// Service owns the feed served over HTTP. A new Feed replaces the old one
// whenever the viewer changes.
type Service struct {
	fetcher  *Fetcher
	pageSize int
	onGrowth GrowthHook
	logger   *zap.Logger

	mu      sync.Mutex
	current *Feed
}

// NewService creates a feed service.
func NewService(fetcher *Fetcher, pageSize int, onGrowth GrowthHook, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{fetcher: fetcher, pageSize: pageSize, onGrowth: onGrowth, logger: logger}
	s.current = New(fetcher, pageSize, onGrowth, logger)
	return s
}

// Current returns the active feed.
func (s *Service) Current() *Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Reset closes the active feed and starts an empty one.
func (s *Service) Reset() {
	s.mu.Lock()
	old := s.current
	s.current = New(s.fetcher, s.pageSize, s.onGrowth, s.logger)
	s.mu.Unlock()

	old.Close()
	s.logger.Debug("Feed reset")
}
