package feed

import (
	"sync"

	"gallery/feature/gallery/models"
)

// State is the visible feed: pages concatenated in page index order and
// deduplicated by image id. It only grows.
type State struct {
	mu      sync.RWMutex
	items   []models.ResolvedImage
	index   map[string]int
	next    int
	pending map[int][]models.ResolvedImage
}

// NewState creates an empty feed starting at page 0.
func NewState() *State {
	return &State{
		index:   make(map[string]int),
		pending: make(map[int][]models.ResolvedImage),
	}
}

// Merge commits page pageIndex. Pages arriving ahead of their predecessors
// wait until the gap is filled, so the feed never shows page B before page
// A when A was requested first. Items already present keep their position.
// It returns the items appended to the visible feed.
func (s *State) Merge(pageIndex int, items []models.ResolvedImage) []models.ResolvedImage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pageIndex < s.next {
		return nil
	}
	if _, dup := s.pending[pageIndex]; dup {
		return nil
	}
	s.pending[pageIndex] = items

	var added []models.ResolvedImage
	for {
		page, ok := s.pending[s.next]
		if !ok {
			break
		}
		delete(s.pending, s.next)
		s.next++
		for _, it := range page {
			if _, seen := s.index[it.ID]; seen {
				continue
			}
			s.index[it.ID] = len(s.items)
			s.items = append(s.items, it)
			added = append(added, it)
		}
	}
	return added
}

// Update replaces a present item in place, keeping its position.
func (s *State) Update(item models.ResolvedImage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[item.ID]
	if !ok {
		return false
	}
	s.items[i] = item
	return true
}

// Get returns the item with id.
func (s *State) Get(id string) (models.ResolvedImage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return models.ResolvedImage{}, false
	}
	return s.items[i], true
}

// Items returns a copy of the visible feed.
func (s *State) Items() []models.ResolvedImage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ResolvedImage(nil), s.items...)
}

// IDs returns the ids of the visible feed in order.
func (s *State) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.items))
	for i, it := range s.items {
		ids[i] = it.ID
	}
	return ids
}

// Len returns the number of visible items.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// NextPage returns the lowest page index not yet committed.
func (s *State) NextPage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.next
}
