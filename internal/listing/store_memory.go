package listing

import (
	"context"
	"sync"
)

// MemStore keeps listings oldest-first internally so that InsertFront is an
// append; readers walk the slice backwards.
type MemStore struct {
	mu    sync.RWMutex
	items []Listing
	byID  map[string]int
}

func NewMemStore() *MemStore {
	return &MemStore{byID: map[string]int{}}
}

// NewStore returns a memory store holding the demo catalog.
func NewStore() *MemStore {
	s := NewMemStore()
	_ = Seed(context.Background(), s)
	return s
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) InsertFront(ctx context.Context, l Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[l.ID]; ok {
		return ErrDuplicateID
	}
	s.byID[l.ID] = len(s.items)
	s.items = append(s.items, l)
	return nil
}

func (s *MemStore) Snapshot(ctx context.Context) ([]Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Listing, 0, len(s.items))
	for i := len(s.items) - 1; i >= 0; i-- {
		out = append(out, s.items[i])
	}
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id string) (Listing, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return Listing{}, false, nil
	}
	return s.items[i], true, nil
}

func (s *MemStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}

	copy(s.items[i:], s.items[i+1:])
	s.items[len(s.items)-1] = Listing{}
	s.items = s.items[:len(s.items)-1]

	delete(s.byID, id)
	for j := i; j < len(s.items); j++ {
		s.byID[s.items[j].ID] = j
	}
	return nil
}

func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
