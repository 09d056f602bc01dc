package memory

import (
	"container/list"
	"context"
	"sort"
	"sync"

	"github.com/aretw0/parsetrail/pkg/domain"
)

// Store implements ports.SessionStore in memory.
// With a capacity set it evicts the least recently used session once full,
// which keeps a long-running server bounded when browsers never clean up.
// Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	recency  *list.List // front is most recently used
}

type entry struct {
	id      string
	session *domain.Session
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCapacity bounds the number of sessions kept; zero or less means unbounded.
func WithCapacity(n int) StoreOption {
	return func(s *Store) {
		s.capacity = n
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		items:   make(map[string]*list.Element),
		recency: list.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save keeps a private copy of the session.
func (s *Store) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	copied := session.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[sessionID]; ok {
		el.Value.(*entry).session = copied
		s.recency.MoveToFront(el)
		return nil
	}

	s.items[sessionID] = s.recency.PushFront(&entry{id: sessionID, session: copied})
	for s.capacity > 0 && s.recency.Len() > s.capacity {
		oldest := s.recency.Back()
		s.recency.Remove(oldest)
		delete(s.items, oldest.Value.(*entry).id)
	}
	return nil
}

// Load returns a copy so callers can't mutate store state through the pointer.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s.recency.MoveToFront(el)
	return el.Value.(*entry).session.Clone(), nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[sessionID]; ok {
		s.recency.Remove(el)
		delete(s.items, sessionID)
	}
	return nil
}

// List returns stored session IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]string, 0, len(s.items))
	for id := range s.items {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)
	return sessions, nil
}

// Len reports how many sessions are held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recency.Len()
}
