package taskstore

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Entries expire lazily on access and the
// least recently used entry is evicted once capacity is exceeded.
type MemoryStore struct {
	capacity int
	entries  map[string]*list.Element
	lru      *list.List
	now      func() time.Time
	mu       sync.Mutex
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates a store holding at most capacity entries.
// A capacity of zero or less means unbounded.
func NewMemoryStore(capacity int, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores a copy of value under key until ttl elapses.
func (s *MemoryStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	entry := &memoryEntry{
		key:       key,
		value:     append([]byte(nil), value...),
		expiresAt: now.Add(ttl),
	}
	if elem, ok := s.entries[key]; ok {
		elem.Value = entry
		s.lru.MoveToFront(elem)
		return nil
	}
	s.entries[key] = s.lru.PushFront(entry)

	if s.capacity > 0 && s.lru.Len() > s.capacity {
		if oldest := s.lru.Back(); oldest != nil {
			s.removeLocked(oldest)
		}
	}
	return nil
}

// Get returns the value stored under key.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	entry := elem.Value.(*memoryEntry)
	if !s.now().Before(entry.expiresAt) {
		s.removeLocked(elem)
		return nil, ErrNotFound
	}
	s.lru.MoveToFront(elem)
	return append([]byte(nil), entry.value...), nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem, ok := s.entries[key]; ok {
		s.removeLocked(elem)
	}
	return nil
}

// Len returns the number of entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close drops every entry.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*list.Element)
	s.lru.Init()
	return nil
}

func (s *MemoryStore) pruneLocked(now time.Time) {
	for elem := s.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if !now.Before(elem.Value.(*memoryEntry).expiresAt) {
			s.removeLocked(elem)
		}
		elem = prev
	}
}

func (s *MemoryStore) removeLocked(elem *list.Element) {
	s.lru.Remove(elem)
	delete(s.entries, elem.Value.(*memoryEntry).key)
}
