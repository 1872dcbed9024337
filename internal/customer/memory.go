package customer

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// MemoryStore keeps customers in a map. The zero value is not usable; call
// NewMemoryStore.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[int64]Customer
	lastID int64
}

// NewMemoryStore returns an empty store, seeded with the given customers
// as if each had been passed to Save in order.
func NewMemoryStore(seed ...Customer) *MemoryStore {
	s := &MemoryStore{items: make(map[int64]Customer)}
	for i := range seed {
		s.save(seed[i])
	}
	return s
}

func (s *MemoryStore) FindAll(_ context.Context) ([]Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Customer, 0, len(s.items))
	for _, c := range s.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int64) (*Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) Save(_ context.Context, c *Customer) (*Customer, error) {
	if c == nil {
		return nil, errors.New("save customer: nil customer")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saved := s.save(*c)
	return &saved, nil
}

// save must be called with mu held (or before the store is shared).
func (s *MemoryStore) save(c Customer) Customer {
	if c.ID == 0 {
		s.lastID++
		c.ID = s.lastID
	} else if c.ID > s.lastID {
		s.lastID = c.ID
	}
	s.items[c.ID] = c
	return c
}

func (s *MemoryStore) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, id)
	return nil
}

var _ Store = (*MemoryStore)(nil)
