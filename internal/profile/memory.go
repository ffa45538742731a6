package profile

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gravitas-games/stashkeeper/pkg/models"
)

// MemoryStore keeps encoded profiles in a map. Storing the encoded form
// makes every Get return an independent copy.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string][]byte
	codec    *Codec
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(codec *Codec) *MemoryStore {
	return &MemoryStore{profiles: make(map[string][]byte), codec: codec}
}

// Get retrieves a profile by id.
func (s *MemoryStore) Get(_ context.Context, id string) (*models.Profile, error) {
	s.mu.RLock()
	data, exists := s.profiles[id]
	s.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.codec.Decode(data)
}

// Save stores a copy of p and stamps UpdatedAt.
func (s *MemoryStore) Save(_ context.Context, p *models.Profile) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("profile: cannot save profile without id")
	}
	p.UpdatedAt = time.Now().UTC()
	data, err := s.codec.Encode(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = data
	return nil
}

// List returns all stored ids.
func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.profiles))
	for id := range s.profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close does nothing.
func (s *MemoryStore) Close() error { return nil }
