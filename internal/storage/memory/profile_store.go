// Package memory provides an in-memory ProfileStore for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/mwhitfield/ria-analyst/internal/ria"
)

// ProfileStore keeps profiles in a map guarded by a RWMutex.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]ria.Profile
}

// NewProfileStore creates an empty store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[string]ria.Profile)}
}

// Create stores a new profile.
func (s *ProfileStore) Create(_ context.Context, p ria.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
	return nil
}

// Get returns the profile for an ID.
func (s *ProfileStore) Get(_ context.Context, id string) (ria.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return ria.Profile{}, ria.ErrProfileNotFound
	}
	return p, nil
}

// Update replaces a stored profile.
func (s *ProfileStore) Update(_ context.Context, p ria.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.ID]; !ok {
		return ria.ErrProfileNotFound
	}
	s.profiles[p.ID] = p
	return nil
}

// Close is a no-op for the in-memory store.
func (s *ProfileStore) Close() {}
