package images

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store used in tests and local development.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Image
}

// NewMemoryStore creates an empty in-memory image store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Image)}
}

// Insert stores a new image record.
func (s *MemoryStore) Insert(_ context.Context, img Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[img.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, img.ID)
	}
	for _, existing := range s.items {
		if existing.ImageURL == img.ImageURL {
			return fmt.Errorf("%w: %s", ErrDuplicate, img.ImageURL)
		}
	}
	s.items[img.ID] = img
	return nil
}

// Get returns the image record with the given id.
func (s *MemoryStore) Get(_ context.Context, id string) (Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.items[id]
	if !ok {
		return Image{}, ErrNotFound
	}
	return img, nil
}

// List returns all image records ordered by creation time.
func (s *MemoryStore) List(_ context.Context) ([]Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Image, 0, len(s.items))
	for _, img := range s.items {
		items = append(items, img)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

// Update persists the mutable fields of an existing record.
func (s *MemoryStore) Update(_ context.Context, img Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[img.ID]; !ok {
		return ErrNotFound
	}
	s.items[img.ID] = img
	return nil
}

// Delete removes the record with the given id.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}
