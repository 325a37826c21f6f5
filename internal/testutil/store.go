package testutil

import (
	"context"
	"sort"
	"sync"

	ierr "github.com/flexprice/coupon-service/internal/errors"
	"github.com/flexprice/coupon-service/internal/types"
)

// FilterFunc is a generic filter function type
type FilterFunc[T any] func(ctx context.Context, item T, filter interface{}) bool

// SortFunc is a generic sort function type
type SortFunc[T any] func(i, j T) bool

// InMemoryStore implements a generic in-memory store keyed by K
type InMemoryStore[K comparable, T any] struct {
	mu    sync.RWMutex
	items map[K]T
}

// NewInMemoryStore creates a new InMemoryStore
func NewInMemoryStore[K comparable, T any]() *InMemoryStore[K, T] {
	return &InMemoryStore[K, T]{
		items: make(map[K]T),
	}
}

// Create adds a new item to the store
func (s *InMemoryStore[K, T]) Create(ctx context.Context, id K, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; exists {
		return ierr.NewError("item already exists").
			WithReportableDetails(map[string]any{"id": id}).
			Mark(ierr.ErrAlreadyExists)
	}

	s.items[id] = item
	return nil
}

// Get retrieves an item by ID
func (s *InMemoryStore[K, T]) Get(ctx context.Context, id K) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[id]; exists {
		return item, nil
	}

	var zero T
	return zero, ierr.NewError("item not found").
		WithHint(ierr.MsgNotFound).
		WithReportableDetails(map[string]any{"id": id}).
		Mark(ierr.ErrNotFound)
}

// List retrieves items based on filter. Pagination applies when filter implements types.BaseFilter.
func (s *InMemoryStore[K, T]) List(ctx context.Context, filter interface{}, filterFn FilterFunc[T], sortFn SortFunc[T]) ([]T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]T, 0)
	for _, item := range s.items {
		if filterFn == nil || filterFn(ctx, item, filter) {
			result = append(result, item)
		}
	}

	if sortFn != nil {
		sort.Slice(result, func(i, j int) bool {
			return sortFn(result[i], result[j])
		})
	}

	f, ok := filter.(types.BaseFilter)
	if !ok {
		return result, nil
	}

	start := f.GetOffset()
	if start >= len(result) {
		return []T{}, nil
	}
	if f.IsUnlimited() {
		return result[start:], nil
	}

	end := start + f.GetLimit()
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], nil
}

// Count returns the total number of items matching the filter
func (s *InMemoryStore[K, T]) Count(ctx context.Context, filter interface{}, filterFn FilterFunc[T]) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.items {
		if filterFn == nil || filterFn(ctx, item, filter) {
			count++
		}
	}

	return count, nil
}

// Update replaces an existing item
func (s *InMemoryStore[K, T]) Update(ctx context.Context, id K, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return ierr.NewError("item not found").
			WithHint(ierr.MsgNotFound).
			WithReportableDetails(map[string]any{"id": id}).
			Mark(ierr.ErrNotFound)
	}

	s.items[id] = item
	return nil
}

// Mutate applies fn to every item under a single write lock. Items for which
// fn returns true are stored back.
func (s *InMemoryStore[K, T]) Mutate(fn func(id K, item T) (T, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, item := range s.items {
		if updated, ok := fn(id, item); ok {
			s.items[id] = updated
		}
	}
}

// Clear removes all items from the store
func (s *InMemoryStore[K, T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[K]T)
}
