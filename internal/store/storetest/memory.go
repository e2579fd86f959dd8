// Package storetest provides an in-memory store.Store for tests.
package storetest

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nnizic/unipu-ds/internal/model"
	"github.com/nnizic/unipu-ds/internal/store"
)

// MemoryStore implements store.Store with a map and an insertion-ordered index.
// Identifiers are ObjectIDs so malformed-id handling matches MongoStore.
type MemoryStore struct {
	mu    sync.RWMutex
	order []primitive.ObjectID
	items map[primitive.ObjectID]model.Item

	// PingErr is returned by Ping when set.
	PingErr error
}

var _ store.Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[primitive.ObjectID]model.Item),
	}
}

// Insert stores a new item under a fresh ObjectID.
func (s *MemoryStore) Insert(ctx context.Context, item model.NewItem) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("insert item: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	oid := primitive.NewObjectID()
	s.items[oid] = model.Item{
		ID:          oid.Hex(),
		Name:        item.Name,
		Description: item.Description,
	}
	s.order = append(s.order, oid)

	return oid.Hex(), nil
}

// FindAll returns up to limit items in insertion order.
func (s *MemoryStore) FindAll(ctx context.Context, limit int64) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}

	if limit <= 0 {
		limit = store.DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]model.Item, 0, min(int64(len(s.order)), limit))
	for _, oid := range s.order {
		if int64(len(items)) >= limit {
			break
		}
		items = append(items, s.items[oid])
	}

	return items, nil
}

// FindByID retrieves an item by its hex ObjectID.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (*model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("find item: %w", err)
	}

	oid, err := store.ParseID(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[oid]
	if !exists {
		return nil, store.ErrNotFound
	}

	return &item, nil
}

// UpdateByID merges the present patch fields into an existing item.
func (s *MemoryStore) UpdateByID(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	oid, err := store.ParseID(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.items[oid]
	if !exists {
		return nil, store.ErrNotFound
	}

	updated := patch.Apply(existing)
	s.items[oid] = updated

	return &updated, nil
}

// DeleteByID removes an item and returns 1 if it existed.
func (s *MemoryStore) DeleteByID(ctx context.Context, id string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("delete item: %w", err)
	}

	oid, err := store.ParseID(id)
	if err != nil {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[oid]; !exists {
		return 0, nil
	}

	delete(s.items, oid)
	for i, o := range s.order {
		if o == oid {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	return 1, nil
}

// Ping returns PingErr.
func (s *MemoryStore) Ping(_ context.Context) error {
	return s.PingErr
}

// Len returns the number of stored items.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
