// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/nnizic/unipu-ds/internal/model"
)

// DefaultListLimit bounds FindAll when the caller passes a non-positive limit.
const DefaultListLimit int64 = 1000

// Store errors.
var (
	ErrNotFound  = errors.New("item not found")
	ErrInvalidID = errors.New("invalid item ID")
)

// Store defines the persistence operations for items.
type Store interface {
	// Insert stores a new item and returns the identifier assigned by the store.
	Insert(ctx context.Context, item model.NewItem) (string, error)

	// FindAll returns up to limit items in store order.
	FindAll(ctx context.Context, limit int64) ([]model.Item, error)

	// FindByID retrieves an item by its ID. Malformed IDs yield ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Item, error)

	// UpdateByID merges the present patch fields into the item and returns the result.
	// An empty patch is a plain read.
	UpdateByID(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error)

	// DeleteByID removes an item and returns the number of removed items (0 or 1).
	DeleteByID(ctx context.Context, id string) (int64, error)

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
