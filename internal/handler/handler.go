// Package handler provides HTTP request handlers for the item API.
package handler

import (
	"context"

	"github.com/nnizic/unipu-ds/internal/model"
)

// Version is the application version.
const Version = "1.0.0"

// ItemService is the CRUD surface the REST handler drives.
type ItemService interface {
	Create(ctx context.Context, req model.CreateItemRequest) (*model.Item, error)
	List(ctx context.Context) ([]model.Item, error)
	Get(ctx context.Context, id string) (*model.Item, error)
	Update(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error)
	Delete(ctx context.Context, id string) error
	Ready(ctx context.Context) error
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status string `json:"status"`
}
