// Package service implements the item CRUD operations on top of a store.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/nnizic/unipu-ds/internal/model"
	"github.com/nnizic/unipu-ds/internal/store"
)

const tracerName = "github.com/nnizic/unipu-ds/internal/service"

// NotFoundError reports that no item exists under ID, or that ID is malformed.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("item %s not found", e.ID)
}

// Unwrap lets errors.Is match store.ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return store.ErrNotFound
}

// ValidationError wraps a rejected request payload.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ItemService exposes create, list, read, update and delete for items.
// Every call performs exactly one store operation and keeps no state between calls.
type ItemService struct {
	store     store.Store
	listLimit int64
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewItemService creates a new ItemService. A non-positive listLimit
// falls back to store.DefaultListLimit.
func NewItemService(s store.Store, listLimit int64, logger *zap.Logger) *ItemService {
	if listLimit <= 0 {
		listLimit = store.DefaultListLimit
	}
	return &ItemService{
		store:     s,
		listLimit: listLimit,
		logger:    logger.With(zap.String("service", "items")),
		tracer:    otel.Tracer(tracerName),
	}
}

// Create validates req and stores a new item. Identical requests create distinct items.
func (s *ItemService) Create(ctx context.Context, req model.CreateItemRequest) (*model.Item, error) {
	ctx, span := s.tracer.Start(ctx, "item.create")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, fail(span, &ValidationError{Err: err})
	}

	candidate := req.ToNewItem()
	id, err := s.store.Insert(ctx, candidate)
	if err != nil {
		return nil, fail(span, fmt.Errorf("create item: %w", err))
	}

	span.SetAttributes(attribute.String("item.id", id))
	s.logger.Debug("item created", zap.String("item_id", id))

	return &model.Item{
		ID:          id,
		Name:        candidate.Name,
		Description: candidate.Description,
	}, nil
}

// List returns up to the configured limit of items. An empty store yields an empty slice.
func (s *ItemService) List(ctx context.Context) ([]model.Item, error) {
	ctx, span := s.tracer.Start(ctx, "item.list")
	defer span.End()

	items, err := s.store.FindAll(ctx, s.listLimit)
	if err != nil {
		return nil, fail(span, fmt.Errorf("list items: %w", err))
	}
	if items == nil {
		items = []model.Item{}
	}

	span.SetAttributes(attribute.Int("item.count", len(items)))
	return items, nil
}

// Get returns the item stored under id.
func (s *ItemService) Get(ctx context.Context, id string) (*model.Item, error) {
	ctx, span := s.tracer.Start(ctx, "item.get", trace.WithAttributes(attribute.String("item.id", id)))
	defer span.End()

	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, s.translate(err, id, "get item"))
	}

	return item, nil
}

// Update merges the present fields of patch into the item stored under id.
// An empty patch returns the current item unchanged.
func (s *ItemService) Update(ctx context.Context, id string, patch model.ItemPatch) (*model.Item, error) {
	ctx, span := s.tracer.Start(ctx, "item.update", trace.WithAttributes(attribute.String("item.id", id)))
	defer span.End()

	if err := patch.Validate(); err != nil {
		return nil, fail(span, &ValidationError{Err: err})
	}

	item, err := s.store.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, fail(span, s.translate(err, id, "update item"))
	}

	if !patch.IsEmpty() {
		s.logger.Debug("item updated", zap.String("item_id", id))
	}

	return item, nil
}

// Delete removes the item stored under id.
func (s *ItemService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "item.delete", trace.WithAttributes(attribute.String("item.id", id)))
	defer span.End()

	count, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return fail(span, s.translate(err, id, "delete item"))
	}
	if count == 0 {
		return fail(span, &NotFoundError{ID: id})
	}

	s.logger.Debug("item deleted", zap.String("item_id", id))
	return nil
}

// Ready reports whether the underlying store is reachable.
func (s *ItemService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *ItemService) translate(err error, id, operation string) error {
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{ID: id}
	}
	return fmt.Errorf("%s %s: %w", operation, id, err)
}

func fail(span trace.Span, err error) error {
	var notFound *NotFoundError
	var invalid *ValidationError
	if errors.As(err, &notFound) || errors.As(err, &invalid) {
		span.SetAttributes(attribute.String("item.error", err.Error()))
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
