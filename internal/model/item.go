// Package model defines data structures used throughout the application.
package model

import (
	"errors"
)

// Validation errors for Item payloads.
var (
	ErrMissingName        = errors.New("name is required")
	ErrEmptyName          = errors.New("name cannot be empty")
	ErrNameTooLong        = errors.New("name cannot exceed 255 characters")
	ErrMissingDescription = errors.New("description is required")
	ErrDescriptionLimit   = errors.New("description cannot exceed 1000 characters")
)

// Validation constants.
const (
	MaxNameLength        = 255
	MaxDescriptionLength = 1000
)

// Item is a stored item as exposed on the wire.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NewItem is a validated item candidate ready to be inserted.
type NewItem struct {
	Name        string
	Description string
}

// CreateItemRequest is the body of a create request.
// Pointer fields distinguish an absent or null field from an empty string.
type CreateItemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Validate checks that both fields are present and within limits.
func (r *CreateItemRequest) Validate() error {
	if r.Name == nil {
		return ErrMissingName
	}

	if err := validateName(*r.Name); err != nil {
		return err
	}

	if r.Description == nil {
		return ErrMissingDescription
	}

	return validateDescription(*r.Description)
}

// ToNewItem converts a validated request into an insert candidate.
// Call Validate first; absent fields become empty strings.
func (r *CreateItemRequest) ToNewItem() NewItem {
	var item NewItem
	if r.Name != nil {
		item.Name = *r.Name
	}
	if r.Description != nil {
		item.Description = *r.Description
	}
	return item
}

// ItemPatch is a merge-patch for an item. A nil field is left untouched;
// JSON null decodes to nil and is therefore treated as absent.
type ItemPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Validate checks the fields that are present.
func (p *ItemPatch) Validate() error {
	if p.Name != nil {
		if err := validateName(*p.Name); err != nil {
			return err
		}
	}

	if p.Description != nil {
		return validateDescription(*p.Description)
	}

	return nil
}

// IsEmpty reports whether the patch sets no field at all.
func (p *ItemPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil
}

// Apply returns a copy of item with the present fields of the patch merged in.
func (p *ItemPatch) Apply(item Item) Item {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	return item
}

func validateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return ErrDescriptionLimit
	}
	return nil
}

// ItemList is the response body of the list endpoint.
type ItemList struct {
	Items []Item `json:"items"`
}

// NewItemList wraps items, never producing a null JSON array.
func NewItemList(items []Item) ItemList {
	if items == nil {
		items = []Item{}
	}
	return ItemList{Items: items}
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// StringPtr returns a pointer to s. Handy for building requests and patches.
func StringPtr(s string) *string {
	return &s
}
