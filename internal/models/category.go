package models

import (
	"time"

	"github.com/google/uuid"
)

// CategoryType matches PostgreSQL ENUM: category_type
type CategoryType string

const (
	CategoryTypeEvent   CategoryType = "event"
	CategoryTypeProduct CategoryType = "product"
)

// Category is a browse taxonomy entry (categories table).
type Category struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	Name      string       `json:"name" db:"name"`
	Type      CategoryType `json:"type" db:"type"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

// CreateCategoryRequest is the payload for POST /api/v1/categories.
type CreateCategoryRequest struct {
	Name string       `json:"name"`
	Type CategoryType `json:"type"`
}
