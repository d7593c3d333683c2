package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductStatus matches PostgreSQL ENUM: product_status
type ProductStatus string

const (
	ProductStatusDraft   ProductStatus = "draft"
	ProductStatusActive  ProductStatus = "active"
	ProductStatusArchive ProductStatus = "archive"
)

// VariantStatus matches PostgreSQL ENUM: variant_status
type VariantStatus string

const (
	VariantStatusActive   VariantStatus = "ACTIVE"
	VariantStatusInactive VariantStatus = "INACTIVE"
)

// PromoterStatus matches PostgreSQL ENUM: promoter_status
type PromoterStatus string

const (
	PromoterStatusActive  PromoterStatus = "ACTIVE"
	PromoterStatusRemoved PromoterStatus = "REMOVED"
)

// Product represents a sellable product (products table). Variants carry
// the prices and stock; the product carries the aggregate sold counter
// and the optional offer.
type Product struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	UserID       uuid.UUID     `json:"user_id" db:"user_id"`
	Title        string        `json:"title" db:"title"`
	Description  string        `json:"description" db:"description"`
	Categories   StringSlice   `json:"categories" db:"categories"`
	Status       ProductStatus `json:"status" db:"status"`
	ProductsSold int           `json:"products_sold" db:"products_sold"`
	Offer        *Offer        `json:"offer,omitempty" db:"offer"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// Variant is a priceable unit of a product (variants table).
type Variant struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	ProductID  uuid.UUID     `json:"product_id" db:"product_id"`
	Name       string        `json:"name" db:"name"`
	Price      float64       `json:"price" db:"price"`
	TotalStock int           `json:"total_stock" db:"total_stock"`
	ItemsSold  int           `json:"items_sold" db:"items_sold"`
	Status     VariantStatus `json:"status" db:"status"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}

// Promoter markets a product for a commission (promoters table).
type Promoter struct {
	ID                uuid.UUID      `json:"id" db:"id"`
	ProductID         uuid.UUID      `json:"product_id" db:"product_id"`
	Name              string         `json:"name" db:"name"`
	Email             string         `json:"email" db:"email"`
	CommissionPercent float64        `json:"commission_percent" db:"commission_percent"`
	Status            PromoterStatus `json:"status" db:"status"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// CartItem is one variant held in a user's cart (cart_items table).
type CartItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	VariantID uuid.UUID `json:"variant_id" db:"variant_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProductSortOrder enumerates the supported listing sorts.
type ProductSortOrder string

const (
	SortPopular   ProductSortOrder = "popular"
	SortNewest    ProductSortOrder = "newest"
	SortOldest    ProductSortOrder = "oldest"
	SortHighToLow ProductSortOrder = "high_to_low"
	SortLowToHigh ProductSortOrder = "low_to_high"
)

// ProductFilters narrows the product listing.
type ProductFilters struct {
	Category string
	PriceMin *float64
	PriceMax *float64
	Search   string // case-insensitive title match
}
