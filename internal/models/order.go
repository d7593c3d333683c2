package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// OrderItem is one (variant, quantity) pair of a product order. Slice
// order is significant for discount eligibility checks.
type OrderItem struct {
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int       `json:"quantity"`
}

// OrderItems is stored as a JSONB snapshot on the order.
type OrderItems []OrderItem

func (o OrderItems) Value() (driver.Value, error) {
	return json.Marshal(o)
}

func (o *OrderItems) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed for OrderItems")
	}
	return json.Unmarshal(bytes, o)
}

// TotalQuantity sums requested quantities across all variants.
func (o OrderItems) TotalQuantity() int {
	total := 0
	for _, item := range o {
		total += item.Quantity
	}
	return total
}

// ShippingDetails is the delivery snapshot captured at order time.
type ShippingDetails struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code,omitempty"`
}

func (s ShippingDetails) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *ShippingDetails) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed for ShippingDetails")
	}
	return json.Unmarshal(bytes, s)
}

// Order is the pending transaction created for a product purchase
// (orders table). Same lifecycle as EventBooking: created pending,
// flipped to completed exactly once by payment verification.
type Order struct {
	OrderID         string          `json:"order_id" db:"order_id"`
	OrderNumber     string          `json:"order_number" db:"order_number"`
	UserID          uuid.UUID       `json:"user_id" db:"user_id"`
	ProductID       uuid.UUID       `json:"product_id" db:"product_id"`
	ShippingDetails ShippingDetails `json:"shipping_details" db:"shipping_details"`
	Items           OrderItems      `json:"items" db:"items"`

	NumberOfItems       int     `json:"number_of_items" db:"number_of_items"`
	ItemsPrice          float64 `json:"items_price" db:"items_price"`
	OfferDiscountAmount float64 `json:"offer_discount_amount" db:"offer_discount_amount"`
	TotalPrice          float64 `json:"total_price" db:"total_price"`

	PaymentDetails PaymentDetails `json:"payment_details" db:"payment_details"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// PlaceOrderRequest is the payload for POST /api/v1/product/order.
type PlaceOrderRequest struct {
	ProductID       string           `json:"product_id"`
	ShippingDetails *ShippingDetails `json:"shipping_details"`
	Items           OrderItems       `json:"items"`
}
