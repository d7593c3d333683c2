package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus tracks a pending transaction through payment completion.
// Matches PostgreSQL ENUM: payment_status
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusExpired   PaymentStatus = "expired"
)

// TransactionType distinguishes event bookings from product orders.
type TransactionType string

const (
	TransactionTypeEvent   TransactionType = "event"
	TransactionTypeProduct TransactionType = "product"
)

// TicketRequest is one (ticket category, quantity) pair of a booking
// request. Slice order is significant: the offer evaluator consumes the
// discount cap in exactly this order.
type TicketRequest struct {
	CategoryName string `json:"category_name"`
	Quantity     int    `json:"quantity"`
}

// TicketRequests is stored as a JSONB snapshot on the booking.
type TicketRequests []TicketRequest

func (t TicketRequests) Value() (driver.Value, error) {
	return json.Marshal(t)
}

func (t *TicketRequests) Scan(value interface{}) error {
	if value == nil {
		*t = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed for TicketRequests")
	}
	return json.Unmarshal(bytes, t)
}

// TotalQuantity sums requested quantities across all categories.
func (t TicketRequests) TotalQuantity() int {
	total := 0
	for _, req := range t {
		total += req.Quantity
	}
	return total
}

// BuyerDetails is the buyer snapshot captured at booking time.
type BuyerDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

func (b BuyerDetails) Value() (driver.Value, error) {
	return json.Marshal(b)
}

func (b *BuyerDetails) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed for BuyerDetails")
	}
	return json.Unmarshal(bytes, b)
}

// PaymentDetails links a pending transaction to the external gateway.
type PaymentDetails struct {
	GatewayOrderID   string          `json:"gateway_order_id"`
	GatewayPaymentID string          `json:"gateway_payment_id"`
	PaymentStatus    PaymentStatus   `json:"payment_status"`
	TransactionType  TransactionType `json:"transaction_type"`
}

func (p PaymentDetails) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PaymentDetails) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed for PaymentDetails")
	}
	return json.Unmarshal(bytes, p)
}

// EventBooking is the pending transaction created for an event purchase
// (event_bookings table). Created with payment status pending, flipped
// to completed exactly once by the payment verification flow. Never
// deleted by this service.
type EventBooking struct {
	OrderID       string         `json:"order_id" db:"order_id"`
	OrderNumber   string         `json:"order_number" db:"order_number"`
	UserID        uuid.UUID      `json:"user_id" db:"user_id"`
	EventID       uuid.UUID      `json:"event_id" db:"event_id"`
	BookingDate   time.Time      `json:"booking_date" db:"booking_date"`
	BuyerDetails  BuyerDetails   `json:"buyer_details" db:"buyer_details"`
	TicketDetails TicketRequests `json:"ticket_details" db:"ticket_details"`

	NumberOfTickets     int     `json:"number_of_tickets" db:"number_of_tickets"`
	TicketPrice         float64 `json:"ticket_price" db:"ticket_price"`
	OfferDiscountAmount float64 `json:"offer_discount_amount" db:"offer_discount_amount"`
	TotalPrice          float64 `json:"total_price" db:"total_price"`

	PaymentDetails PaymentDetails `json:"payment_details" db:"payment_details"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// BookEventRequest is the payload for POST /api/v1/events/book.
type BookEventRequest struct {
	BookingDate   *time.Time     `json:"booking_date"`
	BuyerDetails  *BuyerDetails  `json:"buyer_details"`
	EventID       string         `json:"event_id"`
	TicketDetails TicketRequests `json:"ticket_details"`
}

// VerifyPaymentRequest is the payload for POST /api/v1/events/verify
// and POST /api/v1/product/verify.
type VerifyPaymentRequest struct {
	OrderID          string `json:"order_id"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	GatewaySignature string `json:"gateway_signature"`
}

// Validate reports the missing attributes, in field order.
func (r *VerifyPaymentRequest) Validate() []string {
	var missing []string
	if r.OrderID == "" {
		missing = append(missing, "order_id")
	}
	if r.GatewayOrderID == "" {
		missing = append(missing, "gateway_order_id")
	}
	if r.GatewayPaymentID == "" {
		missing = append(missing, "gateway_payment_id")
	}
	if r.GatewaySignature == "" {
		missing = append(missing, "gateway_signature")
	}
	return missing
}

// BookingConfirmation is returned to the caller after a pending
// transaction has been created; payment completes out-of-band.
type BookingConfirmation struct {
	OrderID        string  `json:"order_id"`
	OrderNumber    string  `json:"order_number"`
	GatewayOrderID string  `json:"gateway_order_id"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
}
