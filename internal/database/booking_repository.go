package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eventmart/commerce-backend/internal/models"
)

// BookingRepository handles event_bookings database operations
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// BeginTx starts a transaction for the payment completion flow
func (r *BookingRepository) BeginTx() (*sqlx.Tx, error) {
	return r.db.Beginx()
}

// ============================================================================
// BOOKING CRUD OPERATIONS
// ============================================================================

// Create inserts a new pending booking
func (r *BookingRepository) Create(booking *models.EventBooking) error {
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt

	query := `
		INSERT INTO event_bookings (
			order_id, order_number, user_id, event_id, booking_date,
			buyer_details, ticket_details, number_of_tickets, ticket_price,
			offer_discount_amount, total_price, payment_details, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)`

	_, err := r.db.Exec(query,
		booking.OrderID, booking.OrderNumber, booking.UserID, booking.EventID, booking.BookingDate,
		booking.BuyerDetails, booking.TicketDetails, booking.NumberOfTickets, booking.TicketPrice,
		booking.OfferDiscountAmount, booking.TotalPrice, booking.PaymentDetails,
		booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

// GetByOrderID retrieves a booking by its internal order id. Returns nil when not found.
func (r *BookingRepository) GetByOrderID(orderID string) (*models.EventBooking, error) {
	query := `
		SELECT order_id, order_number, user_id, event_id, booking_date,
			   buyer_details, ticket_details, number_of_tickets, ticket_price,
			   offer_discount_amount, total_price, payment_details, created_at, updated_at
		FROM event_bookings
		WHERE order_id = $1`

	var booking models.EventBooking
	err := r.db.Get(&booking, query, orderID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListByUser returns a user's bookings, newest first
func (r *BookingRepository) ListByUser(userID uuid.UUID) ([]models.EventBooking, error) {
	query := `
		SELECT order_id, order_number, user_id, event_id, booking_date,
			   buyer_details, ticket_details, number_of_tickets, ticket_price,
			   offer_discount_amount, total_price, payment_details, created_at, updated_at
		FROM event_bookings
		WHERE user_id = $1
		ORDER BY created_at DESC`

	var bookings []models.EventBooking
	err := r.db.Select(&bookings, query, userID)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListByEvent returns completed bookings for an event, for the organizer view
func (r *BookingRepository) ListByEvent(eventID uuid.UUID) ([]models.EventBooking, error) {
	query := `
		SELECT order_id, order_number, user_id, event_id, booking_date,
			   buyer_details, ticket_details, number_of_tickets, ticket_price,
			   offer_discount_amount, total_price, payment_details, created_at, updated_at
		FROM event_bookings
		WHERE event_id = $1 AND payment_details->>'payment_status' = 'completed'
		ORDER BY created_at DESC`

	var bookings []models.EventBooking
	err := r.db.Select(&bookings, query, eventID)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ============================================================================
// PAYMENT LIFECYCLE
// ============================================================================

// MarkCompleted flips the payment status pending -> completed. The
// status check sits in the WHERE clause, so a second verification of
// the same order updates zero rows and reports false.
func (r *BookingRepository) MarkCompleted(tx *sqlx.Tx, orderID, gatewayPaymentID string) (bool, error) {
	query := `
		UPDATE event_bookings
		SET payment_details = payment_details
				|| jsonb_build_object('payment_status', 'completed', 'gateway_payment_id', $2::text),
			updated_at = NOW()
		WHERE order_id = $1
		  AND payment_details->>'payment_status' = 'pending'`

	result, err := tx.Exec(query, orderID, gatewayPaymentID)
	if err != nil {
		return false, fmt.Errorf("failed to mark booking completed: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// MarkExpiredOlderThan expires pending bookings created before cutoff.
// Used by the reconciliation sweep; returns the number expired.
func (r *BookingRepository) MarkExpiredOlderThan(cutoff time.Time) (int, error) {
	query := `
		UPDATE event_bookings
		SET payment_details = jsonb_set(payment_details, '{payment_status}', '"expired"'),
			updated_at = NOW()
		WHERE payment_details->>'payment_status' = 'pending'
		  AND created_at < $1`

	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale bookings: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	return int(rowsAffected), nil
}
