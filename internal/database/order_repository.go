package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eventmart/commerce-backend/internal/models"
)

// OrderRepository handles orders database operations
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// BeginTx starts a transaction for the payment completion flow
func (r *OrderRepository) BeginTx() (*sqlx.Tx, error) {
	return r.db.Beginx()
}

// ============================================================================
// ORDER CRUD OPERATIONS
// ============================================================================

// Create inserts a new pending order
func (r *OrderRepository) Create(order *models.Order) error {
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt

	query := `
		INSERT INTO orders (
			order_id, order_number, user_id, product_id, shipping_details,
			items, number_of_items, items_price, offer_discount_amount,
			total_price, payment_details, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)`

	_, err := r.db.Exec(query,
		order.OrderID, order.OrderNumber, order.UserID, order.ProductID, order.ShippingDetails,
		order.Items, order.NumberOfItems, order.ItemsPrice, order.OfferDiscountAmount,
		order.TotalPrice, order.PaymentDetails, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// GetByOrderID retrieves an order by its internal order id. Returns nil when not found.
func (r *OrderRepository) GetByOrderID(orderID string) (*models.Order, error) {
	query := `
		SELECT order_id, order_number, user_id, product_id, shipping_details,
			   items, number_of_items, items_price, offer_discount_amount,
			   total_price, payment_details, created_at, updated_at
		FROM orders
		WHERE order_id = $1`

	var order models.Order
	err := r.db.Get(&order, query, orderID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns a user's orders, newest first
func (r *OrderRepository) ListByUser(userID uuid.UUID) ([]models.Order, error) {
	query := `
		SELECT order_id, order_number, user_id, product_id, shipping_details,
			   items, number_of_items, items_price, offer_discount_amount,
			   total_price, payment_details, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`

	var orders []models.Order
	err := r.db.Select(&orders, query, userID)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListByProduct returns completed orders for a product, for the seller view
func (r *OrderRepository) ListByProduct(productID uuid.UUID) ([]models.Order, error) {
	query := `
		SELECT order_id, order_number, user_id, product_id, shipping_details,
			   items, number_of_items, items_price, offer_discount_amount,
			   total_price, payment_details, created_at, updated_at
		FROM orders
		WHERE product_id = $1 AND payment_details->>'payment_status' = 'completed'
		ORDER BY created_at DESC`

	var orders []models.Order
	err := r.db.Select(&orders, query, productID)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ============================================================================
// PAYMENT LIFECYCLE
// ============================================================================

// MarkCompleted flips the payment status pending -> completed. Zero
// rows affected means the order was already finalized or expired.
func (r *OrderRepository) MarkCompleted(tx *sqlx.Tx, orderID, gatewayPaymentID string) (bool, error) {
	query := `
		UPDATE orders
		SET payment_details = payment_details
				|| jsonb_build_object('payment_status', 'completed', 'gateway_payment_id', $2::text),
			updated_at = NOW()
		WHERE order_id = $1
		  AND payment_details->>'payment_status' = 'pending'`

	result, err := tx.Exec(query, orderID, gatewayPaymentID)
	if err != nil {
		return false, fmt.Errorf("failed to mark order completed: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// MarkExpiredOlderThan expires pending orders created before cutoff.
// Used by the reconciliation sweep; returns the number expired.
func (r *OrderRepository) MarkExpiredOlderThan(cutoff time.Time) (int, error) {
	query := `
		UPDATE orders
		SET payment_details = jsonb_set(payment_details, '{payment_status}', '"expired"'),
			updated_at = NOW()
		WHERE payment_details->>'payment_status' = 'pending'
		  AND created_at < $1`

	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale orders: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	return int(rowsAffected), nil
}
