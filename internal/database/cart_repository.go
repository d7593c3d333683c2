package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/eventmart/commerce-backend/internal/models"
)

// CartRepository handles cart_items database operations
type CartRepository struct {
	db *sqlx.DB
}

// NewCartRepository creates a new CartRepository
func NewCartRepository(db *sqlx.DB) *CartRepository {
	return &CartRepository{db: db}
}

// Upsert adds a variant to the cart or bumps the quantity when it is
// already there. One row per (user, variant).
func (r *CartRepository) Upsert(item *models.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := time.Now()

	query := `
		INSERT INTO cart_items (id, user_id, variant_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, variant_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(query, item.ID, item.UserID, item.VariantID, item.Quantity, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return nil
}

// ListByUser returns a user's cart items, oldest first
func (r *CartRepository) ListByUser(userID uuid.UUID) ([]models.CartItem, error) {
	query := `
		SELECT id, user_id, variant_id, quantity, created_at, updated_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY created_at ASC`

	var items []models.CartItem
	err := r.db.Select(&items, query, userID)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateQuantity sets an exact quantity on a cart item owned by the user
func (r *CartRepository) UpdateQuantity(userID, itemID uuid.UUID, quantity int) error {
	query := `
		UPDATE cart_items
		SET quantity = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3`

	result, err := r.db.Exec(query, quantity, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to update cart quantity: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Remove deletes a cart item owned by the user
func (r *CartRepository) Remove(userID, itemID uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Clear empties a user's cart
func (r *CartRepository) Clear(userID uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// RemoveVariants drops the given variants from a user's cart. Used
// after a verified order so purchased items do not linger in the cart.
func (r *CartRepository) RemoveVariants(userID uuid.UUID, variantIDs []uuid.UUID) error {
	_, err := r.db.Exec(
		`DELETE FROM cart_items WHERE user_id = $1 AND variant_id = ANY($2)`,
		userID, pq.Array(variantIDs))
	if err != nil {
		return fmt.Errorf("failed to remove purchased cart items: %w", err)
	}
	return nil
}
