package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eventmart/commerce-backend/internal/models"
)

// PaymentAuditRepository handles payment_audits database operations
type PaymentAuditRepository struct {
	db *sqlx.DB
}

// NewPaymentAuditRepository creates a new PaymentAuditRepository
func NewPaymentAuditRepository(db *sqlx.DB) *PaymentAuditRepository {
	return &PaymentAuditRepository{db: db}
}

// Record inserts a payment audit row. Audit failures never block the
// payment flow; callers log and continue.
func (r *PaymentAuditRepository) Record(audit *models.PaymentAudit) error {
	if audit.ID == uuid.Nil {
		audit.ID = uuid.New()
	}
	audit.CreatedAt = time.Now()

	query := `
		INSERT INTO payment_audits (
			id, order_id, transaction_type, gateway_order_id, amount,
			status, ip_address, device_type, browser, failure_reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(query,
		audit.ID, audit.OrderID, audit.TransactionType, audit.GatewayOrderID, audit.Amount,
		audit.Status, audit.IPAddress, audit.DeviceType, audit.Browser, audit.FailureReason,
		audit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment audit: %w", err)
	}
	return nil
}

// ListByOrder returns the audit trail for an order, oldest first
func (r *PaymentAuditRepository) ListByOrder(orderID string) ([]models.PaymentAudit, error) {
	query := `
		SELECT id, order_id, transaction_type, gateway_order_id, amount,
			   status, ip_address, device_type, browser, failure_reason, created_at
		FROM payment_audits
		WHERE order_id = $1
		ORDER BY created_at ASC`

	var audits []models.PaymentAudit
	err := r.db.Select(&audits, query, orderID)
	if err != nil {
		return nil, err
	}
	return audits, nil
}
