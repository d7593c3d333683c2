package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentAuditStatus matches PostgreSQL ENUM: payment_audit_status
type PaymentAuditStatus string

const (
	AuditStatusInitiated PaymentAuditStatus = "INITIATED"
	AuditStatusVerified  PaymentAuditStatus = "VERIFIED"
	AuditStatusFailed    PaymentAuditStatus = "FAILED"
)

// PaymentAudit records every payment attempt against a transaction,
// with the caller's device fingerprint (payment_audits table).
type PaymentAudit struct {
	ID              uuid.UUID          `json:"id" db:"id"`
	OrderID         string             `json:"order_id" db:"order_id"`
	TransactionType TransactionType    `json:"transaction_type" db:"transaction_type"`
	GatewayOrderID  string             `json:"gateway_order_id" db:"gateway_order_id"`
	Amount          float64            `json:"amount" db:"amount"`
	Status          PaymentAuditStatus `json:"status" db:"status"`
	IPAddress       string             `json:"ip_address" db:"ip_address"`
	DeviceType      string             `json:"device_type" db:"device_type"`
	Browser         string             `json:"browser" db:"browser"`
	FailureReason   *string            `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt       time.Time          `json:"created_at" db:"created_at"`
}
