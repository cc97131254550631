package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditType enumerates the ledger events worth a permanent record.
type AuditType string

const (
	AuditPayment      AuditType = "payment"
	AuditCancellation AuditType = "cancellation"
	AuditOptimization AuditType = "optimization"
)

// AuditLog is an immutable event record. Write-only from the core's
// perspective; user, group, and amount are optional depending on the event.
type AuditLog struct {
	ID        uuid.UUID        `json:"id"         db:"id"`
	Type      AuditType        `json:"type"       db:"type"`
	UserID    *uuid.UUID       `json:"user_id"    db:"user_id"`
	GroupID   *uuid.UUID       `json:"group_id"   db:"group_id"`
	Amount    *decimal.Decimal `json:"amount"     db:"amount"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
