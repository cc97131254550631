package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tolerance is the absolute threshold under which a balance is treated as
// zero everywhere in the ledger (floating/rounding slack on 2-decimal money).
var Tolerance = decimal.NewFromFloat(0.01)

// ──────────────────────────────────────────────────────────────────────────────
// Types & constants
// ──────────────────────────────────────────────────────────────────────────────

// DebtStatus represents the current state of a debt edge.
type DebtStatus string

const (
	DebtPending     DebtStatus = "pending"       // counts toward balances, sellable
	DebtPaid        DebtStatus = "paid"          // settled via wallet
	DebtCancelled   DebtStatus = "cancelled"     // removed by the optimizer or expense deletion
	DebtSoldAsTitle DebtStatus = "sold_as_title" // frozen behind a receivable listing
)

// DebtSource records how a debt came into existence.
type DebtSource string

const (
	SourceGroupDebt      DebtSource = "group_debt"      // created by an expense split
	SourcePurchasedTitle DebtSource = "purchased_title" // transferred to a receivable buyer
	SourceVirtualPayment DebtSource = "virtual_payment" // synthetic record of a net-balance payment
)

// ──────────────────────────────────────────────────────────────────────────────
// Debt
// ──────────────────────────────────────────────────────────────────────────────

// Debt is a directed obligation: DebtorID owes Amount to CreditorID.
// Only pending debts count toward balances and are eligible for sale or
// cancellation; sold_as_title debts are frozen until the listing is cancelled
// or transferred permanently by a purchase.
type Debt struct {
	ID         uuid.UUID       `json:"id"          db:"id"`
	ExpenseID  *uuid.UUID      `json:"expense_id"  db:"expense_id"` // nil for virtual payments with no shared expense
	DebtorID   uuid.UUID       `json:"debtor_id"   db:"debtor_id"`
	CreditorID uuid.UUID       `json:"creditor_id" db:"creditor_id"`
	Amount     decimal.Decimal `json:"amount"      db:"amount"`
	Status     DebtStatus      `json:"status"      db:"status"`
	Source     DebtSource      `json:"source"      db:"source"`
	DueDate    *time.Time      `json:"due_date"    db:"due_date"`
	PaidAt     *time.Time      `json:"paid_at"     db:"paid_at"`
	SoldAt     *time.Time      `json:"sold_at"     db:"sold_at"`
	// ReceivableID links a frozen debt to the listing that froze it, so a
	// cancelled listing releases exactly its own debts.
	ReceivableID *uuid.UUID `json:"receivable_id,omitempty" db:"receivable_id"`
	CreatedAt    time.Time  `json:"created_at"  db:"created_at"`
}

// IsPending reports whether the debt still counts toward balances.
func (d *Debt) IsPending() bool {
	return d.Status == DebtPending
}

// IsOverdue reports whether paying now would be a late payment.
func (d *Debt) IsOverdue(now time.Time) bool {
	return d.DueDate != nil && now.After(*d.DueDate)
}

// DebtView is a Debt annotated with counterparty names for list endpoints.
type DebtView struct {
	Debt
	DebtorName   string `json:"debtor_name"   db:"debtor_name"`
	CreditorName string `json:"creditor_name" db:"creditor_name"`
}

// ──────────────────────────────────────────────────────────────────────────────
// DebtRef — tagged union for settlement targets
// ──────────────────────────────────────────────────────────────────────────────

// DebtRef identifies what a payment settles: a concrete Debt row, or a
// "virtual" (debtor, creditor) pair whose obligation only exists as an
// optimizer-collapsed net balance. The variant is decided at the HTTP
// boundary; the core never parses encoded identifiers.
type DebtRef struct {
	debtID     uuid.UUID
	debtorID   uuid.UUID
	creditorID uuid.UUID
	virtual    bool
}

// ConcreteDebt builds a DebtRef for a persisted debt row.
func ConcreteDebt(debtID uuid.UUID) DebtRef {
	return DebtRef{debtID: debtID}
}

// VirtualDebt builds a DebtRef for a collapsed (debtor, creditor) obligation.
func VirtualDebt(debtorID, creditorID uuid.UUID) DebtRef {
	return DebtRef{debtorID: debtorID, creditorID: creditorID, virtual: true}
}

// IsVirtual reports whether the reference targets a collapsed net balance.
func (r DebtRef) IsVirtual() bool { return r.virtual }

// DebtID returns the concrete debt id; only meaningful when !IsVirtual().
func (r DebtRef) DebtID() uuid.UUID { return r.debtID }

// Pair returns the (debtor, creditor) pair; only meaningful when IsVirtual().
func (r DebtRef) Pair() (debtorID, creditorID uuid.UUID) {
	return r.debtorID, r.creditorID
}

// ──────────────────────────────────────────────────────────────────────────────
// ClaimTarget — tagged union for marketplace listings
// ──────────────────────────────────────────────────────────────────────────────

// ClaimTarget identifies what a receivable listing sells: one specific debt,
// or the seller's entire consolidated position against one debtor.
type ClaimTarget struct {
	debtID       uuid.UUID
	debtorID     uuid.UUID
	consolidated bool
}

// SingleDebt targets one specific pending debt the seller is creditor of.
func SingleDebt(debtID uuid.UUID) ClaimTarget {
	return ClaimTarget{debtID: debtID}
}

// ConsolidatedDebtor targets the seller's whole net-positive position against
// debtorID across their shared groups.
func ConsolidatedDebtor(debtorID uuid.UUID) ClaimTarget {
	return ClaimTarget{debtorID: debtorID, consolidated: true}
}

// IsConsolidated reports whether the target is a consolidated position.
func (t ClaimTarget) IsConsolidated() bool { return t.consolidated }

// DebtID returns the single-debt id; only meaningful when !IsConsolidated().
func (t ClaimTarget) DebtID() uuid.UUID { return t.debtID }

// DebtorID returns the consolidated debtor id; only meaningful when IsConsolidated().
func (t ClaimTarget) DebtorID() uuid.UUID { return t.debtorID }
