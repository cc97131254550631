package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Group
// ──────────────────────────────────────────────────────────────────────────────

// Group is a set of users who share expenses. Membership order is irrelevant.
type Group struct {
	ID          uuid.UUID `json:"id"          db:"id"`
	Name        string    `json:"name"        db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedBy   uuid.UUID `json:"created_by"  db:"created_by"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"  db:"updated_at"`
}

// GroupSummary is the list view of a group with aggregate counters.
type GroupSummary struct {
	Group
	MembersCount  int             `json:"members_count"  db:"members_count"`
	ExpensesCount int             `json:"expenses_count" db:"expenses_count"`
	TotalExpenses decimal.Decimal `json:"total_expenses" db:"total_expenses"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Expense
// ──────────────────────────────────────────────────────────────────────────────

// Expense is a single payment made by one group member on behalf of the group.
// Splitting an expense creates one pending Debt per non-payer participant;
// deleting it cancels and removes those debts.
type Expense struct {
	ID          uuid.UUID       `json:"id"          db:"id"`
	GroupID     uuid.UUID       `json:"group_id"    db:"group_id"`
	PayerID     uuid.UUID       `json:"payer_id"    db:"payer_id"`
	Description string          `json:"description" db:"description"`
	Amount      decimal.Decimal `json:"amount"      db:"amount"`
	Date        time.Time       `json:"date"        db:"date"`
	CreatedAt   time.Time       `json:"created_at"  db:"created_at"`
}
