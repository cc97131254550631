package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Types & constants
// ──────────────────────────────────────────────────────────────────────────────

// ReceivableStatus represents the lifecycle of a marketplace listing.
// for_sale → sold | cancelled; a receivable is never reopened.
type ReceivableStatus string

const (
	ReceivableForSale   ReceivableStatus = "for_sale"
	ReceivableSold      ReceivableStatus = "sold"
	ReceivableCancelled ReceivableStatus = "cancelled"
)

// ──────────────────────────────────────────────────────────────────────────────
// Receivable
// ──────────────────────────────────────────────────────────────────────────────

// Receivable is a creditor's offer to sell a claim at a discount. Exactly one
// of DebtID (individual claim) or ConsolidatedDebtorID (whole net position
// against one debtor) is set. While for_sale, the implicated debts are frozen
// as sold_as_title; at most one for_sale receivable may exist per
// (owner, debtor) pair.
type Receivable struct {
	ID                   uuid.UUID        `json:"id"                     db:"id"`
	OwnerID              uuid.UUID        `json:"owner_id"               db:"owner_id"`
	BuyerID              *uuid.UUID       `json:"buyer_id"               db:"buyer_id"`
	DebtID               *uuid.UUID       `json:"debt_id"                db:"debt_id"`
	ConsolidatedDebtorID *uuid.UUID       `json:"consolidated_debtor_id" db:"consolidated_debtor_id"`
	NominalAmount        decimal.Decimal  `json:"nominal_amount"         db:"nominal_amount"`
	SellingPrice         decimal.Decimal  `json:"selling_price"          db:"selling_price"`
	Status               ReceivableStatus `json:"status"                 db:"status"`
	CreatedAt            time.Time        `json:"created_at"             db:"created_at"`
	SoldAt               *time.Time       `json:"sold_at"                db:"sold_at"`
}

// IsConsolidated reports whether this claim covers a debtor's whole position
// rather than one debt.
func (r *Receivable) IsConsolidated() bool {
	return r.ConsolidatedDebtorID != nil
}

// Profit is the nominal value minus the asking price — what the buyer stands
// to gain if the debtor pays in full.
func (r *Receivable) Profit() decimal.Decimal {
	return r.NominalAmount.Sub(r.SellingPrice)
}

// ──────────────────────────────────────────────────────────────────────────────
// MarketListing — anonymized browse view
// ──────────────────────────────────────────────────────────────────────────────

// MarketListing is the buyer-facing view of a for-sale receivable. The seller
// identity is hidden; only their payment score is exposed so buyers can judge
// the claim.
type MarketListing struct {
	ID            uuid.UUID       `json:"id"`
	NominalAmount decimal.Decimal `json:"nominal_amount"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	Profit        decimal.Decimal `json:"profit_estimated"`
	OwnerScore    decimal.Decimal `json:"owner_score"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MarketStats aggregates the current for-sale book.
type MarketStats struct {
	ActiveListings int             `json:"active_listings" db:"active_listings"`
	TotalNominal   decimal.Decimal `json:"total_nominal"   db:"total_nominal"`
	TotalAsking    decimal.Decimal `json:"total_asking"    db:"total_asking"`
}

// ToListing converts a Receivable to its anonymized marketplace view.
func (r *Receivable) ToListing(ownerScore decimal.Decimal) MarketListing {
	return MarketListing{
		ID:            r.ID,
		NominalAmount: r.NominalAmount,
		SellingPrice:  r.SellingPrice,
		Profit:        r.Profit(),
		OwnerScore:    ownerScore,
		CreatedAt:     r.CreatedAt,
	}
}
