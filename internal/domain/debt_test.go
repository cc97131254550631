package domain_test

import (
	"testing"
	"time"

	"github.com/caravela/splitmarket/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestDebtIsOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	cases := []struct {
		name string
		due  *time.Time
		want bool
	}{
		{"no due date", nil, false},
		{"due in the future", &future, false},
		{"due in the past", &past, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &domain.Debt{DueDate: tc.due}
			if got := d.IsOverdue(now); got != tc.want {
				t.Errorf("IsOverdue = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDebtIsPending(t *testing.T) {
	for status, want := range map[domain.DebtStatus]bool{
		domain.DebtPending:     true,
		domain.DebtPaid:        false,
		domain.DebtCancelled:   false,
		domain.DebtSoldAsTitle: false,
	} {
		d := &domain.Debt{Status: status}
		if got := d.IsPending(); got != want {
			t.Errorf("IsPending with status %q = %v, want %v", status, got, want)
		}
	}
}

// TestDebtRefVariants verifies the settlement-target union round-trips its
// variant data and keeps the variants distinguishable.
func TestDebtRefVariants(t *testing.T) {
	debtID := uuid.New()
	concrete := domain.ConcreteDebt(debtID)
	if concrete.IsVirtual() {
		t.Error("ConcreteDebt reported virtual")
	}
	if concrete.DebtID() != debtID {
		t.Errorf("DebtID = %s, want %s", concrete.DebtID(), debtID)
	}

	debtor, creditor := uuid.New(), uuid.New()
	virtual := domain.VirtualDebt(debtor, creditor)
	if !virtual.IsVirtual() {
		t.Error("VirtualDebt not reported virtual")
	}
	gotDebtor, gotCreditor := virtual.Pair()
	if gotDebtor != debtor || gotCreditor != creditor {
		t.Errorf("Pair = (%s, %s), want (%s, %s)", gotDebtor, gotCreditor, debtor, creditor)
	}
}

// TestClaimTargetVariants does the same for the marketplace listing union.
func TestClaimTargetVariants(t *testing.T) {
	debtID := uuid.New()
	single := domain.SingleDebt(debtID)
	if single.IsConsolidated() {
		t.Error("SingleDebt reported consolidated")
	}
	if single.DebtID() != debtID {
		t.Errorf("DebtID = %s, want %s", single.DebtID(), debtID)
	}

	debtorID := uuid.New()
	consolidated := domain.ConsolidatedDebtor(debtorID)
	if !consolidated.IsConsolidated() {
		t.Error("ConsolidatedDebtor not reported consolidated")
	}
	if consolidated.DebtorID() != debtorID {
		t.Errorf("DebtorID = %s, want %s", consolidated.DebtorID(), debtorID)
	}
}

func TestReceivableProfit(t *testing.T) {
	r := &domain.Receivable{
		NominalAmount: decimal.NewFromFloat(50.00),
		SellingPrice:  decimal.NewFromFloat(42.50),
	}
	if got := r.Profit(); !got.Equal(decimal.NewFromFloat(7.50)) {
		t.Errorf("Profit = %s, want 7.50", got)
	}
}

func TestReceivableIsConsolidated(t *testing.T) {
	debtID := uuid.New()
	single := &domain.Receivable{DebtID: &debtID}
	if single.IsConsolidated() {
		t.Error("single-debt receivable reported consolidated")
	}

	debtorID := uuid.New()
	consolidated := &domain.Receivable{ConsolidatedDebtorID: &debtorID}
	if !consolidated.IsConsolidated() {
		t.Error("consolidated receivable not reported as such")
	}
}

// TestReceivableToListing checks the browse view hides the seller identity
// but carries the score and profit forward.
func TestReceivableToListing(t *testing.T) {
	r := &domain.Receivable{
		ID:            uuid.New(),
		OwnerID:       uuid.New(),
		NominalAmount: decimal.NewFromInt(100),
		SellingPrice:  decimal.NewFromInt(80),
		Status:        domain.ReceivableForSale,
	}
	score := decimal.NewFromFloat(8.3)

	l := r.ToListing(score)
	if l.ID != r.ID {
		t.Errorf("listing id = %s, want %s", l.ID, r.ID)
	}
	if !l.Profit.Equal(decimal.NewFromInt(20)) {
		t.Errorf("listing profit = %s, want 20", l.Profit)
	}
	if !l.OwnerScore.Equal(score) {
		t.Errorf("listing owner score = %s, want %s", l.OwnerScore, score)
	}
}
