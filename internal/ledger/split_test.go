package ledger_test

import (
	"testing"

	"github.com/caravela/splitmarket/internal/domain"
	"github.com/caravela/splitmarket/internal/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TestSplitShares_EqualSplit validates the core split formula.
//
//	Scenario: payer + 3 participants share 100 TRY.
//	  share = 100 / 4 = 25.00 each
//	  debts total = 3 × 25 = 75 (payer absorbs their own 25)
func TestSplitShares_EqualSplit(t *testing.T) {
	payer := uuid.New()
	participants := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	debtors, share, err := ledger.SplitShares(decimal.NewFromInt(100), payer, participants)
	if err != nil {
		t.Fatalf("SplitShares: %v", err)
	}
	if len(debtors) != 3 {
		t.Fatalf("debtors = %d, want 3", len(debtors))
	}
	want := decimal.NewFromInt(25)
	if !share.Equal(want) {
		t.Errorf("share = %s, want %s", share, want)
	}

	owed := share.Mul(decimal.NewFromInt(int64(len(debtors))))
	if !owed.Equal(decimal.NewFromInt(75)) {
		t.Errorf("total owed = %s, want 75", owed)
	}
}

// TestSplitShares_RoundsToTwoDecimals checks the non-even case: 100 / 3
// participants+payer does not divide cleanly.
func TestSplitShares_RoundsToTwoDecimals(t *testing.T) {
	payer := uuid.New()
	participants := []uuid.UUID{uuid.New(), uuid.New()}

	_, share, err := ledger.SplitShares(decimal.NewFromInt(100), payer, participants)
	if err != nil {
		t.Fatalf("SplitShares: %v", err)
	}
	// 100 / 3 = 33.333... → 33.33
	want := decimal.NewFromFloat(33.33)
	if !share.Equal(want) {
		t.Errorf("share = %s, want %s", share, want)
	}
	if share.Exponent() < -2 {
		t.Errorf("share %s has more than 2 decimal places", share)
	}
}

// TestSplitShares_PayerRemovedAndDeduped verifies the payer never owes
// themselves and duplicate participant ids collapse to one debt.
func TestSplitShares_PayerRemovedAndDeduped(t *testing.T) {
	payer := uuid.New()
	other := uuid.New()
	participants := []uuid.UUID{payer, other, other, payer}

	debtors, share, err := ledger.SplitShares(decimal.NewFromInt(50), payer, participants)
	if err != nil {
		t.Fatalf("SplitShares: %v", err)
	}
	if len(debtors) != 1 || debtors[0] != other {
		t.Fatalf("debtors = %v, want exactly [%s]", debtors, other)
	}
	// 50 / 2 = 25
	if !share.Equal(decimal.NewFromInt(25)) {
		t.Errorf("share = %s, want 25", share)
	}
}

// TestSplitShares_PayerAlone is the no-debt case: everyone listed is the payer.
func TestSplitShares_PayerAlone(t *testing.T) {
	payer := uuid.New()

	debtors, share, err := ledger.SplitShares(decimal.NewFromInt(40), payer, []uuid.UUID{payer})
	if err != nil {
		t.Fatalf("SplitShares: %v", err)
	}
	if len(debtors) != 0 {
		t.Errorf("debtors = %v, want none", debtors)
	}
	if !share.IsZero() {
		t.Errorf("share = %s, want 0", share)
	}
}

func TestSplitShares_RejectsNonPositiveAmount(t *testing.T) {
	payer := uuid.New()
	participants := []uuid.UUID{uuid.New()}

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-10)} {
		_, _, err := ledger.SplitShares(amount, payer, participants)
		if err != domain.ErrNonPositiveAmount {
			t.Errorf("SplitShares(%s) err = %v, want ErrNonPositiveAmount", amount, err)
		}
	}
}

// TestSplitShares_PreservesInputOrder guards determinism of debt insertion.
func TestSplitShares_PreservesInputOrder(t *testing.T) {
	payer := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	debtors, _, err := ledger.SplitShares(decimal.NewFromInt(80), payer, []uuid.UUID{c, a, b})
	if err != nil {
		t.Fatalf("SplitShares: %v", err)
	}
	want := []uuid.UUID{c, a, b}
	for i := range want {
		if debtors[i] != want[i] {
			t.Fatalf("debtors[%d] = %s, want %s", i, debtors[i], want[i])
		}
	}
}
