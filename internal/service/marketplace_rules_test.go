package service_test

import (
	"testing"

	"github.com/caravela/splitmarket/internal/domain"
)

// TestSoldConsolidatedBlocksRelisting replays the listing-eligibility rule for
// a (seller, debtor) pair: a for-sale receivable blocks while it lives, a sold
// consolidated receivable blocks forever, and a cancelled one frees the pair.
// In the real MarketplaceService the for-sale side is
// ReceivableRepository.ActiveExistsForPair and the sold side is
// SoldConsolidatedExists, both checked inside the listing transaction.
func TestSoldConsolidatedBlocksRelisting(t *testing.T) {
	type pairHistory []domain.ReceivableStatus

	canList := func(history pairHistory) bool {
		for _, st := range history {
			if st == domain.ReceivableForSale || st == domain.ReceivableSold {
				return false
			}
		}
		return true
	}

	cases := []struct {
		name    string
		history pairHistory
		want    bool
	}{
		{"fresh pair", nil, true},
		{"active listing", pairHistory{domain.ReceivableForSale}, false},
		{"sold claim", pairHistory{domain.ReceivableSold}, false},
		{"cancelled listing", pairHistory{domain.ReceivableCancelled}, true},
		{"cancelled then sold", pairHistory{domain.ReceivableCancelled, domain.ReceivableSold}, false},
	}
	for _, tc := range cases {
		if got := canList(tc.history); got != tc.want {
			t.Errorf("%s: canList = %v, want %v", tc.name, got, tc.want)
		}
	}
}
