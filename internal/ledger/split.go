// Package ledger holds the pure money math of the debt ledger: expense
// splitting, group balance computation, and debt-cancellation planning.
// Nothing in this package touches the database — services feed it rows and
// apply its results transactionally.
package ledger

import (
	"github.com/caravela/splitmarket/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SplitShares computes the equal-split outcome for one expense.
//
// The payer is removed from the participant set (they never owe themselves);
// duplicates are dropped. The remaining participants each owe
//
//	share = amount / (len(participants) + 1)
//
// — the +1 counts the payer's own share, which is absorbed, not owed.
// An empty remaining set means the payer carries the full cost: no debts.
//
// Returns the deduplicated debtor list (input order preserved) and the
// per-person share rounded to 2 decimal places.
func SplitShares(amount decimal.Decimal, payerID uuid.UUID, participantIDs []uuid.UUID) ([]uuid.UUID, decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, decimal.Zero, domain.ErrNonPositiveAmount
	}

	seen := make(map[uuid.UUID]bool, len(participantIDs))
	debtors := make([]uuid.UUID, 0, len(participantIDs))
	for _, id := range participantIDs {
		if id == payerID || seen[id] {
			continue
		}
		seen[id] = true
		debtors = append(debtors, id)
	}

	if len(debtors) == 0 {
		return nil, decimal.Zero, nil
	}

	share := amount.Div(decimal.NewFromInt(int64(len(debtors) + 1))).Round(2)
	return debtors, share, nil
}
