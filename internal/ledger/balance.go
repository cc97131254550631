package ledger

import (
	"github.com/caravela/splitmarket/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IsZero reports whether a balance is within the 0.01 tolerance of zero.
// All balance comparisons in the ledger go through this.
func IsZero(x decimal.Decimal) bool {
	return x.Abs().LessThan(domain.Tolerance)
}

// ──────────────────────────────────────────────────────────────────────────────
// Group balances
// ──────────────────────────────────────────────────────────────────────────────

// GroupBalances computes the signed net balance of every group member under
// the equal-share model. Positive = net owed to that member, negative = the
// member owes the group.
//
// Base balance per member: (sum paid as payer) − (total expenses / members).
//
// Each adjustment debt then shifts the pair the same way regardless of kind —
// debtor +amount, creditor −amount:
//   - a paid debt: the debtor has settled their share, the creditor has
//     collected what they were owed;
//   - a sold_as_title debt: the seller (creditor) gave up the right to
//     collect, and the debtor no longer owes the seller;
//   - a paid virtual_payment between two members: a direct wallet transfer
//     against the collapsed net position.
//
// Callers are responsible for passing only adjustments that belong to this
// group: paid and sold debts whose expense is in the group, plus paid
// virtual-payment debts whose debtor and creditor are both members.
//
// Every member appears in the result, defaulting to zero. An empty member
// list yields an empty map.
func GroupBalances(memberIDs []uuid.UUID, expenses []domain.Expense, adjustments []domain.Debt) map[uuid.UUID]decimal.Decimal {
	if len(memberIDs) == 0 {
		return map[uuid.UUID]decimal.Decimal{}
	}

	paidBy := make(map[uuid.UUID]decimal.Decimal, len(memberIDs))
	total := decimal.Zero
	for _, e := range expenses {
		paidBy[e.PayerID] = paidBy[e.PayerID].Add(e.Amount)
		total = total.Add(e.Amount)
	}

	fairShare := total.Div(decimal.NewFromInt(int64(len(memberIDs))))

	balances := make(map[uuid.UUID]decimal.Decimal, len(memberIDs))
	for _, id := range memberIDs {
		balances[id] = paidBy[id].Sub(fairShare)
	}

	for _, d := range adjustments {
		if _, ok := balances[d.DebtorID]; ok {
			balances[d.DebtorID] = balances[d.DebtorID].Add(d.Amount)
		}
		if _, ok := balances[d.CreditorID]; ok {
			balances[d.CreditorID] = balances[d.CreditorID].Sub(d.Amount)
		}
	}

	return balances
}

// ──────────────────────────────────────────────────────────────────────────────
// Pairwise positions derived from group balances
// ──────────────────────────────────────────────────────────────────────────────

// NetAcross sums one user's signed balance over several group balance maps.
// Positive = net owed to the user across those groups; groups where the user
// does not appear contribute zero.
func NetAcross(groupBalances []map[uuid.UUID]decimal.Decimal, userID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, balances := range groupBalances {
		total = total.Add(balances[userID])
	}
	return total
}

// DebtorExposure sums, across the given per-group balance maps, how much the
// debtor owes the viewpoint creditor. Each group contributes the inverse of
// the debtor's balance there: a debtor balance of −30 means 30 owed. Groups
// where the debtor is in credit reduce the total — the exposure is summed,
// not capped at zero per group.
//
// The balance maps must come from groups shared by both parties.
func DebtorExposure(sharedGroupBalances []map[uuid.UUID]decimal.Decimal, debtorID uuid.UUID) decimal.Decimal {
	return NetAcross(sharedGroupBalances, debtorID).Neg()
}

// VirtualOwed computes how much debtorID currently owes creditorID across the
// given shared-group balances. Unlike DebtorExposure it attributes the
// debtor's deficit proportionally among the group's creditors: in each group
// where the debtor is in deficit and the creditor in credit,
//
//	owed += creditorBalance × |debtorBalance| / Σ|deficits in group|
//
// This is the amount a virtual payment settles. Result rounded to 2 decimals.
func VirtualOwed(sharedGroupBalances []map[uuid.UUID]decimal.Decimal, debtorID, creditorID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, balances := range sharedGroupBalances {
		debtorBal := balances[debtorID]
		creditorBal := balances[creditorID]
		if !debtorBal.IsNegative() || !creditorBal.IsPositive() {
			continue
		}

		totalDeficit := decimal.Zero
		for _, b := range balances {
			if b.IsNegative() {
				totalDeficit = totalDeficit.Add(b.Abs())
			}
		}
		if totalDeficit.IsZero() {
			continue
		}

		proportion := debtorBal.Abs().Div(totalDeficit)
		total = total.Add(creditorBal.Mul(proportion))
	}
	return total.Round(2)
}
