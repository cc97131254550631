package ledger_test

import (
	"testing"

	"github.com/caravela/splitmarket/internal/domain"
	"github.com/caravela/splitmarket/internal/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func expense(payer uuid.UUID, amount int64) domain.Expense {
	return domain.Expense{ID: uuid.New(), PayerID: payer, Amount: decimal.NewFromInt(amount)}
}

func adjustment(debtor, creditor uuid.UUID, amount float64) domain.Debt {
	return domain.Debt{
		ID:         uuid.New(),
		DebtorID:   debtor,
		CreditorID: creditor,
		Amount:     decimal.NewFromFloat(amount),
	}
}

func sumBalances(balances map[uuid.UUID]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b)
	}
	return total
}

// TestGroupBalances_BaseCase replays the reference scenario:
//
//	3 members; A pays 90, B pays 30, C pays nothing.
//	  total = 120, fair share = 40
//	  A: 90 − 40 = +50, B: 30 − 40 = −10, C: 0 − 40 = −40
func TestGroupBalances_BaseCase(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	members := []uuid.UUID{a, b, c}
	expenses := []domain.Expense{expense(a, 90), expense(b, 30)}

	balances := ledger.GroupBalances(members, expenses, nil)

	checks := map[uuid.UUID]decimal.Decimal{
		a: decimal.NewFromInt(50),
		b: decimal.NewFromInt(-10),
		c: decimal.NewFromInt(-40),
	}
	for id, want := range checks {
		if !balances[id].Equal(want) {
			t.Errorf("balance[%s] = %s, want %s", id, balances[id], want)
		}
	}
}

// TestGroupBalances_Conservation: balances always sum to zero, with and
// without adjustments, because every shift is symmetric on a pair.
func TestGroupBalances_Conservation(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	members := []uuid.UUID{a, b, c, d}
	expenses := []domain.Expense{
		expense(a, 100),
		expense(b, 55),
		expense(c, 31),
		expense(a, 7),
	}
	adjustments := []domain.Debt{
		adjustment(c, a, 12.50), // c paid a
		adjustment(d, b, 8.25),  // d's debt to b sold as title
		adjustment(b, a, 3.10),  // virtual payment b → a
	}

	balances := ledger.GroupBalances(members, expenses, adjustments)

	if total := sumBalances(balances); !ledger.IsZero(total) {
		t.Errorf("balances sum to %s, want ~0", total)
	}
	if len(balances) != len(members) {
		t.Errorf("got %d balances, want %d", len(balances), len(members))
	}
}

// TestGroupBalances_PaymentShiftsPair: a paid debt moves the debtor up and
// the creditor down by exactly the paid amount.
func TestGroupBalances_PaymentShiftsPair(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	members := []uuid.UUID{a, b}
	expenses := []domain.Expense{expense(a, 60)} // b owes a 30

	before := ledger.GroupBalances(members, expenses, nil)
	after := ledger.GroupBalances(members, expenses, []domain.Debt{adjustment(b, a, 30)})

	if !before[b].Equal(decimal.NewFromInt(-30)) {
		t.Fatalf("before[b] = %s, want -30", before[b])
	}
	if !ledger.IsZero(after[a]) || !ledger.IsZero(after[b]) {
		t.Errorf("after payment: a=%s b=%s, want both ~0", after[a], after[b])
	}
}

// TestGroupBalances_FreezeUnfreezeRoundTrip: listing a debt for sale shifts
// balances exactly like a payment; cancelling the listing restores them.
// Unfreezing is modelled by dropping the sold adjustment from the input.
func TestGroupBalances_FreezeUnfreezeRoundTrip(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	members := []uuid.UUID{a, b, c}
	expenses := []domain.Expense{expense(a, 90)} // b and c each owe a 30

	original := ledger.GroupBalances(members, expenses, nil)

	frozen := ledger.GroupBalances(members, expenses, []domain.Debt{adjustment(b, a, 30)})
	if !ledger.IsZero(frozen[b]) {
		t.Errorf("frozen[b] = %s, want ~0 (seller gave up the claim)", frozen[b])
	}
	if !frozen[a].Equal(original[a].Sub(decimal.NewFromInt(30))) {
		t.Errorf("frozen[a] = %s, want %s", frozen[a], original[a].Sub(decimal.NewFromInt(30)))
	}

	restored := ledger.GroupBalances(members, expenses, nil)
	for _, id := range members {
		if !restored[id].Equal(original[id]) {
			t.Errorf("restored[%s] = %s, want %s", id, restored[id], original[id])
		}
	}
}

// TestGroupBalances_IgnoresOutsiders: adjustments touching non-members only
// shift the member side.
func TestGroupBalances_IgnoresOutsiders(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	outsider := uuid.New()
	members := []uuid.UUID{a, b}
	expenses := []domain.Expense{expense(a, 20)}

	balances := ledger.GroupBalances(members, expenses, []domain.Debt{adjustment(outsider, a, 5)})

	if _, ok := balances[outsider]; ok {
		t.Error("outsider must not appear in group balances")
	}
	// a collected 5 from outside the group: −5 against the base +10
	if !balances[a].Equal(decimal.NewFromInt(5)) {
		t.Errorf("balance[a] = %s, want 5", balances[a])
	}
}

func TestGroupBalances_EmptyMembers(t *testing.T) {
	balances := ledger.GroupBalances(nil, []domain.Expense{expense(uuid.New(), 10)}, nil)
	if len(balances) != 0 {
		t.Errorf("got %d balances for empty member list, want 0", len(balances))
	}
}

// TestNetAcross sums a user's signed balance over several groups; missing
// entries count as zero.
func TestNetAcross(t *testing.T) {
	user := uuid.New()
	g1 := map[uuid.UUID]decimal.Decimal{user: decimal.NewFromInt(25)}
	g2 := map[uuid.UUID]decimal.Decimal{user: decimal.NewFromFloat(-10.50)}
	g3 := map[uuid.UUID]decimal.Decimal{uuid.New(): decimal.NewFromInt(99)} // user absent

	got := ledger.NetAcross([]map[uuid.UUID]decimal.Decimal{g1, g2, g3}, user)
	if !got.Equal(decimal.NewFromFloat(14.50)) {
		t.Errorf("net = %s, want 14.50", got)
	}
}

func TestNetAcross_Empty(t *testing.T) {
	if got := ledger.NetAcross(nil, uuid.New()); !got.IsZero() {
		t.Errorf("net over no groups = %s, want 0", got)
	}
}

// TestDebtorExposure sums the inverse of the debtor's balance across groups,
// letting credit in one group offset deficit in another. It is exactly the
// negated NetAcross over the same maps.
func TestDebtorExposure(t *testing.T) {
	debtor := uuid.New()
	g1 := map[uuid.UUID]decimal.Decimal{debtor: decimal.NewFromInt(-30)}
	g2 := map[uuid.UUID]decimal.Decimal{debtor: decimal.NewFromInt(10)}
	groups := []map[uuid.UUID]decimal.Decimal{g1, g2}

	got := ledger.DebtorExposure(groups, debtor)
	if !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("exposure = %s, want 20", got)
	}
	if net := ledger.NetAcross(groups, debtor); !got.Equal(net.Neg()) {
		t.Errorf("exposure %s != −net %s", got, net.Neg())
	}
}

// TestDebtorExposure_OffsettingGroups: a debtor who owes 30 in one group but
// is owed 30 in another has zero exposure, even though a pending 30 debt row
// exists against them. The balance projection, not the raw debt rows, decides
// what a consolidated claim on the pair is worth.
func TestDebtorExposure_OffsettingGroups(t *testing.T) {
	seller, debtor := uuid.New(), uuid.New()

	// group 1: debtor owes seller 30; group 2: the mirror image.
	g1 := ledger.GroupBalances(
		[]uuid.UUID{seller, debtor},
		[]domain.Expense{expense(seller, 60)},
		nil,
	)
	g2 := ledger.GroupBalances(
		[]uuid.UUID{seller, debtor},
		[]domain.Expense{expense(debtor, 60)},
		nil,
	)

	pendingDebtSum := decimal.NewFromInt(30) // the group-1 debt row, still pending
	if pendingDebtSum.LessThan(domain.Tolerance) {
		t.Fatal("scenario requires a live pending debt")
	}

	exposure := ledger.DebtorExposure([]map[uuid.UUID]decimal.Decimal{g1, g2}, debtor)
	if !ledger.IsZero(exposure) {
		t.Errorf("offsetting positions: exposure = %s, want ~0", exposure)
	}
	if exposure.GreaterThanOrEqual(domain.Tolerance) {
		t.Error("a zero-exposure pair must not be sellable as a consolidated claim")
	}
}

// TestVirtualOwed_Proportional validates the deficit attribution formula.
//
//	One shared group: creditor +50, debtor −30, other member −20.
//	  total deficit = 50
//	  owed = 50 × 30/50 = 30.00
func TestVirtualOwed_Proportional(t *testing.T) {
	debtor, creditor, other := uuid.New(), uuid.New(), uuid.New()
	balances := map[uuid.UUID]decimal.Decimal{
		creditor: decimal.NewFromInt(50),
		debtor:   decimal.NewFromInt(-30),
		other:    decimal.NewFromInt(-20),
	}

	got := ledger.VirtualOwed([]map[uuid.UUID]decimal.Decimal{balances}, debtor, creditor)
	if !got.Equal(decimal.NewFromInt(30)) {
		t.Errorf("owed = %s, want 30", got)
	}
}

// TestVirtualOwed_SplitCreditors: with two creditors the debtor's deficit is
// owed to each in proportion to their credit.
func TestVirtualOwed_SplitCreditors(t *testing.T) {
	debtor, cred1, cred2 := uuid.New(), uuid.New(), uuid.New()
	balances := map[uuid.UUID]decimal.Decimal{
		cred1:  decimal.NewFromInt(30),
		cred2:  decimal.NewFromInt(10),
		debtor: decimal.NewFromInt(-40),
	}
	groups := []map[uuid.UUID]decimal.Decimal{balances}

	// debtor carries the whole deficit → owes each creditor their full credit
	if got := ledger.VirtualOwed(groups, debtor, cred1); !got.Equal(decimal.NewFromInt(30)) {
		t.Errorf("owed to cred1 = %s, want 30", got)
	}
	if got := ledger.VirtualOwed(groups, debtor, cred2); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("owed to cred2 = %s, want 10", got)
	}
}

// TestVirtualOwed_NothingWhenInCredit: a debtor in credit owes nothing.
func TestVirtualOwed_NothingWhenInCredit(t *testing.T) {
	debtor, creditor := uuid.New(), uuid.New()
	balances := map[uuid.UUID]decimal.Decimal{
		creditor: decimal.NewFromInt(-5),
		debtor:   decimal.NewFromInt(5),
	}

	got := ledger.VirtualOwed([]map[uuid.UUID]decimal.Decimal{balances}, debtor, creditor)
	if !got.IsZero() {
		t.Errorf("owed = %s, want 0", got)
	}
}

func TestIsZero_Tolerance(t *testing.T) {
	cases := []struct {
		val  float64
		want bool
	}{
		{0, true},
		{0.009, true},
		{-0.009, true},
		{0.01, false},
		{-0.01, false},
		{1, false},
	}
	for _, tc := range cases {
		if got := ledger.IsZero(decimal.NewFromFloat(tc.val)); got != tc.want {
			t.Errorf("IsZero(%v) = %v, want %v", tc.val, got, tc.want)
		}
	}
}
