package ledger_test

import (
	"testing"
	"time"

	"github.com/caravela/splitmarket/internal/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func edge(group, debtor, creditor uuid.UUID, amount float64, age time.Duration) ledger.Edge {
	return ledger.Edge{
		ID:         uuid.New(),
		GroupID:    group,
		DebtorID:   debtor,
		CreditorID: creditor,
		Amount:     decimal.NewFromFloat(amount),
		CreatedAt:  time.Now().Add(-age),
	}
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func removeCancelled(edges []ledger.Edge, cancelled []uuid.UUID) []ledger.Edge {
	var out []ledger.Edge
	for _, e := range edges {
		if !contains(cancelled, e.ID) {
			out = append(out, e)
		}
	}
	return out
}

// TestPlanIntraGroup_CancelsSmallerDirection: with A→B 30 and B→A 20 in the
// same group, the whole smaller direction (20) is cancelled and the larger
// one is untouched.
func TestPlanIntraGroup_CancelsSmallerDirection(t *testing.T) {
	g := uuid.New()
	a, b := uuid.New(), uuid.New()
	big := edge(g, a, b, 30, time.Hour)
	small1 := edge(g, b, a, 15, 2*time.Hour)
	small2 := edge(g, b, a, 5, time.Hour)

	plans := ledger.PlanIntraGroup([]ledger.Edge{big, small1, small2})
	if len(plans) != 1 {
		t.Fatalf("got %d plans, want 1", len(plans))
	}

	plan := plans[0]
	if plan.GroupID != g {
		t.Errorf("plan group = %s, want %s", plan.GroupID, g)
	}
	if contains(plan.CancelIDs, big.ID) {
		t.Error("larger direction must not be cancelled")
	}
	if !contains(plan.CancelIDs, small1.ID) || !contains(plan.CancelIDs, small2.ID) {
		t.Errorf("both smaller-direction debts should be cancelled, got %v", plan.CancelIDs)
	}
	if !plan.Total.Equal(decimal.NewFromInt(20)) {
		t.Errorf("plan total = %s, want 20", plan.Total)
	}
}

// TestPlanIntraGroup_NeverExceedsMatchedMinimum: the cancelled total is
// bounded by min(sum A→B, sum B→A) for every pair.
func TestPlanIntraGroup_NeverExceedsMatchedMinimum(t *testing.T) {
	g := uuid.New()
	a, b := uuid.New(), uuid.New()
	edges := []ledger.Edge{
		edge(g, a, b, 50, 3*time.Hour),
		edge(g, b, a, 10, 2*time.Hour),
		edge(g, b, a, 10, time.Hour),
		edge(g, b, a, 10, 30*time.Minute),
	}

	plans := ledger.PlanIntraGroup(edges)
	if len(plans) != 1 {
		t.Fatalf("got %d plans, want 1", len(plans))
	}
	matched := decimal.NewFromInt(30) // min(50, 30)
	if plans[0].Total.GreaterThan(matched) {
		t.Errorf("plan total %s exceeds matched minimum %s", plans[0].Total, matched)
	}
}

// TestPlanIntraGroup_EqualDirections: on a tie exactly one direction is
// consumed — the pair must not end up fully wiped by the intra pass.
func TestPlanIntraGroup_EqualDirections(t *testing.T) {
	g := uuid.New()
	a, b := uuid.New(), uuid.New()
	e1 := edge(g, a, b, 15, 2*time.Hour)
	e2 := edge(g, b, a, 15, time.Hour)

	plans := ledger.PlanIntraGroup([]ledger.Edge{e1, e2})
	if len(plans) != 1 {
		t.Fatalf("got %d plans, want 1", len(plans))
	}
	if len(plans[0].CancelIDs) != 1 {
		t.Errorf("cancelled %d debts, want exactly 1 of the tied pair", len(plans[0].CancelIDs))
	}
	if !plans[0].Total.Equal(decimal.NewFromInt(15)) {
		t.Errorf("plan total = %s, want 15", plans[0].Total)
	}
}

// TestPlanIntraGroup_OneWayFlowUntouched: debt flowing a single direction is
// never cancelled.
func TestPlanIntraGroup_OneWayFlowUntouched(t *testing.T) {
	g := uuid.New()
	a, b := uuid.New(), uuid.New()
	edges := []ledger.Edge{
		edge(g, a, b, 10, time.Hour),
		edge(g, a, b, 20, time.Hour),
	}
	if plans := ledger.PlanIntraGroup(edges); len(plans) != 0 {
		t.Errorf("one-way flow produced plans: %v", plans)
	}
}

// TestPlanIntraGroup_GroupsAreIsolated: opposing debts in different groups do
// not cancel in the intra pass.
func TestPlanIntraGroup_GroupsAreIsolated(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	edges := []ledger.Edge{
		edge(uuid.New(), a, b, 25, time.Hour),
		edge(uuid.New(), b, a, 25, time.Hour),
	}
	if plans := ledger.PlanIntraGroup(edges); len(plans) != 0 {
		t.Errorf("cross-group edges cancelled by intra pass: %v", plans)
	}
}

// TestPlanIntraGroup_Idempotent: re-planning after applying a plan cancels
// nothing further.
func TestPlanIntraGroup_Idempotent(t *testing.T) {
	g := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	edges := []ledger.Edge{
		edge(g, a, b, 30, 4*time.Hour),
		edge(g, b, a, 15, 3*time.Hour),
		edge(g, b, a, 5, 2*time.Hour),
		edge(g, c, a, 12, time.Hour),
	}

	first := ledger.PlanIntraGroup(edges)
	if len(first) != 1 {
		t.Fatalf("first pass: got %d plans, want 1", len(first))
	}

	remaining := removeCancelled(edges, first[0].CancelIDs)
	if second := ledger.PlanIntraGroup(remaining); len(second) != 0 {
		t.Errorf("second pass cancelled more: %v", second)
	}
}

// TestPlanCrossGroup_FullCancelOnZeroNet replays the cleanup scenario: A owes
// B 10.00 in one group, B owes A 10.00 in another. Net is zero, so both debts
// are wiped and the matched amount logged is 10.00.
func TestPlanCrossGroup_FullCancelOnZeroNet(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	e1 := edge(uuid.New(), a, b, 10.00, 2*time.Hour)
	e2 := edge(uuid.New(), b, a, 10.00, time.Hour)

	cancelIDs, matched := ledger.PlanCrossGroup([]ledger.Edge{e1, e2})
	if len(cancelIDs) != 2 {
		t.Fatalf("cancelled %d debts, want 2", len(cancelIDs))
	}
	if !matched.Equal(decimal.NewFromFloat(10.00)) {
		t.Errorf("matched = %s, want 10.00", matched)
	}
}

// TestPlanCrossGroup_FullHistoryWiped: a zero-net pair loses every debt
// between them, not just the matched portion.
func TestPlanCrossGroup_FullHistoryWiped(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	edges := []ledger.Edge{
		edge(uuid.New(), a, b, 7, 3*time.Hour),
		edge(uuid.New(), a, b, 3, 2*time.Hour),
		edge(uuid.Nil, b, a, 10, time.Hour), // orphaned edge still participates
	}

	cancelIDs, matched := ledger.PlanCrossGroup(edges)
	if len(cancelIDs) != 3 {
		t.Fatalf("cancelled %d debts, want all 3", len(cancelIDs))
	}
	if !matched.Equal(decimal.NewFromInt(10)) {
		t.Errorf("matched = %s, want 10", matched)
	}
}

// TestPlanCrossGroup_SkipsNonZeroNet: a pair whose net exceeds tolerance is
// left alone entirely.
func TestPlanCrossGroup_SkipsNonZeroNet(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	edges := []ledger.Edge{
		edge(uuid.New(), a, b, 10, 2*time.Hour),
		edge(uuid.New(), b, a, 9.50, time.Hour),
	}

	cancelIDs, matched := ledger.PlanCrossGroup(edges)
	if len(cancelIDs) != 0 {
		t.Errorf("non-zero net pair cancelled: %v", cancelIDs)
	}
	if !matched.IsZero() {
		t.Errorf("matched = %s, want 0", matched)
	}
}

// TestPlanCrossGroup_ToleranceBoundary: a residual under 0.01 counts as zero.
func TestPlanCrossGroup_ToleranceBoundary(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	edges := []ledger.Edge{
		edge(uuid.New(), a, b, 10.005, time.Hour),
		edge(uuid.New(), b, a, 10.00, time.Hour),
	}

	cancelIDs, _ := ledger.PlanCrossGroup(edges)
	if len(cancelIDs) != 2 {
		t.Errorf("residual 0.005 should count as zero net, cancelled %d", len(cancelIDs))
	}
}

// TestTwoPassPipeline: the service runs intra then cross on the survivors.
// Verify the composed pipeline is itself idempotent.
func TestTwoPassPipeline(t *testing.T) {
	g1, g2 := uuid.New(), uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	edges := []ledger.Edge{
		edge(g1, a, b, 30, 5*time.Hour),
		edge(g1, b, a, 20, 4*time.Hour),
		edge(g1, c, a, 40, 3*time.Hour),
		edge(g2, a, c, 40, 2*time.Hour),
	}

	intra := ledger.PlanIntraGroup(edges)
	var cancelled []uuid.UUID
	for _, p := range intra {
		cancelled = append(cancelled, p.CancelIDs...)
	}
	remaining := removeCancelled(edges, cancelled)

	crossIDs, matched := ledger.PlanCrossGroup(remaining)
	// c→a 40 and a→c 40 net to zero across groups.
	if len(crossIDs) != 2 {
		t.Fatalf("cross pass cancelled %d, want 2", len(crossIDs))
	}
	if !matched.Equal(decimal.NewFromInt(40)) {
		t.Errorf("cross matched = %s, want 40", matched)
	}

	remaining = removeCancelled(remaining, crossIDs)
	if again := ledger.PlanIntraGroup(remaining); len(again) != 0 {
		t.Errorf("pipeline not idempotent: intra pass found %v", again)
	}
	if ids, _ := ledger.PlanCrossGroup(remaining); len(ids) != 0 {
		t.Errorf("pipeline not idempotent: cross pass found %v", ids)
	}
}
