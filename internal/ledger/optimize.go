package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Edge — a pending debt as the optimizer sees it
// ──────────────────────────────────────────────────────────────────────────────

// Edge is a pending debt projected for cancellation planning. GroupID is
// uuid.Nil when the originating expense no longer exists (or never did, for
// purchased titles whose source expense was deleted); such edges only take
// part in the cross-group pass.
type Edge struct {
	ID         uuid.UUID
	GroupID    uuid.UUID
	DebtorID   uuid.UUID
	CreditorID uuid.UUID
	Amount     decimal.Decimal
	CreatedAt  time.Time
}

// GroupPlan lists the debts an intra-group pass cancels in one group, plus
// the total cancelled amount for the group's optimization audit entry.
type GroupPlan struct {
	GroupID   uuid.UUID
	CancelIDs []uuid.UUID
	Total     decimal.Decimal
}

// pairKey orders two user ids so that an unordered pair maps to one key.
type pairKey struct {
	lo, hi uuid.UUID
}

func makePair(a, b uuid.UUID) pairKey {
	if a.String() < b.String() {
		return pairKey{lo: a, hi: b}
	}
	return pairKey{lo: b, hi: a}
}

// sortEdges orders edges deterministically: oldest first, ID as tiebreak.
func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if !edges[i].CreatedAt.Equal(edges[j].CreatedAt) {
			return edges[i].CreatedAt.Before(edges[j].CreatedAt)
		}
		return edges[i].ID.String() < edges[j].ID.String()
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Intra-group pass
// ──────────────────────────────────────────────────────────────────────────────

// PlanIntraGroup plans the per-group cancellation pass. For every group, and
// every unordered user pair with debt flowing in both directions, it cancels
// debts of the smaller direction — greedily, oldest first, never splitting a
// debt — until min(sum A→B, sum B→A) is exhausted. Whatever does not fit is
// left untouched, so the pass never cancels more than the matched minimum.
//
// The plan is deterministic for a given edge set. Groups with nothing to
// cancel produce no plan.
func PlanIntraGroup(edges []Edge) []GroupPlan {
	byGroup := make(map[uuid.UUID][]Edge)
	for _, e := range edges {
		if e.GroupID == uuid.Nil {
			continue
		}
		byGroup[e.GroupID] = append(byGroup[e.GroupID], e)
	}

	groupIDs := make([]uuid.UUID, 0, len(byGroup))
	for id := range byGroup {
		groupIDs = append(groupIDs, id)
	}
	sort.Slice(groupIDs, func(i, j int) bool { return groupIDs[i].String() < groupIDs[j].String() })

	var plans []GroupPlan
	for _, gid := range groupIDs {
		plan := planGroup(gid, byGroup[gid])
		if len(plan.CancelIDs) > 0 {
			plans = append(plans, plan)
		}
	}
	return plans
}

func planGroup(groupID uuid.UUID, edges []Edge) GroupPlan {
	// Directional sums per (debtor, creditor).
	type direction struct{ debtor, creditor uuid.UUID }
	sums := make(map[direction]decimal.Decimal)
	for _, e := range edges {
		d := direction{e.DebtorID, e.CreditorID}
		sums[d] = sums[d].Add(e.Amount)
	}

	pairs := make(map[pairKey]bool)
	for d := range sums {
		pairs[makePair(d.debtor, d.creditor)] = true
	}
	keys := make([]pairKey, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].lo != keys[j].lo {
			return keys[i].lo.String() < keys[j].lo.String()
		}
		return keys[i].hi.String() < keys[j].hi.String()
	})

	plan := GroupPlan{GroupID: groupID}
	for _, k := range keys {
		loToHi := sums[direction{k.lo, k.hi}]
		hiToLo := sums[direction{k.hi, k.lo}]
		if !loToHi.IsPositive() || !hiToLo.IsPositive() {
			continue // debt flows one way only
		}

		// The smaller direction is consumed; ties resolve to lo→hi.
		smallDebtor, smallCreditor := k.lo, k.hi
		matched := loToHi
		if hiToLo.LessThan(loToHi) {
			smallDebtor, smallCreditor = k.hi, k.lo
			matched = hiToLo
		}

		var candidates []Edge
		for _, e := range edges {
			if e.DebtorID == smallDebtor && e.CreditorID == smallCreditor {
				candidates = append(candidates, e)
			}
		}
		sortEdges(candidates)

		remaining := matched
		for _, e := range candidates {
			if e.Amount.GreaterThan(remaining) {
				continue
			}
			plan.CancelIDs = append(plan.CancelIDs, e.ID)
			plan.Total = plan.Total.Add(e.Amount)
			remaining = remaining.Sub(e.Amount)
			if !remaining.IsPositive() {
				break
			}
		}
	}
	return plan
}

// ──────────────────────────────────────────────────────────────────────────────
// Cross-group pass
// ──────────────────────────────────────────────────────────────────────────────

// PlanCrossGroup plans the global cleanup pass over the whole pending set
// (group membership irrelevant). Debts are bucketed by unordered user pair;
// when a pair's net directional amount is within tolerance of zero, every
// debt between that pair is cancelled — full history, not just the matched
// portion. This is intentionally more aggressive than the intra-group pass:
// a zero net position leaves nothing worth keeping on the books.
//
// Returns the ids to cancel and the matched amount (the directional minimum,
// which for a near-zero pair is what each side effectively owed) for the
// global optimization audit entry.
func PlanCrossGroup(edges []Edge) (cancelIDs []uuid.UUID, matched decimal.Decimal) {
	type bucket struct {
		loToHi decimal.Decimal
		hiToLo decimal.Decimal
		edges  []Edge
	}
	buckets := make(map[pairKey]*bucket)
	for _, e := range edges {
		k := makePair(e.DebtorID, e.CreditorID)
		b := buckets[k]
		if b == nil {
			b = &bucket{}
			buckets[k] = b
		}
		if e.DebtorID == k.lo {
			b.loToHi = b.loToHi.Add(e.Amount)
		} else {
			b.hiToLo = b.hiToLo.Add(e.Amount)
		}
		b.edges = append(b.edges, e)
	}

	keys := make([]pairKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].lo != keys[j].lo {
			return keys[i].lo.String() < keys[j].lo.String()
		}
		return keys[i].hi.String() < keys[j].hi.String()
	})

	matched = decimal.Zero
	for _, k := range keys {
		b := buckets[k]
		net := b.loToHi.Sub(b.hiToLo)
		if !IsZero(net) {
			continue
		}
		sortEdges(b.edges)
		for _, e := range b.edges {
			cancelIDs = append(cancelIDs, e.ID)
		}
		matched = matched.Add(decimal.Min(b.loToHi, b.hiToLo))
	}
	return cancelIDs, matched
}
