package service

import (
	"context"
	"fmt"

	"github.com/caravela/splitmarket/internal/domain"
	"github.com/caravela/splitmarket/internal/ledger"
	"github.com/caravela/splitmarket/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Response types
// ──────────────────────────────────────────────────────────────────────────────

// MemberBalance is one member's signed net position inside a group.
type MemberBalance struct {
	UserID  uuid.UUID       `json:"user_id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// DebtPosition is a net pending position against one counterparty.
type DebtPosition struct {
	UserID uuid.UUID       `json:"user_id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// BalanceSummary is a user's dashboard view of the ledger. NetBalance is the
// balance-derived position summed over every group the user belongs to;
// TitlesToReceive counts purchased titles separately, since bought claims are
// not part of any group position.
type BalanceSummary struct {
	TotalIOwe       decimal.Decimal `json:"total_i_owe"`
	TotalOwedToMe   decimal.Decimal `json:"total_owed_to_me"`
	Net             decimal.Decimal `json:"net"`
	NetBalance      decimal.Decimal `json:"net_balance"`
	TitlesToReceive decimal.Decimal `json:"titles_to_receive"`
	PendingIOwe     int             `json:"pending_i_owe"`
	PendingOwedMe   int             `json:"pending_owed_to_me"`
}

// ──────────────────────────────────────────────────────────────────────────────
// BalanceService
// ──────────────────────────────────────────────────────────────────────────────

// BalanceService derives balances from expenses, settled debts, and sold
// titles. It never writes; everything here is a read-model over the ledger.
type BalanceService struct {
	groupRepo *repository.GroupRepository
	expRepo   *repository.ExpenseRepository
	debtRepo  *repository.DebtRepository
}

// NewBalanceService creates a BalanceService.
func NewBalanceService(
	groupRepo *repository.GroupRepository,
	expRepo *repository.ExpenseRepository,
	debtRepo *repository.DebtRepository,
) *BalanceService {
	return &BalanceService{
		groupRepo: groupRepo,
		expRepo:   expRepo,
		debtRepo:  debtRepo,
	}
}

// balancesFor computes the raw balance map of one group: equal-share base from
// expenses, shifted by paid debts, sold titles, and virtual payments between
// members.
func (s *BalanceService) balancesFor(ctx context.Context, groupID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	memberIDs, err := s.groupRepo.MemberIDs(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("balance_service.balancesFor: members: %w", err)
	}
	expenses, err := s.expRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("balance_service.balancesFor: expenses: %w", err)
	}

	var adjustments []domain.Debt
	paid, err := s.debtRepo.PaidByExpenseGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("balance_service.balancesFor: paid: %w", err)
	}
	adjustments = append(adjustments, paid...)

	sold, err := s.debtRepo.SoldByExpenseGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("balance_service.balancesFor: sold: %w", err)
	}
	adjustments = append(adjustments, sold...)

	virtual, err := s.debtRepo.VirtualPaidAmong(ctx, memberIDs)
	if err != nil {
		return nil, fmt.Errorf("balance_service.balancesFor: virtual: %w", err)
	}
	adjustments = append(adjustments, virtual...)

	return ledger.GroupBalances(memberIDs, expenses, adjustments), nil
}

// GroupBalances returns every member's balance in a group, restricted to its
// members.
func (s *BalanceService) GroupBalances(ctx context.Context, actorID, groupID uuid.UUID) ([]MemberBalance, error) {
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	isMember, err := s.groupRepo.IsMember(ctx, actorID, groupID)
	if err != nil {
		return nil, fmt.Errorf("balance_service.GroupBalances: membership: %w", err)
	}
	if !isMember {
		return nil, domain.ErrNotGroupMember
	}

	balances, err := s.balancesFor(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members, err := s.groupRepo.Members(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("balance_service.GroupBalances: members: %w", err)
	}

	out := make([]MemberBalance, 0, len(members))
	for _, m := range members {
		out = append(out, MemberBalance{
			UserID:  m.ID,
			Name:    m.Name,
			Balance: balances[m.ID].Round(2),
		})
	}
	return out, nil
}

// SharedGroupBalances computes the balance map of every group the two users
// share. Settlement and marketplace pricing both run on this projection.
func (s *BalanceService) SharedGroupBalances(ctx context.Context, userA, userB uuid.UUID) ([]map[uuid.UUID]decimal.Decimal, error) {
	groupIDs, err := s.groupRepo.SharedGroupIDs(ctx, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("balance_service.SharedGroupBalances: %w", err)
	}
	maps := make([]map[uuid.UUID]decimal.Decimal, 0, len(groupIDs))
	for _, gid := range groupIDs {
		balances, err := s.balancesFor(ctx, gid)
		if err != nil {
			return nil, err
		}
		maps = append(maps, balances)
	}
	return maps, nil
}

// NetBalance sums the user's signed position over every group they belong to.
// Positive = the groups collectively owe the user. Rounded to 2 decimals.
func (s *BalanceService) NetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	groupIDs, err := s.groupRepo.GroupIDsByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance_service.NetBalance: %w", err)
	}
	maps := make([]map[uuid.UUID]decimal.Decimal, 0, len(groupIDs))
	for _, gid := range groupIDs {
		balances, err := s.balancesFor(ctx, gid)
		if err != nil {
			return decimal.Zero, err
		}
		maps = append(maps, balances)
	}
	return ledger.NetAcross(maps, userID).Round(2), nil
}

// Summary aggregates a user's pending debts into dashboard totals. Pending
// purchased titles are carved out of TotalOwedToMe into TitlesToReceive; they
// are claims the user bought, not positions earned inside a group.
func (s *BalanceService) Summary(ctx context.Context, userID uuid.UUID) (*BalanceSummary, error) {
	owing, err := s.debtRepo.PendingByDebtor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("balance_service.Summary: owing: %w", err)
	}
	owed, err := s.debtRepo.PendingByCreditor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("balance_service.Summary: owed: %w", err)
	}
	netBalance, err := s.NetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	sum := &BalanceSummary{NetBalance: netBalance}
	for _, d := range owing {
		sum.TotalIOwe = sum.TotalIOwe.Add(d.Amount)
	}
	for _, d := range owed {
		if d.Source == domain.SourcePurchasedTitle {
			sum.TitlesToReceive = sum.TitlesToReceive.Add(d.Amount)
			continue
		}
		sum.TotalOwedToMe = sum.TotalOwedToMe.Add(d.Amount)
	}
	sum.Net = sum.TotalOwedToMe.Sub(sum.TotalIOwe)
	sum.PendingIOwe = len(owing)
	sum.PendingOwedMe = len(owed)
	return sum, nil
}

// ListMyDebts returns the debts the user currently owes.
func (s *BalanceService) ListMyDebts(ctx context.Context, userID uuid.UUID) ([]*domain.DebtView, error) {
	debts, err := s.debtRepo.PendingByDebtor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("balance_service.ListMyDebts: %w", err)
	}
	return debts, nil
}

// ListOwedToMe returns the debts currently owed to the user.
func (s *BalanceService) ListOwedToMe(ctx context.Context, userID uuid.UUID) ([]*domain.DebtView, error) {
	debts, err := s.debtRepo.PendingByCreditor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("balance_service.ListOwedToMe: %w", err)
	}
	return debts, nil
}

// ConsolidatedPositions returns, per counterparty, the user's net positive
// pending claim: sum of debts owed to the user minus debts the user owes back.
// Counterparties with a zero or negative net are omitted.
func (s *BalanceService) ConsolidatedPositions(ctx context.Context, userID uuid.UUID) ([]DebtPosition, error) {
	owed, err := s.debtRepo.PendingByCreditor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("balance_service.ConsolidatedPositions: owed: %w", err)
	}
	owing, err := s.debtRepo.PendingByDebtor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("balance_service.ConsolidatedPositions: owing: %w", err)
	}

	nets := make(map[uuid.UUID]decimal.Decimal)
	names := make(map[uuid.UUID]string)
	order := make([]uuid.UUID, 0)
	for _, d := range owed {
		if _, seen := nets[d.DebtorID]; !seen {
			order = append(order, d.DebtorID)
		}
		nets[d.DebtorID] = nets[d.DebtorID].Add(d.Amount)
		names[d.DebtorID] = d.DebtorName
	}
	for _, d := range owing {
		if _, seen := nets[d.CreditorID]; !seen {
			continue // nothing owed to us from this counterparty
		}
		nets[d.CreditorID] = nets[d.CreditorID].Sub(d.Amount)
	}

	positions := make([]DebtPosition, 0, len(order))
	for _, id := range order {
		net := nets[id]
		if net.LessThan(domain.Tolerance) {
			continue
		}
		positions = append(positions, DebtPosition{
			UserID: id,
			Name:   names[id],
			Amount: net.Round(2),
		})
	}
	return positions, nil
}
