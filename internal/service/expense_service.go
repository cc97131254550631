package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caravela/splitmarket/internal/config"
	"github.com/caravela/splitmarket/internal/domain"
	"github.com/caravela/splitmarket/internal/ledger"
	"github.com/caravela/splitmarket/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Optimizer is the minimal interface ExpenseService needs from
// OptimizerService, injected post-construction to avoid a cycle.
type Optimizer interface {
	Optimize(ctx context.Context) (int, error)
}

// ──────────────────────────────────────────────────────────────────────────────
// Request / Response types
// ──────────────────────────────────────────────────────────────────────────────

// CreateExpenseRequest contains the fields required to record an expense.
// GroupID comes from the route path, not the body.
type CreateExpenseRequest struct {
	GroupID        uuid.UUID       `json:"-"`
	Description    string          `json:"description"     binding:"required,max=200"`
	Amount         decimal.Decimal `json:"amount"          binding:"required"`
	Date           *time.Time      `json:"date"`
	ParticipantIDs []uuid.UUID     `json:"participant_ids" binding:"required"`
}

// ExpenseResult pairs a stored expense with the debts its split produced.
type ExpenseResult struct {
	Expense *domain.Expense `json:"expense"`
	Debts   []*domain.Debt  `json:"debts"`
	Share   decimal.Decimal `json:"share_per_person"`
}

// ──────────────────────────────────────────────────────────────────────────────
// ExpenseService
// ──────────────────────────────────────────────────────────────────────────────

// ExpenseService records expenses and materializes their equal-share debts.
type ExpenseService struct {
	db        *sqlx.DB
	expRepo   *repository.ExpenseRepository
	debtRepo  *repository.DebtRepository
	groupRepo *repository.GroupRepository
	auditRepo *repository.AuditRepository
	cfg       *config.Config
	optimizer Optimizer // injected after OptimizerService is built
}

// NewExpenseService creates an ExpenseService.
func NewExpenseService(
	db *sqlx.DB,
	expRepo *repository.ExpenseRepository,
	debtRepo *repository.DebtRepository,
	groupRepo *repository.GroupRepository,
	auditRepo *repository.AuditRepository,
	cfg *config.Config,
) *ExpenseService {
	return &ExpenseService{
		db:        db,
		expRepo:   expRepo,
		debtRepo:  debtRepo,
		groupRepo: groupRepo,
		auditRepo: auditRepo,
		cfg:       cfg,
	}
}

// SetOptimizer injects the OptimizerService dependency post-construction.
func (s *ExpenseService) SetOptimizer(o Optimizer) { s.optimizer = o }

// ──────────────────────────────────────────────────────────────────────────────
// CreateExpense
// ──────────────────────────────────────────────────────────────────────────────

// CreateExpense stores an expense paid by the actor and one pending debt per
// participant, all in a single transaction. The payer absorbs their own share;
// every debtor owes amount/(participants+1), due in cfg.Ledger.DueDays.
//
// After a successful commit the debt optimizer runs once over the pending set.
func (s *ExpenseService) CreateExpense(ctx context.Context, actorID uuid.UUID, req CreateExpenseRequest) (*ExpenseResult, error) {
	if _, err := s.groupRepo.GetByID(ctx, req.GroupID); err != nil {
		return nil, err
	}
	isMember, err := s.groupRepo.IsMember(ctx, actorID, req.GroupID)
	if err != nil {
		return nil, fmt.Errorf("expense_service.CreateExpense: membership: %w", err)
	}
	if !isMember {
		return nil, domain.ErrNotGroupMember
	}

	// Every participant must belong to the group.
	for _, pid := range req.ParticipantIDs {
		ok, err := s.groupRepo.IsMember(ctx, pid, req.GroupID)
		if err != nil {
			return nil, fmt.Errorf("expense_service.CreateExpense: participant: %w", err)
		}
		if !ok {
			return nil, domain.ErrNotGroupMember
		}
	}

	debtors, share, err := ledger.SplitShares(req.Amount, actorID, req.ParticipantIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	date := now
	if req.Date != nil {
		date = *req.Date
	}
	expense := &domain.Expense{
		ID:          uuid.New(),
		GroupID:     req.GroupID,
		PayerID:     actorID,
		Description: req.Description,
		Amount:      req.Amount,
		Date:        date,
		CreatedAt:   now,
	}

	dueDate := now.AddDate(0, 0, s.cfg.Ledger.DueDays)
	expenseID := expense.ID
	debts := make([]*domain.Debt, 0, len(debtors))
	for _, debtorID := range debtors {
		debts = append(debts, &domain.Debt{
			ID:         uuid.New(),
			ExpenseID:  &expenseID,
			DebtorID:   debtorID,
			CreditorID: actorID,
			Amount:     share,
			Status:     domain.DebtPending,
			Source:     domain.SourceGroupDebt,
			DueDate:    &dueDate,
			CreatedAt:  now,
		})
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("expense_service.CreateExpense: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.expRepo.Create(ctx, tx, expense); err != nil {
		return nil, fmt.Errorf("expense_service.CreateExpense: create expense: %w", err)
	}
	if err = s.debtRepo.CreateBatch(ctx, tx, debts); err != nil {
		return nil, fmt.Errorf("expense_service.CreateExpense: create debts: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("expense_service.CreateExpense: commit: %w", err)
	}

	// The new debts may cancel against opposite obligations right away.
	// Optimizer failures do not undo the committed expense; the next run
	// catches up.
	if s.optimizer != nil {
		if _, optErr := s.optimizer.Optimize(ctx); optErr != nil {
			slog.Warn("post-expense debt optimization failed", "expense_id", expense.ID, "err", optErr)
		}
	}

	return &ExpenseResult{Expense: expense, Debts: debts, Share: share}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// DeleteExpense
// ──────────────────────────────────────────────────────────────────────────────

// DeleteExpense removes an expense and cancels its still-pending debts. Only
// the payer may delete. Paid and sold debts survive with a detached expense
// reference; what happened, happened.
func (s *ExpenseService) DeleteExpense(ctx context.Context, actorID, expenseID uuid.UUID) error {
	expense, err := s.expRepo.GetByID(ctx, expenseID)
	if err != nil {
		return err
	}
	if expense.PayerID != actorID {
		return domain.ErrForbidden
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("expense_service.DeleteExpense: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	pending, err := s.debtRepo.PendingByExpense(ctx, tx, expenseID)
	if err != nil {
		return fmt.Errorf("expense_service.DeleteExpense: pending: %w", err)
	}

	cancelled := decimal.Zero
	if len(pending) > 0 {
		ids := make([]uuid.UUID, 0, len(pending))
		for _, d := range pending {
			ids = append(ids, d.ID)
			cancelled = cancelled.Add(d.Amount)
		}
		if _, err = s.debtRepo.CancelBatch(ctx, tx, ids); err != nil {
			return fmt.Errorf("expense_service.DeleteExpense: cancel: %w", err)
		}
	}

	if err = s.expRepo.Delete(ctx, tx, expenseID); err != nil {
		return fmt.Errorf("expense_service.DeleteExpense: delete: %w", err)
	}

	groupID := expense.GroupID
	actorCopy := actorID
	entry := &domain.AuditLog{
		ID:        uuid.New(),
		Type:      domain.AuditCancellation,
		UserID:    &actorCopy,
		GroupID:   &groupID,
		Amount:    &cancelled,
		CreatedAt: time.Now().UTC(),
	}
	if err = s.auditRepo.Log(ctx, tx, entry); err != nil {
		return fmt.Errorf("expense_service.DeleteExpense: audit: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("expense_service.DeleteExpense: commit: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────────────────────────

// ListGroupExpenses returns a group's expenses, restricted to its members.
func (s *ExpenseService) ListGroupExpenses(ctx context.Context, actorID, groupID uuid.UUID) ([]domain.Expense, error) {
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	isMember, err := s.groupRepo.IsMember(ctx, actorID, groupID)
	if err != nil {
		return nil, fmt.Errorf("expense_service.ListGroupExpenses: membership: %w", err)
	}
	if !isMember {
		return nil, domain.ErrNotGroupMember
	}
	expenses, err := s.expRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("expense_service.ListGroupExpenses: %w", err)
	}
	return expenses, nil
}
