package service

import (
	"context"
	"fmt"
	"time"

	"github.com/caravela/splitmarket/internal/domain"
	"github.com/caravela/splitmarket/internal/ledger"
	"github.com/caravela/splitmarket/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// PaymentResult describes a completed settlement. Wallet is the payer's
// wallet after the debit.
type PaymentResult struct {
	Debt     *domain.Debt    `json:"debt"`
	Amount   decimal.Decimal `json:"amount"`
	Wallet   *domain.Wallet  `json:"wallet"`
	NewScore decimal.Decimal `json:"new_score"`
	OnTime   bool            `json:"on_time"`
}

// SettlementService settles debts against the ledger: a debtor pays a
// concrete debt, or pays off a collapsed net position that no single debt row
// represents anymore. Both paths debit the payer's wallet and leave a paid
// debt plus a debit record behind. The creditor's wallet is never touched;
// what they are owed they collect outside the wallet system.
type SettlementService struct {
	db          *sqlx.DB
	debtRepo    *repository.DebtRepository
	walletRepo  *repository.WalletRepository
	userRepo    *repository.UserRepository
	groupRepo   *repository.GroupRepository
	expRepo     *repository.ExpenseRepository
	auditRepo   *repository.AuditRepository
	balanceSvc  *BalanceService
}

// NewSettlementService creates a SettlementService.
func NewSettlementService(
	db *sqlx.DB,
	debtRepo *repository.DebtRepository,
	walletRepo *repository.WalletRepository,
	userRepo *repository.UserRepository,
	groupRepo *repository.GroupRepository,
	expRepo *repository.ExpenseRepository,
	auditRepo *repository.AuditRepository,
	balanceSvc *BalanceService,
) *SettlementService {
	return &SettlementService{
		db:         db,
		debtRepo:   debtRepo,
		walletRepo: walletRepo,
		userRepo:   userRepo,
		groupRepo:  groupRepo,
		expRepo:    expRepo,
		auditRepo:  auditRepo,
		balanceSvc: balanceSvc,
	}
}

// PayDebt settles whatever the reference points at: a persisted debt row, or
// a virtual (debtor, creditor) position left behind by the optimizer.
func (s *SettlementService) PayDebt(ctx context.Context, payerID uuid.UUID, ref domain.DebtRef) (*PaymentResult, error) {
	if ref.IsVirtual() {
		return s.payVirtual(ctx, payerID, ref)
	}
	return s.payConcrete(ctx, payerID, ref.DebtID())
}

// ──────────────────────────────────────────────────────────────────────────────
// Concrete debt
// ──────────────────────────────────────────────────────────────────────────────

func (s *SettlementService) payConcrete(ctx context.Context, payerID, debtID uuid.UUID) (*PaymentResult, error) {
	debt, err := s.debtRepo.GetByID(ctx, debtID)
	if err != nil {
		return nil, err
	}
	if debt.DebtorID != payerID {
		return nil, domain.ErrNotDebtor
	}
	if !debt.IsPending() {
		return nil, domain.ErrDebtNotPending
	}

	now := time.Now().UTC()
	onTime := !debt.IsOverdue(now)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("settlement_service.payConcrete: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// MarkPaid guards on status='pending'; a concurrent payment or a freeze
	// racing us loses here, before any money moves.
	if err = s.debtRepo.MarkPaid(ctx, tx, debt.ID, now); err != nil {
		return nil, err
	}

	wallet, err := s.debitPayer(ctx, tx, payerID, debt.Amount, debt.ID, now)
	if err != nil {
		return nil, err
	}

	newScore, err := s.applyScore(ctx, tx, payerID, onTime)
	if err != nil {
		return nil, err
	}

	var groupID *uuid.UUID
	if debt.ExpenseID != nil {
		if expense, expErr := s.expRepo.GetByID(ctx, *debt.ExpenseID); expErr == nil {
			groupID = &expense.GroupID
		}
	}
	if err = s.logPayment(ctx, tx, payerID, groupID, debt.Amount, now); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("settlement_service.payConcrete: commit: %w", err)
	}

	debt.Status = domain.DebtPaid
	debt.PaidAt = &now
	return &PaymentResult{Debt: debt, Amount: debt.Amount, Wallet: wallet, NewScore: newScore, OnTime: onTime}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Virtual position
// ──────────────────────────────────────────────────────────────────────────────

// payVirtual settles a collapsed net position: the amount is derived from the
// balances of every group the two users share, attributed proportionally among
// the group's creditors. A synthetic paid debt records the payment so future
// balance computations see it.
func (s *SettlementService) payVirtual(ctx context.Context, payerID uuid.UUID, ref domain.DebtRef) (*PaymentResult, error) {
	debtorID, creditorID := ref.Pair()
	if debtorID != payerID {
		return nil, domain.ErrNotDebtor
	}
	if _, err := s.userRepo.GetByID(ctx, creditorID); err != nil {
		return nil, err
	}

	balances, err := s.balanceSvc.SharedGroupBalances(ctx, debtorID, creditorID)
	if err != nil {
		return nil, err
	}
	owed := ledger.VirtualOwed(balances, debtorID, creditorID)
	if owed.LessThan(domain.Tolerance) {
		return nil, domain.ErrNothingOwed
	}

	// Anchor the synthetic debt to the shared history it settles; nil when the
	// groups hold no expenses at all.
	sharedIDs, err := s.groupRepo.SharedGroupIDs(ctx, debtorID, creditorID)
	if err != nil {
		return nil, fmt.Errorf("settlement_service.payVirtual: shared groups: %w", err)
	}
	expenseRef, err := s.expRepo.AnyIDByGroups(ctx, sharedIDs)
	if err != nil {
		return nil, fmt.Errorf("settlement_service.payVirtual: anchor: %w", err)
	}

	now := time.Now().UTC()
	debt := &domain.Debt{
		ID:         uuid.New(),
		ExpenseID:  expenseRef,
		DebtorID:   debtorID,
		CreditorID: creditorID,
		Amount:     owed,
		Status:     domain.DebtPaid,
		Source:     domain.SourceVirtualPayment,
		PaidAt:     &now,
		CreatedAt:  now,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("settlement_service.payVirtual: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	wallet, err := s.debitPayer(ctx, tx, payerID, owed, debt.ID, now)
	if err != nil {
		return nil, err
	}

	if err = s.debtRepo.Create(ctx, tx, debt); err != nil {
		return nil, fmt.Errorf("settlement_service.payVirtual: create debt: %w", err)
	}

	// Virtual positions carry no due date; paying one is always on time.
	newScore, err := s.applyScore(ctx, tx, payerID, true)
	if err != nil {
		return nil, err
	}

	if err = s.logPayment(ctx, tx, payerID, nil, owed, now); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("settlement_service.payVirtual: commit: %w", err)
	}
	return &PaymentResult{Debt: debt, Amount: owed, Wallet: wallet, NewScore: newScore, OnTime: true}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Shared steps
// ──────────────────────────────────────────────────────────────────────────────

// debitPayer takes the payment out of the payer's locked wallet row and
// records the debit. The creditor's wallet is deliberately not credited;
// collection happens outside the ledger. Returns the wallet after the debit.
func (s *SettlementService) debitPayer(ctx context.Context, tx *sqlx.Tx, payerID uuid.UUID, amount decimal.Decimal, refID uuid.UUID, now time.Time) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.Debit(ctx, tx, payerID, amount)
	if err != nil {
		return nil, err
	}

	ref := refID
	txn := &domain.Transaction{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		Type:          domain.TxDebit,
		Amount:        amount,
		BalanceBefore: wallet.Balance,
		BalanceAfter:  wallet.Balance.Sub(amount),
		RefID:         &ref,
		Description:   "Debt payment",
		CreatedAt:     now,
	}
	if err = s.walletRepo.LogTransaction(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("settlement_service.debitPayer: log: %w", err)
	}

	wallet.Balance = txn.BalanceAfter
	return wallet, nil
}

// applyScore adjusts the payer's payment score and returns the new value.
func (s *SettlementService) applyScore(ctx context.Context, tx *sqlx.Tx, payerID uuid.UUID, onTime bool) (decimal.Decimal, error) {
	user, err := s.userRepo.GetByID(ctx, payerID)
	if err != nil {
		return decimal.Zero, err
	}
	newScore := user.ScoreAfterPayment(onTime)
	if err = s.userRepo.UpdateScore(ctx, tx, payerID, newScore); err != nil {
		return decimal.Zero, err
	}
	return newScore, nil
}

// logPayment appends the payment audit entry.
func (s *SettlementService) logPayment(ctx context.Context, tx *sqlx.Tx, payerID uuid.UUID, groupID *uuid.UUID, amount decimal.Decimal, now time.Time) error {
	payer := payerID
	amt := amount
	entry := &domain.AuditLog{
		ID:        uuid.New(),
		Type:      domain.AuditPayment,
		UserID:    &payer,
		GroupID:   groupID,
		Amount:    &amt,
		CreatedAt: now,
	}
	if err := s.auditRepo.Log(ctx, tx, entry); err != nil {
		return fmt.Errorf("settlement_service.logPayment: %w", err)
	}
	return nil
}
