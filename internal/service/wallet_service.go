package service

import (
	"context"
	"fmt"
	"time"

	"github.com/caravela/splitmarket/internal/domain"
	"github.com/caravela/splitmarket/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// WalletService exposes wallet balances, history, and top-ups.
type WalletService struct {
	db         *sqlx.DB
	walletRepo *repository.WalletRepository
}

// NewWalletService creates a WalletService.
func NewWalletService(db *sqlx.DB, walletRepo *repository.WalletRepository) *WalletService {
	return &WalletService{db: db, walletRepo: walletRepo}
}

// GetWallet returns the user's wallet.
func (s *WalletService) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("wallet_service.GetWallet: %w", err)
	}
	return wallet, nil
}

// TopUp credits the user's wallet and records the transaction. Payment
// provider integration sits outside this service; by the time TopUp is called
// the money is considered received.
func (s *WalletService) TopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*domain.Wallet, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrNonPositiveAmount
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("wallet_service.TopUp: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	wallet, err := s.walletRepo.Credit(ctx, tx, userID, amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:            uuid.New(),
		WalletID:      wallet.ID,
		Type:          domain.TxCredit,
		Amount:        amount,
		BalanceBefore: wallet.Balance,
		BalanceAfter:  wallet.Balance.Add(amount),
		Description:   "Wallet top-up",
		CreatedAt:     now,
	}
	if err = s.walletRepo.LogTransaction(ctx, tx, txn); err != nil {
		return nil, fmt.Errorf("wallet_service.TopUp: log: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("wallet_service.TopUp: commit: %w", err)
	}

	wallet.Balance = wallet.Balance.Add(amount)
	wallet.UpdatedAt = now
	return wallet, nil
}

// GetTransactions returns paginated wallet history, newest first.
func (s *WalletService) GetTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Transaction, error) {
	txns, err := s.walletRepo.GetTransactions(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("wallet_service.GetTransactions: %w", err)
	}
	return txns, nil
}
