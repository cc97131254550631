package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caravela/splitmarket/internal/domain"
	"github.com/caravela/splitmarket/internal/ledger"
	"github.com/caravela/splitmarket/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// PurchaseResult describes a completed receivable purchase.
type PurchaseResult struct {
	Receivable *domain.Receivable `json:"receivable"`
	NewDebts   []*domain.Debt     `json:"new_debts"`
	PricePaid  decimal.Decimal    `json:"price_paid"`
}

// MyListings groups a user's marketplace activity.
type MyListings struct {
	Selling []*domain.Receivable `json:"selling"`
	Bought  []*domain.Receivable `json:"bought"`
}

// MarketplaceService runs the receivable market: creditors list claims at a
// discount, buyers pick them up for the nominal upside. Listing freezes the
// underlying debts; purchase re-issues them against the buyer; cancellation
// releases them.
type MarketplaceService struct {
	db         *sqlx.DB
	recRepo    *repository.ReceivableRepository
	debtRepo   *repository.DebtRepository
	walletRepo *repository.WalletRepository
	balanceSvc *BalanceService
	optimizer  Optimizer // injected after OptimizerService is built
}

// NewMarketplaceService creates a MarketplaceService.
func NewMarketplaceService(
	db *sqlx.DB,
	recRepo *repository.ReceivableRepository,
	debtRepo *repository.DebtRepository,
	walletRepo *repository.WalletRepository,
	balanceSvc *BalanceService,
) *MarketplaceService {
	return &MarketplaceService{
		db:         db,
		recRepo:    recRepo,
		debtRepo:   debtRepo,
		walletRepo: walletRepo,
		balanceSvc: balanceSvc,
	}
}

// SetOptimizer injects the OptimizerService dependency post-construction.
func (s *MarketplaceService) SetOptimizer(o Optimizer) { s.optimizer = o }

// ──────────────────────────────────────────────────────────────────────────────
// ListForSale
// ──────────────────────────────────────────────────────────────────────────────

// ListForSale puts a claim on the market below its nominal value. The target
// is either one pending debt, valued at its amount, or the seller's whole
// position against one debtor, valued at the debtor's balance-derived
// exposure across their shared groups; either way the implicated pending
// debts freeze under the new listing until it is bought or withdrawn. One
// active listing per (seller, debtor) pair.
func (s *MarketplaceService) ListForSale(ctx context.Context, sellerID uuid.UUID, target domain.ClaimTarget, price decimal.Decimal) (*domain.Receivable, error) {
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrNonPositiveAmount
	}

	var debtorID uuid.UUID
	var nominal decimal.Decimal
	if target.IsConsolidated() {
		debtorID = target.DebtorID()
		if debtorID == sellerID {
			return nil, domain.ErrInvalidClaimTarget
		}
		// The consolidated claim is worth what the debtor's group balances
		// say, not the raw sum of pending debt rows: optimizer-collapsed or
		// offsetting positions make those diverge.
		balances, balErr := s.balanceSvc.SharedGroupBalances(ctx, sellerID, debtorID)
		if balErr != nil {
			return nil, balErr
		}
		nominal = ledger.DebtorExposure(balances, debtorID).Round(2)
		if nominal.LessThan(domain.Tolerance) {
			return nil, domain.ErrNothingOwed
		}
	} else {
		debt, err := s.debtRepo.GetByID(ctx, target.DebtID())
		if err != nil {
			return nil, err
		}
		if debt.CreditorID != sellerID {
			return nil, domain.ErrNotCreditor
		}
		if debt.Status == domain.DebtSoldAsTitle {
			return nil, domain.ErrDebtAlreadyListed
		}
		if !debt.IsPending() {
			return nil, domain.ErrDebtNotPending
		}
		debtorID = debt.DebtorID
		if debtorID == sellerID {
			return nil, domain.ErrInvalidClaimTarget
		}
		nominal = debt.Amount
	}
	if price.GreaterThanOrEqual(nominal) {
		return nil, domain.ErrPriceNotBelowNominal
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("marketplace_service.ListForSale: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	exists, err := s.recRepo.ActiveExistsForPair(ctx, tx, sellerID, debtorID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDebtAlreadyListed
	}

	now := time.Now().UTC()
	rec := &domain.Receivable{
		ID:            uuid.New(),
		OwnerID:       sellerID,
		NominalAmount: nominal,
		SellingPrice:  price,
		Status:        domain.ReceivableForSale,
		CreatedAt:     now,
	}

	if target.IsConsolidated() {
		// A consolidated claim already transferred to a buyer stays off the
		// market for this pair forever.
		var sold bool
		sold, err = s.recRepo.SoldConsolidatedExists(ctx, tx, sellerID, debtorID)
		if err != nil {
			return nil, err
		}
		if sold {
			err = domain.ErrDebtAlreadyListed
			return nil, err
		}
		debtor := debtorID
		rec.ConsolidatedDebtorID = &debtor
		if _, err = s.debtRepo.FreezeByPair(ctx, tx, debtorID, sellerID, rec.ID); err != nil {
			return nil, err
		}
	} else {
		debtID := target.DebtID()
		rec.DebtID = &debtID
		if _, err = s.debtRepo.FreezeOne(ctx, tx, debtID, rec.ID); err != nil {
			return nil, err
		}
	}

	if err = s.recRepo.Create(ctx, tx, rec); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("marketplace_service.ListForSale: commit: %w", err)
	}
	return rec, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Buy
// ──────────────────────────────────────────────────────────────────────────────

// Buy purchases a for-sale receivable. The buyer pays the asking price from
// their wallet to the seller; the frozen debts stay retired on the seller's
// side and are re-issued as fresh pending debts owed to the buyer, keeping
// amount, expense link, and due date. Sellers cannot buy their own listings.
func (s *MarketplaceService) Buy(ctx context.Context, buyerID, receivableID uuid.UUID) (*PurchaseResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("marketplace_service.Buy: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rec, err := s.recRepo.GetForSale(ctx, tx, receivableID)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID == buyerID {
		return nil, domain.ErrOwnReceivable
	}

	now := time.Now().UTC()

	buyerWallet, err := s.walletRepo.Debit(ctx, tx, buyerID, rec.SellingPrice)
	if err != nil {
		return nil, err
	}
	sellerWallet, err := s.walletRepo.Credit(ctx, tx, rec.OwnerID, rec.SellingPrice)
	if err != nil {
		return nil, err
	}

	recID := rec.ID
	debitTxn := &domain.Transaction{
		ID:            uuid.New(),
		WalletID:      buyerWallet.ID,
		Type:          domain.TxDebit,
		Amount:        rec.SellingPrice,
		BalanceBefore: buyerWallet.Balance,
		BalanceAfter:  buyerWallet.Balance.Sub(rec.SellingPrice),
		RefID:         &recID,
		Description:   "Receivable purchased",
		CreatedAt:     now,
	}
	if err = s.walletRepo.LogTransaction(ctx, tx, debitTxn); err != nil {
		return nil, fmt.Errorf("marketplace_service.Buy: log debit: %w", err)
	}
	creditTxn := &domain.Transaction{
		ID:            uuid.New(),
		WalletID:      sellerWallet.ID,
		Type:          domain.TxCredit,
		Amount:        rec.SellingPrice,
		BalanceBefore: sellerWallet.Balance,
		BalanceAfter:  sellerWallet.Balance.Add(rec.SellingPrice),
		RefID:         &recID,
		Description:   "Receivable sold",
		CreatedAt:     now,
	}
	if err = s.walletRepo.LogTransaction(ctx, tx, creditTxn); err != nil {
		return nil, fmt.Errorf("marketplace_service.Buy: log credit: %w", err)
	}

	if err = s.recRepo.MarkSold(ctx, tx, rec.ID, buyerID, now); err != nil {
		return nil, err
	}

	frozen, err := s.debtRepo.FrozenByReceivable(ctx, tx, rec.ID)
	if err != nil {
		return nil, err
	}

	newDebts := make([]*domain.Debt, 0, len(frozen))
	for _, old := range frozen {
		newDebts = append(newDebts, &domain.Debt{
			ID:         uuid.New(),
			ExpenseID:  old.ExpenseID,
			DebtorID:   old.DebtorID,
			CreditorID: buyerID,
			Amount:     old.Amount,
			Status:     domain.DebtPending,
			Source:     domain.SourcePurchasedTitle,
			DueDate:    old.DueDate,
			CreatedAt:  now,
		})
	}
	if err = s.debtRepo.CreateBatch(ctx, tx, newDebts); err != nil {
		return nil, fmt.Errorf("marketplace_service.Buy: reissue: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("marketplace_service.Buy: commit: %w", err)
	}

	// Re-issued debts may cancel against obligations the buyer already
	// carries; run the optimizer once now that the trade is committed.
	if s.optimizer != nil {
		if _, optErr := s.optimizer.Optimize(ctx); optErr != nil {
			slog.Warn("post-purchase debt optimization failed", "receivable_id", rec.ID, "err", optErr)
		}
	}

	rec.Status = domain.ReceivableSold
	rec.BuyerID = &buyerID
	rec.SoldAt = &now
	return &PurchaseResult{Receivable: rec, NewDebts: newDebts, PricePaid: rec.SellingPrice}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancel
// ──────────────────────────────────────────────────────────────────────────────

// Cancel withdraws an unsold listing and releases exactly the debts it froze.
// Only the owner may cancel.
func (s *MarketplaceService) Cancel(ctx context.Context, ownerID, receivableID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("marketplace_service.Cancel: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rec, err := s.recRepo.GetForSale(ctx, tx, receivableID)
	if err != nil {
		return err
	}
	if rec.OwnerID != ownerID {
		return domain.ErrForbidden
	}

	if err = s.recRepo.MarkCancelled(ctx, tx, rec.ID); err != nil {
		return err
	}
	if _, err = s.debtRepo.UnfreezeByReceivable(ctx, tx, rec.ID); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("marketplace_service.Cancel: commit: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────────────────────────

// Browse returns the anonymized market book, excluding the viewer's own listings.
func (s *MarketplaceService) Browse(ctx context.Context, viewerID uuid.UUID, limit, offset int) ([]domain.MarketListing, error) {
	listings, err := s.recRepo.BrowseForSale(ctx, viewerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("marketplace_service.Browse: %w", err)
	}
	return listings, nil
}

// Mine returns the user's own marketplace activity, both sides.
func (s *MarketplaceService) Mine(ctx context.Context, userID uuid.UUID) (*MyListings, error) {
	selling, err := s.recRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("marketplace_service.Mine: selling: %w", err)
	}
	bought, err := s.recRepo.ListByBuyer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("marketplace_service.Mine: bought: %w", err)
	}
	return &MyListings{Selling: selling, Bought: bought}, nil
}

// Stats returns aggregates over the current for-sale book.
func (s *MarketplaceService) Stats(ctx context.Context) (*domain.MarketStats, error) {
	stats, err := s.recRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("marketplace_service.Stats: %w", err)
	}
	return stats, nil
}
