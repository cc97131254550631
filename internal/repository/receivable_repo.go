package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/caravela/splitmarket/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ReceivableRepository handles all database operations for marketplace listings.
type ReceivableRepository struct {
	db *sqlx.DB
}

// NewReceivableRepository creates a new ReceivableRepository.
func NewReceivableRepository(db *sqlx.DB) *ReceivableRepository {
	return &ReceivableRepository{db: db}
}

// Create inserts a new receivable row within an existing transaction.
func (r *ReceivableRepository) Create(ctx context.Context, tx *sqlx.Tx, rec *domain.Receivable) error {
	query := `
		INSERT INTO receivables
			(id, owner_id, buyer_id, debt_id, consolidated_debtor_id, nominal_amount, selling_price, status, created_at, sold_at)
		VALUES
			(:id, :owner_id, :buyer_id, :debt_id, :consolidated_debtor_id, :nominal_amount, :selling_price, :status, :created_at, :sold_at)`
	if _, err := tx.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("receivable_repo.Create: %w", err)
	}
	return nil
}

// GetByID fetches a receivable by primary key.
func (r *ReceivableRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Receivable, error) {
	var rec domain.Receivable
	err := r.db.GetContext(ctx, &rec, `SELECT * FROM receivables WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReceivableNotFound
		}
		return nil, fmt.Errorf("receivable_repo.GetByID: %w", err)
	}
	return &rec, nil
}

// GetForSale fetches a receivable by id and locks it, returning
// ErrReceivableNotForSale when it exists but is no longer on the market.
// Used by Buy and Cancel so concurrent purchases serialize on the row.
func (r *ReceivableRepository) GetForSale(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*domain.Receivable, error) {
	var rec domain.Receivable
	err := tx.GetContext(ctx, &rec, `SELECT * FROM receivables WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrReceivableNotFound
		}
		return nil, fmt.Errorf("receivable_repo.GetForSale: %w", err)
	}
	if rec.Status != domain.ReceivableForSale {
		return nil, domain.ErrReceivableNotForSale
	}
	return &rec, nil
}

// ActiveExistsForPair reports whether the owner already has a for-sale listing
// against this debtor (single or consolidated).
func (r *ReceivableRepository) ActiveExistsForPair(ctx context.Context, tx *sqlx.Tx, ownerID, debtorID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1
			FROM receivables r
			LEFT JOIN debts d ON d.id = r.debt_id
			WHERE r.owner_id = $1 AND r.status = 'for_sale'
			  AND (r.consolidated_debtor_id = $2 OR d.debtor_id = $2)
		)`,
		ownerID, debtorID)
	if err != nil {
		return false, fmt.Errorf("receivable_repo.ActiveExistsForPair: %w", err)
	}
	return exists, nil
}

// SoldConsolidatedExists reports whether the owner has already sold a
// consolidated receivable against this debtor. Sold consolidated claims block
// the pair permanently; cancelled ones do not.
func (r *ReceivableRepository) SoldConsolidatedExists(ctx context.Context, tx *sqlx.Tx, ownerID, debtorID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1
			FROM receivables
			WHERE owner_id = $1 AND consolidated_debtor_id = $2 AND status = 'sold'
		)`,
		ownerID, debtorID)
	if err != nil {
		return false, fmt.Errorf("receivable_repo.SoldConsolidatedExists: %w", err)
	}
	return exists, nil
}

// MarkSold transfers a for-sale receivable to the buyer within a transaction.
func (r *ReceivableRepository) MarkSold(ctx context.Context, tx *sqlx.Tx, id, buyerID uuid.UUID, soldAt time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE receivables
		SET status = 'sold', buyer_id = $1, sold_at = $2
		WHERE id = $3 AND status = 'for_sale'`,
		buyerID, soldAt, id)
	if err != nil {
		return fmt.Errorf("receivable_repo.MarkSold: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrReceivableNotForSale
	}
	return nil
}

// MarkCancelled withdraws a for-sale receivable within a transaction.
func (r *ReceivableRepository) MarkCancelled(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE receivables
		SET status = 'cancelled'
		WHERE id = $1 AND status = 'for_sale'`,
		id)
	if err != nil {
		return fmt.Errorf("receivable_repo.MarkCancelled: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrReceivableNotForSale
	}
	return nil
}

type listingRow struct {
	domain.Receivable
	OwnerScore decimal.Decimal `db:"owner_score"`
}

// BrowseForSale returns the anonymized market book, excluding the viewer's
// own listings. Newest first, paginated.
func (r *ReceivableRepository) BrowseForSale(ctx context.Context, viewerID uuid.UUID, limit, offset int) ([]domain.MarketListing, error) {
	var rows []listingRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT r.*, u.score AS owner_score
		FROM receivables r
		JOIN users u ON u.id = r.owner_id
		WHERE r.status = 'for_sale' AND r.owner_id <> $1
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3`,
		viewerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("receivable_repo.BrowseForSale: %w", err)
	}

	listings := make([]domain.MarketListing, 0, len(rows))
	for i := range rows {
		listings = append(listings, rows[i].Receivable.ToListing(rows[i].OwnerScore))
	}
	return listings, nil
}

// ListByOwner returns all receivables a user has listed, newest first.
func (r *ReceivableRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Receivable, error) {
	var recs []*domain.Receivable
	err := r.db.SelectContext(ctx, &recs, `
		SELECT * FROM receivables
		WHERE owner_id = $1
		ORDER BY created_at DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("receivable_repo.ListByOwner: %w", err)
	}
	return recs, nil
}

// ListByBuyer returns all receivables a user has purchased, newest first.
func (r *ReceivableRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*domain.Receivable, error) {
	var recs []*domain.Receivable
	err := r.db.SelectContext(ctx, &recs, `
		SELECT * FROM receivables
		WHERE buyer_id = $1 AND status = 'sold'
		ORDER BY sold_at DESC`,
		buyerID)
	if err != nil {
		return nil, fmt.Errorf("receivable_repo.ListByBuyer: %w", err)
	}
	return recs, nil
}

// Stats aggregates the current for-sale book.
func (r *ReceivableRepository) Stats(ctx context.Context) (*domain.MarketStats, error) {
	var s domain.MarketStats
	err := r.db.GetContext(ctx, &s, `
		SELECT COUNT(*)                         AS active_listings,
		       COALESCE(SUM(nominal_amount), 0) AS total_nominal,
		       COALESCE(SUM(selling_price), 0)  AS total_asking
		FROM receivables
		WHERE status = 'for_sale'`)
	if err != nil {
		return nil, fmt.Errorf("receivable_repo.Stats: %w", err)
	}
	return &s, nil
}
