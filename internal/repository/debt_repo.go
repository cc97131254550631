package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/caravela/splitmarket/internal/domain"
	"github.com/caravela/splitmarket/internal/ledger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// DebtRepository handles all database operations for Debts.
type DebtRepository struct {
	db *sqlx.DB
}

// NewDebtRepository creates a new DebtRepository.
func NewDebtRepository(db *sqlx.DB) *DebtRepository {
	return &DebtRepository{db: db}
}

const debtInsert = `
	INSERT INTO debts
		(id, expense_id, debtor_id, creditor_id, amount, status, source, due_date, paid_at, sold_at, receivable_id, created_at)
	VALUES
		(:id, :expense_id, :debtor_id, :creditor_id, :amount, :status, :source, :due_date, :paid_at, :sold_at, :receivable_id, :created_at)`

// Create inserts a new debt row within an existing transaction.
func (r *DebtRepository) Create(ctx context.Context, tx *sqlx.Tx, d *domain.Debt) error {
	if _, err := tx.NamedExecContext(ctx, debtInsert, d); err != nil {
		return fmt.Errorf("debt_repo.Create: %w", err)
	}
	return nil
}

// CreateBatch inserts multiple debt rows within an existing transaction.
func (r *DebtRepository) CreateBatch(ctx context.Context, tx *sqlx.Tx, debts []*domain.Debt) error {
	if len(debts) == 0 {
		return nil
	}
	if _, err := tx.NamedExecContext(ctx, debtInsert, debts); err != nil {
		return fmt.Errorf("debt_repo.CreateBatch: %w", err)
	}
	return nil
}

// GetByID fetches a debt by primary key.
func (r *DebtRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Debt, error) {
	var d domain.Debt
	err := r.db.GetContext(ctx, &d, `SELECT * FROM debts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDebtNotFound
		}
		return nil, fmt.Errorf("debt_repo.GetByID: %w", err)
	}
	return &d, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Optimizer projection
// ──────────────────────────────────────────────────────────────────────────────

type edgeRow struct {
	ID         uuid.UUID       `db:"id"`
	GroupID    *uuid.UUID      `db:"group_id"`
	DebtorID   uuid.UUID       `db:"debtor_id"`
	CreditorID uuid.UUID       `db:"creditor_id"`
	Amount     decimal.Decimal `db:"amount"`
	CreatedAt  time.Time       `db:"created_at"`
}

// PendingEdges returns every pending debt projected for cancellation planning.
// The originating group comes through the expense; debts whose expense was
// deleted (or virtual-payment debts with no expense) carry a nil group and
// only participate in the cross-group pass.
func (r *DebtRepository) PendingEdges(ctx context.Context) ([]ledger.Edge, error) {
	var rows []edgeRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT d.id, e.group_id AS group_id, d.debtor_id, d.creditor_id, d.amount, d.created_at
		FROM debts d
		LEFT JOIN expenses e ON e.id = d.expense_id
		WHERE d.status = 'pending'
		ORDER BY d.created_at ASC, d.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("debt_repo.PendingEdges: %w", err)
	}

	edges := make([]ledger.Edge, 0, len(rows))
	for _, row := range rows {
		e := ledger.Edge{
			ID:         row.ID,
			DebtorID:   row.DebtorID,
			CreditorID: row.CreditorID,
			Amount:     row.Amount,
			CreatedAt:  row.CreatedAt,
		}
		if row.GroupID != nil {
			e.GroupID = *row.GroupID
		}
		edges = append(edges, e)
	}
	return edges, nil
}

// CancelBatch marks the given pending debts cancelled within a transaction.
// Returns the number of rows actually cancelled; debts that are no longer
// pending are silently skipped.
func (r *DebtRepository) CancelBatch(ctx context.Context, tx *sqlx.Tx, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(
		`UPDATE debts SET status = 'cancelled' WHERE id IN (?) AND status = 'pending'`, ids)
	if err != nil {
		return 0, fmt.Errorf("debt_repo.CancelBatch in: %w", err)
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("debt_repo.CancelBatch: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// PendingByExpense returns the pending debts created by one expense, locked
// for the caller's transaction.
func (r *DebtRepository) PendingByExpense(ctx context.Context, tx *sqlx.Tx, expenseID uuid.UUID) ([]domain.Debt, error) {
	var debts []domain.Debt
	err := tx.SelectContext(ctx, &debts, `
		SELECT * FROM debts
		WHERE expense_id = $1 AND status = 'pending'
		ORDER BY created_at ASC
		FOR UPDATE`,
		expenseID)
	if err != nil {
		return nil, fmt.Errorf("debt_repo.PendingByExpense: %w", err)
	}
	return debts, nil
}

// MarkPaid settles a pending debt within a transaction. Returns
// ErrDebtNotPending when the debt exists but is no longer payable.
func (r *DebtRepository) MarkPaid(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, paidAt time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE debts SET status = 'paid', paid_at = $1 WHERE id = $2 AND status = 'pending'`,
		paidAt, id)
	if err != nil {
		return fmt.Errorf("debt_repo.MarkPaid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrDebtNotPending
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Marketplace freeze / transfer
// ──────────────────────────────────────────────────────────────────────────────

// FreezeOne freezes a single pending debt behind a receivable listing and
// returns the frozen row. Returns ErrDebtNotPending when the debt is not
// freezable (already listed, paid, or cancelled).
func (r *DebtRepository) FreezeOne(ctx context.Context, tx *sqlx.Tx, debtID, receivableID uuid.UUID) (*domain.Debt, error) {
	var d domain.Debt
	err := tx.GetContext(ctx, &d, `
		UPDATE debts
		SET status = 'sold_as_title', sold_at = now(), receivable_id = $1
		WHERE id = $2 AND status = 'pending'
		RETURNING *`,
		receivableID, debtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDebtNotPending
		}
		return nil, fmt.Errorf("debt_repo.FreezeOne: %w", err)
	}
	return &d, nil
}

// FreezeByPair freezes every pending debt owed by debtorID to creditorID
// behind a consolidated receivable listing and returns the frozen rows.
func (r *DebtRepository) FreezeByPair(ctx context.Context, tx *sqlx.Tx, debtorID, creditorID, receivableID uuid.UUID) ([]domain.Debt, error) {
	var debts []domain.Debt
	err := tx.SelectContext(ctx, &debts, `
		UPDATE debts
		SET status = 'sold_as_title', sold_at = now(), receivable_id = $1
		WHERE debtor_id = $2 AND creditor_id = $3 AND status = 'pending'
		RETURNING *`,
		receivableID, debtorID, creditorID)
	if err != nil {
		return nil, fmt.Errorf("debt_repo.FreezeByPair: %w", err)
	}
	return debts, nil
}

// FrozenByReceivable returns the debts frozen behind one receivable listing.
func (r *DebtRepository) FrozenByReceivable(ctx context.Context, tx *sqlx.Tx, receivableID uuid.UUID) ([]domain.Debt, error) {
	var debts []domain.Debt
	err := tx.SelectContext(ctx, &debts, `
		SELECT * FROM debts
		WHERE receivable_id = $1 AND status = 'sold_as_title'
		ORDER BY created_at ASC`,
		receivableID)
	if err != nil {
		return nil, fmt.Errorf("debt_repo.FrozenByReceivable: %w", err)
	}
	return debts, nil
}

// UnfreezeByReceivable reverts the debts frozen behind a cancelled listing to
// pending. Only this listing's debts move; debts the same pair froze under
// another receivable stay frozen.
func (r *DebtRepository) UnfreezeByReceivable(ctx context.Context, tx *sqlx.Tx, receivableID uuid.UUID) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE debts
		SET status = 'pending', sold_at = NULL, receivable_id = NULL
		WHERE receivable_id = $1 AND status = 'sold_as_title'`,
		receivableID)
	if err != nil {
		return 0, fmt.Errorf("debt_repo.UnfreezeByReceivable: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Views
// ──────────────────────────────────────────────────────────────────────────────

// PendingByDebtor returns the debts a user currently owes, with counterparty names.
func (r *DebtRepository) PendingByDebtor(ctx context.Context, debtorID uuid.UUID) ([]*domain.DebtView, error) {
	var debts []*domain.DebtView
	err := r.db.SelectContext(ctx, &debts, `
		SELECT d.*, du.name AS debtor_name, cu.name AS creditor_name
		FROM debts d
		JOIN users du ON du.id = d.debtor_id
		JOIN users cu ON cu.id = d.creditor_id
		WHERE d.debtor_id = $1 AND d.status = 'pending'
		ORDER BY d.created_at ASC`,
		debtorID)
	if err != nil {
		return nil, fmt.Errorf("debt_repo.PendingByDebtor: %w", err)
	}
	return debts, nil
}

// PendingByCreditor returns the debts currently owed to a user, with
// counterparty names.
func (r *DebtRepository) PendingByCreditor(ctx context.Context, creditorID uuid.UUID) ([]*domain.DebtView, error) {
	var debts []*domain.DebtView
	err := r.db.SelectContext(ctx, &debts, `
		SELECT d.*, du.name AS debtor_name, cu.name AS creditor_name
		FROM debts d
		JOIN users du ON du.id = d.debtor_id
		JOIN users cu ON cu.id = d.creditor_id
		WHERE d.creditor_id = $1 AND d.status = 'pending'
		ORDER BY d.created_at ASC`,
		creditorID)
	if err != nil {
		return nil, fmt.Errorf("debt_repo.PendingByCreditor: %w", err)
	}
	return debts, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Balance adjustments
// ──────────────────────────────────────────────────────────────────────────────

// PaidByExpenseGroup returns the paid debts whose originating expense belongs
// to the group. Virtual-payment debts are excluded here; they enter balances
// through VirtualPaidAmong instead, keyed on membership rather than expense.
func (r *DebtRepository) PaidByExpenseGroup(ctx context.Context, groupID uuid.UUID) ([]domain.Debt, error) {
	var debts []domain.Debt
	err := r.db.SelectContext(ctx, &debts, `
		SELECT d.*
		FROM debts d
		JOIN expenses e ON e.id = d.expense_id
		WHERE e.group_id = $1 AND d.status = 'paid' AND d.source <> 'virtual_payment'`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("debt_repo.PaidByExpenseGroup: %w", err)
	}
	return debts, nil
}

// SoldByExpenseGroup returns the sold_as_title debts whose originating expense
// belongs to the group. They shift balances the moment they are listed: the
// seller has surrendered the claim, the debtor now answers to the buyer.
func (r *DebtRepository) SoldByExpenseGroup(ctx context.Context, groupID uuid.UUID) ([]domain.Debt, error) {
	var debts []domain.Debt
	err := r.db.SelectContext(ctx, &debts, `
		SELECT d.*
		FROM debts d
		JOIN expenses e ON e.id = d.expense_id
		WHERE e.group_id = $1 AND d.status = 'sold_as_title'`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("debt_repo.SoldByExpenseGroup: %w", err)
	}
	return debts, nil
}

// VirtualPaidAmong returns the paid virtual-payment debts whose debtor and
// creditor are both in the given member set.
func (r *DebtRepository) VirtualPaidAmong(ctx context.Context, memberIDs []uuid.UUID) ([]domain.Debt, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT * FROM debts
		WHERE status = 'paid' AND source = 'virtual_payment'
		  AND debtor_id IN (?) AND creditor_id IN (?)`,
		memberIDs, memberIDs)
	if err != nil {
		return nil, fmt.Errorf("debt_repo.VirtualPaidAmong in: %w", err)
	}
	var debts []domain.Debt
	if err := r.db.SelectContext(ctx, &debts, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("debt_repo.VirtualPaidAmong: %w", err)
	}
	return debts, nil
}
