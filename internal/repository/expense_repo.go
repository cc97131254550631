package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/caravela/splitmarket/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ExpenseRepository handles all database operations for Expenses.
type ExpenseRepository struct {
	db *sqlx.DB
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(db *sqlx.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create inserts a new expense row within an existing transaction.
func (r *ExpenseRepository) Create(ctx context.Context, tx *sqlx.Tx, e *domain.Expense) error {
	query := `
		INSERT INTO expenses (id, group_id, payer_id, description, amount, date, created_at)
		VALUES (:id, :group_id, :payer_id, :description, :amount, :date, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("expense_repo.Create: %w", err)
	}
	return nil
}

// GetByID fetches an expense by primary key.
func (r *ExpenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	var e domain.Expense
	err := r.db.GetContext(ctx, &e, `SELECT * FROM expenses WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, fmt.Errorf("expense_repo.GetByID: %w", err)
	}
	return &e, nil
}

// ListByGroup returns all expenses of a group, newest first.
func (r *ExpenseRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]domain.Expense, error) {
	var expenses []domain.Expense
	err := r.db.SelectContext(ctx, &expenses, `
		SELECT * FROM expenses
		WHERE group_id = $1
		ORDER BY date DESC, created_at DESC`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("expense_repo.ListByGroup: %w", err)
	}
	return expenses, nil
}

// Delete removes an expense row within an existing transaction. Debts keep a
// nullable reference, so deleting the expense detaches them rather than
// cascading.
func (r *ExpenseRepository) Delete(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("expense_repo.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

// AnyIDByGroups returns the id of one expense belonging to any of the given
// groups, or nil when none exists. Synthetic settlement debts use it to anchor
// themselves to the shared history they settle.
func (r *ExpenseRepository) AnyIDByGroups(ctx context.Context, groupIDs []uuid.UUID) (*uuid.UUID, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT id FROM expenses
		WHERE group_id IN (?)
		ORDER BY created_at DESC
		LIMIT 1`, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("expense_repo.AnyIDByGroups in: %w", err)
	}
	var id uuid.UUID
	err = r.db.GetContext(ctx, &id, r.db.Rebind(query), args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("expense_repo.AnyIDByGroups: %w", err)
	}
	return &id, nil
}
