package repository

import (
	"context"
	"fmt"

	"github.com/caravela/splitmarket/internal/domain"
	"github.com/jmoiron/sqlx"
)

// AuditRepository handles the append-only audit_logs table.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Log appends an audit record within an existing transaction, so the record
// commits or rolls back with the ledger change it describes.
func (r *AuditRepository) Log(ctx context.Context, tx *sqlx.Tx, entry *domain.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, type, user_id, group_id, amount, created_at)
		VALUES (:id, :type, :user_id, :group_id, :amount, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("audit_repo.Log: %w", err)
	}
	return nil
}

// ListRecent returns the latest audit entries, newest first.
func (r *AuditRepository) ListRecent(ctx context.Context, limit, offset int) ([]*domain.AuditLog, error) {
	var entries []*domain.AuditLog
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("audit_repo.ListRecent: %w", err)
	}
	return entries, nil
}
