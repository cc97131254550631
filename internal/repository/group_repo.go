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

// GroupRepository handles all database operations for Groups and memberships.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a new group row within an existing transaction.
func (r *GroupRepository) Create(ctx context.Context, tx *sqlx.Tx, g *domain.Group) error {
	query := `
		INSERT INTO groups (id, name, description, created_by, created_at, updated_at)
		VALUES (:id, :name, :description, :created_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, g); err != nil {
		return fmt.Errorf("group_repo.Create: %w", err)
	}
	return nil
}

// GetByID fetches a group by primary key.
func (r *GroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	var g domain.Group
	err := r.db.GetContext(ctx, &g, `SELECT * FROM groups WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, fmt.Errorf("group_repo.GetByID: %w", err)
	}
	return &g, nil
}

// AddMember inserts a membership row within an existing transaction. Returns
// ErrAlreadyMember when the (user, group) pair already exists.
func (r *GroupRepository) AddMember(ctx context.Context, tx *sqlx.Tx, m *domain.GroupMember) error {
	query := `
		INSERT INTO group_members (id, user_id, group_id, joined_at)
		VALUES (:id, :user_id, :group_id, :joined_at)`
	if _, err := tx.NamedExecContext(ctx, query, m); err != nil {
		if isUniqueViolation(err, "group_members_user_id_group_id_key") {
			return domain.ErrAlreadyMember
		}
		return fmt.Errorf("group_repo.AddMember: %w", err)
	}
	return nil
}

// IsMember reports whether a user belongs to a group.
func (r *GroupRepository) IsMember(ctx context.Context, userID, groupID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM group_members WHERE user_id = $1 AND group_id = $2
		)`,
		userID, groupID)
	if err != nil {
		return false, fmt.Errorf("group_repo.IsMember: %w", err)
	}
	return exists, nil
}

// MemberIDs returns the user ids of all members of a group.
func (r *GroupRepository) MemberIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `
		SELECT user_id FROM group_members
		WHERE group_id = $1
		ORDER BY joined_at ASC`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("group_repo.MemberIDs: %w", err)
	}
	return ids, nil
}

// Members returns the public profiles of all members of a group.
func (r *GroupRepository) Members(ctx context.Context, groupID uuid.UUID) ([]*domain.PublicProfile, error) {
	var members []*domain.PublicProfile
	err := r.db.SelectContext(ctx, &members, `
		SELECT u.id, u.name, u.score
		FROM users u
		JOIN group_members gm ON gm.user_id = u.id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at ASC`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("group_repo.Members: %w", err)
	}
	return members, nil
}

// GroupIDsByUser returns the ids of every group a user belongs to.
func (r *GroupRepository) GroupIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `
		SELECT group_id FROM group_members
		WHERE user_id = $1
		ORDER BY joined_at ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("group_repo.GroupIDsByUser: %w", err)
	}
	return ids, nil
}

// SharedGroupIDs returns the ids of groups where both users are members.
func (r *GroupRepository) SharedGroupIDs(ctx context.Context, userA, userB uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `
		SELECT a.group_id
		FROM group_members a
		JOIN group_members b ON b.group_id = a.group_id
		WHERE a.user_id = $1 AND b.user_id = $2
		ORDER BY a.group_id ASC`,
		userA, userB)
	if err != nil {
		return nil, fmt.Errorf("group_repo.SharedGroupIDs: %w", err)
	}
	return ids, nil
}

// ListByUser returns summaries of every group a user belongs to, with member
// and expense aggregates.
func (r *GroupRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.GroupSummary, error) {
	var groups []*domain.GroupSummary
	err := r.db.SelectContext(ctx, &groups, `
		SELECT g.*,
		       (SELECT COUNT(*) FROM group_members gm2 WHERE gm2.group_id = g.id)       AS members_count,
		       (SELECT COUNT(*) FROM expenses e WHERE e.group_id = g.id)                 AS expenses_count,
		       (SELECT COALESCE(SUM(e.amount), 0) FROM expenses e WHERE e.group_id = g.id) AS total_expenses
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = $1
		ORDER BY g.created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("group_repo.ListByUser: %w", err)
	}
	return groups, nil
}
