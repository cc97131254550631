package service

import (
	"context"
	"fmt"
	"time"

	"github.com/caravela/splitmarket/internal/domain"
	"github.com/caravela/splitmarket/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// GroupService manages groups and memberships.
type GroupService struct {
	db        *sqlx.DB
	groupRepo *repository.GroupRepository
	userRepo  *repository.UserRepository
}

// NewGroupService creates a GroupService.
func NewGroupService(
	db *sqlx.DB,
	groupRepo *repository.GroupRepository,
	userRepo *repository.UserRepository,
) *GroupService {
	return &GroupService{
		db:        db,
		groupRepo: groupRepo,
		userRepo:  userRepo,
	}
}

// CreateGroup creates a group with the creator as its first member.
func (s *GroupService) CreateGroup(ctx context.Context, creatorID uuid.UUID, name, description string) (*domain.Group, error) {
	now := time.Now().UTC()
	group := &domain.Group{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("group_service.CreateGroup: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.groupRepo.Create(ctx, tx, group); err != nil {
		return nil, fmt.Errorf("group_service.CreateGroup: create: %w", err)
	}

	member := &domain.GroupMember{
		ID:       uuid.New(),
		UserID:   creatorID,
		GroupID:  group.ID,
		JoinedAt: now,
	}
	if err = s.groupRepo.AddMember(ctx, tx, member); err != nil {
		return nil, fmt.Errorf("group_service.CreateGroup: add creator: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("group_service.CreateGroup: commit: %w", err)
	}
	return group, nil
}

// AddMemberByEmail adds an existing user to a group. Only members may invite.
func (s *GroupService) AddMemberByEmail(ctx context.Context, actorID, groupID uuid.UUID, email string) (*domain.PublicProfile, error) {
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		return nil, err
	}

	isMember, err := s.groupRepo.IsMember(ctx, actorID, groupID)
	if err != nil {
		return nil, fmt.Errorf("group_service.AddMemberByEmail: membership: %w", err)
	}
	if !isMember {
		return nil, domain.ErrNotGroupMember
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("group_service.AddMemberByEmail: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	member := &domain.GroupMember{
		ID:       uuid.New(),
		UserID:   user.ID,
		GroupID:  groupID,
		JoinedAt: time.Now().UTC(),
	}
	if err = s.groupRepo.AddMember(ctx, tx, member); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("group_service.AddMemberByEmail: commit: %w", err)
	}

	profile := user.ToPublicProfile()
	return &profile, nil
}

// GetGroup returns a group, restricted to its members.
func (s *GroupService) GetGroup(ctx context.Context, actorID, groupID uuid.UUID) (*domain.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	isMember, err := s.groupRepo.IsMember(ctx, actorID, groupID)
	if err != nil {
		return nil, fmt.Errorf("group_service.GetGroup: membership: %w", err)
	}
	if !isMember {
		return nil, domain.ErrNotGroupMember
	}
	return group, nil
}

// ListMyGroups returns summaries of every group the user belongs to.
func (s *GroupService) ListMyGroups(ctx context.Context, userID uuid.UUID) ([]*domain.GroupSummary, error) {
	groups, err := s.groupRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("group_service.ListMyGroups: %w", err)
	}
	return groups, nil
}

// ListMembers returns the public profiles of a group's members, restricted to
// its members.
func (s *GroupService) ListMembers(ctx context.Context, actorID, groupID uuid.UUID) ([]*domain.PublicProfile, error) {
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	isMember, err := s.groupRepo.IsMember(ctx, actorID, groupID)
	if err != nil {
		return nil, fmt.Errorf("group_service.ListMembers: membership: %w", err)
	}
	if !isMember {
		return nil, domain.ErrNotGroupMember
	}
	members, err := s.groupRepo.Members(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("group_service.ListMembers: %w", err)
	}
	return members, nil
}
