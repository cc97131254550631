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
)

// OptimizerService collapses mutual debts. Two passes over the pending set:
// per group, opposite flows between a pair cancel up to the matched minimum;
// then globally, pairs whose net position is zero get their whole history
// cleared regardless of group.
type OptimizerService struct {
	db        *sqlx.DB
	debtRepo  *repository.DebtRepository
	auditRepo *repository.AuditRepository
}

// NewOptimizerService creates an OptimizerService.
func NewOptimizerService(
	db *sqlx.DB,
	debtRepo *repository.DebtRepository,
	auditRepo *repository.AuditRepository,
) *OptimizerService {
	return &OptimizerService{
		db:        db,
		debtRepo:  debtRepo,
		auditRepo: auditRepo,
	}
}

// Optimize plans and applies both cancellation passes atomically. Returns the
// number of debts cancelled. A run with nothing to cancel writes nothing.
func (s *OptimizerService) Optimize(ctx context.Context) (int, error) {
	edges, err := s.debtRepo.PendingEdges(ctx)
	if err != nil {
		return 0, fmt.Errorf("optimizer_service.Optimize: edges: %w", err)
	}

	plans := ledger.PlanIntraGroup(edges)

	cancelled := make(map[uuid.UUID]bool)
	for _, p := range plans {
		for _, id := range p.CancelIDs {
			cancelled[id] = true
		}
	}

	// The cross pass sees only what the intra pass left standing.
	remaining := make([]ledger.Edge, 0, len(edges))
	for _, e := range edges {
		if !cancelled[e.ID] {
			remaining = append(remaining, e)
		}
	}
	crossIDs, matched := ledger.PlanCrossGroup(remaining)

	total := len(cancelled) + len(crossIDs)
	if total == 0 {
		return 0, nil
	}

	allIDs := make([]uuid.UUID, 0, total)
	for _, p := range plans {
		allIDs = append(allIDs, p.CancelIDs...)
	}
	allIDs = append(allIDs, crossIDs...)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("optimizer_service.Optimize: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	n, err := s.debtRepo.CancelBatch(ctx, tx, allIDs)
	if err != nil {
		return 0, fmt.Errorf("optimizer_service.Optimize: cancel: %w", err)
	}

	now := time.Now().UTC()
	for _, p := range plans {
		groupID := p.GroupID
		amount := p.Total
		entry := &domain.AuditLog{
			ID:        uuid.New(),
			Type:      domain.AuditOptimization,
			GroupID:   &groupID,
			Amount:    &amount,
			CreatedAt: now,
		}
		if err = s.auditRepo.Log(ctx, tx, entry); err != nil {
			return 0, fmt.Errorf("optimizer_service.Optimize: audit group: %w", err)
		}
	}
	if len(crossIDs) > 0 {
		amount := matched
		entry := &domain.AuditLog{
			ID:        uuid.New(),
			Type:      domain.AuditOptimization,
			Amount:    &amount,
			CreatedAt: now,
		}
		if err = s.auditRepo.Log(ctx, tx, entry); err != nil {
			return 0, fmt.Errorf("optimizer_service.Optimize: audit global: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("optimizer_service.Optimize: commit: %w", err)
	}
	return int(n), nil
}
