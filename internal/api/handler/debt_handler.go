package handler

import (
	"net/http"

	"github.com/caravela/splitmarket/internal/api/middleware"
	"github.com/caravela/splitmarket/internal/domain"
	"github.com/caravela/splitmarket/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DebtHandler serves debt views, settlement, and optimization endpoints.
type DebtHandler struct {
	balanceSvc    *service.BalanceService
	settlementSvc *service.SettlementService
	optimizerSvc  *service.OptimizerService
}

// NewDebtHandler creates a DebtHandler.
func NewDebtHandler(
	balanceSvc *service.BalanceService,
	settlementSvc *service.SettlementService,
	optimizerSvc *service.OptimizerService,
) *DebtHandler {
	return &DebtHandler{
		balanceSvc:    balanceSvc,
		settlementSvc: settlementSvc,
		optimizerSvc:  optimizerSvc,
	}
}

// List godoc
// GET /api/debts?direction=owing|owed [JWT]
// "owing" (default) lists what the user owes; "owed" what is owed to them.
func (h *DebtHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var debts []*domain.DebtView
	var err error
	switch c.DefaultQuery("direction", "owing") {
	case "owing":
		debts, err = h.balanceSvc.ListMyDebts(c.Request.Context(), userID)
	case "owed":
		debts, err = h.balanceSvc.ListOwedToMe(c.Request.Context(), userID)
	default:
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "direction must be owing or owed")
		return
	}
	if err != nil {
		respondDomainError(c, err, "could not fetch debts")
		return
	}
	respondSuccess(c, http.StatusOK, debts)
}

// Summary godoc
// GET /api/debts/summary [JWT]
func (h *DebtHandler) Summary(c *gin.Context) {
	summary, err := h.balanceSvc.Summary(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondDomainError(c, err, "could not fetch summary")
		return
	}
	respondSuccess(c, http.StatusOK, summary)
}

// Consolidated godoc
// GET /api/debts/consolidated [JWT]
func (h *DebtHandler) Consolidated(c *gin.Context) {
	positions, err := h.balanceSvc.ConsolidatedPositions(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondDomainError(c, err, "could not fetch positions")
		return
	}
	respondSuccess(c, http.StatusOK, positions)
}

// Pay godoc
// POST /api/debts/:id/pay [JWT]
func (h *DebtHandler) Pay(c *gin.Context) {
	debtID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_DEBT_ID", "invalid debt id")
		return
	}

	result, err := h.settlementSvc.PayDebt(c.Request.Context(), middleware.GetUserID(c), domain.ConcreteDebt(debtID))
	if err != nil {
		respondDomainError(c, err, "could not pay debt")
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// PayVirtual godoc
// POST /api/debts/pay-virtual [JWT]
// Body: {"creditor_id":"uuid"} — settles the collapsed net position the
// authenticated user owes that creditor across their shared groups.
func (h *DebtHandler) PayVirtual(c *gin.Context) {
	var body struct {
		CreditorID string `json:"creditor_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	creditorID, err := uuid.Parse(body.CreditorID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_CREDITOR_ID", "invalid creditor_id format")
		return
	}

	userID := middleware.GetUserID(c)
	result, err := h.settlementSvc.PayDebt(c.Request.Context(), userID, domain.VirtualDebt(userID, creditorID))
	if err != nil {
		respondDomainError(c, err, "could not pay virtual debt")
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// Optimize godoc
// POST /api/debts/optimize [JWT]
func (h *DebtHandler) Optimize(c *gin.Context) {
	n, err := h.optimizerSvc.Optimize(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, "could not optimize")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"cancelled_debts": n})
}
