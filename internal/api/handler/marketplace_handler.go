package handler

import (
	"net/http"

	"github.com/caravela/splitmarket/internal/api/middleware"
	"github.com/caravela/splitmarket/internal/domain"
	"github.com/caravela/splitmarket/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MarketplaceHandler serves the receivable market endpoints.
type MarketplaceHandler struct {
	marketSvc *service.MarketplaceService
}

// NewMarketplaceHandler creates a MarketplaceHandler.
func NewMarketplaceHandler(marketSvc *service.MarketplaceService) *MarketplaceHandler {
	return &MarketplaceHandler{marketSvc: marketSvc}
}

// Browse godoc
// GET /api/marketplace?page=1&limit=20 [JWT]
func (h *MarketplaceHandler) Browse(c *gin.Context) {
	page, limit := parsePagination(c)
	offset := (page - 1) * limit

	listings, err := h.marketSvc.Browse(c.Request.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		respondDomainError(c, err, "could not fetch marketplace")
		return
	}
	respondList(c, listings, len(listings), page, limit)
}

// Sell godoc
// POST /api/marketplace/sell [JWT]
// Body: {"debt_id":"uuid","price":"45.00"} for one debt, or
//	{"debtor_id":"uuid","price":"45.00"} for a consolidated position.
func (h *MarketplaceHandler) Sell(c *gin.Context) {
	var body struct {
		DebtID   *string `json:"debt_id"`
		DebtorID *string `json:"debtor_id"`
		Price    string  `json:"price" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	price, err := decimal.NewFromString(body.Price)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_PRICE", "price must be a decimal string")
		return
	}

	// Exactly one target variant; the union is resolved here, never downstream.
	var target domain.ClaimTarget
	switch {
	case body.DebtID != nil && body.DebtorID == nil:
		debtID, parseErr := uuid.Parse(*body.DebtID)
		if parseErr != nil {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_DEBT_ID", "invalid debt_id format")
			return
		}
		target = domain.SingleDebt(debtID)
	case body.DebtorID != nil && body.DebtID == nil:
		debtorID, parseErr := uuid.Parse(*body.DebtorID)
		if parseErr != nil {
			respondError(c, http.StatusBadRequest, "ERR_INVALID_DEBTOR_ID", "invalid debtor_id format")
			return
		}
		target = domain.ConsolidatedDebtor(debtorID)
	default:
		respondDomainError(c, domain.ErrInvalidClaimTarget, "")
		return
	}

	rec, err := h.marketSvc.ListForSale(c.Request.Context(), middleware.GetUserID(c), target, price)
	if err != nil {
		respondDomainError(c, err, "could not create listing")
		return
	}
	respondSuccess(c, http.StatusCreated, rec)
}

// Buy godoc
// POST /api/marketplace/buy/:id [JWT]
func (h *MarketplaceHandler) Buy(c *gin.Context) {
	recID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_RECEIVABLE_ID", "invalid receivable id")
		return
	}

	result, err := h.marketSvc.Buy(c.Request.Context(), middleware.GetUserID(c), recID)
	if err != nil {
		respondDomainError(c, err, "could not buy receivable")
		return
	}
	respondSuccess(c, http.StatusOK, result)
}

// Cancel godoc
// DELETE /api/marketplace/cancel/:id [JWT]
func (h *MarketplaceHandler) Cancel(c *gin.Context) {
	recID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_RECEIVABLE_ID", "invalid receivable id")
		return
	}

	if err := h.marketSvc.Cancel(c.Request.Context(), middleware.GetUserID(c), recID); err != nil {
		respondDomainError(c, err, "could not cancel listing")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"cancelled": true})
}

// Mine godoc
// GET /api/marketplace/mine [JWT]
func (h *MarketplaceHandler) Mine(c *gin.Context) {
	listings, err := h.marketSvc.Mine(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondDomainError(c, err, "could not fetch listings")
		return
	}
	respondSuccess(c, http.StatusOK, listings)
}

// Stats godoc
// GET /api/marketplace/stats [JWT]
func (h *MarketplaceHandler) Stats(c *gin.Context) {
	stats, err := h.marketSvc.Stats(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, "could not fetch stats")
		return
	}
	respondSuccess(c, http.StatusOK, stats)
}
