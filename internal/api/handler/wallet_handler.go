package handler

import (
	"net/http"

	"github.com/caravela/splitmarket/internal/api/middleware"
	"github.com/caravela/splitmarket/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// WalletHandler serves wallet balance, top-up, and history endpoints.
type WalletHandler struct {
	walletSvc *service.WalletService
}

// NewWalletHandler creates a WalletHandler.
func NewWalletHandler(walletSvc *service.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// GetBalance godoc
// GET /api/wallet/balance [JWT]
func (h *WalletHandler) GetBalance(c *gin.Context) {
	wallet, err := h.walletSvc.GetWallet(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondDomainError(c, err, "could not fetch wallet")
		return
	}
	respondSuccess(c, http.StatusOK, wallet)
}

// TopUp godoc
// POST /api/wallet/topup [JWT]
// Body: {"amount":"100.00"}
func (h *WalletHandler) TopUp(c *gin.Context) {
	var body struct {
		Amount string `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_AMOUNT", "amount must be a decimal string")
		return
	}

	wallet, err := h.walletSvc.TopUp(c.Request.Context(), middleware.GetUserID(c), amount)
	if err != nil {
		respondDomainError(c, err, "could not top up")
		return
	}
	respondSuccess(c, http.StatusOK, wallet)
}

// GetTransactions godoc
// GET /api/wallet/transactions?page=1&limit=20 [JWT]
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	page, limit := parsePagination(c)
	offset := (page - 1) * limit

	txns, err := h.walletSvc.GetTransactions(c.Request.Context(), middleware.GetUserID(c), limit, offset)
	if err != nil {
		respondDomainError(c, err, "could not fetch transactions")
		return
	}
	respondList(c, txns, len(txns), page, limit)
}
