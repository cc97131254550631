package handler

import (
	"net/http"

	"github.com/caravela/splitmarket/internal/api/middleware"
	"github.com/caravela/splitmarket/internal/service"
	"github.com/gin-gonic/gin"
)

// UserHandler serves registration, login, and profile endpoints.
type UserHandler struct {
	authSvc    *service.AuthService
	balanceSvc *service.BalanceService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(authSvc *service.AuthService, balanceSvc *service.BalanceService) *UserHandler {
	return &UserHandler{authSvc: authSvc, balanceSvc: balanceSvc}
}

// Register godoc
// POST /api/auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	resp, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		respondDomainError(c, err, "could not register")
		return
	}
	respondSuccess(c, http.StatusCreated, resp)
}

// Login godoc
// POST /api/auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	resp, err := h.authSvc.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		respondDomainError(c, err, "could not log in")
		return
	}
	respondSuccess(c, http.StatusOK, resp)
}

// Refresh godoc
// POST /api/auth/refresh
func (h *UserHandler) Refresh(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	access, refresh, err := h.authSvc.RefreshToken(c.Request.Context(), body.RefreshToken)
	if err != nil {
		respondDomainError(c, err, "could not refresh token")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"access_token":  access,
		"refresh_token": refresh,
	})
}

// GetProfile godoc
// GET /api/user/profile [JWT]
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.authSvc.GetProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondDomainError(c, err, "could not fetch profile")
		return
	}
	respondSuccess(c, http.StatusOK, user)
}

// UpdateProfile godoc
// PUT /api/user/profile [JWT]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var body struct {
		Name  string  `json:"name"  binding:"required,min=2,max=100"`
		Email string  `json:"email" binding:"required,email"`
		Phone *string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	user, err := h.authSvc.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), body.Name, body.Email, body.Phone)
	if err != nil {
		respondDomainError(c, err, "could not update profile")
		return
	}
	respondSuccess(c, http.StatusOK, user)
}

// GetScore godoc
// GET /api/user/score [JWT]
func (h *UserHandler) GetScore(c *gin.Context) {
	user, err := h.authSvc.GetProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondDomainError(c, err, "could not fetch score")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"score": user.Score})
}

// GetSummary godoc
// GET /api/user/summary [JWT]
func (h *UserHandler) GetSummary(c *gin.Context) {
	summary, err := h.balanceSvc.Summary(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondDomainError(c, err, "could not fetch summary")
		return
	}
	respondSuccess(c, http.StatusOK, summary)
}
