package handler

import (
	"net/http"

	"github.com/caravela/splitmarket/internal/api/middleware"
	"github.com/caravela/splitmarket/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GroupHandler serves group, membership, expense, and balance endpoints.
type GroupHandler struct {
	groupSvc     *service.GroupService
	expenseSvc   *service.ExpenseService
	balanceSvc   *service.BalanceService
	optimizerSvc *service.OptimizerService
}

// NewGroupHandler creates a GroupHandler.
func NewGroupHandler(
	groupSvc *service.GroupService,
	expenseSvc *service.ExpenseService,
	balanceSvc *service.BalanceService,
	optimizerSvc *service.OptimizerService,
) *GroupHandler {
	return &GroupHandler{
		groupSvc:     groupSvc,
		expenseSvc:   expenseSvc,
		balanceSvc:   balanceSvc,
		optimizerSvc: optimizerSvc,
	}
}

func groupIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_GROUP_ID", "invalid group id")
		return uuid.Nil, false
	}
	return id, true
}

// Create godoc
// POST /api/groups [JWT]
func (h *GroupHandler) Create(c *gin.Context) {
	var body struct {
		Name        string `json:"name" binding:"required,min=1,max=100"`
		Description string `json:"description" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	group, err := h.groupSvc.CreateGroup(c.Request.Context(), middleware.GetUserID(c), body.Name, body.Description)
	if err != nil {
		respondDomainError(c, err, "could not create group")
		return
	}
	respondSuccess(c, http.StatusCreated, group)
}

// List godoc
// GET /api/groups [JWT]
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.groupSvc.ListMyGroups(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondDomainError(c, err, "could not fetch groups")
		return
	}
	respondSuccess(c, http.StatusOK, groups)
}

// Get godoc
// GET /api/groups/:id [JWT]
func (h *GroupHandler) Get(c *gin.Context) {
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)

	group, err := h.groupSvc.GetGroup(c.Request.Context(), userID, groupID)
	if err != nil {
		respondDomainError(c, err, "could not fetch group")
		return
	}
	members, err := h.groupSvc.ListMembers(c.Request.Context(), userID, groupID)
	if err != nil {
		respondDomainError(c, err, "could not fetch members")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"group":   group,
		"members": members,
	})
}

// AddMember godoc
// POST /api/groups/:id/members [JWT]
// Body: {"email":"friend@example.com"}
func (h *GroupHandler) AddMember(c *gin.Context) {
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	var body struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	member, err := h.groupSvc.AddMemberByEmail(c.Request.Context(), middleware.GetUserID(c), groupID, body.Email)
	if err != nil {
		respondDomainError(c, err, "could not add member")
		return
	}
	respondSuccess(c, http.StatusCreated, member)
}

// CreateExpense godoc
// POST /api/groups/:id/expenses [JWT]
func (h *GroupHandler) CreateExpense(c *gin.Context) {
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	var req service.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	req.GroupID = groupID

	result, err := h.expenseSvc.CreateExpense(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondDomainError(c, err, "could not create expense")
		return
	}
	respondSuccess(c, http.StatusCreated, result)
}

// ListExpenses godoc
// GET /api/groups/:id/expenses [JWT]
func (h *GroupHandler) ListExpenses(c *gin.Context) {
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	expenses, err := h.expenseSvc.ListGroupExpenses(c.Request.Context(), middleware.GetUserID(c), groupID)
	if err != nil {
		respondDomainError(c, err, "could not fetch expenses")
		return
	}
	respondSuccess(c, http.StatusOK, expenses)
}

// DeleteExpense godoc
// DELETE /api/groups/:id/expenses/:expenseId [JWT]
func (h *GroupHandler) DeleteExpense(c *gin.Context) {
	if _, ok := groupIDParam(c); !ok {
		return
	}
	expenseID, err := uuid.Parse(c.Param("expenseId"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_EXPENSE_ID", "invalid expense id")
		return
	}

	if err := h.expenseSvc.DeleteExpense(c.Request.Context(), middleware.GetUserID(c), expenseID); err != nil {
		respondDomainError(c, err, "could not delete expense")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"deleted": true})
}

// Balances godoc
// GET /api/groups/:id/balances [JWT]
func (h *GroupHandler) Balances(c *gin.Context) {
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	balances, err := h.balanceSvc.GroupBalances(c.Request.Context(), middleware.GetUserID(c), groupID)
	if err != nil {
		respondDomainError(c, err, "could not fetch balances")
		return
	}
	respondSuccess(c, http.StatusOK, balances)
}

// Optimize godoc
// POST /api/groups/:id/optimize [JWT]
// The pass is global; the group route exists so clients can refresh one group
// after triggering it. Membership is still required.
func (h *GroupHandler) Optimize(c *gin.Context) {
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)
	if _, err := h.groupSvc.GetGroup(c.Request.Context(), userID, groupID); err != nil {
		respondDomainError(c, err, "could not optimize")
		return
	}

	n, err := h.optimizerSvc.Optimize(c.Request.Context())
	if err != nil {
		respondDomainError(c, err, "could not optimize")
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"cancelled_debts": n})
}
