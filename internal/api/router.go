package api

import (
	"net/http"

	"github.com/caravela/splitmarket/internal/api/handler"
	"github.com/caravela/splitmarket/internal/api/middleware"
	"github.com/caravela/splitmarket/internal/config"
	"github.com/caravela/splitmarket/internal/service"
	"github.com/gin-gonic/gin"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	AuthSvc       *service.AuthService
	GroupSvc      *service.GroupService
	ExpenseSvc    *service.ExpenseService
	BalanceSvc    *service.BalanceService
	SettlementSvc *service.SettlementService
	OptimizerSvc  *service.OptimizerService
	MarketSvc     *service.MarketplaceService
	WalletSvc     *service.WalletService
	Cfg           *config.Config
}

// SetupRouter creates and configures the main Gin engine with all routes,
// middleware, CORS, and rate limiting rules.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware(deps.Cfg))

	// ── Health check ─────────────────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	userH := handler.NewUserHandler(deps.AuthSvc, deps.BalanceSvc)
	groupH := handler.NewGroupHandler(deps.GroupSvc, deps.ExpenseSvc, deps.BalanceSvc, deps.OptimizerSvc)
	debtH := handler.NewDebtHandler(deps.BalanceSvc, deps.SettlementSvc, deps.OptimizerSvc)
	marketH := handler.NewMarketplaceHandler(deps.MarketSvc)
	walletH := handler.NewWalletHandler(deps.WalletSvc)

	// ── JWT middleware (shared) ───────────────────────────────────────────────
	jwtMW := middleware.JWTMiddleware(deps.AuthSvc)

	// ── Rate limiters ─────────────────────────────────────────────────────────
	authRL := middleware.RateLimitMiddleware(10) // 10 req/s per IP for auth endpoints
	payRL := middleware.RateLimitMiddleware(30)  // 30 req/s per IP for money movement

	api := r.Group("/api")
	{
		// ── Auth (public, strict rate limit) ─────────────────────────────────
		auth := api.Group("/auth")
		auth.Use(authRL)
		{
			auth.POST("/register", userH.Register)
			auth.POST("/login", userH.Login)
			auth.POST("/refresh", userH.Refresh)
		}

		// ── Authenticated routes ──────────────────────────────────────────────
		authed := api.Group("")
		authed.Use(jwtMW)
		{
			// Profile
			user := authed.Group("/user")
			{
				user.GET("/profile", userH.GetProfile)
				user.PUT("/profile", userH.UpdateProfile)
				user.GET("/score", userH.GetScore)
				user.GET("/summary", userH.GetSummary)
			}

			// Groups and expenses
			groups := authed.Group("/groups")
			{
				groups.POST("", groupH.Create)
				groups.GET("", groupH.List)
				groups.GET("/:id", groupH.Get)
				groups.POST("/:id/members", groupH.AddMember)
				groups.POST("/:id/expenses", groupH.CreateExpense)
				groups.GET("/:id/expenses", groupH.ListExpenses)
				groups.DELETE("/:id/expenses/:expenseId", groupH.DeleteExpense)
				groups.GET("/:id/balances", groupH.Balances)
				groups.POST("/:id/optimize", groupH.Optimize)
			}

			// Debts and settlement
			debts := authed.Group("/debts")
			{
				debts.GET("", debtH.List)
				debts.GET("/summary", debtH.Summary)
				debts.GET("/consolidated", debtH.Consolidated)
				debts.POST("/optimize", debtH.Optimize)
				debts.POST("/pay-virtual", payRL, debtH.PayVirtual)
				debts.POST("/:id/pay", payRL, debtH.Pay)
			}

			// Marketplace
			market := authed.Group("/marketplace")
			{
				market.GET("", marketH.Browse)
				market.GET("/mine", marketH.Mine)
				market.GET("/stats", marketH.Stats)
				market.POST("/sell", marketH.Sell)
				market.POST("/buy/:id", payRL, marketH.Buy)
				market.DELETE("/cancel/:id", marketH.Cancel)
			}

			// Wallet
			wallet := authed.Group("/wallet")
			{
				wallet.GET("/balance", walletH.GetBalance)
				wallet.POST("/topup", payRL, walletH.TopUp)
				wallet.GET("/transactions", walletH.GetTransactions)
			}
		}
	}

	return r
}

// ── CORS helper ───────────────────────────────────────────────────────────────

// corsMiddleware returns a gin middleware that sets appropriate CORS headers.
// In development all origins are allowed; in production only configured origins.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if !cfg.IsProd() {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			allowed := map[string]bool{
				"https://splitmarket.app":     true,
				"https://www.splitmarket.app": true,
			}
			if allowed[origin] {
				c.Header("Access-Control-Allow-Origin", origin)
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
