// Package api holds the gin handlers and the route table.
package api

import (
	"context"  // Health check timeout
	"net/http" // HTTP status codes
	"time"     // Rate limit window

	"apexpay/internal/account"    // Account flows
	"apexpay/internal/domain"     // Transaction types
	"apexpay/internal/ledger"     // Wallet core
	"apexpay/internal/middleware" // Auth, limits, metrics
	"apexpay/internal/repository" // Store
	"apexpay/internal/utils"      // Token denylist

	"github.com/gin-gonic/gin"                                // Gin web framework
	"github.com/prometheus/client_golang/prometheus/promhttp" // Metrics endpoint
)

// Deps are the collaborators the routes are built from
type Deps struct {
	Store       repository.Store
	Processor   *ledger.Processor
	Reporter    *ledger.Reporter
	Settlement  *ledger.Settlement
	Accounts    *account.Service
	Denylist    *utils.TokenDenylist
	RateLimiter middleware.Counter // nil disables rate limiting
	RateMax     int
	RateWindow  time.Duration
	JWTSecret   string
}

// SetupRouter registers every route on r
func SetupRouter(r *gin.Engine, d Deps) {
	r.Use(middleware.MetricsMiddleware()) // Count every request

	r.GET("/metrics", gin.WrapH(promhttp.Handler())) // Prometheus scrape endpoint
	r.GET("/healthz", HealthHandler(d.Store))        // Liveness with a store ping

	auth := middleware.JWTAuthMiddleware(d.JWTSecret, d.Denylist)

	// Auth routes
	authGroup := r.Group("/api/v1/auth")
	authGroup.POST("/register", RegisterHandler(d.Accounts))
	authGroup.POST("/login", LoginHandler(d.Accounts))
	authGroup.POST("/refresh", RefreshHandler(d.Accounts))
	authGroup.POST("/logout", auth, LogoutHandler(d.Accounts))
	authGroup.GET("/profile", auth, ProfileHandler(d.Accounts))
	authGroup.GET("/confirm-email/:user_id/:token", ConfirmEmailHandler(d.Accounts))
	authGroup.GET("/resend-activation-link/:email", ResendActivationHandler(d.Accounts))
	authGroup.GET("/reset-password/:email", ResetPasswordHandler(d.Accounts))
	authGroup.PUT("/reset-password-confirm/:user_id/:token", ConfirmPasswordResetHandler(d.Accounts))

	// Wallet routes (protected by JWT)
	txGroup := r.Group("/api/v1/transactions")
	txGroup.Use(auth)
	limit := middleware.RateLimitMiddleware(d.RateLimiter, d.RateMax, d.RateWindow)
	txGroup.POST("/deposit", limit, DepositHandler(d.Processor))   // Rate limited per user
	txGroup.POST("/withdraw", limit, WithdrawHandler(d.Processor)) // Rate limited per user
	txGroup.GET("", GetTransactionsHandler(d.Reporter))
	txGroup.GET("/wallet", GetWalletHandler(d.Reporter))
	txGroup.GET("/deposit-status", StatusHandler(d.Reporter, domain.TypeDeposit))
	txGroup.GET("/withdraw-status", StatusHandler(d.Reporter, domain.TypeWithdraw))
	txGroup.GET("/total-deposit", TotalHandler(d.Reporter, domain.TypeDeposit))
	txGroup.GET("/total-withdraw", TotalHandler(d.Reporter, domain.TypeWithdraw))

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin")
	adminGroup.Use(auth, middleware.AdminOnlyMiddleware(d.Store.Users()))
	adminGroup.GET("/users", ListUsersHandler(d.Store))
	adminGroup.GET("/transactions", ListTransactionsHandler(d.Store))
	adminGroup.PATCH("/transactions/:id/status", UpdateTransactionStatusHandler(d.Settlement))
}

// HealthHandler reports whether the store answers
func HealthHandler(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
