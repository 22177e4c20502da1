package api

import (
	"context"  // Request context
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"apexpay/internal/domain"     // Importing domain models
	"apexpay/internal/ledger"     // Processor and reporter
	"apexpay/internal/middleware" // Context keys

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money amounts
)

// TransactionRequest is the body of deposit and withdraw calls
type TransactionRequest struct {
	TransactionType string          `json:"transaction_type" binding:"required,oneof=deposit withdraw"` // Must match the endpoint
	Amount          decimal.Decimal `json:"amount"`                                                     // String or number, two decimal places
}

// validAmount reports whether amount is positive with at most two decimal places
func validAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.Equal(amount.Truncate(2))
}

// DepositHandler credits the caller's wallet
func DepositHandler(p *ledger.Processor) gin.HandlerFunc {
	return movementHandler(domain.TypeDeposit, p.Deposit)
}

// WithdrawHandler debits the caller's wallet
func WithdrawHandler(p *ledger.Processor) gin.HandlerFunc {
	return movementHandler(domain.TypeWithdraw, p.Withdraw)
}

type applyFunc = func(ctx context.Context, userID uint, req ledger.Request) error

func movementHandler(op domain.TransactionType, apply applyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint(middleware.UserIDKey) // Set by JWTAuthMiddleware
		var req TransactionRequest                // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidRequest})
			return
		}
		if !validAmount(req.Amount) {
			c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidAmount})
			return
		}
		err := apply(c.Request.Context(), userID, ledger.Request{
			Type:   domain.TransactionType(req.TransactionType),
			Amount: req.Amount,
		})
		if errors.Is(err, domain.ErrInvalidOperationType) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid transaction type for " + string(op) + "."})
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Transaction successful"})
	}
}

// GetTransactionsHandler lists the caller's transactions oldest first
func GetTransactionsHandler(r *ledger.Reporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		txs, err := r.Transactions(c.Request.Context(), c.GetUint(middleware.UserIDKey))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Your transactions are below", "data": txs})
	}
}

// GetWalletHandler returns the caller's wallet as a list of at most one entry
func GetWalletHandler(r *ledger.Reporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallets, err := r.Wallet(c.Request.Context(), c.GetUint(middleware.UserIDKey))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Balance retrieved", "data": wallets})
	}
}

// StatusHandler reports the state of the caller's latest transaction of txType
func StatusHandler(r *ledger.Reporter, txType domain.TransactionType) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := r.Status(c.Request.Context(), c.GetUint(middleware.UserIDKey), txType)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": report.Message, "data": report.Transactions})
	}
}

// TotalHandler lists the caller's settled transactions of txType and their sum
func TotalHandler(r *ledger.Reporter, txType domain.TransactionType) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := r.Totals(c.Request.Context(), c.GetUint(middleware.UserIDKey), txType)
		if err != nil {
			respondError(c, err)
			return
		}
		total := decimal.Zero // Sum of settled amounts
		for _, tx := range report.Transactions {
			total = total.Add(tx.Amount)
		}
		c.JSON(http.StatusOK, gin.H{
			"message": report.Message,       // Total deposit amount, Total withdraw amount or no records
			"data":    report.Transactions,  // Settled rows
			"total":   total.StringFixed(2), // Caller-side reduction
		})
	}
}
