package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Date filters

	"apexpay/internal/domain"     // Importing domain models
	"apexpay/internal/ledger"     // Settlement
	"apexpay/internal/repository" // Listings

	"github.com/gin-gonic/gin" // Gin web framework
)

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	ID        uint           `json:"id"`         // User ID
	Email     string         `json:"email"`      // Login email
	FirstName string         `json:"first_name"` // First name
	LastName  string         `json:"last_name"`  // Last name
	Role      string         `json:"role"`       // User role
	IsActive  bool           `json:"is_active"`  // Email confirmed
	Wallet    *domain.Wallet `json:"wallet"`     // Associated wallet, null before activation
}

// StatusRequest is the body of a settlement call
type StatusRequest struct {
	Status string `json:"status" binding:"required,oneof=processing processed"` // Target status
}

// pagination reads page and page_size with the admin defaults
func pagination(c *gin.Context) (page, pageSize int) {
	page = 1      // Default page number
	pageSize = 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size
		}
	}
	return page, pageSize
}

// parseTime accepts RFC 3339 timestamps or plain dates
func parseTime(v string) (*time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	_, err := time.Parse(time.RFC3339, v)
	return nil, err
}

// ListUsersHandler returns users with their wallet info
func ListUsersHandler(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pagination(c)
		users, total, err := store.Users().List(c.Request.Context(), (page-1)*pageSize, pageSize)
		if err != nil {
			respondError(c, err)
			return
		}
		resp := make([]UserAdminResponse, len(users))
		// Map users to response format
		for i, u := range users {
			resp[i] = UserAdminResponse{
				ID:        u.ID,
				Email:     u.Email,
				FirstName: u.FirstName,
				LastName:  u.LastName,
				Role:      u.Role,
				IsActive:  u.IsActive,
				Wallet:    u.Wallet,
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"users":       resp,                                   // List of users
			"page":        page,                                   // Current page
			"page_size":   pageSize,                               // Page size
			"total":       total,                                  // Total number of users
			"total_pages": (int(total) + pageSize - 1) / pageSize, // Total pages
		})
	}
}

// ListTransactionsHandler returns all transactions, filtered by user, type, status or date
func ListTransactionsHandler(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pagination(c)
		filter := repository.TransactionFilter{Offset: (page - 1) * pageSize, Limit: pageSize}
		if v := c.Query("user_id"); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user_id"})
				return
			}
			filter.UserID = uint(id) // Filter by owner
		}
		if v := c.Query("type"); v != "" {
			filter.Type = domain.TransactionType(v) // Filter by transaction type
			if !filter.Type.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid type"})
				return
			}
		}
		if v := c.Query("status"); v != "" {
			filter.Status = domain.TransactionStatus(v) // Filter by settlement status
			if !filter.Status.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status"})
				return
			}
		}
		for param, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
			if v := c.Query(param); v != "" {
				t, err := parseTime(v)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid " + param + " date"})
					return
				}
				*dst = t
			}
		}

		txs, total, err := store.Transactions().List(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"transactions": txs,                                    // List of transactions
			"page":         page,                                   // Current page
			"page_size":    pageSize,                               // Page size
			"total":        total,                                  // Total number of transactions
			"total_pages":  (int(total) + pageSize - 1) / pageSize, // Total pages
		})
	}
}

// UpdateTransactionStatusHandler advances a transaction along the settlement path
func UpdateTransactionStatusHandler(s *ledger.Settlement) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid transaction id"})
			return
		}
		var req StatusRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidRequest})
			return
		}
		tx, err := s.Advance(c.Request.Context(), uint(id), domain.TransactionStatus(req.Status))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Transaction status updated", "data": tx})
	}
}
