package api

import (
	"context"  // Context errors
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"apexpay/internal/domain" // Domain errors

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging
)

// Messages shown to API clients
const (
	msgPending        = "You have a pending transaction. Contact support."
	msgInsufficient   = "Insufficient funds"
	msgInvalidAmount  = "Amount must be a positive number with at most two decimal places"
	msgInvalidRequest = "Invalid request"
	msgNotFound       = "Not found"
	msgBusy           = "Wallet is busy, try again"
	msgUnavailable    = "Service temporarily unavailable"
	msgInternal       = "Internal server error"
)

// statusFor maps an error to its HTTP status and client message
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrPendingOperation):
		return http.StatusBadRequest, msgPending
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusBadRequest, msgInsufficient
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, msgInvalidAmount
	case errors.Is(err, domain.ErrInvalidOperationType):
		return http.StatusBadRequest, "Invalid transaction type"
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusBadRequest, "User already exists"
	case errors.Is(err, domain.ErrAlreadyActive):
		return http.StatusBadRequest, "User is already active"
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusBadRequest, "Invalid token"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Email or password is incorrect"
	case errors.Is(err, domain.ErrInactiveUser):
		return http.StatusUnauthorized, "User is not active"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		return http.StatusConflict, "Invalid status transition"
	case errors.Is(err, domain.ErrContention):
		return http.StatusConflict, msgBusy
	case errors.Is(err, domain.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, msgUnavailable
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// respondError writes err as a JSON message. Server side failures are logged.
func respondError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	switch status {
	case http.StatusConflict:
		if errors.Is(err, domain.ErrContention) {
			c.Header("Retry-After", "1") // Lock waits clear within a second
		}
	case http.StatusServiceUnavailable:
		c.Header("Retry-After", "5")
	}
	if status >= http.StatusInternalServerError {
		logrus.WithContext(c.Request.Context()).WithFields(logrus.Fields{
			"path":   c.FullPath(),
			"status": status,
		}).WithError(err).Error("Request failed")
	}
	c.JSON(status, gin.H{"message": msg})
}
