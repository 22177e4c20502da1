package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"apexpay/internal/account"    // Account flows
	"apexpay/internal/domain"     // Domain errors
	"apexpay/internal/middleware" // Context keys
	"apexpay/internal/utils"      // Token claims

	"github.com/gin-gonic/gin" // Gin web framework
)

// RegisterRequest is the body of a registration
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`        // Login email
	Password  string `json:"password" binding:"required"`           // Checked by isValidPassword
	FirstName string `json:"first_name" binding:"required,max=100"` // First name
	LastName  string `json:"last_name" binding:"required,max=100"`  // Last name
}

// LoginRequest is the body of a login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"` // Login email
	Password string `json:"password" binding:"required"`    // Plain password
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"` // Refresh token from login
}

// LogoutRequest optionally carries the refresh token to revoke with the access token
type LogoutRequest struct {
	Refresh string `json:"refresh"` // Optional refresh token
}

// PasswordRequest is the body of a password reset confirmation
type PasswordRequest struct {
	Password string `json:"password" binding:"required"` // New password
}

// isValidPassword checks the password length; bcrypt ignores bytes past 72
func isValidPassword(password string) bool {
	return len(password) >= 8 && len(password) <= 72
}

// RegisterHandler creates an inactive account and mails its activation link
func RegisterHandler(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidRequest})
			return
		}
		if !isValidPassword(req.Password) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Password must be 8-72 characters"})
			return
		}
		_, err := svc.Register(c.Request.Context(), account.RegisterInput{
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "User created successfully. Check your email."})
	}
}

// LoginHandler authenticates a user and returns access and refresh tokens
func LoginHandler(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidRequest})
			return
		}
		user, tokens, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Login Successful",
			"data": gin.H{
				"user":    gin.H{"user_id": user.ID, "email": user.Email},
				"refresh": tokens.Refresh,
				"access":  tokens.Access,
			},
		})
	}
}

// RefreshHandler issues a new access token for a refresh token
func RefreshHandler(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefreshRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidRequest})
			return
		}
		access, err := svc.Refresh(c.Request.Context(), req.Refresh)
		if errors.Is(err, domain.ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"access": access})
	}
}

// LogoutHandler revokes the caller's tokens
func LogoutHandler(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LogoutRequest
		_ = c.ShouldBindJSON(&req) // Body is optional
		claims, _ := c.MustGet(middleware.ClaimsKey).(*utils.Claims)
		if err := svc.Logout(c.Request.Context(), claims, req.Refresh); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Logout Successful"})
	}
}

// ProfileHandler returns the caller's account
func ProfileHandler(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := svc.Profile(c.Request.Context(), c.GetUint(middleware.UserIDKey))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":         user.ID,
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"wallet":     user.Wallet,
		})
	}
}

// ConfirmEmailHandler activates the account named in the link
func ConfirmEmailHandler(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := svc.Activate(c.Request.Context(), c.Param("user_id"), c.Param("token"))
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"message": "User does not exist"})
		case err != nil:
			respondError(c, err)
		default:
			c.JSON(http.StatusOK, gin.H{"message": "Email activated successfully"})
		}
	}
}

// ResendActivationHandler mails a new activation link
func ResendActivationHandler(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := svc.ResendActivation(c.Request.Context(), c.Param("email"))
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"message": "User does not exist"})
		case err != nil:
			respondError(c, err)
		default:
			c.JSON(http.StatusOK, gin.H{"message": "Email sent"})
		}
	}
}

// ResetPasswordHandler mails a password reset link
func ResetPasswordHandler(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := svc.RequestPasswordReset(c.Request.Context(), c.Param("email"))
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"message": "User does not exist."})
		case errors.Is(err, domain.ErrInactiveUser):
			c.JSON(http.StatusBadRequest, gin.H{"message": "User is not active. Request an activation link."})
		case err != nil:
			respondError(c, err)
		default:
			c.JSON(http.StatusOK, gin.H{"message": "Check your mail to reset your password"})
		}
	}
}

// ConfirmPasswordResetHandler sets the new password named in the link
func ConfirmPasswordResetHandler(svc *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PasswordRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || !isValidPassword(req.Password) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Password must be 8-72 characters"})
			return
		}
		err := svc.ConfirmPasswordReset(c.Request.Context(), c.Param("user_id"), c.Param("token"), req.Password)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"message": "User does not exist"})
		case errors.Is(err, domain.ErrInvalidToken):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Password Reset Failed!"})
		case err != nil:
			respondError(c, err)
		default:
			c.JSON(http.StatusOK, gin.H{"message": "New password set."})
		}
	}
}
