package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"apexpay/internal/utils" // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// Context keys set by JWTAuthMiddleware
const (
	UserIDKey = "userID"
	ClaimsKey = "tokenClaims"
)

// JWTAuthMiddleware validates access tokens and extracts user information
func JWTAuthMiddleware(secret string, denylist *utils.TokenDenylist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")                 // Extract the token string and parse it
		claims, err := utils.ParseJWT(tokenStr, utils.PurposeAccess, secret) // Only access tokens open the API
		if err != nil {
			// If parsing fails, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		// Logged out tokens stay valid cryptographically until they expire
		if denylist.IsRevoked(c.Request.Context(), claims.ID) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
			return
		}
		c.Set(UserIDKey, claims.UserID) // Store userID in context
		c.Set(ClaimsKey, claims)        // Logout needs the token ID and expiry
		c.Next()                        // Proceed to the next handler
	}
}
