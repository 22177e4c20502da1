package utils

import (
	"errors" // Error values
	"time"   // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
	"github.com/google/uuid"       // Token IDs
)

// Token purposes. A token is only accepted for the purpose it was issued for.
const (
	PurposeAccess     = "access"
	PurposeRefresh    = "refresh"
	PurposeActivation = "activation"
	PurposeReset      = "reset"
)

// ErrWrongPurpose is returned when a valid token is presented for another use
var ErrWrongPurpose = errors.New("token issued for another purpose")

// JWT Claims
type Claims struct {
	UserID               uint   `json:"user_id"`         // Custom claim for user ID
	Purpose              string `json:"purpose"`         // access, refresh, activation or reset
	Stamp                string `json:"stamp,omitempty"` // Account state fingerprint for one-shot tokens
	jwt.RegisteredClaims        // Standard JWT claims
}

// GenerateJWT creates a signed token for a given user ID and purpose
func GenerateJWT(userID uint, purpose, stamp string, ttl time.Duration, secret string) (string, error) {
	now := time.Now()
	// Set token claims
	claims := Claims{
		UserID:  userID,  // Custom claim for user ID
		Purpose: purpose, // What the token may be used for
		Stamp:   stamp,   // Empty for access and refresh tokens
		// Standard claims
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),                 // Token ID, used for revocation
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)), // Token expiry
			IssuedAt:  jwt.NewNumericDate(now),          // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a token string issued for purpose
func ParseJWT(tokenStr, purpose, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	// Check for parsing errors
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid // Return error if token is invalid
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}
	return claims, nil // Return claims if valid
}
