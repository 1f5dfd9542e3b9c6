// Package security provides JWT token utilities
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Dashboard roles carried in the token's role claim.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// GenerateDashboardToken creates a JWT for a dashboard session. The session
// nonce is an AES-encrypted ULID so tokens from the same login window stay
// distinguishable.
func GenerateDashboardToken(tenantID, role, jwtSecret, aesKey string) (string, error) {
	nonce, err := Encrypt(GenerateULID(), aesKey)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt session nonce: %w", err)
	}

	claims := jwt.MapClaims{
		"tenantId":     tenantID,
		"role":         role,
		"sessionNonce": nonce,
		"iat":          time.Now().UTC().Unix(),
		"exp":          time.Now().UTC().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	result, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return result, nil
}

// GetRoleFromClaims extracts the dashboard role from JWT claims.
func GetRoleFromClaims(claims jwt.MapClaims) string {
	if role, ok := claims["role"].(string); ok {
		return role
	}
	return ""
}

// GetTenantFromClaims extracts the tenant ID from JWT claims.
func GetTenantFromClaims(claims jwt.MapClaims) string {
	if tenantID, ok := claims["tenantId"].(string); ok {
		return tenantID
	}
	return ""
}
