// Package services provides application-level orchestration services
package services

import (
	"slices"
	"time"

	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/performance"
	"github.com/plateful/plateful-go/internal/infrastructure/security"
	"github.com/plateful/plateful-go/internal/infrastructure/tenant"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles dashboard authentication and JWT validation
type AuthService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthService creates a new authentication service
func NewAuthService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthService {
	return &AuthService{
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// AuthResult holds authentication result data
type AuthResult struct {
	Token   string `json:"token"`
	Role    string `json:"role"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// AuthenticateDashboard validates admin or editor credentials and generates
// a dashboard JWT. The admin password is tried first so shared passwords
// resolve to the stronger role.
func (a *AuthService) AuthenticateDashboard(password string, tenantCtx *tenant.Context) *AuthResult {
	marker := a.perfTracker.StartOperation("auth:login", tenantCtx.TenantID)
	defer marker.Complete()

	var role string

	if tenantCtx.Config.AdminPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(tenantCtx.Config.AdminPassword), []byte(password)); err == nil {
			role = security.RoleAdmin
		}
	}

	if role == "" && tenantCtx.Config.EditorPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(tenantCtx.Config.EditorPassword), []byte(password)); err == nil {
			role = security.RoleEditor
		}
	}

	// Fallback for plaintext passwords during transition/testing
	if role == "" {
		if tenantCtx.Config.AdminPassword != "" && password == tenantCtx.Config.AdminPassword {
			role = security.RoleAdmin
		} else if tenantCtx.Config.EditorPassword != "" && password == tenantCtx.Config.EditorPassword {
			role = security.RoleEditor
		}
	}

	if role == "" {
		a.logger.Auth().Warn("Dashboard login rejected", "tenantId", tenantCtx.TenantID)
		marker.SetSuccess(false)
		return &AuthResult{
			Success: false,
			Error:   "Invalid credentials",
		}
	}

	token, err := security.GenerateDashboardToken(tenantCtx.TenantID, role, tenantCtx.Config.JWTSecret, tenantCtx.Config.AESKey)
	if err != nil {
		a.logger.Auth().Error("Dashboard token generation failed", "error", err, "tenantId", tenantCtx.TenantID)
		marker.SetError(err)
		return &AuthResult{Success: false, Error: "Token generation failed"}
	}

	a.logger.Auth().Info("Successfully authenticated dashboard user", "tenantId", tenantCtx.TenantID, "role", role)
	marker.SetSuccess(true)

	return &AuthResult{Token: token, Role: role, Success: true}
}

// ValidateAdminToken checks if a token belongs to an admin user
func (a *AuthService) ValidateAdminToken(tokenString string, tenantCtx *tenant.Context) bool {
	return a.ValidateTokenWithRoles(tokenString, tenantCtx, []string{security.RoleAdmin})
}

// ValidateAdminOrEditorToken checks if a token belongs to an admin or editor user
func (a *AuthService) ValidateAdminOrEditorToken(tokenString string, tenantCtx *tenant.Context) bool {
	return a.ValidateTokenWithRoles(tokenString, tenantCtx, []string{security.RoleAdmin, security.RoleEditor})
}

// TokenInfo holds information about a decoded dashboard token
type TokenInfo struct {
	Valid     bool      `json:"valid"`
	Role      string    `json:"role,omitempty"`
	TenantID  string    `json:"tenantId,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// GetTokenInfo decodes a dashboard token without enforcing a role. Tokens
// minted for a different tenant are reported as invalid.
func (a *AuthService) GetTokenInfo(tokenString string, tenantCtx *tenant.Context) *TokenInfo {
	if tokenString == "" {
		return &TokenInfo{Valid: false}
	}

	claims, err := security.ValidateJWT(tokenString, tenantCtx.Config.JWTSecret)
	if err != nil {
		return &TokenInfo{Valid: false}
	}

	if security.GetTenantFromClaims(claims) != tenantCtx.TenantID {
		return &TokenInfo{Valid: false}
	}

	info := &TokenInfo{
		Valid:    true,
		Role:     security.GetRoleFromClaims(claims),
		TenantID: tenantCtx.TenantID,
	}
	if exp, ok := claims["exp"].(float64); ok {
		info.ExpiresAt = time.Unix(int64(exp), 0)
	}

	return info
}

// ValidateTokenWithRoles validates a token and checks if the role is in the allowed list
func (a *AuthService) ValidateTokenWithRoles(tokenString string, tenantCtx *tenant.Context, allowedRoles []string) bool {
	if tokenString == "" {
		return false
	}

	claims, err := security.ValidateJWT(tokenString, tenantCtx.Config.JWTSecret)
	if err != nil {
		return false
	}

	if security.GetTenantFromClaims(claims) != tenantCtx.TenantID {
		return false
	}

	role := security.GetRoleFromClaims(claims)
	if role == "" {
		return false
	}

	return slices.Contains(allowedRoles, role)
}
