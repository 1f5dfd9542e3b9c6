package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful-go/internal/application/services"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/performance"
	"github.com/plateful/plateful-go/internal/presentation/http/middleware"
)

// AuthHandlers contains the dashboard session endpoints. Login doubles as
// the session provider for the admin UI: the token it issues is what every
// mutating endpoint expects as a bearer credential.
type AuthHandlers struct {
	authService *services.AuthService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthHandlers creates auth handlers with injected dependencies
func NewAuthHandlers(authService *services.AuthService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// PostLogin handles POST /api/v1/auth/login - admin/editor authentication
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("post_login_request", tenantCtx.TenantID)
	defer marker.Complete()
	h.logger.Auth().Debug("Received login request", "method", c.Request.Method, "path", c.Request.URL.Path, "tenantId", tenantCtx.TenantID)

	var loginReq struct {
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginReq); err != nil {
		h.logger.Auth().Error("Login request JSON binding failed", "tenantId", tenantCtx.TenantID, "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result := h.authService.AuthenticateDashboard(loginReq.Password, tenantCtx)

	if !result.Success {
		h.logger.Auth().Warn("Login attempt failed", "tenantId", tenantCtx.TenantID, "error", result.Error, "duration", time.Since(start))
		marker.SetSuccess(false)
		h.logger.Perf().Info("Performance for PostLogin request", "duration", marker.Duration, "tenantId", tenantCtx.TenantID, "success", false)

		c.JSON(http.StatusUnauthorized, gin.H{"error": result.Error})
		return
	}

	// Set role-specific HTTP-only cookie so the dashboard survives reloads
	cookieName := "admin_auth"
	if result.Role == "editor" {
		cookieName = "editor_auth"
	}

	c.SetCookie(
		cookieName,   // name (admin_auth or editor_auth)
		result.Token, // value
		86400,        // maxAge (24 hours in seconds)
		"/",          // path
		"",           // domain (empty for current domain)
		false,        // secure (set to true in production)
		true,         // httpOnly
	)

	h.logger.Auth().Info("Login successful", "tenantId", tenantCtx.TenantID, "role", result.Role, "duration", time.Since(start))
	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for PostLogin request", "duration", marker.Duration, "tenantId", tenantCtx.TenantID, "success", true)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   result.Token,
		"role":    result.Role,
		"message": "Login successful",
	})
}

// PostLogout handles POST /api/v1/auth/logout - clears authentication cookies
func (h *AuthHandlers) PostLogout(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	start := time.Now()
	h.logger.Auth().Debug("Received logout request", "method", c.Request.Method, "path", c.Request.URL.Path, "tenantId", tenantCtx.TenantID)

	// Clear both auth cookies by setting them to expired
	c.SetCookie("admin_auth", "", -1, "/", "", false, true)
	c.SetCookie("editor_auth", "", -1, "/", "", false, true)

	h.logger.Auth().Info("Logout completed", "tenantId", tenantCtx.TenantID, "duration", time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logout successful",
	})
}

// GetAuthStatus handles GET /api/v1/auth/status - checks current authentication status
func (h *AuthHandlers) GetAuthStatus(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	start := time.Now()
	h.logger.Auth().Debug("Received auth status request", "method", c.Request.Method, "path", c.Request.URL.Path, "tenantId", tenantCtx.TenantID)

	var tokenInfo *services.TokenInfo
	var authenticated bool
	var authMethod string

	for _, cred := range sessionCredentials(c, "admin_auth", "editor_auth") {
		tokenInfo = h.authService.GetTokenInfo(cred.token, tenantCtx)
		if tokenInfo.Valid {
			authenticated = true
			authMethod = cred.source
			break
		}
	}

	response := gin.H{
		"authenticated": authenticated,
		"method":        authMethod,
	}

	if authenticated && tokenInfo != nil {
		response["role"] = tokenInfo.Role
		response["tenantId"] = tokenInfo.TenantID
		response["expiresAt"] = tokenInfo.ExpiresAt
	}

	h.logger.Auth().Info("Auth status check completed", "tenantId", tenantCtx.TenantID, "authenticated", authenticated, "method", authMethod, "duration", time.Since(start))

	c.JSON(http.StatusOK, response)
}

// sessionCredential is one candidate token for a request, with where it
// came from ("bearer" or "cookie").
type sessionCredential struct {
	token  string
	source string
}

// sessionCredentials collects the request's candidate tokens in precedence
// order: the bearer token wins over the named cookies.
func sessionCredentials(c *gin.Context, cookieNames ...string) []sessionCredential {
	var creds []sessionCredential
	if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		creds = append(creds, sessionCredential{token: token, source: "bearer"})
	}
	for _, name := range cookieNames {
		if cookie, err := c.Cookie(name); err == nil && cookie != "" {
			creds = append(creds, sessionCredential{token: cookie, source: "cookie"})
		}
	}
	return creds
}

// AuthMiddleware guards endpoints that require any dashboard session. Both
// bearer tokens and the login cookies are accepted.
func (h *AuthHandlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantCtx, exists := middleware.GetTenantContext(c)
		if !exists {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
			c.Abort()
			return
		}

		authenticated := false
		for _, cred := range sessionCredentials(c, "admin_auth", "editor_auth") {
			if h.authService.ValidateAdminOrEditorToken(cred.token, tenantCtx) {
				authenticated = true
				break
			}
		}

		if !authenticated {
			h.logger.Auth().Warn("Unauthorized access attempt", "tenantId", tenantCtx.TenantID, "path", c.Request.URL.Path)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// AdminOnlyMiddleware guards destructive endpoints. Editor sessions are
// rejected with 403 rather than 401 so the dashboard can distinguish
// "log in" from "not your call".
func (h *AuthHandlers) AdminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantCtx, exists := middleware.GetTenantContext(c)
		if !exists {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
			c.Abort()
			return
		}

		authenticated := false
		for _, cred := range sessionCredentials(c, "admin_auth") {
			if h.authService.ValidateAdminToken(cred.token, tenantCtx) {
				authenticated = true
				break
			}
		}

		if !authenticated {
			h.logger.Auth().Warn("Unauthorized admin access attempt", "tenantId", tenantCtx.TenantID, "path", c.Request.URL.Path)
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
