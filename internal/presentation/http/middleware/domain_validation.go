package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful-go/internal/infrastructure/tenant"
)

// isLocalHost reports whether the request host is a development origin
// exempt from tenant domain checks.
func isLocalHost(host string) bool {
	return strings.HasPrefix(host, "localhost:") ||
		strings.HasPrefix(host, "127.0.0.1:") ||
		strings.HasPrefix(host, "[::1]:")
}

// requestDomain extracts the domain to validate, preferring the Origin
// header over the Host.
func requestDomain(c *gin.Context) string {
	if origin := c.GetHeader("Origin"); origin != "" {
		if u, err := url.Parse(origin); err == nil {
			return u.Hostname()
		}
		return ""
	}
	return c.Request.Host
}

// DomainValidationMiddleware refuses requests whose origin is not among the
// tenant's registered domains. Runs after TenantMiddleware.
func DomainValidationMiddleware(tenantManager *tenant.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// CORS preflight never carries tenant state
		if c.Request.Method == "OPTIONS" {
			c.Next()
			return
		}

		if isLocalHost(c.Request.Host) {
			c.Next()
			return
		}

		tenantCtx, exists := GetTenantContext(c)
		if !exists {
			// The fresh-install path has no context yet; let the health
			// handler answer.
			if setupNeeded, ok := c.Get("setupNeeded"); ok && setupNeeded == true {
				c.Next()
				return
			}
			c.JSON(http.StatusForbidden, gin.H{"error": "tenant context required"})
			c.Abort()
			return
		}

		if !tenantManager.GetDetector().ValidateDomain(tenantCtx.TenantID, requestDomain(c)) {
			c.JSON(http.StatusForbidden, gin.H{"error": "domain not allowed for tenant"})
			c.Abort()
			return
		}

		c.Next()
	}
}
