// Package middleware provides HTTP middleware for the presentation layer.
package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/performance"
	"github.com/plateful/plateful-go/internal/infrastructure/tenant"
)

// resolveTenantID reads the tenant from the X-Tenant-ID header, falling back
// to the tenantId query param because EventSource cannot set headers.
func resolveTenantID(c *gin.Context) string {
	if id := c.GetHeader("X-Tenant-ID"); id != "" {
		return id
	}
	return c.Query("tenantId")
}

// TenantMiddleware resolves the restaurant tenant for every request and
// attaches a full tenant context (config, database, repositories) to gin.
func TenantMiddleware(tenantManager *tenant.Manager, perfTracker *performance.Tracker) gin.HandlerFunc {
	logger := tenantManager.GetLogger()

	return func(c *gin.Context) {
		start := time.Now()
		marker := perfTracker.StartOperation("middleware_tenant_resolution", "unknown")
		defer marker.Complete()

		marker.AddMetadata("path", c.Request.URL.Path)
		marker.AddMetadata("method", c.Request.Method)

		tenantID := resolveTenantID(c)
		if tenantID == "" {
			err := errors.New("X-Tenant-ID header or tenantId query param is required")
			logger.Tenant().Warn(err.Error(), "path", c.Request.URL.Path)
			marker.SetSuccess(false)
			marker.SetError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			c.Abort()
			return
		}
		marker.TenantID = tenantID

		tenantCtx, err := tenantManager.GetContext(c)
		if err != nil {
			// A fresh install has an inactive default tenant; the health
			// handler uses these flags to answer with setup instructions.
			if tenantID == "default" && tenantManager.GetDetector().GetTenantStatus("default") == "inactive" {
				c.Set("setupNeeded", true)
				c.Set("tenantId", "default")
				marker.SetSuccess(true)
				c.Next()
				return
			}

			logger.Tenant().Error("Tenant resolution failed", "error", err, "tenantId", tenantID)
			marker.SetSuccess(false)
			marker.SetError(err)
			c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
			c.Abort()
			return
		}

		logger.Tenant().Debug("Tenant context resolved successfully",
			"tenantId", tenantCtx.TenantID,
			"duration", time.Since(start),
			"database", tenantCtx.GetDatabaseInfo(),
		)
		marker.SetSuccess(true)

		c.Set("tenant", tenantCtx)
		c.Next()
	}
}

// GetTenantContext retrieves the tenant context set by TenantMiddleware.
func GetTenantContext(c *gin.Context) (*tenant.Context, bool) {
	v, exists := c.Get("tenant")
	if !exists {
		return nil, false
	}
	ctx, ok := v.(*tenant.Context)
	return ctx, ok
}
