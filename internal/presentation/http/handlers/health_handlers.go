package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful-go/internal/application/services"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/presentation/http/middleware"
)

// HealthHandlers contains the tenant health endpoint
type HealthHandlers struct {
	dbService *services.DBService
	logger    *logging.ChanneledLogger
}

// NewHealthHandlers creates health handlers with injected dependencies
func NewHealthHandlers(dbService *services.DBService, logger *logging.ChanneledLogger) *HealthHandlers {
	return &HealthHandlers{
		dbService: dbService,
		logger:    logger,
	}
}

// GetHealth handles GET /api/v1/health - reports tenant database health.
// On a fresh install the tenant middleware passes the request through with
// setup flags instead of a tenant context, and the response tells the
// dashboard to run the setup flow.
func (h *HealthHandlers) GetHealth(c *gin.Context) {
	if setupNeeded, ok := c.Get("setupNeeded"); ok && setupNeeded == true {
		c.JSON(http.StatusOK, gin.H{
			"status":        "setup_required",
			"tenantId":      c.GetString("tenantId"),
			"setupEndpoint": "/api/v1/setup/initialize",
		})
		return
	}

	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	start := time.Now()
	h.logger.System().Debug("Received health check request", "method", c.Request.Method, "path", c.Request.URL.Path, "tenantId", tenantCtx.TenantID)

	status := h.dbService.CheckStatus(tenantCtx)

	if errMsg, ok := status["error"].(string); ok && errMsg != "" {
		h.logger.System().Error("Health check failed", "tenantId", tenantCtx.TenantID, "error", errMsg, "duration", time.Since(start))
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}

	h.logger.System().Info("Health check completed", "tenantId", tenantCtx.TenantID, "status", status["status"], "duration", time.Since(start))
	c.JSON(http.StatusOK, status)
}

// GetConnectionStats handles GET /api/v1/health/db - database pool statistics
func (h *HealthHandlers) GetConnectionStats(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	c.JSON(http.StatusOK, h.dbService.GetConnectionStats(tenantCtx))
}
