package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful-go/internal/application/services"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/presentation/http/middleware"
)

// DashboardHandlers contains the dashboard summary HTTP handlers
type DashboardHandlers struct {
	dashboardService *services.DashboardService
	logger           *logging.ChanneledLogger
}

// NewDashboardHandlers creates dashboard handlers with injected dependencies
func NewDashboardHandlers(dashboardService *services.DashboardService, logger *logging.ChanneledLogger) *DashboardHandlers {
	return &DashboardHandlers{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// GetSummary returns the landing page counters: orders by status, revenue
// since midnight, and active catalog counts.
func (h *DashboardHandlers) GetSummary(c *gin.Context) {
	start := time.Now()
	h.logger.Catalog().Debug("Received dashboard summary request", "method", c.Request.Method, "path", c.Request.URL.Path)
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	summary, err := h.dashboardService.GetSummary(tenantCtx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Catalog().Info("Dashboard summary request completed", "duration", time.Since(start))
	c.JSON(http.StatusOK, summary)
}
