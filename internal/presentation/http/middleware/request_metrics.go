package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/monitoring"
)

// RequestMetricsMiddleware feeds the per-tenant activity counters the ops
// dashboard displays. Runs after TenantMiddleware so the tenant is known.
func RequestMetricsMiddleware(monitor *monitoring.RequestMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		tenantCtx, ok := GetTenantContext(c)
		if !ok {
			return
		}
		tenantID := tenantCtx.TenantID
		monitor.RecordRequest(tenantID, time.Since(start), c.Writer.Status())

		if c.Writer.Status() >= 400 {
			return
		}
		path := c.Request.URL.Path
		switch {
		case c.Request.Method == "POST" && strings.Contains(path, "/specials/schedule/") && strings.HasSuffix(path, "/save"):
			monitor.RecordDraftSave(tenantID)
		case c.Request.Method == "PUT" && strings.Contains(path, "/orders/"):
			monitor.RecordOrderMutation(tenantID)
		}
	}
}
