package handlers

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful-go/internal/infrastructure/messaging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/performance"
	"github.com/plateful/plateful-go/internal/presentation/http/middleware"
)

// Connection limits to prevent resource exhaustion
var (
	activeEventStreams int64
	maxEventStreams    = int64(1000)
)

// EventsHandlers contains the Server-Sent Events endpoint that pushes
// save reports, order updates, and catalog changes to open dashboards.
type EventsHandlers struct {
	broadcaster *messaging.SSEBroadcaster
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewEventsHandlers creates event stream handlers with injected dependencies
func NewEventsHandlers(broadcaster *messaging.SSEBroadcaster, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *EventsHandlers {
	return &EventsHandlers{
		broadcaster: broadcaster,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// GetSSE handles GET /api/v1/events/sse - establishes a Server-Sent Events
// connection scoped to one dashboard session. The session ID keys the
// subscription so a save in one browser tab reaches every tab of the
// same dashboard, but not other tenants.
func (h *EventsHandlers) GetSSE(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("get_sse_request", tenantCtx.TenantID)
	defer marker.Complete()
	h.logger.Ops().Debug("Received SSE connection request", "method", c.Request.Method, "path", c.Request.URL.Path, "tenantId", tenantCtx.TenantID)

	sessionID := c.Query("sessionId")
	if sessionID == "" {
		h.logger.Ops().Error("SSE connection request missing session ID", "tenantId", tenantCtx.TenantID)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID required for SSE connection"})
		return
	}

	currentConnections := atomic.LoadInt64(&activeEventStreams)
	if currentConnections >= maxEventStreams {
		h.logger.Ops().Warn("SSE connection limit reached",
			"tenantId", tenantCtx.TenantID,
			"sessionId", sessionID,
			"currentConnections", currentConnections,
			"maxConnections", maxEventStreams)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "SSE connection limit reached. Please try again later.",
		})
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// Register with the broadcaster before the first write so a save that
	// lands during connection setup still reaches this client.
	ch := h.broadcaster.AddClientWithSession(tenantCtx.TenantID, sessionID)
	atomic.AddInt64(&activeEventStreams, 1)
	defer func() {
		atomic.AddInt64(&activeEventStreams, -1)
		h.broadcaster.RemoveClientWithSession(ch, tenantCtx.TenantID, sessionID)
	}()

	// Initial connection confirmation
	connected := fmt.Sprintf("data: {\"type\":\"connected\",\"sessionId\":\"%s\",\"timestamp\":\"%s\"}\n\n", sessionID, time.Now().Format(time.RFC3339))
	if _, err := c.Writer.WriteString(connected); err != nil {
		h.logger.Ops().Warn("SSE initial message failed", "tenantId", tenantCtx.TenantID, "sessionId", sessionID, "error", err.Error())
		return
	}
	c.Writer.Flush()

	clientCtx := c.Request.Context()

	h.logger.Ops().Info("SSE connection established",
		"tenantId", tenantCtx.TenantID,
		"sessionId", sessionID,
		"totalConnections", atomic.LoadInt64(&activeEventStreams),
		"setupDuration", time.Since(start))

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for GetSSE request", "duration", marker.Duration, "tenantId", tenantCtx.TenantID, "success", true)

	// Heartbeat keeps proxies from timing out idle dashboards
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	connectionStart := time.Now()
	for {
		select {
		case <-clientCtx.Done():
			h.logger.Ops().Info("SSE client disconnected",
				"tenantId", tenantCtx.TenantID,
				"sessionId", sessionID,
				"connectionDuration", time.Since(connectionStart))
			return

		case message, ok := <-ch:
			if !ok {
				h.logger.Ops().Info("SSE connection channel closed",
					"tenantId", tenantCtx.TenantID,
					"sessionId", sessionID,
					"connectionDuration", time.Since(connectionStart))
				return
			}

			if _, err := c.Writer.WriteString(message); err != nil {
				h.logger.Ops().Error("SSE write failed",
					"tenantId", tenantCtx.TenantID,
					"sessionId", sessionID,
					"error", err.Error())
				return
			}
			c.Writer.Flush()

		case <-ticker.C:
			heartbeat := fmt.Sprintf("data: {\"type\":\"heartbeat\",\"timestamp\":\"%s\"}\n\n", time.Now().Format(time.RFC3339))
			if _, err := c.Writer.WriteString(heartbeat); err != nil {
				h.logger.Ops().Error("SSE heartbeat failed",
					"tenantId", tenantCtx.TenantID,
					"sessionId", sessionID,
					"error", err.Error())
				return
			}
			c.Writer.Flush()
		}
	}
}
