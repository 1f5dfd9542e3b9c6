package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/plateful/plateful-go/internal/application/container"
	"github.com/plateful/plateful-go/internal/infrastructure/messaging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/security"
	"github.com/plateful/plateful-go/pkg/config"
)

// Websocket keepalive tuning for the ops feed.
const (
	opsWriteWait  = 10 * time.Second
	opsPongWait   = 60 * time.Second
	opsPingPeriod = 54 * time.Second
)

var opsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The ops dashboard is served by this process or run locally, and the
	// endpoint sits behind the ops password, so origins are not filtered.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// OpsHandlers handles operator dashboard authentication, activity data,
// and log streaming. These endpoints sit outside the tenant middleware:
// the operator looks across tenants, not into one.
type OpsHandlers struct {
	container *container.Container
}

// NewOpsHandlers creates new operator dashboard handlers
func NewOpsHandlers(container *container.Container) *OpsHandlers {
	return &OpsHandlers{
		container: container,
	}
}

// AuthCheck checks if OpsPassword is set and validates the session
func (h *OpsHandlers) AuthCheck(c *gin.Context) {
	opsPassword := config.OpsPassword
	response := map[string]any{
		"passwordRequired": opsPassword != "",
		"authenticated":    false,
	}

	if opsPassword == "" {
		response["message"] = "Set OPS_PASSWORD to protect the operations dashboard"
	}

	// Also check for a valid token in the header
	auth := c.GetHeader("Authorization")
	if opsPassword != "" && auth == "Bearer "+opsPassword {
		response["authenticated"] = true
	}

	c.JSON(http.StatusOK, response)
}

// Login handles operator authentication
func (h *OpsHandlers) Login(c *gin.Context) {
	var request struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	opsPassword := config.OpsPassword
	if opsPassword == "" {
		c.JSON(http.StatusOK, gin.H{"success": true, "token": "no-auth-required"})
		return
	}
	if request.Password != opsPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": opsPassword})
}

// GetTenants returns the registry's tenant IDs
func (h *OpsHandlers) GetTenants(c *gin.Context) {
	registry := h.container.TenantManager.GetDetector().GetRegistry()
	if registry == nil || registry.Tenants == nil {
		c.JSON(http.StatusOK, map[string]any{"tenants": []string{}})
		return
	}

	tenants := make([]string, 0, len(registry.Tenants))
	for tenantID := range registry.Tenants {
		tenants = append(tenants, tenantID)
	}

	c.JSON(http.StatusOK, map[string]any{"tenants": tenants})
}

// GetActivityMetrics fetches live cache counts for one tenant.
func (h *OpsHandlers) GetActivityMetrics(c *gin.Context) {
	tenantID := c.Query("tenant")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant query parameter is required"})
		return
	}
	stats := h.container.CacheManager.GetTenantStats(tenantID)
	c.JSON(http.StatusOK, gin.H{
		"products":      stats.Products,
		"categories":    stats.Categories,
		"customers":     stats.Customers,
		"specials":      stats.Specials,
		"draftSessions": stats.DraftSessions,
		"opsClients":    h.container.OpsBroadcaster.ClientCount(tenantID),
		"requests":      h.container.RequestMonitor.Activity(tenantID),
		"cache":         h.container.CacheMonitor.Snapshot(),
	})
}

// GetTenantToken is the token broker endpoint. The operator is already
// authenticated via middleware, so it mints a dashboard admin token for
// the requested tenant without knowing that tenant's password.
func (h *OpsHandlers) GetTenantToken(c *gin.Context) {
	var req struct {
		TenantID string `json:"tenantId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: tenantId is required"})
		return
	}

	tenantCtx, err := h.container.TenantManager.NewContextFromID(req.TenantID)
	if err != nil {
		h.container.Logger.Ops().Error("Ops failed to create context for token generation", "error", err, "tenantId", req.TenantID)
		c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found or could not be initialized"})
		return
	}
	defer tenantCtx.Close()

	token, err := security.GenerateDashboardToken(tenantCtx.Config.TenantID, security.RoleAdmin, tenantCtx.Config.JWTSecret, tenantCtx.Config.AESKey)
	if err != nil {
		h.container.Logger.Ops().Error("Ops failed to generate token for tenant", "error", err, "tenantId", req.TenantID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tenant token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"role":    security.RoleAdmin,
	})
}

// OpsAuthMiddleware protects operator endpoints.
func (h *OpsHandlers) OpsAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		opsPassword := config.OpsPassword
		if opsPassword == "" {
			c.Next() // No password set, allow access
			return
		}

		authHeader := c.GetHeader("Authorization")
		token, _ := strings.CutPrefix(authHeader, "Bearer ")

		// Browsers cannot set headers on websocket dials, so the ws
		// endpoint passes the token as a query parameter instead.
		if token == "" {
			token = c.Query("token")
		}

		if token != opsPassword {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetWS handles GET /api/ops/ws - upgrades to the websocket activity feed.
// Each client picks one tenant; the broadcaster pushes that tenant's
// draft-session activity map every tick.
func (h *OpsHandlers) GetWS(c *gin.Context) {
	tenantID := c.Query("tenant")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant query parameter is required"})
		return
	}

	registry := h.container.TenantManager.GetDetector().GetRegistry()
	if registry == nil || registry.Tenants == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
		return
	}
	if _, ok := registry.Tenants[tenantID]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
		return
	}

	conn, err := opsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.container.Logger.Ops().Error("Ops websocket upgrade failed", "tenantId", tenantID, "error", err)
		return
	}

	client := &messaging.OpsClient{
		Conn:     conn,
		TenantID: tenantID,
		Send:     make(chan []byte, 16),
	}
	h.container.OpsBroadcaster.Register(client)

	go h.opsWritePump(client)
	h.opsReadPump(client)
}

// opsWritePump drains the client's send channel onto the wire and keeps
// the connection alive with pings. Runs until the broadcaster closes the
// send channel or a write fails.
func (h *OpsHandlers) opsWritePump(client *messaging.OpsClient) {
	ticker := time.NewTicker(opsPingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(opsWriteWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(opsWriteWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// opsReadPump discards inbound frames; the feed is one-way. Reading is
// still required to process pong control frames and notice disconnects.
func (h *OpsHandlers) opsReadPump(client *messaging.OpsClient) {
	defer func() {
		h.container.OpsBroadcaster.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(512)
	client.Conn.SetReadDeadline(time.Now().Add(opsPongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(opsPongWait))
		return nil
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.container.Logger.Ops().Warn("Ops websocket closed unexpectedly", "tenantId", client.TenantID, "error", err)
			}
			return
		}
	}
}

// StreamLogs handles the SSE connection for live log streaming.
func (h *OpsHandlers) StreamLogs(c *gin.Context) {
	broadcaster := logging.GetBroadcaster()
	if broadcaster == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Log broadcaster not available"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	channelFilter := c.DefaultQuery("channel", "all")
	levelFilter := c.DefaultQuery("level", "INFO")
	var logLevel slog.Level
	switch levelFilter {
	case "DEBUG":
		logLevel = slog.LevelDebug
	case "INFO":
		logLevel = slog.LevelInfo
	case "WARN":
		logLevel = slog.LevelWarn
	case "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	filters := logging.AppliedFilters{
		Channel:  logging.Channel(channelFilter),
		Level:    logLevel,
		TenantID: c.Query("tenant"),
	}

	client := broadcaster.NewClient(filters)
	broadcaster.RegisterClient(client)
	defer broadcaster.UnregisterClient(client)

	fmt.Fprintf(c.Writer, ": connection established\n\n")
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case message, ok := <-client.Channel:
			if !ok {
				return false
			}
			fmt.Fprintf(w, "data: %s\n\n", message)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// GetLogLevels handles GET /api/ops/logs/levels - returns current log levels for all channels.
func (h *OpsHandlers) GetLogLevels(c *gin.Context) {
	logger := h.container.Logger
	if logger == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logger not available"})
		return
	}
	levels := logger.GetChannelLevels()
	c.JSON(http.StatusOK, levels)
}

// SetLogLevel handles POST /api/ops/logs/levels - sets the log level for a specific channel.
func (h *OpsHandlers) SetLogLevel(c *gin.Context) {
	logger := h.container.Logger
	if logger == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logger not available"})
		return
	}

	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var level slog.Level
	switch req.Level {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log level specified"})
		return
	}

	if err := logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set log level", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": fmt.Sprintf("Log level for channel '%s' set to '%s'", req.Channel, req.Level)})
}
