// Package handlers provides HTTP handlers for the specials scheduling view.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful-go/internal/application/services"
	"github.com/plateful/plateful-go/internal/domain/draft"
	"github.com/plateful/plateful-go/internal/domain/repositories"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/presentation/http/middleware"
)

// ScheduleQueryRequest is the page selection for opening or refreshing a
// scheduling session.
type ScheduleQueryRequest struct {
	Page   int    `json:"page,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Search string `json:"search,omitempty"`
	Active *bool  `json:"active,omitempty"`
}

// ScheduleToggleRequest identifies the cell being toggled.
type ScheduleToggleRequest struct {
	SpecialID string `json:"specialId" binding:"required"`
	Day       string `json:"day" binding:"required"`
}

// ScheduleHandlers contains the HTTP handlers for schedule draft sessions
type ScheduleHandlers struct {
	scheduleService *services.ScheduleService
	logger          *logging.ChanneledLogger
}

// NewScheduleHandlers creates schedule handlers with injected dependencies
func NewScheduleHandlers(scheduleService *services.ScheduleService, logger *logging.ChanneledLogger) *ScheduleHandlers {
	return &ScheduleHandlers{
		scheduleService: scheduleService,
		logger:          logger,
	}
}

func (r ScheduleQueryRequest) toQuery() repositories.SpecialQuery {
	query := repositories.SpecialQuery{
		Search: r.Search,
		Active: r.Active,
	}
	query.Page = r.Page
	query.Limit = r.Limit
	return query
}

// OpenSession handles POST /api/v1/specials/schedule/open. It seeds a new
// draft session from the requested page of specials and returns the view.
func (h *ScheduleHandlers) OpenSession(c *gin.Context) {
	start := time.Now()
	h.logger.Drafts().Debug("Received open schedule session request", "method", c.Request.Method, "path", c.Request.URL.Path)
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	var req ScheduleQueryRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	view, err := h.scheduleService.OpenSession(tenantCtx, req.toQuery())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Drafts().Info("Schedule session opened", "sessionId", view.SessionID, "items", len(view.Items), "duration", time.Since(start))
	c.JSON(http.StatusCreated, view)
}

// Toggle handles POST /api/v1/specials/schedule/:sessionId/toggle. It flips
// one day cell in the session's draft and reports the row's new state.
func (h *ScheduleHandlers) Toggle(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	sessionID := c.Param("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session ID is required"})
		return
	}

	var req ScheduleToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	result, err := h.scheduleService.Toggle(tenantCtx, sessionID, req.SpecialID, req.Day)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Save handles POST /api/v1/specials/schedule/:sessionId/save. It dispatches
// every dirty row and returns the per-row reconciliation report. A save
// already in flight for the session answers 409 without dispatching.
func (h *ScheduleHandlers) Save(c *gin.Context) {
	start := time.Now()
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	sessionID := c.Param("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session ID is required"})
		return
	}

	result, err := h.scheduleService.Save(c.Request.Context(), tenantCtx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, draft.ErrSaveInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": "a save is already in flight for this session"})
		case errors.Is(err, services.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	h.logger.Drafts().Info("Schedule save request completed",
		"sessionId", sessionID,
		"attempted", result.Attempted,
		"failed", len(result.Failed),
		"duration", time.Since(start))

	// Partial failures keep HTTP 200: the report body carries the per-row
	// outcome and the row states already reflect it.
	c.JSON(http.StatusOK, result)
}

// Refresh handles POST /api/v1/specials/schedule/:sessionId/refresh. With a
// body it repages the session; without one it reseeds the current page,
// discarding unsaved toggles.
func (h *ScheduleHandlers) Refresh(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	sessionID := c.Param("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session ID is required"})
		return
	}

	var query *repositories.SpecialQuery
	if c.Request.ContentLength > 0 && strings.Contains(c.ContentType(), "json") {
		var req ScheduleQueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
		q := req.toQuery()
		query = &q
	}

	view, err := h.scheduleService.Refresh(tenantCtx, sessionID, query)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, view)
}
