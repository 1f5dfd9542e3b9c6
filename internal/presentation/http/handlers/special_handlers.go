package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful-go/internal/application/services"
	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/domain/repositories"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/presentation/http/middleware"
)

// SpecialHandlers contains all special-related HTTP handlers
type SpecialHandlers struct {
	specialService *services.SpecialService
	logger         *logging.ChanneledLogger
}

// NewSpecialHandlers creates special handlers with injected dependencies
func NewSpecialHandlers(specialService *services.SpecialService, logger *logging.ChanneledLogger) *SpecialHandlers {
	return &SpecialHandlers{
		specialService: specialService,
		logger:         logger,
	}
}

// GetSpecials returns a page of specials filtered by the query string
func (h *SpecialHandlers) GetSpecials(c *gin.Context) {
	start := time.Now()
	h.logger.Catalog().Debug("Received get specials request", "method", c.Request.Method, "path", c.Request.URL.Path)
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	query := repositories.SpecialQuery{
		Search: c.Query("search"),
	}
	query.Page, _ = strconv.Atoi(c.Query("page"))
	query.Limit, _ = strconv.Atoi(c.Query("limit"))

	if activeStr := c.Query("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'active' filter, expected true or false"})
			return
		}
		query.Active = &active
	}

	query.Normalize()

	specials, total, err := h.specialService.GetPage(tenantCtx, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Catalog().Info("Get specials request completed", "count", len(specials), "total", total, "duration", time.Since(start))
	c.JSON(http.StatusOK, listEnvelope(specials, total, query.PageQuery))
}

// GetSpecialByID returns a specific special by ID
func (h *SpecialHandlers) GetSpecialByID(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	specialID := c.Param("id")
	if specialID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "special ID is required"})
		return
	}

	special, err := h.specialService.GetByID(tenantCtx, specialID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if special == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "special not found"})
		return
	}

	c.JSON(http.StatusOK, special)
}

// GetSpecialBySlug returns a specific special by slug
func (h *SpecialHandlers) GetSpecialBySlug(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	slug := c.Param("slug")
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "special slug is required"})
		return
	}

	special, err := h.specialService.GetBySlug(tenantCtx, slug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if special == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "special not found"})
		return
	}

	c.JSON(http.StatusOK, special)
}

// CreateSpecial creates a new special
func (h *SpecialHandlers) CreateSpecial(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	var special catalog.SpecialNode
	if err := c.ShouldBindJSON(&special); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.specialService.Create(tenantCtx, &special); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "special created successfully",
		"specialId": special.ID,
	})
}

// UpdateSpecial updates an existing special
func (h *SpecialHandlers) UpdateSpecial(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	specialID := c.Param("id")
	if specialID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "special ID is required"})
		return
	}

	var special catalog.SpecialNode
	if err := c.ShouldBindJSON(&special); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	// Ensure ID matches URL parameter
	special.ID = specialID

	if err := h.specialService.Update(tenantCtx, &special); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "special updated successfully",
		"specialId": special.ID,
	})
}

// DeleteSpecial deletes a special and reseeds any open schedule sessions
func (h *SpecialHandlers) DeleteSpecial(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	specialID := c.Param("id")
	if specialID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "special ID is required"})
		return
	}

	if err := h.specialService.Delete(tenantCtx, specialID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "special deleted successfully",
		"specialId": specialID,
	})
}
