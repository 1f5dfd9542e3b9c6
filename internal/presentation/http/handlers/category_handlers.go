package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful-go/internal/application/services"
	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/presentation/http/middleware"
)

// CategoryHandlers contains all category-related HTTP handlers
type CategoryHandlers struct {
	categoryService *services.CategoryService
	logger          *logging.ChanneledLogger
}

// NewCategoryHandlers creates category handlers with injected dependencies
func NewCategoryHandlers(categoryService *services.CategoryService, logger *logging.ChanneledLogger) *CategoryHandlers {
	return &CategoryHandlers{
		categoryService: categoryService,
		logger:          logger,
	}
}

// GetCategories returns all categories ordered by weight
func (h *CategoryHandlers) GetCategories(c *gin.Context) {
	start := time.Now()
	h.logger.Catalog().Debug("Received get categories request", "method", c.Request.Method, "path", c.Request.URL.Path)
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	categories, err := h.categoryService.GetAll(tenantCtx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Catalog().Info("Get categories request completed", "count", len(categories), "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}

// GetCategoryByID returns a specific category by ID
func (h *CategoryHandlers) GetCategoryByID(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	categoryID := c.Param("id")
	if categoryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category ID is required"})
		return
	}

	category, err := h.categoryService.GetByID(tenantCtx, categoryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if category == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}

	c.JSON(http.StatusOK, category)
}

// CreateCategory creates a new category
func (h *CategoryHandlers) CreateCategory(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	var category catalog.CategoryNode
	if err := c.ShouldBindJSON(&category); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.categoryService.Create(tenantCtx, &category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "category created successfully",
		"categoryId": category.ID,
	})
}

// UpdateCategory updates an existing category
func (h *CategoryHandlers) UpdateCategory(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	categoryID := c.Param("id")
	if categoryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category ID is required"})
		return
	}

	var category catalog.CategoryNode
	if err := c.ShouldBindJSON(&category); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	// Ensure ID matches URL parameter
	category.ID = categoryID

	if err := h.categoryService.Update(tenantCtx, &category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "category updated successfully",
		"categoryId": category.ID,
	})
}

// DeleteCategory deletes a category
func (h *CategoryHandlers) DeleteCategory(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	categoryID := c.Param("id")
	if categoryID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category ID is required"})
		return
	}

	if err := h.categoryService.Delete(tenantCtx, categoryID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "category deleted successfully",
		"categoryId": categoryID,
	})
}
