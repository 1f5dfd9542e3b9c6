// Package handlers provides HTTP handlers for menu catalog endpoints
package handlers

import (
	"errors"
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

// ProductHandlers contains all product-related HTTP handlers
type ProductHandlers struct {
	productService *services.ProductService
	logger         *logging.ChanneledLogger
}

// NewProductHandlers creates product handlers with injected dependencies
func NewProductHandlers(productService *services.ProductService, logger *logging.ChanneledLogger) *ProductHandlers {
	return &ProductHandlers{
		productService: productService,
		logger:         logger,
	}
}

// GetProducts returns a page of products filtered by the query string
func (h *ProductHandlers) GetProducts(c *gin.Context) {
	start := time.Now()
	h.logger.Catalog().Debug("Received get products request", "method", c.Request.Method, "path", c.Request.URL.Path)
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	query := repositories.ProductQuery{
		Search:     c.Query("search"),
		CategoryID: c.Query("categoryId"),
		Status:     c.Query("status"),
	}
	query.Page, _ = strconv.Atoi(c.Query("page"))
	query.Limit, _ = strconv.Atoi(c.Query("limit"))
	query.MinPriceCents, _ = strconv.ParseInt(c.Query("minPriceCents"), 10, 64)
	query.MaxPriceCents, _ = strconv.ParseInt(c.Query("maxPriceCents"), 10, 64)
	query.Normalize()

	products, total, err := h.productService.GetPage(tenantCtx, query)
	if err != nil {
		if errors.Is(err, services.ErrInvalidFilter) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Catalog().Info("Get products request completed", "count", len(products), "total", total, "duration", time.Since(start))
	c.JSON(http.StatusOK, listEnvelope(products, total, query.PageQuery))
}

// GetProductByID returns a specific product by ID using cache-first pattern
func (h *ProductHandlers) GetProductByID(c *gin.Context) {
	start := time.Now()
	h.logger.Catalog().Debug("Received get product by ID request", "method", c.Request.Method, "path", c.Request.URL.Path, "productId", c.Param("id"))
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	productID := c.Param("id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product ID is required"})
		return
	}

	product, err := h.productService.GetByID(tenantCtx, productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	h.logger.Catalog().Info("Get product by ID request completed", "productId", productID, "duration", time.Since(start))
	c.JSON(http.StatusOK, product)
}

// GetProductBySlug returns a specific product by slug using cache-first pattern
func (h *ProductHandlers) GetProductBySlug(c *gin.Context) {
	start := time.Now()
	h.logger.Catalog().Debug("Received get product by slug request", "method", c.Request.Method, "path", c.Request.URL.Path, "slug", c.Param("slug"))
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	slug := c.Param("slug")
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product slug is required"})
		return
	}

	product, err := h.productService.GetBySlug(tenantCtx, slug)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	h.logger.Catalog().Info("Get product by slug request completed", "slug", slug, "duration", time.Since(start))
	c.JSON(http.StatusOK, product)
}

// CreateProduct creates a new product
func (h *ProductHandlers) CreateProduct(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	var product catalog.ProductNode
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.productService.Create(tenantCtx, &product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "product created successfully",
		"productId": product.ID,
	})
}

// UpdateProduct updates an existing product
func (h *ProductHandlers) UpdateProduct(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	productID := c.Param("id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product ID is required"})
		return
	}

	var product catalog.ProductNode
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	// Ensure ID matches URL parameter
	product.ID = productID

	if err := h.productService.Update(tenantCtx, &product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "product updated successfully",
		"productId": product.ID,
	})
}

// ChangeProductStatus updates only the availability status of a product
func (h *ProductHandlers) ChangeProductStatus(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	productID := c.Param("id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product ID is required"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.productService.ChangeStatus(tenantCtx, productID, req.Status); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "product status updated successfully",
		"productId": productID,
		"status":    req.Status,
	})
}

// DeleteProduct deletes a product
func (h *ProductHandlers) DeleteProduct(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	productID := c.Param("id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product ID is required"})
		return
	}

	if err := h.productService.Delete(tenantCtx, productID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "product deleted successfully",
		"productId": productID,
	})
}
