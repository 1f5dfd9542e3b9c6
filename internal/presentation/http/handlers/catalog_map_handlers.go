// Package handlers provides HTTP handlers for catalog map endpoints
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful-go/internal/application/services"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/presentation/http/middleware"
)

// CatalogMapHandlers contains all catalog map-related HTTP handlers
type CatalogMapHandlers struct {
	catalogMapService *services.CatalogMapService
	logger            *logging.ChanneledLogger
}

// NewCatalogMapHandlers creates catalog map handlers with injected dependencies
func NewCatalogMapHandlers(catalogMapService *services.CatalogMapService, logger *logging.ChanneledLogger) *CatalogMapHandlers {
	return &CatalogMapHandlers{
		catalogMapService: catalogMapService,
		logger:            logger,
	}
}

// GetCatalogMap returns the flat id/slug/title index used by dashboard search
func (h *CatalogMapHandlers) GetCatalogMap(c *gin.Context) {
	start := time.Now()
	h.logger.Catalog().Debug("Received get catalog map request", "method", c.Request.Method, "path", c.Request.URL.Path)
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	response, err := h.catalogMapService.GetCatalogMap(tenantCtx, tenantCtx.CacheManager)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Catalog().Info("Get catalog map request completed", "itemCount", len(response.Data), "duration", time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"data":        response.Data,
			"lastUpdated": response.LastUpdated,
		},
	})
}
