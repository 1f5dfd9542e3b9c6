// Package services provides catalog map orchestration
package services

import (
	"fmt"
	"time"

	"github.com/plateful/plateful-go/internal/infrastructure/caching/interfaces"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/types"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/monitoring"
	"github.com/plateful/plateful-go/internal/infrastructure/tenant"
)

// CatalogMapService orchestrates catalog map building and caching. The map
// is the flat id/slug/title/type index behind dashboard-wide search and
// entity pickers.
type CatalogMapService struct {
	logger  *logging.ChanneledLogger
	monitor *monitoring.CachePerformanceMonitor
}

// NewCatalogMapService creates a new catalog map service singleton
func NewCatalogMapService(logger *logging.ChanneledLogger, monitor *monitoring.CachePerformanceMonitor) *CatalogMapService {
	return &CatalogMapService{
		logger:  logger,
		monitor: monitor,
	}
}

// CatalogMapResponse represents the API response structure
type CatalogMapResponse struct {
	Data        []types.FullCatalogMapItem `json:"data"`
	LastUpdated int64                      `json:"lastUpdated"`
}

// GetCatalogMap returns the catalog map, serving from cache when warm and
// rebuilding from the database otherwise.
func (cms *CatalogMapService) GetCatalogMap(tenantCtx *tenant.Context, cache interfaces.CatalogCache) (*CatalogMapResponse, error) {
	start := time.Now()

	if cachedItems, exists := cache.GetFullCatalogMap(tenantCtx.TenantID); exists {
		cms.monitor.RecordCacheOperation("catalog", tenantCtx.TenantID, true, time.Since(start))
		return &CatalogMapResponse{
			Data:        cachedItems,
			LastUpdated: time.Now().Unix(),
		}, nil
	}
	cms.monitor.RecordCacheOperation("catalog", tenantCtx.TenantID, false, 0)

	bulkRepo := tenantCtx.BulkRepo()
	catalogMap, err := bulkRepo.BuildCatalogMap(tenantCtx.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog map: %w", err)
	}

	cache.SetFullCatalogMap(tenantCtx.TenantID, catalogMap)

	cms.logger.Catalog().Info("Successfully retrieved catalog map", "tenantId", tenantCtx.TenantID, "itemCount", len(catalogMap), "fromCache", false, "duration", time.Since(start))

	return &CatalogMapResponse{
		Data:        catalogMap,
		LastUpdated: time.Now().Unix(),
	}, nil
}

// RefreshCatalogMap forces a rebuild of the catalog map cache. The warming
// pass uses this so the first dashboard search never pays the build.
func (cms *CatalogMapService) RefreshCatalogMap(tenantCtx *tenant.Context, cache interfaces.CatalogCache) error {
	start := time.Now()

	cache.InvalidateFullCatalogMap(tenantCtx.TenantID)

	bulkRepo := tenantCtx.BulkRepo()
	catalogMap, err := bulkRepo.BuildCatalogMap(tenantCtx.TenantID)
	if err != nil {
		return fmt.Errorf("failed to rebuild catalog map: %w", err)
	}

	cache.SetFullCatalogMap(tenantCtx.TenantID, catalogMap)

	cms.logger.Catalog().Info("Successfully refreshed catalog map", "tenantId", tenantCtx.TenantID, "itemCount", len(catalogMap), "duration", time.Since(start))

	return nil
}
