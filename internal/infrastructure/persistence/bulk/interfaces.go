// Package bulk provides interfaces for efficient bulk database operations
// that scan whole catalog tables for the catalog map and dashboard rollups.
package bulk

import (
	"time"

	"github.com/plateful/plateful-go/internal/infrastructure/caching/types"
)

// CatalogMapRepository provides efficient bulk queries for building catalog maps
type CatalogMapRepository interface {
	// BuildCatalogMap executes a single UNION query across all catalog tables
	// to retrieve one compact row per entity for the full catalog map
	BuildCatalogMap(tenantID string) ([]types.FullCatalogMapItem, error)
}

// DashboardRepository provides bulk rollup queries for the dashboard summary
type DashboardRepository interface {
	// ScanDashboardStats collects order, product, and special rollups in one pass
	ScanDashboardStats(tenantID string, revenueSince time.Time) (*DashboardStats, error)
}

// BulkQueryRepository combines catalog map and dashboard operations
type BulkQueryRepository interface {
	CatalogMapRepository
	DashboardRepository
}
