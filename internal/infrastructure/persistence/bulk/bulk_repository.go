// Package bulk provides concrete implementation of bulk query repository
package bulk

import (
	"time"

	"github.com/plateful/plateful-go/internal/infrastructure/caching/types"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/persistence/database"
)

// Repository implements BulkQueryRepository interface
type Repository struct {
	catalogMapBuilder *CatalogMapBuilder
	dashboardScanner  *DashboardScanner
}

// NewRepository creates a new bulk query repository
func NewRepository(db *database.DB, logger *logging.ChanneledLogger) *Repository {
	return &Repository{
		catalogMapBuilder: NewCatalogMapBuilder(db, logger),
		dashboardScanner:  NewDashboardScanner(db, logger),
	}
}

// BuildCatalogMap implements CatalogMapRepository
func (r *Repository) BuildCatalogMap(tenantID string) ([]types.FullCatalogMapItem, error) {
	return r.catalogMapBuilder.BuildCatalogMap(tenantID)
}

// ScanDashboardStats implements DashboardRepository
func (r *Repository) ScanDashboardStats(tenantID string, revenueSince time.Time) (*DashboardStats, error) {
	return r.dashboardScanner.ScanDashboardStats(tenantID, revenueSince)
}
