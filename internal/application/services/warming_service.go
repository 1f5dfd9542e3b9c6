// Package services provides startup warming orchestration
package services

import (
	"fmt"
	"time"

	"github.com/plateful/plateful-go/internal/infrastructure/caching"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/cleanup"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/manager"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/monitoring"
	"github.com/plateful/plateful-go/internal/infrastructure/tenant"
	"github.com/plateful/plateful-go/pkg/config"
)

// WarmingService orchestrates startup cache warming for all tenants. A
// tenant warms from its shutdown snapshot when one is fresh enough,
// otherwise from a full database load.
type WarmingService struct {
	warmingLock *caching.WarmingLock
	snapshotter *caching.Snapshotter
	monitor     *monitoring.CachePerformanceMonitor
	logger      *logging.ChanneledLogger
}

// NewWarmingService creates a new warming service singleton
func NewWarmingService(snapshotter *caching.Snapshotter, monitor *monitoring.CachePerformanceMonitor, logger *logging.ChanneledLogger) *WarmingService {
	return &WarmingService{
		warmingLock: caching.NewWarmingLock(),
		snapshotter: snapshotter,
		monitor:     monitor,
		logger:      logger,
	}
}

// WarmAllTenants performs startup warming for all active tenants
func (ws *WarmingService) WarmAllTenants(tenantManager *tenant.Manager, cache *manager.Manager, catalogMapSvc *CatalogMapService, reporter *cleanup.Reporter) error {
	start := time.Now()

	tenants, err := ws.getActiveTenants()
	if err != nil {
		return fmt.Errorf("failed to get active tenants: %w", err)
	}

	reporter.LogHeader(fmt.Sprintf("Catalog Cache Warming for %d Tenants", len(tenants)))

	var successCount int
	for _, tenantID := range tenants {
		tenantCtx, err := tenantManager.NewContextFromID(tenantID)
		if err != nil {
			reporter.LogError(fmt.Sprintf("Failed to create context for tenant %s", tenantID), err)
			continue
		}

		if err := ws.WarmTenant(tenantCtx, tenantID, cache, catalogMapSvc, reporter); err != nil {
			reporter.LogError(fmt.Sprintf("Failed to warm tenant %s", tenantID), err)
		} else {
			successCount++
		}
		tenantCtx.Close()
	}

	duration := time.Since(start)
	reporter.LogSubHeader(fmt.Sprintf("Warming Completed in %v", duration))
	reporter.LogSuccess("%d/%d tenants warmed successfully", successCount, len(tenants))

	if successCount < len(tenants) {
		return fmt.Errorf("warming failed for %d tenants", len(tenants)-successCount)
	}

	return nil
}

// WarmTenant performs the warming sequence for a single tenant.
func (ws *WarmingService) WarmTenant(tenantCtx *tenant.Context, tenantID string, cache *manager.Manager, catalogMapSvc *CatalogMapService, reporter *cleanup.Reporter) error {
	if !ws.warmingLock.TryLock(tenantID) {
		reporter.LogWarning("Warming already in progress for tenant %s, skipping", tenantID)
		return nil
	}
	defer ws.warmingLock.Unlock(tenantID)

	start := time.Now()
	reporter.LogSubHeader(fmt.Sprintf("Warming Tenant: %s", tenantID))

	cache.InitializeTenant(tenantID)

	// Step 1: Try the shutdown snapshot. A fresh one carries the whole
	// catalog cache, catalog map included, so the database stays untouched.
	reporter.LogStage("Restoring catalog snapshot")
	if restored := ws.restoreSnapshot(tenantID, cache); restored {
		stats := cache.GetTenantStats(tenantID)
		items := int64(stats.Products + stats.Categories + stats.Customers + stats.Specials)
		ws.monitor.RecordWarmingOperation(tenantID, items, time.Since(start), true, "snapshot")
		reporter.LogSuccess("Tenant %s warmed from snapshot (%d items) in %v", tenantID, items, time.Since(start))
		return nil
	}
	reporter.LogInfo("No usable snapshot, warming from database")

	// Step 2: Full database load, one entity type at a time.
	reporter.LogStage("Warming Products")
	if err := ws.warmProducts(tenantCtx, tenantID); err != nil {
		return fmt.Errorf("product warming failed: %w", err)
	}
	reporter.LogSuccess("Products Warmed")

	reporter.LogStage("Warming Categories")
	if err := ws.warmCategories(tenantCtx, tenantID); err != nil {
		return fmt.Errorf("category warming failed: %w", err)
	}
	reporter.LogSuccess("Categories Warmed")

	reporter.LogStage("Warming Customers")
	if err := ws.warmCustomers(tenantCtx, tenantID); err != nil {
		// Customers lazy-load fine; a failure here should not abort the boot.
		reporter.LogWarning("Customer warming failed: %v", err)
	} else {
		reporter.LogSuccess("Customers Warmed")
	}

	reporter.LogStage("Warming Specials")
	if err := ws.warmSpecials(tenantCtx, tenantID); err != nil {
		return fmt.Errorf("special warming failed: %w", err)
	}
	reporter.LogSuccess("Specials Warmed")

	// Step 3: Build the catalog map so the first dashboard search is warm.
	reporter.LogStage("Warming Catalog Map")
	if err := ws.warmCatalogMap(tenantCtx, tenantID, catalogMapSvc, cache); err != nil {
		reporter.LogWarning("Catalog map warming failed: %v", err)
	} else {
		reporter.LogSuccess("Catalog Map Warmed")
	}

	duration := time.Since(start)
	reporter.LogSuccess("Tenant %s warmed from database in %v", tenantID, duration)

	return nil
}

// restoreSnapshot attempts a snapshot restore, treating every failure as a
// cache miss.
func (ws *WarmingService) restoreSnapshot(tenantID string, cache *manager.Manager) bool {
	tenantCache, ok := cache.GetTenantCatalogCache(tenantID)
	if !ok {
		return false
	}

	restored, err := ws.snapshotter.Restore(tenantID, tenantCache, config.SnapshotMaxAge)
	if err != nil {
		ws.logger.Cache().Warn("Catalog snapshot restore failed, falling back to database warm", "error", err, "tenantId", tenantID)
		return false
	}
	return restored
}

func (ws *WarmingService) warmProducts(tenantCtx *tenant.Context, tenantID string) error {
	start := time.Now()
	products, err := tenantCtx.ProductRepo().FindAll(tenantID)
	ws.monitor.RecordWarmingOperation(tenantID, int64(len(products)), time.Since(start), err == nil, "product")
	return err
}

func (ws *WarmingService) warmCategories(tenantCtx *tenant.Context, tenantID string) error {
	start := time.Now()
	categories, err := tenantCtx.CategoryRepo().FindAll(tenantID)
	ws.monitor.RecordWarmingOperation(tenantID, int64(len(categories)), time.Since(start), err == nil, "category")
	return err
}

func (ws *WarmingService) warmCustomers(tenantCtx *tenant.Context, tenantID string) error {
	start := time.Now()
	customers, err := tenantCtx.CustomerRepo().FindAll(tenantID)
	ws.monitor.RecordWarmingOperation(tenantID, int64(len(customers)), time.Since(start), err == nil, "customer")
	return err
}

func (ws *WarmingService) warmSpecials(tenantCtx *tenant.Context, tenantID string) error {
	start := time.Now()
	specials, err := tenantCtx.SpecialRepo().FindAll(tenantID)
	ws.monitor.RecordWarmingOperation(tenantID, int64(len(specials)), time.Since(start), err == nil, "special")
	return err
}

func (ws *WarmingService) warmCatalogMap(tenantCtx *tenant.Context, tenantID string, catalogMapSvc *CatalogMapService, cache *manager.Manager) error {
	start := time.Now()
	err := catalogMapSvc.RefreshCatalogMap(tenantCtx, cache)
	items := int64(0)
	if catalogMap, ok := cache.GetFullCatalogMap(tenantID); ok {
		items = int64(len(catalogMap))
	}
	ws.monitor.RecordWarmingOperation(tenantID, items, time.Since(start), err == nil, "catalogmap")
	return err
}

// getActiveTenants loads the tenant registry and returns active tenant IDs.
func (ws *WarmingService) getActiveTenants() ([]string, error) {
	registry, err := tenant.LoadTenantRegistry()
	if err != nil {
		return nil, err
	}

	activeTenants := make([]string, 0)
	for tenantID, tenantInfo := range registry.Tenants {
		if tenantInfo.Status == "active" {
			activeTenants = append(activeTenants, tenantID)
		}
	}

	return activeTenants, nil
}
