// Package cleanup provides background worker
package cleanup

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/interfaces"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/manager"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/types"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/tenant"
)

// Worker handles background cache cleanup operations
type Worker struct {
	cache    interfaces.Cache
	detector *tenant.Detector
	config   *Config
	logger   *logging.ChanneledLogger
}

// NewWorker creates a new cleanup worker with injected configuration
func NewWorker(cache interfaces.Cache, detector *tenant.Detector, config *Config, logger *logging.ChanneledLogger) *Worker {
	return &Worker{
		cache:    cache,
		detector: detector,
		config:   config,
		logger:   logger,
	}
}

// Start begins the cleanup worker routine, using the configured interval
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	log.Printf("Cache cleanup worker started (interval: %v, verbose: %v)",
		w.config.CleanupInterval, w.config.VerboseReporting)

	for {
		select {
		case <-ctx.Done():
			log.Println("Cache cleanup worker stopping...")
			return
		case <-ticker.C:
			w.performCleanup(ctx)
		}
	}
}

// performCleanup executes cleanup for all active tenants
func (w *Worker) performCleanup(ctx context.Context) {
	start := time.Now()
	reporter := NewReporter(w.cache)

	tenants, err := w.getActiveTenants()
	if err != nil {
		reporter.LogError("Cache cleanup failed to get active tenants", err)
		return
	}

	if w.config.VerboseReporting {
		reporter.LogStage("PERIODIC CACHE CLEANUP")

		for _, tenantID := range tenants {
			fmt.Print(reporter.GenerateTenantReport(tenantID))
		}
	}

	var totalCleaned int
	for _, tenantID := range tenants {
		select {
		case <-ctx.Done():
			return
		default:
			cleaned := w.cleanupTenant(tenantID)
			totalCleaned += cleaned
		}
	}

	// Sweep the shared DB connection pool on the same cadence.
	tenant.CleanupStaleConnections(w.logger)

	duration := time.Since(start)
	if totalCleaned > 0 {
		reporter.LogSuccess("Cache cleanup finished: %d items cleaned from %d tenants in %v",
			totalCleaned, len(tenants), duration)
	} else if w.config.VerboseReporting {
		reporter.LogInfo("Cache cleanup completed - no expired items found (%v)", duration)
	}
}

// cleanupTenant performs TTL-based cleanup for a single tenant
func (w *Worker) cleanupTenant(tenantID string) int {
	var totalCleaned int
	now := time.Now().UTC()

	// Type assert to access the Manager's methods to get underlying stores
	mgr, ok := w.cache.(*manager.Manager)
	if !ok {
		// Fallback for generic interface, though less efficient
		w.cache.InvalidateTenant(tenantID)
		return 1 // Conservative estimate
	}

	// 1. Catalog Cache Cleanup (24 hour TTL)
	if catalogCache, ok := mgr.GetTenantCatalogCache(tenantID); ok && catalogCache != nil {
		catalogCache.Mu.Lock()
		if time.Since(catalogCache.LastUpdated) > w.config.CatalogCacheTTL {
			// Clear all catalog cache maps
			catalogCache.Products = make(map[string]*catalog.ProductNode)
			catalogCache.Categories = make(map[string]*catalog.CategoryNode)
			catalogCache.Customers = make(map[string]*catalog.CustomerNode)
			catalogCache.Specials = make(map[string]*catalog.SpecialNode)
			catalogCache.SlugToID = make(map[string]string)
			catalogCache.AllProductIDs = nil
			catalogCache.AllCategoryIDs = nil
			catalogCache.AllCustomerIDs = nil
			catalogCache.AllSpecialIDs = nil
			catalogCache.FullCatalogMap = nil
			catalogCache.LastUpdated = now
			totalCleaned++
		}
		catalogCache.Mu.Unlock()
	}

	// 2. Draft Session Cache Cleanup (2 hour TTL)
	if draftCache, ok := mgr.GetTenantDraftCache(tenantID); ok && draftCache != nil {
		draftCache.Mu.Lock()

		// Clean idle editing sessions
		for sessionID, session := range draftCache.Sessions {
			if time.Since(session.LastActivity) > w.config.DraftSessionTTL {
				delete(draftCache.Sessions, sessionID)
				totalCleaned++
			}
		}

		// Clear entire draft cache if LastLoaded is too old
		if time.Since(draftCache.LastLoaded) > w.config.DraftSessionTTL {
			draftCache.Sessions = make(map[string]*types.DraftSession)
			draftCache.LastLoaded = now
			totalCleaned++
		}

		draftCache.Mu.Unlock()
	}

	// 3. Dashboard Summary Cleanup (10 minute TTL)
	if dashboardCache, ok := mgr.GetTenantDashboardCache(tenantID); ok && dashboardCache != nil {
		dashboardCache.Mu.Lock()
		if dashboardCache.Summary != nil {
			if time.Since(dashboardCache.Summary.ComputedAt) > w.config.DashboardTTL {
				dashboardCache.Summary = nil
				totalCleaned++
			}
		}
		dashboardCache.Mu.Unlock()
	}

	return totalCleaned
}

// getActiveTenants loads the tenant registry and returns active tenant IDs
func (w *Worker) getActiveTenants() ([]string, error) {
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
