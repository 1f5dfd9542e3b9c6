package stores

import (
	"sync"
	"time"

	"github.com/plateful/plateful-go/internal/infrastructure/caching/types"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
)

// DashboardStore caches the computed landing-page summary per tenant.
type DashboardStore struct {
	tenantCaches map[string]*types.TenantDashboardCache
	mu           sync.RWMutex
	logger       *logging.ChanneledLogger
}

// NewDashboardStore creates a new dashboard cache store
func NewDashboardStore(logger *logging.ChanneledLogger) *DashboardStore {
	return &DashboardStore{
		tenantCaches: make(map[string]*types.TenantDashboardCache),
		logger:       logger,
	}
}

// InitializeTenant creates cache structures for a tenant
func (ds *DashboardStore) InitializeTenant(tenantID string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.tenantCaches[tenantID] == nil {
		ds.tenantCaches[tenantID] = &types.TenantDashboardCache{}
	}
}

// GetTenantCache safely retrieves a tenant's dashboard cache
func (ds *DashboardStore) GetTenantCache(tenantID string) (*types.TenantDashboardCache, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	cache, exists := ds.tenantCaches[tenantID]
	return cache, exists
}

// GetDashboardSummary retrieves the cached summary if still fresh
func (ds *DashboardStore) GetDashboardSummary(tenantID string) (*types.DashboardSummary, bool) {
	cache, exists := ds.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	if cache.Summary == nil {
		return nil, false
	}

	// Summaries go stale quickly (10 minute TTL)
	if time.Since(cache.Summary.ComputedAt) > 10*time.Minute {
		return nil, false
	}

	return cache.Summary, true
}

// SetDashboardSummary stores a freshly computed summary
func (ds *DashboardStore) SetDashboardSummary(tenantID string, summary *types.DashboardSummary) {
	cache, exists := ds.GetTenantCache(tenantID)
	if !exists {
		ds.InitializeTenant(tenantID)
		cache, _ = ds.GetTenantCache(tenantID)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Summary = summary
}

// InvalidateDashboard clears the cached summary
func (ds *DashboardStore) InvalidateDashboard(tenantID string) {
	cache, exists := ds.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Summary = nil
}

// RemoveTenant drops a tenant's cache entirely
func (ds *DashboardStore) RemoveTenant(tenantID string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	delete(ds.tenantCaches, tenantID)
}
