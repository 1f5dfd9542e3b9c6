// Package manager provides centralized cache operations with proper tenant isolation
package manager

import (
	"sync"
	"time"

	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/interfaces"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/stores"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/types"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
)

// Interface assertion to ensure Manager implements all cache contracts.
var _ interfaces.Cache = (*Manager)(nil)

// Manager provides centralized cache operations with proper tenant isolation by delegating to specialized stores.
type Manager struct {
	Mu             sync.RWMutex
	LastAccessed   map[string]time.Time
	catalogStore   *stores.CatalogStore
	draftStore     *stores.DraftStore
	dashboardStore *stores.DashboardStore
	logger         *logging.ChanneledLogger
}

func NewManager(logger *logging.ChanneledLogger) *Manager {
	if logger != nil {
		logger.Cache().Info("Initializing cache manager", "stores", []string{"catalog", "drafts", "dashboard"})
	}

	return &Manager{
		LastAccessed:   make(map[string]time.Time),
		catalogStore:   stores.NewCatalogStore(logger),
		draftStore:     stores.NewDraftStore(logger),
		dashboardStore: stores.NewDashboardStore(logger),
		logger:         logger,
	}
}

// GetTenantCatalogCache exposes the raw per-tenant catalog cache for the
// cleanup worker and snapshot writer.
func (m *Manager) GetTenantCatalogCache(tenantID string) (*types.TenantCatalogCache, bool) {
	return m.catalogStore.GetTenantCache(tenantID)
}

// GetTenantDraftCache exposes the raw per-tenant draft cache for the cleanup worker.
func (m *Manager) GetTenantDraftCache(tenantID string) (*types.TenantDraftCache, bool) {
	return m.draftStore.GetTenantCache(tenantID)
}

// GetTenantDashboardCache exposes the raw per-tenant dashboard cache.
func (m *Manager) GetTenantDashboardCache(tenantID string) (*types.TenantDashboardCache, bool) {
	return m.dashboardStore.GetTenantCache(tenantID)
}

// InitializeTenant sets up all cache structures for a tenant
func (m *Manager) InitializeTenant(tenantID string) {
	m.catalogStore.InitializeTenant(tenantID)
	m.draftStore.InitializeTenant(tenantID)
	m.dashboardStore.InitializeTenant(tenantID)
	m.updateTenantAccessTime(tenantID)
}

func (m *Manager) updateTenantAccessTime(tenantID string) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.LastAccessed[tenantID] = time.Now().UTC()
}

// =============================================================================
// Catalog delegation
// =============================================================================

func (m *Manager) GetProduct(tenantID, id string) (*catalog.ProductNode, bool) {
	m.updateTenantAccessTime(tenantID)
	return m.catalogStore.GetProduct(tenantID, id)
}

func (m *Manager) SetProduct(tenantID string, product *catalog.ProductNode) {
	m.updateTenantAccessTime(tenantID)
	m.catalogStore.SetProduct(tenantID, product)
}

func (m *Manager) GetAllProductIDs(tenantID string) ([]string, bool) {
	return m.catalogStore.GetAllProductIDs(tenantID)
}

func (m *Manager) SetAllProductIDs(tenantID string, ids []string) {
	m.catalogStore.SetAllProductIDs(tenantID, ids)
}

func (m *Manager) InvalidateProduct(tenantID, id string) {
	m.catalogStore.InvalidateProduct(tenantID, id)
	m.catalogStore.InvalidateFullCatalogMap(tenantID)
}

func (m *Manager) AddProductID(tenantID, id string) {
	m.catalogStore.AddProductID(tenantID, id)
}

func (m *Manager) GetCategory(tenantID, id string) (*catalog.CategoryNode, bool) {
	return m.catalogStore.GetCategory(tenantID, id)
}

func (m *Manager) SetCategory(tenantID string, category *catalog.CategoryNode) {
	m.catalogStore.SetCategory(tenantID, category)
}

func (m *Manager) GetAllCategoryIDs(tenantID string) ([]string, bool) {
	return m.catalogStore.GetAllCategoryIDs(tenantID)
}

func (m *Manager) SetAllCategoryIDs(tenantID string, ids []string) {
	m.catalogStore.SetAllCategoryIDs(tenantID, ids)
}

func (m *Manager) InvalidateCategory(tenantID, id string) {
	m.catalogStore.InvalidateCategory(tenantID, id)
	m.catalogStore.InvalidateFullCatalogMap(tenantID)
}

func (m *Manager) AddCategoryID(tenantID, id string) {
	m.catalogStore.AddCategoryID(tenantID, id)
}

func (m *Manager) GetCustomer(tenantID, id string) (*catalog.CustomerNode, bool) {
	return m.catalogStore.GetCustomer(tenantID, id)
}

func (m *Manager) SetCustomer(tenantID string, customer *catalog.CustomerNode) {
	m.catalogStore.SetCustomer(tenantID, customer)
}

func (m *Manager) GetAllCustomerIDs(tenantID string) ([]string, bool) {
	return m.catalogStore.GetAllCustomerIDs(tenantID)
}

func (m *Manager) SetAllCustomerIDs(tenantID string, ids []string) {
	m.catalogStore.SetAllCustomerIDs(tenantID, ids)
}

func (m *Manager) InvalidateCustomer(tenantID, id string) {
	m.catalogStore.InvalidateCustomer(tenantID, id)
	m.catalogStore.InvalidateFullCatalogMap(tenantID)
}

func (m *Manager) GetSpecial(tenantID, id string) (*catalog.SpecialNode, bool) {
	m.updateTenantAccessTime(tenantID)
	return m.catalogStore.GetSpecial(tenantID, id)
}

func (m *Manager) SetSpecial(tenantID string, special *catalog.SpecialNode) {
	m.updateTenantAccessTime(tenantID)
	m.catalogStore.SetSpecial(tenantID, special)
}

func (m *Manager) GetAllSpecialIDs(tenantID string) ([]string, bool) {
	return m.catalogStore.GetAllSpecialIDs(tenantID)
}

func (m *Manager) SetAllSpecialIDs(tenantID string, ids []string) {
	m.catalogStore.SetAllSpecialIDs(tenantID, ids)
}

func (m *Manager) InvalidateSpecial(tenantID, id string) {
	m.catalogStore.InvalidateSpecial(tenantID, id)
	m.catalogStore.InvalidateFullCatalogMap(tenantID)
}

func (m *Manager) AddSpecialID(tenantID, id string) {
	m.catalogStore.AddSpecialID(tenantID, id)
}

func (m *Manager) GetCatalogIDBySlug(tenantID, slug string) (string, bool) {
	return m.catalogStore.GetCatalogIDBySlug(tenantID, slug)
}

func (m *Manager) GetFullCatalogMap(tenantID string) ([]types.FullCatalogMapItem, bool) {
	return m.catalogStore.GetFullCatalogMap(tenantID)
}

func (m *Manager) SetFullCatalogMap(tenantID string, catalogMap []types.FullCatalogMapItem) {
	m.catalogStore.SetFullCatalogMap(tenantID, catalogMap)
}

func (m *Manager) InvalidateFullCatalogMap(tenantID string) {
	m.catalogStore.InvalidateFullCatalogMap(tenantID)
}

func (m *Manager) InvalidateCatalogCache(tenantID string) {
	m.catalogStore.InvalidateCatalogCache(tenantID)
}

// =============================================================================
// Draft session delegation
// =============================================================================

func (m *Manager) GetDraftSession(tenantID, sessionID string) (*types.DraftSession, bool) {
	m.updateTenantAccessTime(tenantID)
	return m.draftStore.GetDraftSession(tenantID, sessionID)
}

func (m *Manager) SetDraftSession(tenantID string, session *types.DraftSession) {
	m.updateTenantAccessTime(tenantID)
	m.draftStore.SetDraftSession(tenantID, session)
}

func (m *Manager) RemoveDraftSession(tenantID, sessionID string) {
	m.draftStore.RemoveDraftSession(tenantID, sessionID)
}

func (m *Manager) GetAllDraftSessionIDs(tenantID string) []string {
	return m.draftStore.GetAllDraftSessionIDs(tenantID)
}

func (m *Manager) InvalidateDraftCache(tenantID string) {
	m.draftStore.InvalidateDraftCache(tenantID)
}

// =============================================================================
// Dashboard delegation
// =============================================================================

func (m *Manager) GetDashboardSummary(tenantID string) (*types.DashboardSummary, bool) {
	return m.dashboardStore.GetDashboardSummary(tenantID)
}

func (m *Manager) SetDashboardSummary(tenantID string, summary *types.DashboardSummary) {
	m.dashboardStore.SetDashboardSummary(tenantID, summary)
}

func (m *Manager) InvalidateDashboard(tenantID string) {
	m.dashboardStore.InvalidateDashboard(tenantID)
}

// =============================================================================
// Tenant-wide operations
// =============================================================================

func (m *Manager) InvalidateTenant(tenantID string) {
	start := time.Now()
	if m.logger != nil {
		m.logger.Cache().Debug("Invalidating tenant cache", "tenantId", tenantID)
	}

	m.catalogStore.InvalidateCatalogCache(tenantID)
	m.draftStore.InvalidateDraftCache(tenantID)
	m.dashboardStore.InvalidateDashboard(tenantID)
	m.updateTenantAccessTime(tenantID)

	if m.logger != nil {
		m.logger.Cache().Info("Tenant cache invalidated", "tenantId", tenantID, "duration", time.Since(start))
	}
}

func (m *Manager) GetTenantStats(tenantID string) interfaces.CacheStats {
	stats := interfaces.CacheStats{}

	if cache, ok := m.catalogStore.GetTenantCache(tenantID); ok {
		cache.Mu.RLock()
		stats.Products = len(cache.Products)
		stats.Categories = len(cache.Categories)
		stats.Customers = len(cache.Customers)
		stats.Specials = len(cache.Specials)
		cache.Mu.RUnlock()
	}
	if cache, ok := m.draftStore.GetTenantCache(tenantID); ok {
		cache.Mu.RLock()
		stats.DraftSessions = len(cache.Sessions)
		cache.Mu.RUnlock()
	}
	return stats
}

func (m *Manager) GetMemoryStats() map[string]any {
	tenantIDs := m.catalogStore.GetAllTenantIDs()
	perTenant := make(map[string]any, len(tenantIDs))
	for _, tenantID := range tenantIDs {
		perTenant[tenantID] = m.GetTenantStats(tenantID)
	}
	return map[string]any{
		"tenants": len(tenantIDs),
		"stats":   perTenant,
	}
}

func (m *Manager) InvalidateAll() {
	for _, tenantID := range m.catalogStore.GetAllTenantIDs() {
		m.InvalidateTenant(tenantID)
	}
}

func (m *Manager) Health() map[string]any {
	return map[string]any{
		"status":  "ok",
		"tenants": len(m.catalogStore.GetAllTenantIDs()),
	}
}

// GetAllTenantIDs returns the tenants with initialized caches
func (m *Manager) GetAllTenantIDs() []string {
	return m.catalogStore.GetAllTenantIDs()
}

// RemoveTenant drops every cache for a tenant (deprovisioning)
func (m *Manager) RemoveTenant(tenantID string) {
	m.catalogStore.RemoveTenant(tenantID)
	m.draftStore.RemoveTenant(tenantID)
	m.dashboardStore.RemoveTenant(tenantID)

	m.Mu.Lock()
	delete(m.LastAccessed, tenantID)
	m.Mu.Unlock()
}
