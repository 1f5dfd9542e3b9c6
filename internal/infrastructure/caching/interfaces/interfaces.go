// Package interfaces defines cache operation contracts for multi-tenant catalog management.
package interfaces

import (
	"time"

	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/types"
)

// CatalogCache defines operations for catalog entity caching
type CatalogCache interface {
	GetProduct(tenantID, id string) (*catalog.ProductNode, bool)
	SetProduct(tenantID string, product *catalog.ProductNode)
	GetAllProductIDs(tenantID string) ([]string, bool)
	SetAllProductIDs(tenantID string, ids []string)
	InvalidateProduct(tenantID, id string)
	AddProductID(tenantID, id string)
	GetCategory(tenantID, id string) (*catalog.CategoryNode, bool)
	SetCategory(tenantID string, category *catalog.CategoryNode)
	GetAllCategoryIDs(tenantID string) ([]string, bool)
	SetAllCategoryIDs(tenantID string, ids []string)
	InvalidateCategory(tenantID, id string)
	AddCategoryID(tenantID, id string)
	GetCustomer(tenantID, id string) (*catalog.CustomerNode, bool)
	SetCustomer(tenantID string, customer *catalog.CustomerNode)
	GetAllCustomerIDs(tenantID string) ([]string, bool)
	SetAllCustomerIDs(tenantID string, ids []string)
	InvalidateCustomer(tenantID, id string)
	GetSpecial(tenantID, id string) (*catalog.SpecialNode, bool)
	SetSpecial(tenantID string, special *catalog.SpecialNode)
	GetAllSpecialIDs(tenantID string) ([]string, bool)
	SetAllSpecialIDs(tenantID string, ids []string)
	InvalidateSpecial(tenantID, id string)
	AddSpecialID(tenantID, id string)
	GetCatalogIDBySlug(tenantID, slug string) (string, bool)
	GetFullCatalogMap(tenantID string) ([]types.FullCatalogMapItem, bool)
	SetFullCatalogMap(tenantID string, catalogMap []types.FullCatalogMapItem)
	InvalidateFullCatalogMap(tenantID string)
	InvalidateCatalogCache(tenantID string)
}

// DraftCache defines operations for schedule-editing session caching
type DraftCache interface {
	GetDraftSession(tenantID, sessionID string) (*types.DraftSession, bool)
	SetDraftSession(tenantID string, session *types.DraftSession)
	RemoveDraftSession(tenantID, sessionID string)
	GetAllDraftSessionIDs(tenantID string) []string
	InvalidateDraftCache(tenantID string)
}

// DashboardCache defines operations for dashboard summary caching
type DashboardCache interface {
	GetDashboardSummary(tenantID string) (*types.DashboardSummary, bool)
	SetDashboardSummary(tenantID string, summary *types.DashboardSummary)
	InvalidateDashboard(tenantID string)
}

// Cache is the main interface that combines all cache operations
type Cache interface {
	CatalogCache
	DraftCache
	DashboardCache
	InitializeTenant(tenantID string)
	InvalidateTenant(tenantID string)
	GetTenantStats(tenantID string) CacheStats
	GetMemoryStats() map[string]any
	InvalidateAll()
	Health() map[string]any
}

type CacheStats struct {
	Products      int `json:"products"`
	Categories    int `json:"categories"`
	Customers     int `json:"customers"`
	Specials      int `json:"specials"`
	DraftSessions int `json:"draftSessions"`
}

type CacheTTL time.Duration

const (
	TTLNever    CacheTTL = CacheTTL(0)
	TTL1Minute  CacheTTL = CacheTTL(time.Minute)
	TTL5Minutes CacheTTL = CacheTTL(5 * time.Minute)
	TTL10Mins   CacheTTL = CacheTTL(10 * time.Minute)
	TTL1Hour    CacheTTL = CacheTTL(time.Hour)
	TTL2Hours   CacheTTL = CacheTTL(2 * time.Hour)
	TTL24Hours  CacheTTL = CacheTTL(24 * time.Hour)
)
