// Package stores provides concrete cache store implementations
package stores

import (
	"sync"
	"time"

	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/types"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
)

// CatalogStore implements catalog caching operations with tenant isolation
type CatalogStore struct {
	tenantCaches map[string]*types.TenantCatalogCache
	mu           sync.RWMutex
	logger       *logging.ChanneledLogger
}

// NewCatalogStore creates a new catalog cache store
func NewCatalogStore(logger *logging.ChanneledLogger) *CatalogStore {
	return &CatalogStore{
		tenantCaches: make(map[string]*types.TenantCatalogCache),
		logger:       logger,
	}
}

// InitializeTenant creates cache structures for a tenant
func (cs *CatalogStore) InitializeTenant(tenantID string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.tenantCaches[tenantID] == nil {
		cs.tenantCaches[tenantID] = &types.TenantCatalogCache{
			Products:              make(map[string]*catalog.ProductNode),
			Categories:            make(map[string]*catalog.CategoryNode),
			Customers:             make(map[string]*catalog.CustomerNode),
			Specials:              make(map[string]*catalog.SpecialNode),
			SlugToID:              make(map[string]string),
			AllProductIDs:         nil,
			AllCategoryIDs:        nil,
			AllCustomerIDs:        nil,
			AllSpecialIDs:         nil,
			FullCatalogMap:        make([]types.FullCatalogMapItem, 0),
			CatalogMapLastUpdated: time.Now().UTC(),
			LastUpdated:           time.Now().UTC(),
		}
		if cs.logger != nil {
			cs.logger.Cache().Debug("Initialized tenant catalog cache", "tenantId", tenantID)
		}
	}
}

// GetTenantCache safely retrieves a tenant's catalog cache
func (cs *CatalogStore) GetTenantCache(tenantID string) (*types.TenantCatalogCache, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	cache, exists := cs.tenantCaches[tenantID]
	return cache, exists
}

// GetAllTenantIDs returns all tenant IDs present in the store
func (cs *CatalogStore) GetAllTenantIDs() []string {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	ids := make([]string, 0, len(cs.tenantCaches))
	for id := range cs.tenantCaches {
		ids = append(ids, id)
	}
	return ids
}

// =============================================================================
// Catalog Map Operations
// =============================================================================

// GetFullCatalogMap retrieves the full catalog map for a tenant
func (cs *CatalogStore) GetFullCatalogMap(tenantID string) ([]types.FullCatalogMapItem, bool) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	if len(cache.FullCatalogMap) == 0 {
		return nil, false
	}

	return cache.FullCatalogMap, true
}

// SetFullCatalogMap stores the full catalog map for a tenant
func (cs *CatalogStore) SetFullCatalogMap(tenantID string, catalogMap []types.FullCatalogMapItem) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		cs.InitializeTenant(tenantID)
		cache, _ = cs.GetTenantCache(tenantID)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.FullCatalogMap = catalogMap
	cache.CatalogMapLastUpdated = time.Now().UTC()
	cache.LastUpdated = time.Now().UTC()
}

// InvalidateFullCatalogMap clears the catalog map so the next read rebuilds it
func (cs *CatalogStore) InvalidateFullCatalogMap(tenantID string) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.FullCatalogMap = nil
	cache.CatalogMapLastUpdated = time.Now().UTC()
}

// =============================================================================
// Product Operations
// =============================================================================

// GetProduct retrieves a product by ID
func (cs *CatalogStore) GetProduct(tenantID, id string) (*catalog.ProductNode, bool) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	// Check cache expiration (24 hours TTL)
	if time.Since(cache.LastUpdated) > 24*time.Hour {
		return nil, false
	}

	node, exists := cache.Products[id]
	return node, exists
}

// SetProduct stores a product
func (cs *CatalogStore) SetProduct(tenantID string, node *catalog.ProductNode) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		cs.InitializeTenant(tenantID)
		cache, _ = cs.GetTenantCache(tenantID)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Products[node.ID] = node
	cache.SlugToID[node.Slug] = node.ID
	cache.LastUpdated = time.Now().UTC()
}

// GetAllProductIDs retrieves the cached list of all product IDs
func (cs *CatalogStore) GetAllProductIDs(tenantID string) ([]string, bool) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	if cache.AllProductIDs == nil {
		return nil, false
	}
	return cache.AllProductIDs, true
}

// SetAllProductIDs stores the list of all product IDs
func (cs *CatalogStore) SetAllProductIDs(tenantID string, ids []string) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		cs.InitializeTenant(tenantID)
		cache, _ = cs.GetTenantCache(tenantID)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.AllProductIDs = ids
	cache.LastUpdated = time.Now().UTC()
}

// InvalidateProduct removes one product from the cache
func (cs *CatalogStore) InvalidateProduct(tenantID, id string) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	if node, ok := cache.Products[id]; ok {
		delete(cache.SlugToID, node.Slug)
	}
	delete(cache.Products, id)
	cache.AllProductIDs = removeID(cache.AllProductIDs, id)
}

// AddProductID appends an ID to the all-products list if tracked
func (cs *CatalogStore) AddProductID(tenantID, id string) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	if cache.AllProductIDs != nil {
		cache.AllProductIDs = appendID(cache.AllProductIDs, id)
	}
}

// =============================================================================
// Category Operations
// =============================================================================

// GetCategory retrieves a category by ID
func (cs *CatalogStore) GetCategory(tenantID, id string) (*catalog.CategoryNode, bool) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	if time.Since(cache.LastUpdated) > 24*time.Hour {
		return nil, false
	}

	node, exists := cache.Categories[id]
	return node, exists
}

// SetCategory stores a category
func (cs *CatalogStore) SetCategory(tenantID string, node *catalog.CategoryNode) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		cs.InitializeTenant(tenantID)
		cache, _ = cs.GetTenantCache(tenantID)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Categories[node.ID] = node
	cache.LastUpdated = time.Now().UTC()
}

// GetAllCategoryIDs retrieves the cached list of all category IDs
func (cs *CatalogStore) GetAllCategoryIDs(tenantID string) ([]string, bool) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	if cache.AllCategoryIDs == nil {
		return nil, false
	}
	return cache.AllCategoryIDs, true
}

// SetAllCategoryIDs stores the list of all category IDs
func (cs *CatalogStore) SetAllCategoryIDs(tenantID string, ids []string) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		cs.InitializeTenant(tenantID)
		cache, _ = cs.GetTenantCache(tenantID)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.AllCategoryIDs = ids
	cache.LastUpdated = time.Now().UTC()
}

// InvalidateCategory removes one category from the cache
func (cs *CatalogStore) InvalidateCategory(tenantID, id string) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	delete(cache.Categories, id)
	cache.AllCategoryIDs = removeID(cache.AllCategoryIDs, id)
}

// AddCategoryID appends an ID to the all-categories list if tracked
func (cs *CatalogStore) AddCategoryID(tenantID, id string) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	if cache.AllCategoryIDs != nil {
		cache.AllCategoryIDs = appendID(cache.AllCategoryIDs, id)
	}
}

// =============================================================================
// Customer Operations
// =============================================================================

// GetCustomer retrieves a customer by ID
func (cs *CatalogStore) GetCustomer(tenantID, id string) (*catalog.CustomerNode, bool) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	if time.Since(cache.LastUpdated) > 24*time.Hour {
		return nil, false
	}

	node, exists := cache.Customers[id]
	return node, exists
}

// SetCustomer stores a customer
func (cs *CatalogStore) SetCustomer(tenantID string, node *catalog.CustomerNode) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		cs.InitializeTenant(tenantID)
		cache, _ = cs.GetTenantCache(tenantID)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Customers[node.ID] = node
	cache.LastUpdated = time.Now().UTC()
}

// GetAllCustomerIDs retrieves the cached list of all customer IDs
func (cs *CatalogStore) GetAllCustomerIDs(tenantID string) ([]string, bool) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	if cache.AllCustomerIDs == nil {
		return nil, false
	}
	return cache.AllCustomerIDs, true
}

// SetAllCustomerIDs stores the list of all customer IDs
func (cs *CatalogStore) SetAllCustomerIDs(tenantID string, ids []string) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		cs.InitializeTenant(tenantID)
		cache, _ = cs.GetTenantCache(tenantID)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.AllCustomerIDs = ids
	cache.LastUpdated = time.Now().UTC()
}

// InvalidateCustomer removes one customer from the cache
func (cs *CatalogStore) InvalidateCustomer(tenantID, id string) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	delete(cache.Customers, id)
	cache.AllCustomerIDs = removeID(cache.AllCustomerIDs, id)
}

// =============================================================================
// Special Operations
// =============================================================================

// GetSpecial retrieves a special by ID
func (cs *CatalogStore) GetSpecial(tenantID, id string) (*catalog.SpecialNode, bool) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	if time.Since(cache.LastUpdated) > 24*time.Hour {
		return nil, false
	}

	node, exists := cache.Specials[id]
	return node, exists
}

// SetSpecial stores a special
func (cs *CatalogStore) SetSpecial(tenantID string, node *catalog.SpecialNode) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		cs.InitializeTenant(tenantID)
		cache, _ = cs.GetTenantCache(tenantID)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Specials[node.ID] = node
	cache.SlugToID[node.Slug] = node.ID
	cache.LastUpdated = time.Now().UTC()
}

// GetAllSpecialIDs retrieves the cached list of all special IDs
func (cs *CatalogStore) GetAllSpecialIDs(tenantID string) ([]string, bool) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	if cache.AllSpecialIDs == nil {
		return nil, false
	}
	return cache.AllSpecialIDs, true
}

// SetAllSpecialIDs stores the list of all special IDs
func (cs *CatalogStore) SetAllSpecialIDs(tenantID string, ids []string) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		cs.InitializeTenant(tenantID)
		cache, _ = cs.GetTenantCache(tenantID)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.AllSpecialIDs = ids
	cache.LastUpdated = time.Now().UTC()
}

// InvalidateSpecial removes one special from the cache
func (cs *CatalogStore) InvalidateSpecial(tenantID, id string) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	if node, ok := cache.Specials[id]; ok {
		delete(cache.SlugToID, node.Slug)
	}
	delete(cache.Specials, id)
	cache.AllSpecialIDs = removeID(cache.AllSpecialIDs, id)
}

// AddSpecialID appends an ID to the all-specials list if tracked
func (cs *CatalogStore) AddSpecialID(tenantID, id string) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	if cache.AllSpecialIDs != nil {
		cache.AllSpecialIDs = appendID(cache.AllSpecialIDs, id)
	}
}

// =============================================================================
// Tenant-wide Operations
// =============================================================================

// GetCatalogIDBySlug resolves a product or special slug to its ID
func (cs *CatalogStore) GetCatalogIDBySlug(tenantID, slug string) (string, bool) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return "", false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	id, ok := cache.SlugToID[slug]
	return id, ok
}

// InvalidateCatalogCache clears all catalog maps for a tenant
func (cs *CatalogStore) InvalidateCatalogCache(tenantID string) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Products = make(map[string]*catalog.ProductNode)
	cache.Categories = make(map[string]*catalog.CategoryNode)
	cache.Customers = make(map[string]*catalog.CustomerNode)
	cache.Specials = make(map[string]*catalog.SpecialNode)
	cache.SlugToID = make(map[string]string)
	cache.AllProductIDs = nil
	cache.AllCategoryIDs = nil
	cache.AllCustomerIDs = nil
	cache.AllSpecialIDs = nil
	cache.FullCatalogMap = nil
	cache.LastUpdated = time.Now().UTC()

	if cs.logger != nil {
		cs.logger.Cache().Debug("Invalidated tenant catalog cache", "tenantId", tenantID)
	}
}

// RemoveTenant drops a tenant's cache entirely
func (cs *CatalogStore) RemoveTenant(tenantID string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.tenantCaches, tenantID)
}

func removeID(ids []string, id string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func appendID(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
