package stores

import (
	"sync"
	"time"

	"github.com/plateful/plateful-go/internal/infrastructure/caching/types"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
)

// DraftStore tracks open schedule-editing sessions with tenant isolation.
// Sessions are created when a dashboard opens the scheduling view and are
// purged by the cleanup worker after going idle.
type DraftStore struct {
	tenantCaches map[string]*types.TenantDraftCache
	mu           sync.RWMutex
	logger       *logging.ChanneledLogger
}

// NewDraftStore creates a new draft session store
func NewDraftStore(logger *logging.ChanneledLogger) *DraftStore {
	return &DraftStore{
		tenantCaches: make(map[string]*types.TenantDraftCache),
		logger:       logger,
	}
}

// InitializeTenant creates cache structures for a tenant
func (ds *DraftStore) InitializeTenant(tenantID string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.tenantCaches[tenantID] == nil {
		ds.tenantCaches[tenantID] = &types.TenantDraftCache{
			Sessions:   make(map[string]*types.DraftSession),
			LastLoaded: time.Now().UTC(),
		}
		if ds.logger != nil {
			ds.logger.Cache().Debug("Initialized tenant draft cache", "tenantId", tenantID)
		}
	}
}

// GetTenantCache safely retrieves a tenant's draft cache
func (ds *DraftStore) GetTenantCache(tenantID string) (*types.TenantDraftCache, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	cache, exists := ds.tenantCaches[tenantID]
	return cache, exists
}

// GetAllTenantIDs returns all tenant IDs present in the store
func (ds *DraftStore) GetAllTenantIDs() []string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	ids := make([]string, 0, len(ds.tenantCaches))
	for id := range ds.tenantCaches {
		ids = append(ids, id)
	}
	return ids
}

// GetDraftSession retrieves a session by ID and refreshes its activity stamp
func (ds *DraftStore) GetDraftSession(tenantID, sessionID string) (*types.DraftSession, bool) {
	cache, exists := ds.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	session, ok := cache.Sessions[sessionID]
	if !ok {
		return nil, false
	}
	session.LastActivity = time.Now().UTC()
	cache.LastLoaded = session.LastActivity
	return session, true
}

// SetDraftSession stores a session
func (ds *DraftStore) SetDraftSession(tenantID string, session *types.DraftSession) {
	cache, exists := ds.GetTenantCache(tenantID)
	if !exists {
		ds.InitializeTenant(tenantID)
		cache, _ = ds.GetTenantCache(tenantID)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Sessions[session.SessionID] = session
	cache.LastLoaded = time.Now().UTC()
}

// RemoveDraftSession drops a session
func (ds *DraftStore) RemoveDraftSession(tenantID, sessionID string) {
	cache, exists := ds.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	delete(cache.Sessions, sessionID)
}

// GetAllDraftSessionIDs lists the open sessions for a tenant
func (ds *DraftStore) GetAllDraftSessionIDs(tenantID string) []string {
	cache, exists := ds.GetTenantCache(tenantID)
	if !exists {
		return nil
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	ids := make([]string, 0, len(cache.Sessions))
	for id := range cache.Sessions {
		ids = append(ids, id)
	}
	return ids
}

// InvalidateDraftCache drops every open session for a tenant. Called when
// catalog mutations (special delete, bulk import) make open drafts stale.
func (ds *DraftStore) InvalidateDraftCache(tenantID string) {
	cache, exists := ds.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Sessions = make(map[string]*types.DraftSession)
	cache.LastLoaded = time.Now().UTC()

	if ds.logger != nil {
		ds.logger.Cache().Debug("Invalidated tenant draft cache", "tenantId", tenantID)
	}
}

// RemoveTenant drops a tenant's cache entirely
func (ds *DraftStore) RemoveTenant(tenantID string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	delete(ds.tenantCaches, tenantID)
}
