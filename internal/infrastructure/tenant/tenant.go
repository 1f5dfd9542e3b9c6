// Package tenant manages tenant-specific configurations and context,
// isolating multi-tenancy logic from the rest of the application.
package tenant

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/manager"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
)

// Manager coordinates tenant detection and context creation.
type Manager struct {
	detector *Detector
	caches   *manager.Manager
	logger   *logging.ChanneledLogger

	mu       sync.RWMutex
	contexts map[string]*Context
	builders sync.Map // tenantID -> *sync.Mutex, serializes context creation per tenant
}

// NewManager creates and initializes a new tenant manager.
func NewManager(logger *logging.ChanneledLogger) *Manager {
	detector, err := NewDetector(logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize tenant detector: %v", err))
	}

	return &Manager{
		detector: detector,
		caches:   manager.NewManager(logger),
		contexts: make(map[string]*Context),
		logger:   logger,
	}
}

// lookup returns a cached context if it exists and its connection is live.
func (m *Manager) lookup(tenantID string) (*Context, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ctx, ok := m.contexts[tenantID]
	if !ok || ctx.Database == nil || ctx.Database.Conn == nil {
		return nil, false
	}
	return ctx, true
}

// GetContext resolves the request's tenant and returns its context,
// building one on first use.
func (m *Manager) GetContext(c *gin.Context) (*Context, error) {
	tenantID, err := m.detector.DetectTenant(c)
	if err != nil {
		return nil, fmt.Errorf("tenant detection failed: %w", err)
	}

	if ctx, ok := m.lookup(tenantID); ok {
		return ctx, nil
	}

	// Serialize creation per tenant so concurrent first requests don't
	// open duplicate connections.
	gate, _ := m.builders.LoadOrStore(tenantID, &sync.Mutex{})
	gate.(*sync.Mutex).Lock()
	defer gate.(*sync.Mutex).Unlock()

	if ctx, ok := m.lookup(tenantID); ok {
		return ctx, nil
	}
	return m.createContext(tenantID)
}

// NewContextFromID creates a new tenant context from a tenant ID string.
func (m *Manager) NewContextFromID(tenantID string) (*Context, error) {
	return m.createContext(tenantID)
}

func (m *Manager) createContext(tenantID string) (*Context, error) {
	config, err := LoadTenantConfig(tenantID, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant config: %w", err)
	}

	db, err := NewDatabase(config, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	ctx := &Context{
		TenantID:     tenantID,
		Config:       config,
		Database:     db,
		Status:       m.detector.GetTenantStatus(tenantID),
		CacheManager: m.caches,
		Logger:       m.logger,
	}

	m.mu.Lock()
	m.contexts[tenantID] = ctx
	m.mu.Unlock()

	return ctx, nil
}

// PreActivateAllTenants opens a connection for every registered tenant at
// startup so the first request never pays the activation cost. Tenants in
// "reserved" state wait for explicit activation and are skipped.
func (m *Manager) PreActivateAllTenants() error {
	registry, err := LoadTenantRegistry()
	if err != nil {
		return fmt.Errorf("failed to load tenant registry for pre-activation: %w", err)
	}
	if len(registry.Tenants) == 0 {
		return nil
	}

	var failed []string
	for tenantID, info := range registry.Tenants {
		if info.Status == "active" || info.Status == "reserved" {
			continue
		}
		if err := m.activateOne(tenantID); err != nil {
			m.logger.Tenant().Warn("Pre-activation failed", "tenantId", tenantID, "error", err)
			failed = append(failed, tenantID)
		}
	}

	if err := m.detector.RefreshRegistry(); err != nil {
		return fmt.Errorf("failed to refresh detector registry: %w", err)
	}
	if len(failed) > 0 {
		return fmt.Errorf("pre-activation failed for tenants: %v", failed)
	}
	return nil
}

func (m *Manager) activateOne(tenantID string) error {
	ctx, err := m.createContext(tenantID)
	if err != nil {
		return fmt.Errorf("failed to create context for tenant %s: %w", tenantID, err)
	}
	if err := ctx.Database.Conn.Ping(); err != nil {
		return fmt.Errorf("database connection test failed for tenant %s: %w", tenantID, err)
	}

	dbType := "sqlite3"
	if ctx.Database.UseTurso {
		dbType = "turso"
	}
	m.detector.UpdateTenantStatus(tenantID, "active", dbType)
	return nil
}

// ValidatePreActivation verifies the registry holds no inactive tenants
// after startup pre-activation.
func (m *Manager) ValidatePreActivation() error {
	registry, err := LoadTenantRegistry()
	if err != nil {
		return fmt.Errorf("failed to load registry for validation: %w", err)
	}
	if len(registry.Tenants) == 0 {
		m.logger.Startup().Info("No tenants to validate")
		return nil
	}

	byStatus := map[string][]string{}
	for tenantID, info := range registry.Tenants {
		switch info.Status {
		case "active", "reserved":
			byStatus[info.Status] = append(byStatus[info.Status], tenantID)
		default:
			byStatus["inactive"] = append(byStatus["inactive"], tenantID)
		}
	}

	m.logger.Startup().Info("Tenant registry validated",
		"active", byStatus["active"], "reserved", byStatus["reserved"])

	if inactive := byStatus["inactive"]; len(inactive) > 0 {
		m.logger.Startup().Warn("Inactive tenants present", "tenants", inactive)
		return fmt.Errorf("validation failed - %d tenants still inactive: %v",
			len(inactive), inactive)
	}
	return nil
}

// GetActiveTenantCount returns the number of active tenants in the registry.
func (m *Manager) GetActiveTenantCount() (int, error) {
	registry, err := LoadTenantRegistry()
	if err != nil {
		return 0, fmt.Errorf("failed to load tenant registry: %w", err)
	}

	count := 0
	for _, info := range registry.Tenants {
		if info.Status == "active" {
			count++
		}
	}
	return count, nil
}

func (m *Manager) GetCacheManager() *manager.Manager { return m.caches }

func (m *Manager) GetDetector() *Detector { return m.detector }

func (m *Manager) GetLogger() *logging.ChanneledLogger { return m.logger }

// Close tears down every tenant context.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ctx := range m.contexts {
		_ = ctx.Close()
	}
	m.contexts = make(map[string]*Context)
	return nil
}
