// Package tenant provides tenant detection and validation.
package tenant

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/pkg/config"
)

// Detector resolves which restaurant tenant a request belongs to and keeps
// an in-memory view of the registry on disk.
type Detector struct {
	registry    *TenantRegistry
	multiTenant bool
	logger      *logging.ChanneledLogger
}

// NewDetector loads the registry and reads the multi-tenant switch. With
// multi-tenancy off every request maps to the "default" tenant.
func NewDetector(logger *logging.ChanneledLogger) (*Detector, error) {
	registry, err := LoadTenantRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant registry: %w", err)
	}

	multiTenant := false
	if val := os.Getenv("ENABLE_MULTI_TENANT"); val != "" {
		multiTenant, _ = strconv.ParseBool(val)
	}

	return &Detector{registry: registry, multiTenant: multiTenant, logger: logger}, nil
}

// DetectTenant resolves the tenant id for a request, auto-registering
// tenants that already have a config directory but are missing from the
// registry (a restore-from-backup scenario).
func (d *Detector) DetectTenant(c *gin.Context) (string, error) {
	tenantID := "default"
	if d.multiTenant {
		// Header first (set by the dashboard proxy); browser WebSocket
		// clients cannot set custom headers, so the ops feed passes
		// tenantId as a query parameter
		tenantID = c.GetHeader("X-Tenant-ID")
		if tenantID == "" {
			tenantID = c.Query("tenantId")
		}
		if tenantID == "" {
			return "", fmt.Errorf("missing tenant ID header in multi-tenant mode")
		}
	}

	if _, known := d.registry.Tenants[tenantID]; known {
		return tenantID, nil
	}

	if tenantID != "default" && !d.hasConfigDirectory(tenantID) {
		return "", fmt.Errorf("unknown tenant: %s", tenantID)
	}
	if err := d.registerTenant(tenantID); err != nil {
		return "", fmt.Errorf("failed to auto-register tenant %s: %w", tenantID, err)
	}
	if err := d.RefreshRegistry(); err != nil {
		return "", fmt.Errorf("failed to reload registry after auto-registration: %w", err)
	}
	return tenantID, nil
}

func (d *Detector) hasConfigDirectory(tenantID string) bool {
	_, err := os.Stat(filepath.Join(config.HomeDir, "config", tenantID))
	return err == nil
}

// registerTenant adds a discovered tenant to the registry on disk and to
// the in-memory view, inactive until it passes activation.
func (d *Detector) registerTenant(tenantID string) error {
	if err := RegisterTenant(tenantID); err != nil {
		return err
	}
	d.registry.Tenants[tenantID] = TenantInfo{
		TenantID: tenantID,
		Domains:  []string{"*"},
		Status:   "inactive",
	}
	return nil
}

// ValidateDomain reports whether the request domain is registered for the
// tenant. A "*" entry disables the check for that tenant.
func (d *Detector) ValidateDomain(tenantID, domain string) bool {
	info, exists := d.registry.Tenants[tenantID]
	if !exists {
		return false
	}
	for _, allowed := range info.Domains {
		if allowed == "*" || strings.EqualFold(allowed, domain) {
			return true
		}
	}
	return false
}

// GetTenantStatus returns the registry status of a tenant, "unknown" when
// the tenant is not registered.
func (d *Detector) GetTenantStatus(tenantID string) string {
	if info, exists := d.registry.Tenants[tenantID]; exists {
		return info.Status
	}
	return "unknown"
}

// UpdateTenantStatus updates the in-memory registry view after activation.
func (d *Detector) UpdateTenantStatus(tenantID, status, dbType string) {
	info, exists := d.registry.Tenants[tenantID]
	if !exists {
		return
	}
	info.Status = status
	if dbType != "" {
		info.DatabaseType = dbType
	}
	d.registry.Tenants[tenantID] = info
}

// RefreshRegistry reloads the registry from disk.
func (d *Detector) RefreshRegistry() error {
	registry, err := LoadTenantRegistry()
	if err != nil {
		return fmt.Errorf("failed to refresh tenant registry: %w", err)
	}
	d.registry = registry
	return nil
}

// GetRegistry exposes the current in-memory registry view.
func (d *Detector) GetRegistry() *TenantRegistry {
	return d.registry
}
