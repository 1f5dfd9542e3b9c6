// Package tenant handles loading and providing tenant-specific configurations.
package tenant

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/plateful/plateful-go/internal/infrastructure/caching/types"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/pkg/config"
)

// Config represents the structure of a single tenant's configuration
type Config struct {
	TenantID        string                  `json:"tenantId"`
	Domains         []string                `json:"domains"`
	Status          string                  `json:"status"`
	DatabaseType    string                  `json:"databaseType"`
	TursoDatabase   string                  `json:"TURSO_DATABASE_URL"`
	TursoToken      string                  `json:"TURSO_AUTH_TOKEN"`
	JWTSecret       string                  `json:"JWT_SECRET"`
	AESKey          string                  `json:"AES_KEY"`
	TursoEnabled    bool                    `json:"TURSO_ENABLED"`
	AdminPassword   string                  `json:"ADMIN_PASSWORD,omitempty"`
	EditorPassword  string                  `json:"EDITOR_PASSWORD,omitempty"`
	ActivationToken string                  `json:"ACTIVATION_TOKEN,omitempty"`
	SQLitePath      string                  `json:"-"`
	Restaurant      *types.RestaurantConfig `json:"-"`
}

// LoadTenantConfig loads configuration for a specific tenant from its env.json file.
func LoadTenantConfig(tenantID string, logger *logging.ChanneledLogger) (*Config, error) {
	configPath := filepath.Join(config.HomeDir, "config", tenantID, "env.json")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("tenant config file not found at %s", configPath)
	}

	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not read tenant config file: %w", err)
	}

	var tenantConfig Config
	if err := json.Unmarshal(configFile, &tenantConfig); err != nil {
		return nil, fmt.Errorf("could not parse tenant config json: %w", err)
	}

	// Set computed fields
	tenantConfig.TenantID = tenantID
	tenantConfig.SQLitePath = filepath.Join(config.HomeDir, "db", tenantID, "plateful.db")

	// Load restaurant configuration
	restaurant, err := LoadRestaurantConfig(tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load restaurant config: %w", err)
	}
	tenantConfig.Restaurant = restaurant

	return &tenantConfig, nil
}

// LoadRestaurantConfig loads the storefront configuration for a specific tenant
func LoadRestaurantConfig(tenantID string) (*types.RestaurantConfig, error) {
	restaurantPath := filepath.Join(config.HomeDir, "config", tenantID, "restaurant.json")

	// Return defaults if file doesn't exist
	if _, err := os.Stat(restaurantPath); os.IsNotExist(err) {
		return &types.RestaurantConfig{
			SiteInit:    false,
			Name:        tenantID,
			Slogan:      "",
			Currency:    "USD",
			Timezone:    "UTC",
			SiteURL:     "",
			LogoURL:     "",
			OrderPrefix: "ORD",
			OpenDemo:    false,
		}, nil
	}

	data, err := os.ReadFile(restaurantPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read restaurant config: %w", err)
	}

	var restaurant types.RestaurantConfig
	if err := json.Unmarshal(data, &restaurant); err != nil {
		return nil, fmt.Errorf("failed to parse restaurant config: %w", err)
	}

	return &restaurant, nil
}

// SaveRestaurantConfig writes the storefront configuration for a tenant.
func SaveRestaurantConfig(tenantID string, restaurant *types.RestaurantConfig) error {
	restaurantPath := filepath.Join(config.HomeDir, "config", tenantID, "restaurant.json")

	if err := os.MkdirAll(filepath.Dir(restaurantPath), 0755); err != nil {
		return fmt.Errorf("failed to create tenant config directory: %w", err)
	}

	data, err := json.MarshalIndent(restaurant, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal restaurant config: %w", err)
	}

	return os.WriteFile(restaurantPath, data, 0644)
}

// TenantRegistry holds the global tenant configuration
type TenantRegistry struct {
	Tenants map[string]TenantInfo `json:"tenants"`
}

// TenantInfo holds tenant metadata
type TenantInfo struct {
	TenantID     string   `json:"tenantId"`
	Domains      []string `json:"domains"`
	Status       string   `json:"status"`       // "unknown", "inactive", "reserved", "active"
	DatabaseType string   `json:"databaseType"` // "turso", "sqlite3"
}

// RegistryPath returns the location of the global tenant registry file.
func RegistryPath() string {
	return filepath.Join(config.HomeDir, "config", "plateful", "tenants.json")
}

// LoadTenantRegistry loads the global tenant registry
func LoadTenantRegistry() (*TenantRegistry, error) {
	registryPath := RegistryPath()

	if _, err := os.Stat(registryPath); os.IsNotExist(err) {
		// Create default registry if it doesn't exist
		defaultRegistry := &TenantRegistry{
			Tenants: map[string]TenantInfo{
				"default": {
					TenantID:     "default",
					Domains:      []string{"*"},
					Status:       "inactive",
					DatabaseType: "",
				},
			},
		}
		return defaultRegistry, nil
	}

	data, err := os.ReadFile(registryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read tenant registry: %w", err)
	}

	var registry TenantRegistry
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse tenant registry: %w", err)
	}

	return &registry, nil
}

// SaveTenantRegistry persists the registry to disk.
func SaveTenantRegistry(registry *TenantRegistry) error {
	registryPath := RegistryPath()

	if err := os.MkdirAll(filepath.Dir(registryPath), 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	data, err := json.MarshalIndent(registry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	return os.WriteFile(registryPath, data, 0644)
}

// RegisterTenant adds a new tenant to the registry
func RegisterTenant(tenantID string) error {
	registry, err := LoadTenantRegistry()
	if err != nil {
		return err
	}

	// Add tenant if it doesn't exist
	if _, exists := registry.Tenants[tenantID]; !exists {
		registry.Tenants[tenantID] = TenantInfo{
			TenantID:     tenantID,
			Domains:      []string{"*"},
			Status:       "inactive",
			DatabaseType: "",
		}

		if err := SaveTenantRegistry(registry); err != nil {
			return err
		}
	}

	return nil
}
