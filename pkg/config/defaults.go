// Package config provides centralized default values for Plateful
package config

import (
	"bufio"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

// fileConfig is the plateful.toml key mapping. Every key is optional;
// values set here sit between the hardcoded defaults and env overrides.
type fileConfig struct {
	Port                      string `toml:"port"`
	ServerReadTimeout         string `toml:"server_read_timeout"`
	ServerWriteTimeout        string `toml:"server_write_timeout"`
	ServerIdleTimeout         string `toml:"server_idle_timeout"`
	MaxTenants                int    `toml:"max_tenants"`
	MaxMemoryMB               int    `toml:"max_memory_mb"`
	MaxDraftSessionsPerTenant int    `toml:"max_draft_sessions_per_tenant"`
	DBMaxOpenConns            int    `toml:"db_max_open_conns"`
	DBMaxIdleConns            int    `toml:"db_max_idle_conns"`
	DBConnMaxLifetimeMinutes  int    `toml:"db_conn_max_lifetime_minutes"`
	DBConnMaxIdleMinutes      int    `toml:"db_conn_max_idle_minutes"`
	CatalogCacheTTLHours      int    `toml:"catalog_cache_ttl_hours"`
	DraftSessionTTLHours      int    `toml:"draft_session_ttl_hours"`
	DashboardTTLMinutes       int    `toml:"dashboard_ttl_minutes"`
	CleanupIntervalMinutes    int    `toml:"cache_cleanup_interval_minutes"`
	CleanupVerbose            bool   `toml:"cache_cleanup_verbose"`
	SlowQueryThresholdMS      int    `toml:"slow_query_threshold_ms"`
	OrdersDefaultPageSize     int    `toml:"orders_default_page_size"`
	CatalogDefaultPageSize    int    `toml:"catalog_default_page_size"`
	SnapshotMaxAgeHours       int    `toml:"snapshot_max_age_hours"`
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Paths
	HomeDir string

	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Cache Configuration
	MaxTenants                int
	MaxMemoryMB               int
	MaxDraftSessionsPerTenant int

	// Database Pool
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	DBConnMaxIdleMinutes     int

	// TTL Configuration
	CatalogCacheTTL time.Duration
	DraftSessionTTL time.Duration
	DashboardTTL    time.Duration
	SnapshotMaxAge  time.Duration

	// Query Defaults
	SlowQueryThresholdMS   int
	OrdersDefaultPageSize  int
	CatalogDefaultPageSize int

	// Cleanup Intervals
	CacheCleanupInterval  time.Duration
	CacheCleanupVerbose   bool
	TenantTimeout         time.Duration
	DBPoolCleanupInterval time.Duration

	// Operator dashboard access. Empty means the ops endpoints are open,
	// which is only acceptable on a local install.
	OpsPassword string
)

// TomlPath returns the location of the optional plateful.toml overlay.
func TomlPath() string {
	return filepath.Join(HomeDir, "config", "plateful.toml")
}

func init() {
	loadEnvFile()

	userHome, err := os.UserHomeDir()
	if err != nil {
		userHome = "."
	}
	HomeDir = getEnvString("PLATEFUL_HOME", filepath.Join(userHome, "plateful-server"))

	// Hardcoded defaults, overridden first by plateful.toml, then by env.
	defaults := fileConfig{
		Port:              "10000",
		ServerReadTimeout: "15s",
		// 0 disables the write deadline. The SSE and websocket feeds are
		// long-lived responses and a fixed window would sever them.
		ServerWriteTimeout:        "0s",
		ServerIdleTimeout:         "60s",
		MaxTenants:                5,
		MaxMemoryMB:               768,
		MaxDraftSessionsPerTenant: 500,
		DBMaxOpenConns:            10,
		DBMaxIdleConns:            3,
		DBConnMaxLifetimeMinutes:  30,
		DBConnMaxIdleMinutes:      3,
		CatalogCacheTTLHours:      24,
		DraftSessionTTLHours:      2,
		DashboardTTLMinutes:       10,
		CleanupIntervalMinutes:    30,
		CleanupVerbose:            true,
		SlowQueryThresholdMS:      100,
		OrdersDefaultPageSize:     25,
		CatalogDefaultPageSize:    50,
		SnapshotMaxAgeHours:       24,
	}

	var raw fileConfig
	meta, tomlErr := toml.DecodeFile(TomlPath(), &raw)
	if tomlErr == nil {
		log.Printf("Loading configuration overrides from %s", TomlPath())
		if meta.IsDefined("port") {
			defaults.Port = strings.TrimSpace(raw.Port)
		}
		if meta.IsDefined("server_read_timeout") {
			defaults.ServerReadTimeout = raw.ServerReadTimeout
		}
		if meta.IsDefined("server_write_timeout") {
			defaults.ServerWriteTimeout = raw.ServerWriteTimeout
		}
		if meta.IsDefined("server_idle_timeout") {
			defaults.ServerIdleTimeout = raw.ServerIdleTimeout
		}
		if meta.IsDefined("max_tenants") {
			defaults.MaxTenants = raw.MaxTenants
		}
		if meta.IsDefined("max_memory_mb") {
			defaults.MaxMemoryMB = raw.MaxMemoryMB
		}
		if meta.IsDefined("max_draft_sessions_per_tenant") {
			defaults.MaxDraftSessionsPerTenant = raw.MaxDraftSessionsPerTenant
		}
		if meta.IsDefined("db_max_open_conns") {
			defaults.DBMaxOpenConns = raw.DBMaxOpenConns
		}
		if meta.IsDefined("db_max_idle_conns") {
			defaults.DBMaxIdleConns = raw.DBMaxIdleConns
		}
		if meta.IsDefined("db_conn_max_lifetime_minutes") {
			defaults.DBConnMaxLifetimeMinutes = raw.DBConnMaxLifetimeMinutes
		}
		if meta.IsDefined("db_conn_max_idle_minutes") {
			defaults.DBConnMaxIdleMinutes = raw.DBConnMaxIdleMinutes
		}
		if meta.IsDefined("catalog_cache_ttl_hours") {
			defaults.CatalogCacheTTLHours = raw.CatalogCacheTTLHours
		}
		if meta.IsDefined("draft_session_ttl_hours") {
			defaults.DraftSessionTTLHours = raw.DraftSessionTTLHours
		}
		if meta.IsDefined("dashboard_ttl_minutes") {
			defaults.DashboardTTLMinutes = raw.DashboardTTLMinutes
		}
		if meta.IsDefined("cache_cleanup_interval_minutes") {
			defaults.CleanupIntervalMinutes = raw.CleanupIntervalMinutes
		}
		if meta.IsDefined("cache_cleanup_verbose") {
			defaults.CleanupVerbose = raw.CleanupVerbose
		}
		if meta.IsDefined("slow_query_threshold_ms") {
			defaults.SlowQueryThresholdMS = raw.SlowQueryThresholdMS
		}
		if meta.IsDefined("orders_default_page_size") {
			defaults.OrdersDefaultPageSize = raw.OrdersDefaultPageSize
		}
		if meta.IsDefined("catalog_default_page_size") {
			defaults.CatalogDefaultPageSize = raw.CatalogDefaultPageSize
		}
		if meta.IsDefined("snapshot_max_age_hours") {
			defaults.SnapshotMaxAgeHours = raw.SnapshotMaxAgeHours
		}
	}

	// Server Configuration
	Port = getEnvString("PORT", defaults.Port)
	readTimeout, _ := time.ParseDuration(defaults.ServerReadTimeout)
	writeTimeout, _ := time.ParseDuration(defaults.ServerWriteTimeout)
	idleTimeout, _ := time.ParseDuration(defaults.ServerIdleTimeout)
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", readTimeout)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", writeTimeout)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", idleTimeout)

	// Memory Management
	MaxTenants = getEnvInt("MAX_TENANTS", defaults.MaxTenants)
	MaxMemoryMB = getEnvInt("MAX_MEMORY_MB", defaults.MaxMemoryMB)
	MaxDraftSessionsPerTenant = getEnvInt("MAX_DRAFT_SESSIONS_PER_TENANT", defaults.MaxDraftSessionsPerTenant)

	// Database Pool
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", defaults.DBMaxOpenConns)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", defaults.DBMaxIdleConns)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", defaults.DBConnMaxLifetimeMinutes)
	DBConnMaxIdleMinutes = getEnvInt("DB_CONN_MAX_IDLE_MINUTES", defaults.DBConnMaxIdleMinutes)

	// TTL Configuration
	CatalogCacheTTL = time.Duration(getEnvInt("CATALOG_CACHE_TTL_HOURS", defaults.CatalogCacheTTLHours)) * time.Hour
	DraftSessionTTL = time.Duration(getEnvInt("DRAFT_SESSION_TTL_HOURS", defaults.DraftSessionTTLHours)) * time.Hour
	DashboardTTL = time.Duration(getEnvInt("DASHBOARD_TTL_MINUTES", defaults.DashboardTTLMinutes)) * time.Minute
	SnapshotMaxAge = time.Duration(getEnvInt("SNAPSHOT_MAX_AGE_HOURS", defaults.SnapshotMaxAgeHours)) * time.Hour

	// Query Defaults
	SlowQueryThresholdMS = getEnvInt("SLOW_QUERY_THRESHOLD_MS", defaults.SlowQueryThresholdMS)
	OrdersDefaultPageSize = getEnvInt("ORDERS_DEFAULT_PAGE_SIZE", defaults.OrdersDefaultPageSize)
	CatalogDefaultPageSize = getEnvInt("CATALOG_DEFAULT_PAGE_SIZE", defaults.CatalogDefaultPageSize)

	// Cleanup Intervals
	CacheCleanupInterval = time.Duration(getEnvInt("CACHE_CLEANUP_INTERVAL_MINUTES", defaults.CleanupIntervalMinutes)) * time.Minute
	CacheCleanupVerbose = getEnvBool("CACHE_CLEANUP_VERBOSE", defaults.CleanupVerbose)
	TenantTimeout = time.Duration(getEnvInt("TENANT_TIMEOUT_HOURS", 4)) * time.Hour
	DBPoolCleanupInterval = time.Duration(getEnvInt("DB_POOL_CLEANUP_INTERVAL_MINUTES", 5)) * time.Minute

	// Read directly so the value never lands in the config override log.
	OpsPassword = os.Getenv("OPS_PASSWORD")
}
