package cleanup

import (
	"time"

	"github.com/plateful/plateful-go/pkg/config"
)

// Config holds cleanup worker configuration, sourced from the central config package.
type Config struct {
	CleanupInterval  time.Duration
	VerboseReporting bool
	CatalogCacheTTL  time.Duration
	DraftSessionTTL  time.Duration
	DashboardTTL     time.Duration
}

// NewConfig creates a new cleanup configuration by reading values
// from the already-initialized variables in the centralized /pkg/config package.
func NewConfig() *Config {
	return &Config{
		CleanupInterval:  config.CacheCleanupInterval,
		VerboseReporting: config.CacheCleanupVerbose,
		CatalogCacheTTL:  config.CatalogCacheTTL,
		DraftSessionTTL:  config.DraftSessionTTL,
		DashboardTTL:     config.DashboardTTL,
	}
}
