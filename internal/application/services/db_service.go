// Package services provides application-level orchestration services
package services

import (
	"fmt"
	"time"

	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/performance"
	"github.com/plateful/plateful-go/internal/infrastructure/tenant"
)

// DBService handles database connectivity and health checking
type DBService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewDBService creates a new database service
func NewDBService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *DBService {
	return &DBService{
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// requiredTables is the schema surface the health check verifies.
var requiredTables = []string{
	"categories", "products", "customers",
	"orders", "order_items", "specials",
}

// CheckStatus performs basic database health check
func (d *DBService) CheckStatus(tenantCtx *tenant.Context) map[string]any {
	result := map[string]any{
		"tenantId":  tenantCtx.TenantID,
		"status":    "checking",
		"timestamp": time.Now(),
	}

	if tenantCtx.Database == nil || tenantCtx.Database.Conn == nil {
		result["status"] = "error"
		result["error"] = "no database connection"
		return result
	}

	var probe int
	if err := tenantCtx.Database.Conn.QueryRow("SELECT 1").Scan(&probe); err != nil || probe != 1 {
		result["status"] = "error"
		if err != nil {
			result["error"] = fmt.Sprintf("connection test failed: %v", err)
		} else {
			result["error"] = "unexpected test result"
		}
		return result
	}

	tableStatus := make(map[string]bool, len(requiredTables))
	var missing []string
	for _, table := range requiredTables {
		exists := d.tableExists(tenantCtx, table)
		tableStatus[table] = exists
		if !exists {
			missing = append(missing, table)
		}
	}

	result["status"] = "healthy"
	result["allTablesExist"] = len(missing) == 0
	result["tableStatus"] = tableStatus
	if len(missing) > 0 {
		result["status"] = "degraded"
		result["warning"] = "some tables missing"
	}
	return result
}

// GetConnectionStats returns database connection pool statistics
func (d *DBService) GetConnectionStats(tenantCtx *tenant.Context) map[string]any {
	if tenantCtx.Database == nil || tenantCtx.Database.Conn == nil {
		return map[string]any{"available": false}
	}

	stats := tenantCtx.Database.Conn.Stats()
	return map[string]any{
		"available": true,
		"backend":   tenantCtx.Database.GetConnectionInfo(),
		"openConns": stats.OpenConnections,
		"inUse":     stats.InUse,
		"idle":      stats.Idle,
		"pool":      tenant.PoolStats(),
	}
}

// tableExists checks if a table exists
func (d *DBService) tableExists(tenantCtx *tenant.Context, tableName string) bool {
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`
	var count int
	err := tenantCtx.Database.Conn.QueryRow(query, tableName).Scan(&count)
	if err != nil {
		return false
	}
	return count > 0
}
