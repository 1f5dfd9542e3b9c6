package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/pkg/config"
)

// PingTurso verifies a hosted libsql database is reachable with the given
// credentials. Provisioning calls this before reserving a tenant on Turso
// so a typo'd token fails the request instead of degrading the tenant on
// first boot.
func PingTurso(databaseURL, authToken string, logger *logging.ChanneledLogger) error {
	start := time.Now()

	db, err := sql.Open("libsql", databaseURL+"?authToken="+authToken)
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	defer db.Close()

	var result int
	if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
		if logger != nil {
			logger.Database().Error("Turso connection check failed", "error", err.Error(), "databaseURL", databaseURL)
		}
		return fmt.Errorf("connection test query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("unexpected query result: %d", result)
	}

	if logger != nil {
		logger.Database().Info("Turso connection check passed", "databaseURL", databaseURL, "duration", time.Since(start))
	}
	return nil
}

// GetSlowQueryThreshold returns the configured slow query threshold.
func GetSlowQueryThreshold() time.Duration {
	return time.Duration(config.SlowQueryThresholdMS) * time.Millisecond
}

// CheckAndLogSlowQuery routes a query whose duration exceeds the threshold
// to the slow-query channel. Repositories call this after every timed query.
func CheckAndLogSlowQuery(logger *logging.ChanneledLogger, query string, duration time.Duration, tenantID string) {
	threshold := GetSlowQueryThreshold()

	// Bulk catalog-map scans legitimately run longer than row queries
	if strings.HasPrefix(query, "BULK_") {
		threshold *= 3
	}

	if duration > threshold {
		logger.LogSlowQuery(query, duration, tenantID)
	}
}
