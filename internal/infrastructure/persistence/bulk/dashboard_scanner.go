package bulk

import (
	"fmt"
	"time"

	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/persistence/database"
)

// DashboardStats carries the raw rollups the dashboard summary is assembled
// from, collected in a single pass over the catalog tables.
type DashboardStats struct {
	OrdersByStatus    map[string]int
	RevenueSinceCents int64
	ActiveProducts    int
	ActiveSpecials    int
}

type DashboardScanner struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

func NewDashboardScanner(db *database.DB, logger *logging.ChanneledLogger) *DashboardScanner {
	return &DashboardScanner{
		db:     db,
		logger: logger,
	}
}

// ScanDashboardStats collects every dashboard rollup with one UNION query:
// order counts per status, paid revenue since the given cutoff, and active
// product and special counts.
func (ds *DashboardScanner) ScanDashboardStats(tenantID string, revenueSince time.Time) (*DashboardStats, error) {
	start := time.Now()
	ds.logger.Database().Debug("Starting dashboard stats scan", "tenantID", tenantID)

	// Statuses with no orders never come back from GROUP BY; the dashboard
	// still renders a column for each, so pre-fill with zeros.
	stats := &DashboardStats{
		OrdersByStatus: map[string]int{
			catalog.OrderPending:   0,
			catalog.OrderPreparing: 0,
			catalog.OrderReady:     0,
			catalog.OrderDelivered: 0,
			catalog.OrderCancelled: 0,
		},
	}

	query := `
		SELECT 'order_status' as metric, status as label, COUNT(*) as tally, 0 as cents
		FROM orders
		GROUP BY status

		UNION ALL

		SELECT 'revenue' as metric, '' as label, 0 as tally, COALESCE(SUM(total_cents), 0) as cents
		FROM orders
		WHERE payment_status = ? AND created >= ?

		UNION ALL

		SELECT 'active_products' as metric, '' as label, COUNT(*) as tally, 0 as cents
		FROM products
		WHERE status = ?

		UNION ALL

		SELECT 'active_specials' as metric, '' as label, COUNT(*) as tally, 0 as cents
		FROM specials
		WHERE active = 1`

	since := revenueSince.UTC().Format("2006-01-02 15:04:05")

	rows, err := ds.db.Query(query, catalog.PaymentPaid, since, catalog.ProductActive)
	if err != nil {
		ds.logger.Database().Error("Dashboard stats query failed", "error", err.Error(), "tenantID", tenantID)
		return nil, fmt.Errorf("failed to execute dashboard stats query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var metric, label string
		var tally int
		var cents int64
		if err := rows.Scan(&metric, &label, &tally, &cents); err != nil {
			ds.logger.Database().Error("Failed to scan dashboard stats row", "error", err.Error(), "tenantID", tenantID)
			return nil, fmt.Errorf("failed to scan dashboard stats row: %w", err)
		}

		switch metric {
		case "order_status":
			stats.OrdersByStatus[label] = tally
		case "revenue":
			stats.RevenueSinceCents = cents
		case "active_products":
			stats.ActiveProducts = tally
		case "active_specials":
			stats.ActiveSpecials = tally
		}
	}

	if err := rows.Err(); err != nil {
		ds.logger.Database().Error("Dashboard stats row iteration error", "error", err.Error(), "tenantID", tenantID)
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	database.CheckAndLogSlowQuery(ds.logger, "BULK_DASHBOARD_STATS", time.Since(start), tenantID)
	ds.logger.Database().Info("Dashboard stats scan completed", "tenantID", tenantID, "duration", time.Since(start))
	return stats, nil
}
