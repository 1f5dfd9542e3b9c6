// Package services provides dashboard summary orchestration
package services

import (
	"fmt"
	"time"

	"github.com/plateful/plateful-go/internal/infrastructure/caching/types"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/monitoring"
	"github.com/plateful/plateful-go/internal/infrastructure/tenant"
)

// DashboardService assembles the landing-page summary: order counts by
// status, today's paid revenue, and active product/special counts. The
// summary is cached with a short TTL and recomputed lazily on expiry.
type DashboardService struct {
	logger  *logging.ChanneledLogger
	monitor *monitoring.CachePerformanceMonitor
}

// NewDashboardService creates a new dashboard service singleton
func NewDashboardService(logger *logging.ChanneledLogger, monitor *monitoring.CachePerformanceMonitor) *DashboardService {
	return &DashboardService{
		logger:  logger,
		monitor: monitor,
	}
}

// GetSummary returns the dashboard summary, serving from cache when fresh.
// Revenue counts paid orders created since local midnight UTC.
func (s *DashboardService) GetSummary(tenantCtx *tenant.Context) (*types.DashboardSummary, error) {
	start := time.Now()

	if summary, exists := tenantCtx.CacheManager.GetDashboardSummary(tenantCtx.TenantID); exists {
		s.monitor.RecordCacheOperation("dashboard", tenantCtx.TenantID, true, time.Since(start))
		return summary, nil
	}
	s.monitor.RecordCacheOperation("dashboard", tenantCtx.TenantID, false, 0)

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	bulkRepo := tenantCtx.BulkRepo()
	stats, err := bulkRepo.ScanDashboardStats(tenantCtx.TenantID, midnight)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard summary: %w", err)
	}

	summary := &types.DashboardSummary{
		OrdersByStatus:    stats.OrdersByStatus,
		RevenueTodayCents: stats.RevenueSinceCents,
		ActiveProducts:    stats.ActiveProducts,
		ActiveSpecials:    stats.ActiveSpecials,
		ComputedAt:        now,
	}
	tenantCtx.CacheManager.SetDashboardSummary(tenantCtx.TenantID, summary)

	s.logger.Catalog().Info("Successfully computed dashboard summary", "tenantId", tenantCtx.TenantID, "activeProducts", summary.ActiveProducts, "activeSpecials", summary.ActiveSpecials, "duration", time.Since(start))

	return summary, nil
}
