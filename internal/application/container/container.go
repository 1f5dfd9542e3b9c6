// Package container provides dependency injection for all singleton services
package container

import (
	"path/filepath"

	"github.com/plateful/plateful-go/internal/application/services"
	"github.com/plateful/plateful-go/internal/infrastructure/caching"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/manager"
	"github.com/plateful/plateful-go/internal/infrastructure/email"
	"github.com/plateful/plateful-go/internal/infrastructure/messaging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/monitoring"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/performance"
	"github.com/plateful/plateful-go/internal/infrastructure/tenant"
	"github.com/plateful/plateful-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Observability
	Logger         *logging.ChanneledLogger
	PerfTracker    *performance.Tracker
	CacheMonitor   *monitoring.CachePerformanceMonitor
	RequestMonitor *monitoring.RequestMonitor

	// Real-time messaging
	Broadcaster    *messaging.SSEBroadcaster
	OpsBroadcaster *messaging.OpsBroadcaster

	// Catalog snapshot persistence
	Snapshotter *caching.Snapshotter

	// Outbound email
	EmailService email.Service

	// Catalog Services (stateless singletons)
	ProductService    *services.ProductService
	CategoryService   *services.CategoryService
	CustomerService   *services.CustomerService
	OrderService      *services.OrderService
	SpecialService    *services.SpecialService
	ScheduleService   *services.ScheduleService
	CatalogMapService *services.CatalogMapService
	DashboardService  *services.DashboardService

	// Auth and Tenancy Services
	AuthService        *services.AuthService
	MultiTenantService *services.MultiTenantService
	WarmingService     *services.WarmingService
	DBService          *services.DBService

	// Infrastructure Dependencies
	TenantManager *tenant.Manager
	CacheManager  *manager.Manager
}

// NewContainer creates and wires all singleton services
func NewContainer(tenantManager *tenant.Manager, cacheManager *manager.Manager, logger *logging.ChanneledLogger) *Container {
	perfTracker := performance.NewTracker(performance.DefaultTrackerConfig())
	cacheMonitor := monitoring.NewCachePerformanceMonitor(monitoring.DefaultCacheMonitorConfig())

	broadcaster := messaging.NewSSEBroadcaster(logger)
	opsBroadcaster := messaging.NewOpsBroadcaster(tenantManager, cacheManager, logger)

	snapshotter := caching.NewSnapshotter(filepath.Join(config.HomeDir, "snapshots"), logger)

	emailService, err := email.NewService()
	if err != nil {
		logger.System().Warn("Email service disabled, activation emails will not be sent", "reason", err.Error())
		emailService = email.NewDisabledService()
	}

	// ScheduleService is built first so SpecialService can reseed open
	// sessions after deletes.
	scheduleService := services.NewScheduleService(logger, perfTracker, broadcaster)
	catalogMapService := services.NewCatalogMapService(logger, cacheMonitor)

	return &Container{
		Logger:         logger,
		PerfTracker:    perfTracker,
		CacheMonitor:   cacheMonitor,
		RequestMonitor: monitoring.NewRequestMonitor(),

		Broadcaster:    broadcaster,
		OpsBroadcaster: opsBroadcaster,

		Snapshotter: snapshotter,

		EmailService: emailService,

		ProductService:    services.NewProductService(logger, broadcaster),
		CategoryService:   services.NewCategoryService(logger, broadcaster),
		CustomerService:   services.NewCustomerService(logger),
		OrderService:      services.NewOrderService(logger, broadcaster),
		SpecialService:    services.NewSpecialService(logger, broadcaster, scheduleService),
		ScheduleService:   scheduleService,
		CatalogMapService: catalogMapService,
		DashboardService:  services.NewDashboardService(logger, cacheMonitor),

		AuthService:        services.NewAuthService(logger, perfTracker),
		MultiTenantService: services.NewMultiTenantService(tenantManager, emailService, logger, perfTracker),
		WarmingService:     services.NewWarmingService(snapshotter, cacheMonitor, logger),
		DBService:          services.NewDBService(logger, perfTracker),

		TenantManager: tenantManager,
		CacheManager:  cacheManager,
	}
}
