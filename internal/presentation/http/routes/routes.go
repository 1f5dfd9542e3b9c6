// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful-go/internal/application/container"
	"github.com/plateful/plateful-go/internal/presentation/http/handlers"
	"github.com/plateful/plateful-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Serve static operator dashboard files from the /ops URL.
	r.Static("/ops", "web/ops")
	r.StaticFile("/favicon.ico", "web/ops/favicon.ico")

	// Initialize handlers
	productHandlers := handlers.NewProductHandlers(container.ProductService, container.Logger)
	categoryHandlers := handlers.NewCategoryHandlers(container.CategoryService, container.Logger)
	customerHandlers := handlers.NewCustomerHandlers(container.CustomerService, container.Logger)
	orderHandlers := handlers.NewOrderHandlers(container.OrderService, container.Logger)
	specialHandlers := handlers.NewSpecialHandlers(container.SpecialService, container.Logger)
	scheduleHandlers := handlers.NewScheduleHandlers(container.ScheduleService, container.Logger)
	catalogMapHandlers := handlers.NewCatalogMapHandlers(container.CatalogMapService, container.Logger)
	dashboardHandlers := handlers.NewDashboardHandlers(container.DashboardService, container.Logger)
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.Logger, container.PerfTracker)
	eventsHandlers := handlers.NewEventsHandlers(container.Broadcaster, container.Logger, container.PerfTracker)
	healthHandlers := handlers.NewHealthHandlers(container.DBService, container.Logger)
	opsHandlers := handlers.NewOpsHandlers(container)
	multiTenantHandlers := handlers.NewMultiTenantHandlers(container.MultiTenantService, container.Logger, container.PerfTracker)

	// Operator API endpoints live under /api/ops to avoid conflict with static file serving
	opsAPI := r.Group("/api/ops")
	{
		opsAPI.GET("/auth", opsHandlers.AuthCheck)
		opsAPI.POST("/login", opsHandlers.Login)

		// Operator authenticated endpoints
		opsAPI.Use(opsHandlers.OpsAuthMiddleware())
		{
			opsAPI.GET("/tenants", opsHandlers.GetTenants)
			opsAPI.GET("/activity", opsHandlers.GetActivityMetrics)
			opsAPI.POST("/tenant-token", opsHandlers.GetTenantToken)
			opsAPI.GET("/logs/levels", opsHandlers.GetLogLevels)
			opsAPI.POST("/logs/levels", opsHandlers.SetLogLevel)
			opsAPI.GET("/ws", opsHandlers.GetWS)
		}
	}

	// Log streaming stays at top level for EventSource, but behind the same
	// password gate as the rest of the operator API.
	r.GET("/ops-logs/stream", opsHandlers.OpsAuthMiddleware(), opsHandlers.StreamLogs)

	// Public, non-tenant-specific admin routes for provisioning.
	tenantAPI := r.Group("/api/v1/tenant")
	{
		tenantAPI.POST("/provision", multiTenantHandlers.HandleProvisionTenant)
		tenantAPI.POST("/activation", multiTenantHandlers.HandleActivateTenant)
		tenantAPI.GET("/capacity", multiTenantHandlers.HandleGetCapacity)
	}

	// Fresh-install setup. Refuses unless the default tenant is inactive.
	r.POST("/api/v1/setup/initialize", multiTenantHandlers.HandleSetupInitialize)

	// API routes with tenant middleware
	api := r.Group("/api/v1")
	api.Use(middleware.TenantMiddleware(container.TenantManager, container.PerfTracker))
	api.Use(middleware.DomainValidationMiddleware(container.TenantManager))
	api.Use(middleware.RequestMetricsMiddleware(container.RequestMonitor))
	{
		api.GET("/health", healthHandlers.GetHealth)
		api.GET("/health/db", healthHandlers.GetConnectionStats)

		// Authentication routes: login is the session provider for the dashboard
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandlers.PostLogin)
			auth.POST("/logout", authHandlers.PostLogout)
			auth.GET("/status", authHandlers.GetAuthStatus)
		}

		// Real-time updates for open dashboards
		api.GET("/events/sse", eventsHandlers.GetSSE)

		// Client-side search index
		api.GET("/catalog/full-map", catalogMapHandlers.GetCatalogMap)

		// Catalog nodes
		products := api.Group("/products")
		{
			products.GET("", productHandlers.GetProducts)
			products.GET("/:id", productHandlers.GetProductByID)
			products.GET("/slug/:slug", productHandlers.GetProductBySlug)

			mutations := products.Group("")
			mutations.Use(authHandlers.AuthMiddleware())
			{
				mutations.POST("/create", productHandlers.CreateProduct)
				mutations.PUT("/:id", productHandlers.UpdateProduct)
				mutations.PUT("/:id/status", productHandlers.ChangeProductStatus)
				mutations.DELETE("/:id", authHandlers.AdminOnlyMiddleware(), productHandlers.DeleteProduct)
			}
		}

		categories := api.Group("/categories")
		{
			categories.GET("", categoryHandlers.GetCategories)
			categories.GET("/:id", categoryHandlers.GetCategoryByID)

			mutations := categories.Group("")
			mutations.Use(authHandlers.AuthMiddleware())
			{
				mutations.POST("/create", categoryHandlers.CreateCategory)
				mutations.PUT("/:id", categoryHandlers.UpdateCategory)
				mutations.DELETE("/:id", authHandlers.AdminOnlyMiddleware(), categoryHandlers.DeleteCategory)
			}
		}

		customers := api.Group("/customers")
		customers.Use(authHandlers.AuthMiddleware())
		{
			customers.GET("", customerHandlers.GetCustomers)
			customers.GET("/:id", customerHandlers.GetCustomerByID)
			customers.PUT("/:id", customerHandlers.UpdateCustomer)
			customers.DELETE("/:id", authHandlers.AdminOnlyMiddleware(), customerHandlers.DeleteCustomer)
		}

		orders := api.Group("/orders")
		orders.Use(authHandlers.AuthMiddleware())
		{
			orders.GET("", orderHandlers.GetOrders)
			orders.GET("/paid", orderHandlers.GetPaidOrders)
			orders.GET("/delivered", orderHandlers.GetDeliveredOrders)
			orders.GET("/:id", orderHandlers.GetOrderByID)
			orders.PUT("/:id/status", orderHandlers.ChangeOrderStatus)
			orders.PUT("/:id/payment", orderHandlers.ChangeOrderPayment)
			orders.DELETE("/:id", authHandlers.AdminOnlyMiddleware(), orderHandlers.DeleteOrder)
		}

		specials := api.Group("/specials")
		{
			specials.GET("", specialHandlers.GetSpecials)
			specials.GET("/:id", specialHandlers.GetSpecialByID)
			specials.GET("/slug/:slug", specialHandlers.GetSpecialBySlug)

			mutations := specials.Group("")
			mutations.Use(authHandlers.AuthMiddleware())
			{
				mutations.POST("/create", specialHandlers.CreateSpecial)
				mutations.PUT("/:id", specialHandlers.UpdateSpecial)
				mutations.DELETE("/:id", authHandlers.AdminOnlyMiddleware(), specialHandlers.DeleteSpecial)

				// Weekday schedule editing sessions
				schedule := mutations.Group("/schedule")
				{
					schedule.POST("/open", scheduleHandlers.OpenSession)
					schedule.POST("/:sessionId/toggle", scheduleHandlers.Toggle)
					schedule.POST("/:sessionId/save", scheduleHandlers.Save)
					schedule.POST("/:sessionId/refresh", scheduleHandlers.Refresh)
				}
			}
		}

		// Dashboard summary
		dashboard := api.Group("/dashboard")
		dashboard.Use(authHandlers.AuthMiddleware())
		{
			dashboard.GET("/summary", dashboardHandlers.GetSummary)
		}
	}

	return r
}
