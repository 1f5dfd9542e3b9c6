// Package tenant provides tenant context management for multi-tenant support.
package tenant

import (
	"github.com/plateful/plateful-go/internal/domain/repositories"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/manager"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/persistence/bulk"
	"github.com/plateful/plateful-go/internal/infrastructure/persistence/catalog"
	"github.com/plateful/plateful-go/internal/infrastructure/persistence/database"
)

// Context holds tenant-specific request context
type Context struct {
	TenantID     string
	Config       *Config
	Database     *Database
	Status       string
	CacheManager *manager.Manager
	Logger       *logging.ChanneledLogger
}

// Close cleans up the tenant context
func (ctx *Context) Close() error {
	if ctx.Database != nil {
		return ctx.Database.Close()
	}
	return nil
}

// GetDatabaseInfo returns database connection information for logging
func (ctx *Context) GetDatabaseInfo() string {
	if ctx.Database != nil {
		return ctx.Database.GetConnectionInfo()
	}
	return "no database connection"
}

// Repository factory methods. Each request-scoped repository shares the
// context's connection, cache manager and logger.

// ProductRepo returns a product repository instance
func (ctx *Context) ProductRepo() repositories.ProductRepository {
	return catalog.NewProductRepository(ctx.Database.Conn, ctx.CacheManager, ctx.Logger)
}

// CategoryRepo returns a category repository instance
func (ctx *Context) CategoryRepo() repositories.CategoryRepository {
	return catalog.NewCategoryRepository(ctx.Database.Conn, ctx.CacheManager, ctx.Logger)
}

// OrderRepo returns an order repository instance
func (ctx *Context) OrderRepo() repositories.OrderRepository {
	return catalog.NewOrderRepository(ctx.Database.Conn, ctx.Logger)
}

// CustomerRepo returns a customer repository instance
func (ctx *Context) CustomerRepo() repositories.CustomerRepository {
	return catalog.NewCustomerRepository(ctx.Database.Conn, ctx.CacheManager, ctx.Logger)
}

// SpecialRepo returns a special-item repository instance
func (ctx *Context) SpecialRepo() repositories.SpecialRepository {
	return catalog.NewSpecialRepository(ctx.Database.Conn, ctx.CacheManager, ctx.Logger)
}

// BulkRepo returns a bulk repository instance for cross-entity queries
func (ctx *Context) BulkRepo() bulk.BulkQueryRepository {
	db := &database.DB{DB: ctx.Database.Conn}
	return bulk.NewRepository(db, ctx.Logger)
}
