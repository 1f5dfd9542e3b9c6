// Package services provides application-level services that orchestrate
// business logic and coordinate between repositories and domain entities.
package services

import (
	"fmt"
	"time"

	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/domain/repositories"
	"github.com/plateful/plateful-go/internal/infrastructure/messaging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/security"
	"github.com/plateful/plateful-go/internal/infrastructure/tenant"
)

// ProductService orchestrates product operations with cache-first repository pattern
type ProductService struct {
	logger      *logging.ChanneledLogger
	broadcaster messaging.Broadcaster
}

// NewProductService creates a new product service singleton
func NewProductService(logger *logging.ChanneledLogger, broadcaster messaging.Broadcaster) *ProductService {
	return &ProductService{
		logger:      logger,
		broadcaster: broadcaster,
	}
}

// GetByID returns a product by ID (cache-first via repository)
func (s *ProductService) GetByID(tenantCtx *tenant.Context, id string) (*catalog.ProductNode, error) {
	start := time.Now()
	if id == "" {
		return nil, fmt.Errorf("product ID cannot be empty")
	}

	productRepo := tenantCtx.ProductRepo()
	product, err := productRepo.FindByID(tenantCtx.TenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}

	s.logger.Catalog().Info("Successfully retrieved product by ID", "tenantId", tenantCtx.TenantID, "productId", id, "found", product != nil, "duration", time.Since(start))

	return product, nil
}

// GetBySlug returns a product by slug (cache-first via repository)
func (s *ProductService) GetBySlug(tenantCtx *tenant.Context, slug string) (*catalog.ProductNode, error) {
	start := time.Now()
	if slug == "" {
		return nil, fmt.Errorf("product slug cannot be empty")
	}

	productRepo := tenantCtx.ProductRepo()
	product, err := productRepo.FindBySlug(tenantCtx.TenantID, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get product by slug %s: %w", slug, err)
	}

	s.logger.Catalog().Info("Successfully retrieved product by slug", "tenantId", tenantCtx.TenantID, "slug", slug, "found", product != nil, "duration", time.Since(start))

	return product, nil
}

// GetPage returns one filtered page of products plus the unfiltered-total for
// the envelope.
func (s *ProductService) GetPage(tenantCtx *tenant.Context, query repositories.ProductQuery) ([]*catalog.ProductNode, int, error) {
	start := time.Now()
	query.Normalize()

	if query.Status != "" && !catalog.ValidProductStatus(query.Status) {
		return nil, 0, fmt.Errorf("%w: unknown product status %q", ErrInvalidFilter, query.Status)
	}

	productRepo := tenantCtx.ProductRepo()
	products, total, err := productRepo.FindPage(tenantCtx.TenantID, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get product page: %w", err)
	}

	s.logger.Catalog().Info("Successfully retrieved product page", "tenantId", tenantCtx.TenantID, "page", query.Page, "count", len(products), "total", total, "duration", time.Since(start))

	return products, total, nil
}

// Create creates a new product
func (s *ProductService) Create(tenantCtx *tenant.Context, product *catalog.ProductNode) error {
	start := time.Now()
	if product == nil {
		return fmt.Errorf("product cannot be nil")
	}
	if product.Title == "" {
		return fmt.Errorf("product title cannot be empty")
	}
	if product.Slug == "" {
		return fmt.Errorf("product slug cannot be empty")
	}
	if product.PriceCents < 0 {
		return fmt.Errorf("product price cannot be negative")
	}
	if product.Status == "" {
		product.Status = catalog.ProductActive
	}
	if !catalog.ValidProductStatus(product.Status) {
		return fmt.Errorf("unknown product status %q", product.Status)
	}
	if product.ID == "" {
		product.ID = security.GenerateULID()
	}
	if product.Created.IsZero() {
		product.Created = time.Now().UTC()
	}
	product.NodeType = "Product"

	productRepo := tenantCtx.ProductRepo()
	if err := productRepo.Store(tenantCtx.TenantID, product); err != nil {
		return fmt.Errorf("failed to create product %s: %w", product.ID, err)
	}

	tenantCtx.CacheManager.InvalidateDashboard(tenantCtx.TenantID)
	s.broadcaster.BroadcastCatalogEvent(tenantCtx.TenantID, messaging.CatalogEvent{
		Kind:   "product",
		ID:     product.ID,
		Action: "created",
		At:     time.Now().UTC(),
	})

	s.logger.Catalog().Info("Successfully created product", "tenantId", tenantCtx.TenantID, "productId", product.ID, "title", product.Title, "slug", product.Slug, "duration", time.Since(start))

	return nil
}

// Update updates an existing product
func (s *ProductService) Update(tenantCtx *tenant.Context, product *catalog.ProductNode) error {
	start := time.Now()
	if product == nil {
		return fmt.Errorf("product cannot be nil")
	}
	if product.ID == "" {
		return fmt.Errorf("product ID cannot be empty")
	}
	if product.Title == "" {
		return fmt.Errorf("product title cannot be empty")
	}
	if product.Slug == "" {
		return fmt.Errorf("product slug cannot be empty")
	}
	if product.PriceCents < 0 {
		return fmt.Errorf("product price cannot be negative")
	}
	if !catalog.ValidProductStatus(product.Status) {
		return fmt.Errorf("unknown product status %q", product.Status)
	}

	productRepo := tenantCtx.ProductRepo()

	existing, err := productRepo.FindByID(tenantCtx.TenantID, product.ID)
	if err != nil {
		return fmt.Errorf("failed to verify product %s exists: %w", product.ID, err)
	}
	if existing == nil {
		return fmt.Errorf("product %s not found", product.ID)
	}

	// The update payload carries only editable fields; created is immutable
	// and must survive into the cached copy.
	product.Created = existing.Created
	product.NodeType = "Product"
	now := time.Now().UTC()
	product.Changed = &now

	if err := productRepo.Update(tenantCtx.TenantID, product); err != nil {
		return fmt.Errorf("failed to update product %s: %w", product.ID, err)
	}

	tenantCtx.CacheManager.InvalidateDashboard(tenantCtx.TenantID)
	s.broadcaster.BroadcastCatalogEvent(tenantCtx.TenantID, messaging.CatalogEvent{
		Kind:   "product",
		ID:     product.ID,
		Action: "updated",
		At:     now,
	})

	s.logger.Catalog().Info("Successfully updated product", "tenantId", tenantCtx.TenantID, "productId", product.ID, "title", product.Title, "slug", product.Slug, "duration", time.Since(start))

	return nil
}

// ChangeStatus flips a product between active, inactive, and out_of_stock
func (s *ProductService) ChangeStatus(tenantCtx *tenant.Context, id, status string) error {
	start := time.Now()
	if id == "" {
		return fmt.Errorf("product ID cannot be empty")
	}
	if !catalog.ValidProductStatus(status) {
		return fmt.Errorf("unknown product status %q", status)
	}

	productRepo := tenantCtx.ProductRepo()
	if err := productRepo.UpdateStatus(tenantCtx.TenantID, id, status); err != nil {
		return fmt.Errorf("failed to change product %s status: %w", id, err)
	}

	tenantCtx.CacheManager.InvalidateDashboard(tenantCtx.TenantID)
	s.broadcaster.BroadcastCatalogEvent(tenantCtx.TenantID, messaging.CatalogEvent{
		Kind:   "product",
		ID:     id,
		Action: "updated",
		At:     time.Now().UTC(),
	})

	s.logger.Catalog().Info("Successfully changed product status", "tenantId", tenantCtx.TenantID, "productId", id, "status", status, "duration", time.Since(start))

	return nil
}

// Delete deletes a product
func (s *ProductService) Delete(tenantCtx *tenant.Context, id string) error {
	start := time.Now()
	if id == "" {
		return fmt.Errorf("product ID cannot be empty")
	}

	productRepo := tenantCtx.ProductRepo()

	existing, err := productRepo.FindByID(tenantCtx.TenantID, id)
	if err != nil {
		return fmt.Errorf("failed to verify product %s exists: %w", id, err)
	}
	if existing == nil {
		return fmt.Errorf("product %s not found", id)
	}

	if err := productRepo.Delete(tenantCtx.TenantID, id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}

	tenantCtx.CacheManager.InvalidateDashboard(tenantCtx.TenantID)
	s.broadcaster.BroadcastCatalogEvent(tenantCtx.TenantID, messaging.CatalogEvent{
		Kind:   "product",
		ID:     id,
		Action: "deleted",
		At:     time.Now().UTC(),
	})

	s.logger.Catalog().Info("Successfully deleted product", "tenantId", tenantCtx.TenantID, "productId", id, "duration", time.Since(start))

	return nil
}
