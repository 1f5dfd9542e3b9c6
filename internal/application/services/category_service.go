// Package services provides application-level orchestration services
package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/infrastructure/messaging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/security"
	"github.com/plateful/plateful-go/internal/infrastructure/tenant"
)

// CategoryService orchestrates menu category operations. Categories are a
// small, weight-ordered list so there is no paged variant.
type CategoryService struct {
	logger      *logging.ChanneledLogger
	broadcaster messaging.Broadcaster
}

// NewCategoryService creates a new category service singleton
func NewCategoryService(logger *logging.ChanneledLogger, broadcaster messaging.Broadcaster) *CategoryService {
	return &CategoryService{
		logger:      logger,
		broadcaster: broadcaster,
	}
}

// GetByID returns a category by ID (cache-first via repository)
func (s *CategoryService) GetByID(tenantCtx *tenant.Context, id string) (*catalog.CategoryNode, error) {
	start := time.Now()
	if id == "" {
		return nil, fmt.Errorf("category ID cannot be empty")
	}

	categoryRepo := tenantCtx.CategoryRepo()
	category, err := categoryRepo.FindByID(tenantCtx.TenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get category %s: %w", id, err)
	}

	s.logger.Catalog().Info("Successfully retrieved category by ID", "tenantId", tenantCtx.TenantID, "categoryId", id, "found", category != nil, "duration", time.Since(start))

	return category, nil
}

// GetAll returns every category, ordered by weight then title
func (s *CategoryService) GetAll(tenantCtx *tenant.Context) ([]*catalog.CategoryNode, error) {
	start := time.Now()

	categoryRepo := tenantCtx.CategoryRepo()
	categories, err := categoryRepo.FindAll(tenantCtx.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}

	// The cache master list is ID-keyed, so ordering is restored here.
	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].Weight != categories[j].Weight {
			return categories[i].Weight < categories[j].Weight
		}
		return categories[i].Title < categories[j].Title
	})

	s.logger.Catalog().Info("Successfully retrieved all categories", "tenantId", tenantCtx.TenantID, "count", len(categories), "duration", time.Since(start))

	return categories, nil
}

// Create creates a new category
func (s *CategoryService) Create(tenantCtx *tenant.Context, category *catalog.CategoryNode) error {
	start := time.Now()
	if category == nil {
		return fmt.Errorf("category cannot be nil")
	}
	if category.Title == "" {
		return fmt.Errorf("category title cannot be empty")
	}
	if category.Slug == "" {
		return fmt.Errorf("category slug cannot be empty")
	}
	if category.ID == "" {
		category.ID = security.GenerateULID()
	}
	category.NodeType = "Category"

	categoryRepo := tenantCtx.CategoryRepo()
	if err := categoryRepo.Store(tenantCtx.TenantID, category); err != nil {
		return fmt.Errorf("failed to create category %s: %w", category.ID, err)
	}

	s.broadcaster.BroadcastCatalogEvent(tenantCtx.TenantID, messaging.CatalogEvent{
		Kind:   "category",
		ID:     category.ID,
		Action: "created",
		At:     time.Now().UTC(),
	})

	s.logger.Catalog().Info("Successfully created category", "tenantId", tenantCtx.TenantID, "categoryId", category.ID, "title", category.Title, "duration", time.Since(start))

	return nil
}

// Update updates an existing category
func (s *CategoryService) Update(tenantCtx *tenant.Context, category *catalog.CategoryNode) error {
	start := time.Now()
	if category == nil {
		return fmt.Errorf("category cannot be nil")
	}
	if category.ID == "" {
		return fmt.Errorf("category ID cannot be empty")
	}
	if category.Title == "" {
		return fmt.Errorf("category title cannot be empty")
	}
	if category.Slug == "" {
		return fmt.Errorf("category slug cannot be empty")
	}
	category.NodeType = "Category"

	categoryRepo := tenantCtx.CategoryRepo()

	existing, err := categoryRepo.FindByID(tenantCtx.TenantID, category.ID)
	if err != nil {
		return fmt.Errorf("failed to verify category %s exists: %w", category.ID, err)
	}
	if existing == nil {
		return fmt.Errorf("category %s not found", category.ID)
	}

	if err := categoryRepo.Update(tenantCtx.TenantID, category); err != nil {
		return fmt.Errorf("failed to update category %s: %w", category.ID, err)
	}

	s.broadcaster.BroadcastCatalogEvent(tenantCtx.TenantID, messaging.CatalogEvent{
		Kind:   "category",
		ID:     category.ID,
		Action: "updated",
		At:     time.Now().UTC(),
	})

	s.logger.Catalog().Info("Successfully updated category", "tenantId", tenantCtx.TenantID, "categoryId", category.ID, "title", category.Title, "duration", time.Since(start))

	return nil
}

// Delete deletes a category. Products referencing it keep their dangling
// category ID and render uncategorized.
func (s *CategoryService) Delete(tenantCtx *tenant.Context, id string) error {
	start := time.Now()
	if id == "" {
		return fmt.Errorf("category ID cannot be empty")
	}

	categoryRepo := tenantCtx.CategoryRepo()

	existing, err := categoryRepo.FindByID(tenantCtx.TenantID, id)
	if err != nil {
		return fmt.Errorf("failed to verify category %s exists: %w", id, err)
	}
	if existing == nil {
		return fmt.Errorf("category %s not found", id)
	}

	if err := categoryRepo.Delete(tenantCtx.TenantID, id); err != nil {
		return fmt.Errorf("failed to delete category %s: %w", id, err)
	}

	s.broadcaster.BroadcastCatalogEvent(tenantCtx.TenantID, messaging.CatalogEvent{
		Kind:   "category",
		ID:     id,
		Action: "deleted",
		At:     time.Now().UTC(),
	})

	s.logger.Catalog().Info("Successfully deleted category", "tenantId", tenantCtx.TenantID, "categoryId", id, "duration", time.Since(start))

	return nil
}
