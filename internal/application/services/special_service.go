// Package services provides application-level orchestration services
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

// SpecialService orchestrates special menu item operations. Schedule day
// codes on writes are normalized against the weekday vocabulary; unknown
// codes are dropped rather than rejected.
type SpecialService struct {
	logger      *logging.ChanneledLogger
	broadcaster messaging.Broadcaster
	schedules   *ScheduleService
}

// NewSpecialService creates a new special service singleton
func NewSpecialService(logger *logging.ChanneledLogger, broadcaster messaging.Broadcaster, schedules *ScheduleService) *SpecialService {
	return &SpecialService{
		logger:      logger,
		broadcaster: broadcaster,
		schedules:   schedules,
	}
}

// GetByID returns a special by ID (cache-first via repository)
func (s *SpecialService) GetByID(tenantCtx *tenant.Context, id string) (*catalog.SpecialNode, error) {
	start := time.Now()
	if id == "" {
		return nil, fmt.Errorf("special ID cannot be empty")
	}

	specialRepo := tenantCtx.SpecialRepo()
	special, err := specialRepo.FindByID(tenantCtx.TenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get special %s: %w", id, err)
	}

	s.logger.Catalog().Info("Successfully retrieved special by ID", "tenantId", tenantCtx.TenantID, "specialId", id, "found", special != nil, "duration", time.Since(start))

	return special, nil
}

// GetBySlug returns a special by slug (cache-first via repository)
func (s *SpecialService) GetBySlug(tenantCtx *tenant.Context, slug string) (*catalog.SpecialNode, error) {
	start := time.Now()
	if slug == "" {
		return nil, fmt.Errorf("special slug cannot be empty")
	}

	specialRepo := tenantCtx.SpecialRepo()
	special, err := specialRepo.FindBySlug(tenantCtx.TenantID, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get special by slug %s: %w", slug, err)
	}

	s.logger.Catalog().Info("Successfully retrieved special by slug", "tenantId", tenantCtx.TenantID, "slug", slug, "found", special != nil, "duration", time.Since(start))

	return special, nil
}

// GetPage returns one filtered page of specials plus the matching total
func (s *SpecialService) GetPage(tenantCtx *tenant.Context, query repositories.SpecialQuery) ([]*catalog.SpecialNode, int, error) {
	start := time.Now()
	query.Normalize()

	specialRepo := tenantCtx.SpecialRepo()
	specials, total, err := specialRepo.FindPage(tenantCtx.TenantID, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get special page: %w", err)
	}

	s.logger.Catalog().Info("Successfully retrieved special page", "tenantId", tenantCtx.TenantID, "page", query.Page, "count", len(specials), "total", total, "duration", time.Since(start))

	return specials, total, nil
}

// Create creates a new special
func (s *SpecialService) Create(tenantCtx *tenant.Context, special *catalog.SpecialNode) error {
	start := time.Now()
	if special == nil {
		return fmt.Errorf("special cannot be nil")
	}
	if special.Title == "" {
		return fmt.Errorf("special title cannot be empty")
	}
	if special.Slug == "" {
		return fmt.Errorf("special slug cannot be empty")
	}
	if special.PriceCents < 0 {
		return fmt.Errorf("special price cannot be negative")
	}
	if special.ID == "" {
		special.ID = security.GenerateULID()
	}
	if special.Created.IsZero() {
		special.Created = time.Now().UTC()
	}
	special.NodeType = "Special"
	special.Days = s.normalizeDays(tenantCtx.TenantID, special.ID, special.Days)

	specialRepo := tenantCtx.SpecialRepo()
	if err := specialRepo.Store(tenantCtx.TenantID, special); err != nil {
		return fmt.Errorf("failed to create special %s: %w", special.ID, err)
	}

	tenantCtx.CacheManager.InvalidateDashboard(tenantCtx.TenantID)
	s.broadcaster.BroadcastCatalogEvent(tenantCtx.TenantID, messaging.CatalogEvent{
		Kind:   "special",
		ID:     special.ID,
		Action: "created",
		At:     time.Now().UTC(),
	})

	s.logger.Catalog().Info("Successfully created special", "tenantId", tenantCtx.TenantID, "specialId", special.ID, "title", special.Title, "duration", time.Since(start))

	return nil
}

// Update updates an existing special
func (s *SpecialService) Update(tenantCtx *tenant.Context, special *catalog.SpecialNode) error {
	start := time.Now()
	if special == nil {
		return fmt.Errorf("special cannot be nil")
	}
	if special.ID == "" {
		return fmt.Errorf("special ID cannot be empty")
	}
	if special.Title == "" {
		return fmt.Errorf("special title cannot be empty")
	}
	if special.Slug == "" {
		return fmt.Errorf("special slug cannot be empty")
	}
	if special.PriceCents < 0 {
		return fmt.Errorf("special price cannot be negative")
	}

	specialRepo := tenantCtx.SpecialRepo()

	existing, err := specialRepo.FindByID(tenantCtx.TenantID, special.ID)
	if err != nil {
		return fmt.Errorf("failed to verify special %s exists: %w", special.ID, err)
	}
	if existing == nil {
		return fmt.Errorf("special %s not found", special.ID)
	}

	special.Created = existing.Created
	special.NodeType = "Special"
	special.Days = s.normalizeDays(tenantCtx.TenantID, special.ID, special.Days)
	now := time.Now().UTC()
	special.Changed = &now

	if err := specialRepo.Update(tenantCtx.TenantID, special); err != nil {
		return fmt.Errorf("failed to update special %s: %w", special.ID, err)
	}

	tenantCtx.CacheManager.InvalidateDashboard(tenantCtx.TenantID)
	s.broadcaster.BroadcastCatalogEvent(tenantCtx.TenantID, messaging.CatalogEvent{
		Kind:   "special",
		ID:     special.ID,
		Action: "updated",
		At:     now,
	})

	s.logger.Catalog().Info("Successfully updated special", "tenantId", tenantCtx.TenantID, "specialId", special.ID, "title", special.Title, "duration", time.Since(start))

	return nil
}

// Delete deletes a special, then reseeds any open schedule sessions so no
// engine keeps a draft for the vanished row.
func (s *SpecialService) Delete(tenantCtx *tenant.Context, id string) error {
	start := time.Now()
	if id == "" {
		return fmt.Errorf("special ID cannot be empty")
	}

	specialRepo := tenantCtx.SpecialRepo()

	existing, err := specialRepo.FindByID(tenantCtx.TenantID, id)
	if err != nil {
		return fmt.Errorf("failed to verify special %s exists: %w", id, err)
	}
	if existing == nil {
		return fmt.Errorf("special %s not found", id)
	}

	if err := specialRepo.Delete(tenantCtx.TenantID, id); err != nil {
		return fmt.Errorf("failed to delete special %s: %w", id, err)
	}

	s.schedules.ReseedOpenSessions(tenantCtx)

	tenantCtx.CacheManager.InvalidateDashboard(tenantCtx.TenantID)
	s.broadcaster.BroadcastCatalogEvent(tenantCtx.TenantID, messaging.CatalogEvent{
		Kind:   "special",
		ID:     id,
		Action: "deleted",
		At:     time.Now().UTC(),
	})

	s.logger.Catalog().Info("Successfully deleted special", "tenantId", tenantCtx.TenantID, "specialId", id, "duration", time.Since(start))

	return nil
}

// normalizeDays drops day codes outside the weekday vocabulary and returns
// the kept codes in weekday order.
func (s *SpecialService) normalizeDays(tenantID, specialID string, days []string) []string {
	kept, discarded := scheduleDays.Normalize(days)
	if discarded > 0 {
		s.logger.Catalog().Debug("Dropped unknown day codes on special write", "tenantId", tenantID, "specialId", specialID, "discarded", discarded)
	}
	return scheduleDays.Order(kept)
}
