package catalog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/interfaces"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/persistence/database"
)

type CategoryRepository struct {
	db     *sql.DB
	cache  interfaces.CatalogCache
	logger *logging.ChanneledLogger
}

func NewCategoryRepository(db *sql.DB, cache interfaces.CatalogCache, logger *logging.ChanneledLogger) *CategoryRepository {
	return &CategoryRepository{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

func (r *CategoryRepository) FindByID(tenantID, id string) (*catalog.CategoryNode, error) {
	if category, found := r.cache.GetCategory(tenantID, id); found {
		return category, nil
	}

	category, err := r.loadFromDB(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, nil
	}

	r.cache.SetCategory(tenantID, category)
	return category, nil
}

// FindAll retrieves all categories for a tenant in menu display order.
func (r *CategoryRepository) FindAll(tenantID string) ([]*catalog.CategoryNode, error) {
	if ids, found := r.cache.GetAllCategoryIDs(tenantID); found {
		return r.findByIDs(tenantID, ids)
	}

	ids, err := r.loadAllIDsFromDB()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*catalog.CategoryNode{}, nil
	}

	r.cache.SetAllCategoryIDs(tenantID, ids)
	return r.findByIDs(tenantID, ids)
}

func (r *CategoryRepository) findByIDs(tenantID string, ids []string) ([]*catalog.CategoryNode, error) {
	var result []*catalog.CategoryNode
	var missingIDs []string

	for _, id := range ids {
		if category, found := r.cache.GetCategory(tenantID, id); found {
			result = append(result, category)
		} else {
			missingIDs = append(missingIDs, id)
		}
	}

	if len(missingIDs) > 0 {
		missingCategories, err := r.loadMultipleFromDB(missingIDs)
		if err != nil {
			return nil, err
		}

		for _, category := range missingCategories {
			r.cache.SetCategory(tenantID, category)
			result = append(result, category)
		}
	}

	return result, nil
}

func (r *CategoryRepository) Store(tenantID string, category *catalog.CategoryNode) error {
	query := `INSERT INTO categories (id, title, slug, weight) VALUES (?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing category insert", "id", category.ID)

	_, err := r.db.Exec(query, category.ID, category.Title, category.Slug, category.Weight)
	if err != nil {
		r.logger.Database().Error("Category insert failed", "error", err.Error(), "id", category.ID)
		return fmt.Errorf("failed to insert category: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Category insert completed", "id", category.ID, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, tenantID)

	r.cache.SetCategory(tenantID, category)
	r.cache.AddCategoryID(tenantID, category.ID)
	r.cache.InvalidateFullCatalogMap(tenantID)
	return nil
}

func (r *CategoryRepository) Update(tenantID string, category *catalog.CategoryNode) error {
	query := `UPDATE categories SET title = ?, slug = ?, weight = ? WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing category update", "id", category.ID)

	_, err := r.db.Exec(query, category.Title, category.Slug, category.Weight, category.ID)
	if err != nil {
		r.logger.Database().Error("Category update failed", "error", err.Error(), "id", category.ID)
		return fmt.Errorf("failed to update category: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Category update completed", "id", category.ID, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, tenantID)

	r.cache.SetCategory(tenantID, category)
	r.cache.InvalidateFullCatalogMap(tenantID)
	return nil
}

func (r *CategoryRepository) Delete(tenantID, id string) error {
	query := `DELETE FROM categories WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing category delete", "id", id)

	_, err := r.db.Exec(query, id)
	if err != nil {
		r.logger.Database().Error("Category delete failed", "error", err.Error(), "id", id)
		return fmt.Errorf("failed to delete category: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Category delete completed", "id", id, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, tenantID)

	r.cache.InvalidateCategory(tenantID, id)
	return nil
}

func scanCategory(s rowScanner) (*catalog.CategoryNode, error) {
	var category catalog.CategoryNode

	err := s.Scan(&category.ID, &category.Title, &category.Slug, &category.Weight)
	if err != nil {
		return nil, err
	}

	category.NodeType = "Category"
	return &category, nil
}

func (r *CategoryRepository) loadFromDB(id string) (*catalog.CategoryNode, error) {
	query := `SELECT id, title, slug, weight FROM categories WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading category from database", "id", id)

	category, err := scanCategory(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to scan category", "error", err.Error(), "id", id)
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Category loaded from database", "id", id, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "system")
	return category, nil
}

func (r *CategoryRepository) loadMultipleFromDB(ids []string) ([]*catalog.CategoryNode, error) {
	if len(ids) == 0 {
		return []*catalog.CategoryNode{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `SELECT id, title, slug, weight FROM categories WHERE id IN (` + strings.Join(placeholders, ",") + `)`

	start := time.Now()
	r.logger.Database().Debug("Loading multiple categories from database", "count", len(ids))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Database().Error("Failed to query multiple categories", "error", err.Error(), "count", len(ids))
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*catalog.CategoryNode
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Multiple categories loaded from database", "requested", len(ids), "loaded", len(categories), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "system")
	return categories, rows.Err()
}

func (r *CategoryRepository) loadAllIDsFromDB() ([]string, error) {
	query := `SELECT id FROM categories ORDER BY weight, title`

	start := time.Now()
	r.logger.Database().Debug("Loading all category IDs from database")

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Database().Error("Failed to query category IDs", "error", err.Error())
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categoryIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan category ID: %w", err)
		}
		categoryIDs = append(categoryIDs, id)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Loaded category IDs from database", "count", len(categoryIDs), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "system")
	return categoryIDs, rows.Err()
}
