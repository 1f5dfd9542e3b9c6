// Package bulk provides efficient catalog map building via single UNION query
package bulk

import (
	"fmt"
	"time"

	"github.com/plateful/plateful-go/internal/infrastructure/caching/types"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/persistence/database"
)

// CatalogMapBuilder implements efficient catalog map construction
type CatalogMapBuilder struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewCatalogMapBuilder creates a new catalog map builder
func NewCatalogMapBuilder(db *database.DB, logger *logging.ChanneledLogger) *CatalogMapBuilder {
	return &CatalogMapBuilder{
		db:     db,
		logger: logger,
	}
}

// BuildCatalogMap executes a single UNION query to build the complete catalog
// map: one compact row per product, category, special, and customer. The
// dashboard uses it as its client-side search index.
func (cmb *CatalogMapBuilder) BuildCatalogMap(tenantID string) ([]types.FullCatalogMapItem, error) {
	start := time.Now()
	cmb.logger.Database().Debug("Starting catalog map build", "tenantID", tenantID)

	// Customers have no slug; their email is the searchable handle.
	query := `
		SELECT
			id,
			slug,
			title,
			'Product' as type
		FROM products

		UNION ALL

		SELECT
			id,
			slug,
			title,
			'Category' as type
		FROM categories

		UNION ALL

		SELECT
			id,
			slug,
			title,
			'Special' as type
		FROM specials

		UNION ALL

		SELECT
			id,
			email as slug,
			name as title,
			'Customer' as type
		FROM customers

		ORDER BY title`

	cmb.logger.Database().Debug("Executing catalog map UNION query")

	rows, err := cmb.db.Query(query)
	if err != nil {
		cmb.logger.Database().Error("Catalog map UNION query failed", "error", err.Error(), "tenantID", tenantID)
		return nil, fmt.Errorf("failed to execute catalog map query: %w", err)
	}
	defer rows.Close()

	items := make([]types.FullCatalogMapItem, 0)
	rowCount := 0
	for rows.Next() {
		var item types.FullCatalogMapItem
		if err := rows.Scan(&item.ID, &item.Slug, &item.Title, &item.Type); err != nil {
			cmb.logger.Database().Error("Failed to scan catalog map row", "error", err.Error(), "rowNumber", rowCount+1)
			return nil, fmt.Errorf("failed to scan catalog map row: %w", err)
		}
		items = append(items, item)
		rowCount++
	}

	if err := rows.Err(); err != nil {
		cmb.logger.Database().Error("Catalog map row iteration error", "error", err.Error(), "rowsProcessed", rowCount)
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	database.CheckAndLogSlowQuery(cmb.logger, "BULK_CATALOG_MAP", time.Since(start), tenantID)
	cmb.logger.Database().Info("Catalog map build completed", "tenantID", tenantID, "itemCount", len(items), "duration", time.Since(start))
	return items, nil
}
