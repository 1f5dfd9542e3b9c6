package catalog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/domain/repositories"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/interfaces"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/persistence/database"
)

const productColumns = `id, title, slug, category_id, description, price_cents, status, image_url, created, changed`

type ProductRepository struct {
	db     *sql.DB
	cache  interfaces.CatalogCache
	logger *logging.ChanneledLogger
}

func NewProductRepository(db *sql.DB, cache interfaces.CatalogCache, logger *logging.ChanneledLogger) *ProductRepository {
	return &ProductRepository{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

func (r *ProductRepository) FindByID(tenantID, id string) (*catalog.ProductNode, error) {
	if product, found := r.cache.GetProduct(tenantID, id); found {
		return product, nil
	}

	product, err := r.loadFromDB(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}

	r.cache.SetProduct(tenantID, product)
	return product, nil
}

func (r *ProductRepository) FindBySlug(tenantID, slug string) (*catalog.ProductNode, error) {
	if id, found := r.cache.GetCatalogIDBySlug(tenantID, slug); found {
		return r.FindByID(tenantID, id)
	}

	id, err := r.getIDBySlugFromDB(slug)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}

	return r.FindByID(tenantID, id)
}

// FindAll retrieves all products for a tenant, employing a cache-first strategy.
func (r *ProductRepository) FindAll(tenantID string) ([]*catalog.ProductNode, error) {
	// 1. Check cache for the master list of IDs first.
	if ids, found := r.cache.GetAllProductIDs(tenantID); found {
		return r.FindByIDs(tenantID, ids)
	}

	// 2. Cache miss: load all IDs from the database.
	ids, err := r.loadAllIDsFromDB()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*catalog.ProductNode{}, nil
	}

	// 3. Set the master ID list in the cache immediately.
	r.cache.SetAllProductIDs(tenantID, ids)

	// 4. Use the robust FindByIDs method to load the actual objects.
	return r.FindByIDs(tenantID, ids)
}

func (r *ProductRepository) FindByIDs(tenantID string, ids []string) ([]*catalog.ProductNode, error) {
	var result []*catalog.ProductNode
	var missingIDs []string

	for _, id := range ids {
		if product, found := r.cache.GetProduct(tenantID, id); found {
			result = append(result, product)
		} else {
			missingIDs = append(missingIDs, id)
		}
	}

	if len(missingIDs) > 0 {
		missingProducts, err := r.loadMultipleFromDB(missingIDs)
		if err != nil {
			return nil, err
		}

		for _, product := range missingProducts {
			r.cache.SetProduct(tenantID, product)
			result = append(result, product)
		}
	}

	return result, nil
}

// FindPage loads one filtered page of products straight from the database.
// Rows are cached on the way out so detail views hit warm entries.
func (r *ProductRepository) FindPage(tenantID string, query repositories.ProductQuery) ([]*catalog.ProductNode, int, error) {
	where, args := buildProductFilter(query)

	total, err := countRows(r.db, r.logger, `SELECT COUNT(*) FROM products`+where, args, tenantID)
	if err != nil {
		return nil, 0, err
	}

	pageQuery := `SELECT ` + productColumns + ` FROM products` + where +
		` ORDER BY created DESC, id LIMIT ? OFFSET ?`
	pageArgs := append(append([]any{}, args...), query.Limit, query.Offset())

	start := time.Now()
	r.logger.Database().Debug("Loading product page from database", "page", query.Page, "limit", query.Limit)

	rows, err := r.db.Query(pageQuery, pageArgs...)
	if err != nil {
		r.logger.Database().Error("Failed to query product page", "error", err.Error())
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*catalog.ProductNode
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		r.cache.SetProduct(tenantID, product)
		products = append(products, product)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Product page loaded from database", "count", len(products), "total", total, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, pageQuery, duration, tenantID)
	return products, total, rows.Err()
}

func (r *ProductRepository) Store(tenantID string, product *catalog.ProductNode) error {
	query := `INSERT INTO products (id, title, slug, category_id, description, price_cents, status, image_url, created, changed) 
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing product insert", "id", product.ID)

	_, err := r.db.Exec(query, product.ID, product.Title, product.Slug, product.CategoryID,
		product.Description, product.PriceCents, product.Status, product.ImageURL,
		formatTimestamp(product.Created), formatNullableTime(product.Changed))
	if err != nil {
		r.logger.Database().Error("Product insert failed", "error", err.Error(), "id", product.ID)
		return fmt.Errorf("failed to insert product: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Product insert completed", "id", product.ID, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, tenantID)

	r.cache.SetProduct(tenantID, product)
	r.cache.AddProductID(tenantID, product.ID)
	r.cache.InvalidateFullCatalogMap(tenantID)
	return nil
}

func (r *ProductRepository) Update(tenantID string, product *catalog.ProductNode) error {
	query := `UPDATE products SET title = ?, slug = ?, category_id = ?, description = ?, 
              price_cents = ?, status = ?, image_url = ?, changed = ? WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing product update", "id", product.ID)

	_, err := r.db.Exec(query, product.Title, product.Slug, product.CategoryID,
		product.Description, product.PriceCents, product.Status, product.ImageURL,
		formatNullableTime(product.Changed), product.ID)
	if err != nil {
		r.logger.Database().Error("Product update failed", "error", err.Error(), "id", product.ID)
		return fmt.Errorf("failed to update product: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Product update completed", "id", product.ID, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, tenantID)

	r.cache.SetProduct(tenantID, product)
	r.cache.InvalidateFullCatalogMap(tenantID)
	return nil
}

// UpdateStatus flips only the product status. The cached node is replaced
// with an updated copy so the master ID list stays intact.
func (r *ProductRepository) UpdateStatus(tenantID, id, status string) error {
	query := `UPDATE products SET status = ?, changed = ? WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing product status update", "id", id, "status", status)

	now := time.Now().UTC()
	result, err := r.db.Exec(query, status, formatTimestamp(now), id)
	if err != nil {
		r.logger.Database().Error("Product status update failed", "error", err.Error(), "id", id)
		return fmt.Errorf("failed to update product status: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("product %s not found", id)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Product status update completed", "id", id, "status", status, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, tenantID)

	if product, found := r.cache.GetProduct(tenantID, id); found {
		updated := *product
		updated.Status = status
		updated.Changed = &now
		r.cache.SetProduct(tenantID, &updated)
	}
	return nil
}

func (r *ProductRepository) Delete(tenantID, id string) error {
	query := `DELETE FROM products WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing product delete", "id", id)

	_, err := r.db.Exec(query, id)
	if err != nil {
		r.logger.Database().Error("Product delete failed", "error", err.Error(), "id", id)
		return fmt.Errorf("failed to delete product: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Product delete completed", "id", id, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, tenantID)

	r.cache.InvalidateProduct(tenantID, id)
	return nil
}

func buildProductFilter(query repositories.ProductQuery) (string, []any) {
	var clauses []string
	var args []any

	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		clauses = append(clauses, "(title LIKE ? OR slug LIKE ?)")
		args = append(args, pattern, pattern)
	}
	if query.CategoryID != "" {
		clauses = append(clauses, "category_id = ?")
		args = append(args, query.CategoryID)
	}
	if query.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, query.Status)
	}
	if query.MinPriceCents > 0 {
		clauses = append(clauses, "price_cents >= ?")
		args = append(args, query.MinPriceCents)
	}
	if query.MaxPriceCents > 0 {
		clauses = append(clauses, "price_cents <= ?")
		args = append(args, query.MaxPriceCents)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanProduct(s rowScanner) (*catalog.ProductNode, error) {
	var product catalog.ProductNode
	var categoryID, description, imageURL, changed sql.NullString
	var createdStr string

	err := s.Scan(&product.ID, &product.Title, &product.Slug, &categoryID, &description,
		&product.PriceCents, &product.Status, &imageURL, &createdStr, &changed)
	if err != nil {
		return nil, err
	}

	product.CategoryID = nullableString(categoryID)
	product.Description = nullableString(description)
	product.ImageURL = nullableString(imageURL)
	if created, err := parseTimestamp(createdStr); err == nil {
		product.Created = created
	}
	product.Changed = nullableTime(changed)
	product.NodeType = "Product"

	return &product, nil
}

func (r *ProductRepository) loadFromDB(id string) (*catalog.ProductNode, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading product from database", "id", id)

	product, err := scanProduct(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to scan product", "error", err.Error(), "id", id)
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Product loaded from database", "id", id, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "system")
	return product, nil
}

func (r *ProductRepository) loadMultipleFromDB(ids []string) ([]*catalog.ProductNode, error) {
	if len(ids) == 0 {
		return []*catalog.ProductNode{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id IN (` + strings.Join(placeholders, ",") + `)`

	start := time.Now()
	r.logger.Database().Debug("Loading multiple products from database", "count", len(ids))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Database().Error("Failed to query multiple products", "error", err.Error(), "count", len(ids))
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*catalog.ProductNode
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Multiple products loaded from database", "requested", len(ids), "loaded", len(products), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "system")
	return products, rows.Err()
}

func (r *ProductRepository) loadAllIDsFromDB() ([]string, error) {
	query := `SELECT id FROM products ORDER BY title`

	start := time.Now()
	r.logger.Database().Debug("Loading all product IDs from database")

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Database().Error("Failed to query product IDs", "error", err.Error())
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var productIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan product ID: %w", err)
		}
		productIDs = append(productIDs, id)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Loaded product IDs from database", "count", len(productIDs), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "system")
	return productIDs, rows.Err()
}

func (r *ProductRepository) getIDBySlugFromDB(slug string) (string, error) {
	query := `SELECT id FROM products WHERE slug = ? LIMIT 1`

	start := time.Now()
	r.logger.Database().Debug("Loading product ID by slug from database", "slug", slug)

	var id string
	err := r.db.QueryRow(query, slug).Scan(&id)
	if err == sql.ErrNoRows {
		r.logger.Database().Debug("Product not found by slug", "slug", slug)
		return "", nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to query product by slug", "error", err.Error(), "slug", slug)
		return "", fmt.Errorf("failed to query product by slug: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Product ID loaded by slug", "slug", slug, "id", id, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "system")
	return id, nil
}
