package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/domain/repositories"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/interfaces"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/persistence/database"
)

const specialColumns = `id, title, slug, product_id, description, price_cents, active, days, created, changed`

type SpecialRepository struct {
	db     *sql.DB
	cache  interfaces.CatalogCache
	logger *logging.ChanneledLogger
}

func NewSpecialRepository(db *sql.DB, cache interfaces.CatalogCache, logger *logging.ChanneledLogger) *SpecialRepository {
	return &SpecialRepository{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

func (r *SpecialRepository) FindByID(tenantID, id string) (*catalog.SpecialNode, error) {
	if special, found := r.cache.GetSpecial(tenantID, id); found {
		return special, nil
	}

	special, err := r.loadFromDB(id)
	if err != nil {
		return nil, err
	}
	if special == nil {
		return nil, nil
	}

	r.cache.SetSpecial(tenantID, special)
	return special, nil
}

func (r *SpecialRepository) FindBySlug(tenantID, slug string) (*catalog.SpecialNode, error) {
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

// FindAll retrieves all specials for a tenant, employing a cache-first strategy.
func (r *SpecialRepository) FindAll(tenantID string) ([]*catalog.SpecialNode, error) {
	if ids, found := r.cache.GetAllSpecialIDs(tenantID); found {
		return r.findByIDs(tenantID, ids)
	}

	ids, err := r.loadAllIDsFromDB()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*catalog.SpecialNode{}, nil
	}

	r.cache.SetAllSpecialIDs(tenantID, ids)
	return r.findByIDs(tenantID, ids)
}

func (r *SpecialRepository) findByIDs(tenantID string, ids []string) ([]*catalog.SpecialNode, error) {
	var result []*catalog.SpecialNode
	var missingIDs []string

	for _, id := range ids {
		if special, found := r.cache.GetSpecial(tenantID, id); found {
			result = append(result, special)
		} else {
			missingIDs = append(missingIDs, id)
		}
	}

	if len(missingIDs) > 0 {
		missingSpecials, err := r.loadMultipleFromDB(missingIDs)
		if err != nil {
			return nil, err
		}

		for _, special := range missingSpecials {
			r.cache.SetSpecial(tenantID, special)
			result = append(result, special)
		}
	}

	return result, nil
}

// FindPage loads one filtered page of specials straight from the database.
func (r *SpecialRepository) FindPage(tenantID string, query repositories.SpecialQuery) ([]*catalog.SpecialNode, int, error) {
	where, args := buildSpecialFilter(query)

	total, err := countRows(r.db, r.logger, `SELECT COUNT(*) FROM specials`+where, args, tenantID)
	if err != nil {
		return nil, 0, err
	}

	pageQuery := `SELECT ` + specialColumns + ` FROM specials` + where +
		` ORDER BY created DESC, id LIMIT ? OFFSET ?`
	pageArgs := append(append([]any{}, args...), query.Limit, query.Offset())

	start := time.Now()
	r.logger.Database().Debug("Loading special page from database", "page", query.Page, "limit", query.Limit)

	rows, err := r.db.Query(pageQuery, pageArgs...)
	if err != nil {
		r.logger.Database().Error("Failed to query special page", "error", err.Error())
		return nil, 0, fmt.Errorf("failed to query specials: %w", err)
	}
	defer rows.Close()

	var specials []*catalog.SpecialNode
	for rows.Next() {
		special, err := scanSpecial(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan special: %w", err)
		}
		r.cache.SetSpecial(tenantID, special)
		specials = append(specials, special)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Special page loaded from database", "count", len(specials), "total", total, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, pageQuery, duration, tenantID)
	return specials, total, rows.Err()
}

func (r *SpecialRepository) Store(tenantID string, special *catalog.SpecialNode) error {
	query := `INSERT INTO specials (id, title, slug, product_id, description, price_cents, active, days, created, changed) 
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing special insert", "id", special.ID)

	_, err := r.db.Exec(query, special.ID, special.Title, special.Slug, special.ProductID,
		special.Description, special.PriceCents, special.Active, marshalDays(special.Days),
		formatTimestamp(special.Created), formatNullableTime(special.Changed))
	if err != nil {
		r.logger.Database().Error("Special insert failed", "error", err.Error(), "id", special.ID)
		return fmt.Errorf("failed to insert special: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Special insert completed", "id", special.ID, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, tenantID)

	r.cache.SetSpecial(tenantID, special)
	r.cache.AddSpecialID(tenantID, special.ID)
	r.cache.InvalidateFullCatalogMap(tenantID)
	return nil
}

func (r *SpecialRepository) Update(tenantID string, special *catalog.SpecialNode) error {
	query := `UPDATE specials SET title = ?, slug = ?, product_id = ?, description = ?, 
              price_cents = ?, active = ?, days = ?, changed = ? WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing special update", "id", special.ID)

	_, err := r.db.Exec(query, special.Title, special.Slug, special.ProductID,
		special.Description, special.PriceCents, special.Active, marshalDays(special.Days),
		formatNullableTime(special.Changed), special.ID)
	if err != nil {
		r.logger.Database().Error("Special update failed", "error", err.Error(), "id", special.ID)
		return fmt.Errorf("failed to update special: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Special update completed", "id", special.ID, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, tenantID)

	r.cache.SetSpecial(tenantID, special)
	r.cache.InvalidateFullCatalogMap(tenantID)
	return nil
}

// UpdateSchedule persists only the weekday set for one special. It is the
// per-item write behind schedule saves, so a vanished row is reported as an
// error rather than silently succeeding.
func (r *SpecialRepository) UpdateSchedule(tenantID, id string, days []string) error {
	daysJSON := marshalDays(days)

	query := `UPDATE specials SET days = ?, changed = ? WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing special schedule update", "id", id, "days", daysJSON)

	now := time.Now().UTC()
	result, err := r.db.Exec(query, daysJSON, formatTimestamp(now), id)
	if err != nil {
		r.logger.Database().Error("Special schedule update failed", "error", err.Error(), "id", id)
		return fmt.Errorf("failed to update special schedule: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		r.logger.Database().Warn("Special schedule update matched no rows", "id", id)
		return fmt.Errorf("special %s not found", id)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Special schedule update completed", "id", id, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, tenantID)

	if special, found := r.cache.GetSpecial(tenantID, id); found {
		updated := *special
		updated.Days = append([]string(nil), days...)
		updated.Changed = &now
		r.cache.SetSpecial(tenantID, &updated)
	}
	return nil
}

func (r *SpecialRepository) Delete(tenantID, id string) error {
	query := `DELETE FROM specials WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing special delete", "id", id)

	_, err := r.db.Exec(query, id)
	if err != nil {
		r.logger.Database().Error("Special delete failed", "error", err.Error(), "id", id)
		return fmt.Errorf("failed to delete special: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Special delete completed", "id", id, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, tenantID)

	r.cache.InvalidateSpecial(tenantID, id)
	return nil
}

func buildSpecialFilter(query repositories.SpecialQuery) (string, []any) {
	var clauses []string
	var args []any

	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		clauses = append(clauses, "(title LIKE ? OR slug LIKE ?)")
		args = append(args, pattern, pattern)
	}
	if query.Active != nil {
		clauses = append(clauses, "active = ?")
		args = append(args, *query.Active)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// marshalDays renders a weekday set as the JSON text stored in the days
// column. A nil set persists as an empty array, never SQL NULL.
func marshalDays(days []string) string {
	if days == nil {
		days = []string{}
	}
	daysJSON, _ := json.Marshal(days)
	return string(daysJSON)
}

func scanSpecial(s rowScanner) (*catalog.SpecialNode, error) {
	var special catalog.SpecialNode
	var productID, description, changed sql.NullString
	var daysStr sql.NullString
	var createdStr string

	err := s.Scan(&special.ID, &special.Title, &special.Slug, &productID, &description,
		&special.PriceCents, &special.Active, &daysStr, &createdStr, &changed)
	if err != nil {
		return nil, err
	}

	special.ProductID = nullableString(productID)
	special.Description = nullableString(description)

	if daysStr.Valid && daysStr.String != "" {
		if err := json.Unmarshal([]byte(daysStr.String), &special.Days); err != nil {
			// Tolerate legacy comma-separated day lists
			special.Days = strings.Split(daysStr.String, ",")
		}
	}
	if special.Days == nil {
		special.Days = []string{}
	}

	if created, err := parseTimestamp(createdStr); err == nil {
		special.Created = created
	}
	special.Changed = nullableTime(changed)
	special.NodeType = "Special"

	return &special, nil
}

func (r *SpecialRepository) loadFromDB(id string) (*catalog.SpecialNode, error) {
	query := `SELECT ` + specialColumns + ` FROM specials WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading special from database", "id", id)

	special, err := scanSpecial(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to scan special", "error", err.Error(), "id", id)
		return nil, fmt.Errorf("failed to scan special: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Special loaded from database", "id", id, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "system")
	return special, nil
}

func (r *SpecialRepository) loadMultipleFromDB(ids []string) ([]*catalog.SpecialNode, error) {
	if len(ids) == 0 {
		return []*catalog.SpecialNode{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `SELECT ` + specialColumns + ` FROM specials WHERE id IN (` + strings.Join(placeholders, ",") + `)`

	start := time.Now()
	r.logger.Database().Debug("Loading multiple specials from database", "count", len(ids))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Database().Error("Failed to query multiple specials", "error", err.Error(), "count", len(ids))
		return nil, fmt.Errorf("failed to query specials: %w", err)
	}
	defer rows.Close()

	var specials []*catalog.SpecialNode
	for rows.Next() {
		special, err := scanSpecial(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan special: %w", err)
		}
		specials = append(specials, special)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Multiple specials loaded from database", "requested", len(ids), "loaded", len(specials), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "system")
	return specials, rows.Err()
}

func (r *SpecialRepository) loadAllIDsFromDB() ([]string, error) {
	query := `SELECT id FROM specials ORDER BY title`

	start := time.Now()
	r.logger.Database().Debug("Loading all special IDs from database")

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Database().Error("Failed to query special IDs", "error", err.Error())
		return nil, fmt.Errorf("failed to query specials: %w", err)
	}
	defer rows.Close()

	var specialIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan special ID: %w", err)
		}
		specialIDs = append(specialIDs, id)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Loaded special IDs from database", "count", len(specialIDs), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "system")
	return specialIDs, rows.Err()
}

func (r *SpecialRepository) getIDBySlugFromDB(slug string) (string, error) {
	query := `SELECT id FROM specials WHERE slug = ? LIMIT 1`

	start := time.Now()
	r.logger.Database().Debug("Loading special ID by slug from database", "slug", slug)

	var id string
	err := r.db.QueryRow(query, slug).Scan(&id)
	if err == sql.ErrNoRows {
		r.logger.Database().Debug("Special not found by slug", "slug", slug)
		return "", nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to query special by slug", "error", err.Error(), "slug", slug)
		return "", fmt.Errorf("failed to query special by slug: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Special ID loaded by slug", "slug", slug, "id", id, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, "system")
	return id, nil
}
