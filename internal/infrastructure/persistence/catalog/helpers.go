// Package catalog provides the SQL repositories for catalog entities.
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/persistence/database"
)

// rowScanner abstracts sql.Row and sql.Rows for the shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

// timestampLayout is the canonical column format written by this package.
// It matches what CURRENT_TIMESTAMP produces, so seeded and written rows
// read back identically under both drivers.
const timestampLayout = "2006-01-02 15:04:05"

// parseTimestamp handles both timestamp forms the drivers return: RFC3339
// from Turso and the plain datetime form from local SQLite.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse(timestampLayout, s)
	}
	return t, err
}

// formatTimestamp renders a time in the canonical column format.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// formatNullableTime renders an optional timestamp, passing NULL through.
func formatNullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTimestamp(*t)
}

// nullableTime converts an optional timestamp column into a *time.Time.
func nullableTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	if t, err := parseTimestamp(ns.String); err == nil {
		return &t
	}
	return nil
}

// nullableString converts a nullable text column into a *string.
func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// countRows runs a COUNT query sharing the filter arguments of its page query.
func countRows(db *sql.DB, logger *logging.ChanneledLogger, query string, args []any, tenantID string) (int, error) {
	start := time.Now()

	var total int
	if err := db.QueryRow(query, args...).Scan(&total); err != nil {
		logger.Database().Error("Count query failed", "error", err.Error(), "query", query)
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}

	database.CheckAndLogSlowQuery(logger, query, time.Since(start), tenantID)
	return total, nil
}
