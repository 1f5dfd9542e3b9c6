// Package database wraps the tenant's *sql.DB handle for the repository
// layer and carries the slow-query instrumentation shared by every
// repository.
package database

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// DB is the repository layer's view of a tenant database. The tenant
// package owns dialing and pooling; repositories only query.
type DB struct {
	*sql.DB
}
