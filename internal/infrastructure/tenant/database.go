package tenant

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/pkg/config"
)

// Connections are pooled process-wide, keyed by backend and tenant, so a
// burst of dashboard requests for one restaurant reuses a single *sql.DB.
var (
	pool   = make(map[string]*sql.DB)
	poolMu sync.RWMutex
)

// Database is one tenant's handle onto its catalog store: either a hosted
// libsql (Turso) database or a local SQLite file under the server home.
type Database struct {
	Conn     *sql.DB
	TenantID string
	UseTurso bool
	pooled   bool
}

// NewDatabase returns a pooled connection for the tenant, dialing a fresh
// one when the pool has none or the pooled connection has gone dead.
func NewDatabase(cfg *Config, logger *logging.ChanneledLogger) (*Database, error) {
	key := poolKey(cfg)

	poolMu.Lock()
	defer poolMu.Unlock()

	if conn, ok := pool[key]; ok {
		if conn.Ping() == nil {
			return &Database{Conn: conn, TenantID: cfg.TenantID, UseTurso: cfg.TursoDatabase != "", pooled: true}, nil
		}
		conn.Close()
		delete(pool, key)
		if logger != nil {
			logger.Database().Warn("Replaced dead pooled connection", "tenantId", cfg.TenantID, "poolKey", key)
		}
	}

	conn, useTurso, err := dial(cfg)
	if err != nil {
		return nil, err
	}

	conn.SetMaxOpenConns(config.DBMaxOpenConns)
	conn.SetMaxIdleConns(config.DBMaxIdleConns)
	conn.SetConnMaxLifetime(time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute)
	conn.SetConnMaxIdleTime(time.Duration(config.DBConnMaxIdleMinutes) * time.Minute)
	pool[key] = conn

	return &Database{Conn: conn, TenantID: cfg.TenantID, UseTurso: useTurso, pooled: true}, nil
}

// dial opens the tenant's backing store. Turso wins when the tenant has
// full credentials; otherwise the SQLite file path is created on demand.
func dial(cfg *Config) (*sql.DB, bool, error) {
	if cfg.TursoEnabled && cfg.TursoDatabase != "" && cfg.TursoToken != "" {
		conn, err := sql.Open("libsql", cfg.TursoDatabase+"?authToken="+cfg.TursoToken)
		if err != nil || conn.Ping() != nil {
			return nil, false, fmt.Errorf("tenant %s degraded: turso connection failed", cfg.TenantID)
		}
		return conn, true, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
		return nil, false, fmt.Errorf("failed to create database directory: %w", err)
	}
	conn, err := sql.Open("sqlite3", cfg.SQLitePath)
	if err != nil {
		return nil, false, fmt.Errorf("sqlite connection failed: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, false, fmt.Errorf("sqlite database ping failed: %w", err)
	}
	return conn, false, nil
}

func poolKey(cfg *Config) string {
	if cfg.TursoDatabase != "" {
		return "turso:" + cfg.TenantID
	}
	return "sqlite:" + cfg.SQLitePath
}

// Close is a no-op for pooled handles; the pool owns the connection.
func (db *Database) Close() error {
	if db.pooled {
		return nil
	}
	if db.Conn != nil {
		return db.Conn.Close()
	}
	return nil
}

// GetConnectionInfo describes the backend for health responses.
func (db *Database) GetConnectionInfo() string {
	backend := "SQLite"
	if db.UseTurso {
		backend = "Turso"
	}
	if db.pooled {
		return fmt.Sprintf("%s (tenant: %s) (pooled)", backend, db.TenantID)
	}
	return fmt.Sprintf("%s (tenant: %s)", backend, db.TenantID)
}

// PoolStats reports per-key pool health for the database health endpoint.
func PoolStats() map[string]map[string]any {
	poolMu.RLock()
	defer poolMu.RUnlock()

	info := make(map[string]map[string]any, len(pool))
	for key, conn := range pool {
		stats := conn.Stats()
		info[key] = map[string]any{
			"healthy":      conn.Ping() == nil,
			"open":         stats.OpenConnections,
			"inUse":        stats.InUse,
			"idle":         stats.Idle,
			"waitCount":    stats.WaitCount,
			"waitDuration": stats.WaitDuration.String(),
		}
	}
	return info
}

// CleanupStaleConnections closes and evicts pooled connections that are
// dead or holding more idle handles than the configured ceiling. The cache
// cleanup worker calls this on its sweep interval.
func CleanupStaleConnections(logger *logging.ChanneledLogger) {
	poolMu.Lock()
	defer poolMu.Unlock()

	removed := 0
	for key, conn := range pool {
		reason := ""
		if conn.Ping() != nil {
			reason = "dead"
		} else {
			stats := conn.Stats()
			if stats.OpenConnections > config.DBMaxOpenConns && stats.Idle > config.DBMaxIdleConns {
				reason = "aged"
			}
		}
		if reason == "" {
			continue
		}
		conn.Close()
		delete(pool, key)
		removed++
		if logger != nil {
			logger.Database().Info("Database pool cleanup: removed connection", "poolKey", key, "reason", reason)
		}
	}
	if removed > 0 && logger != nil {
		logger.Database().Info("Database pool cleanup completed", "removed", removed)
	}
}
