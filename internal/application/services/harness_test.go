package services

import (
	"database/sql"
	"log/slog"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/plateful/plateful-go/internal/infrastructure/caching/manager"
	"github.com/plateful/plateful-go/internal/infrastructure/database"
	"github.com/plateful/plateful-go/internal/infrastructure/messaging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/tenant"
)

// recordingBroadcaster captures broadcast events so tests can assert on
// them. The client-facing methods are inert.
type recordingBroadcaster struct {
	mu      sync.Mutex
	reports []messaging.SaveReportEvent
	orders  []messaging.OrderEvent
	catalog []messaging.CatalogEvent
}

func (b *recordingBroadcaster) BroadcastSaveReport(tenantID, sessionID string, event messaging.SaveReportEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reports = append(b.reports, event)
}

func (b *recordingBroadcaster) BroadcastOrderEvent(tenantID string, event messaging.OrderEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = append(b.orders, event)
}

func (b *recordingBroadcaster) BroadcastCatalogEvent(tenantID string, event messaging.CatalogEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.catalog = append(b.catalog, event)
}

func (b *recordingBroadcaster) saveReports() []messaging.SaveReportEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]messaging.SaveReportEvent(nil), b.reports...)
}

func (b *recordingBroadcaster) orderEvents() []messaging.OrderEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]messaging.OrderEvent(nil), b.orders...)
}

func (b *recordingBroadcaster) AddClientWithSession(tenantID, sessionID string) chan string {
	return make(chan string, 1)
}
func (b *recordingBroadcaster) RemoveClientWithSession(ch chan string, tenantID, sessionID string) {}
func (b *recordingBroadcaster) GetSessionConnectionCount(tenantID, sessionID string) int           { return 0 }
func (b *recordingBroadcaster) HasActiveSessions(tenantID string) bool                             { return false }

func newTestLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		JSONFormat:   true,
		DefaultLevel: slog.LevelError,
	})
	if err != nil {
		t.Fatalf("create test logger: %v", err)
	}
	return logger
}

// testEnv is one tenant over an in-memory database with the real schema.
type testEnv struct {
	tenantCtx *tenant.Context
	db        *sql.DB
	events    *recordingBroadcaster
	logger    *logging.ChanneledLogger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	// Every pool connection gets its own :memory: database and save
	// dispatches write concurrently, so pin the pool to one connection.
	db.SetMaxOpenConns(1)

	if err := database.NewTableCreator().CreateSchema(db); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	logger := newTestLogger(t)
	return &testEnv{
		tenantCtx: &tenant.Context{
			TenantID:     "bistro",
			Database:     &tenant.Database{Conn: db, TenantID: "bistro"},
			CacheManager: manager.NewManager(logger),
			Logger:       logger,
		},
		db:     db,
		events: &recordingBroadcaster{},
		logger: logger,
	}
}
