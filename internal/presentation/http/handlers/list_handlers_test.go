package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"

	"github.com/plateful/plateful-go/internal/application/services"
	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/infrastructure/caching/manager"
	"github.com/plateful/plateful-go/internal/infrastructure/database"
	"github.com/plateful/plateful-go/internal/infrastructure/messaging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/performance"
	"github.com/plateful/plateful-go/internal/infrastructure/tenant"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// nullBroadcaster satisfies the messaging interface without delivering
// anything; list handlers never broadcast.
type nullBroadcaster struct{}

func (nullBroadcaster) AddClientWithSession(tenantID, sessionID string) chan string {
	return make(chan string, 1)
}
func (nullBroadcaster) RemoveClientWithSession(ch chan string, tenantID, sessionID string) {}
func (nullBroadcaster) GetSessionConnectionCount(tenantID, sessionID string) int           { return 0 }
func (nullBroadcaster) BroadcastSaveReport(tenantID, sessionID string, event messaging.SaveReportEvent) {
}
func (nullBroadcaster) BroadcastOrderEvent(tenantID string, event messaging.OrderEvent)     {}
func (nullBroadcaster) BroadcastCatalogEvent(tenantID string, event messaging.CatalogEvent) {}
func (nullBroadcaster) HasActiveSessions(tenantID string) bool                              { return false }

// handlerEnv is one tenant over an in-memory database, exercised straight
// through gin handlers.
type handlerEnv struct {
	tenantCtx *tenant.Context
	db        *sql.DB
	logger    *logging.ChanneledLogger
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)

	if err := database.NewTableCreator().CreateSchema(db); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		JSONFormat:   true,
		DefaultLevel: slog.LevelError,
	})
	if err != nil {
		t.Fatalf("create test logger: %v", err)
	}

	return &handlerEnv{
		tenantCtx: &tenant.Context{
			TenantID:     "bistro",
			Database:     &tenant.Database{Conn: db, TenantID: "bistro"},
			CacheManager: manager.NewManager(logger),
			Logger:       logger,
		},
		db:     db,
		logger: logger,
	}
}

// get runs one handler against a GET request with the tenant already
// resolved, the way the tenant middleware would leave it.
func (e *handlerEnv) get(t *testing.T, handler gin.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	c.Set("tenant", e.tenantCtx)
	handler(c)
	return w
}

func (e *handlerEnv) storeProduct(t *testing.T, id string, priceCents int64) {
	t.Helper()
	product := &catalog.ProductNode{
		ID:         id,
		Title:      "Product " + id,
		NodeType:   "Product",
		Slug:       id,
		PriceCents: priceCents,
		Status:     catalog.ProductActive,
		Created:    time.Now().UTC(),
	}
	if err := e.tenantCtx.ProductRepo().Store(e.tenantCtx.TenantID, product); err != nil {
		t.Fatalf("store product %s: %v", id, err)
	}
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return body
}

// assertEnvelope checks the collection contract: items, total, page and
// pages present with the expected values.
func assertEnvelope(t *testing.T, w *httptest.ResponseRecorder, items, total, page, pages int) {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeEnvelope(t, w)
	for _, key := range []string{"items", "total", "page", "pages"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("envelope missing %q: %s", key, w.Body.String())
		}
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(body["items"], &rows); err != nil {
		t.Fatalf("items is not an array: %s", body["items"])
	}
	if len(rows) != items {
		t.Errorf("expected %d items, got %d", items, len(rows))
	}
	for key, want := range map[string]int{"total": total, "page": page, "pages": pages} {
		var got int
		if err := json.Unmarshal(body[key], &got); err != nil {
			t.Fatalf("%s is not a number: %s", key, body[key])
		}
		if got != want {
			t.Errorf("expected %s=%d, got %d", key, want, got)
		}
	}
}

func TestGetProductsEnvelopePaginates(t *testing.T) {
	env := newHandlerEnv(t)
	for i := 1; i <= 3; i++ {
		env.storeProduct(t, fmt.Sprintf("p%d", i), int64(1000*i))
	}
	h := NewProductHandlers(services.NewProductService(env.logger, nullBroadcaster{}), env.logger)

	w := env.get(t, h.GetProducts, "/api/v1/products?page=2&limit=2")
	assertEnvelope(t, w, 1, 3, 2, 2)
}

func TestGetProductsEnvelopeWhenEmpty(t *testing.T) {
	env := newHandlerEnv(t)
	h := NewProductHandlers(services.NewProductService(env.logger, nullBroadcaster{}), env.logger)

	w := env.get(t, h.GetProducts, "/api/v1/products")
	assertEnvelope(t, w, 0, 0, 1, 0)
}

func TestGetProductsBadFilterIsBadRequest(t *testing.T) {
	env := newHandlerEnv(t)
	h := NewProductHandlers(services.NewProductService(env.logger, nullBroadcaster{}), env.logger)

	w := env.get(t, h.GetProducts, "/api/v1/products?status=burnt")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status filter, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetProductsStorageFailureIsServerError(t *testing.T) {
	env := newHandlerEnv(t)
	if _, err := env.db.Exec(`DROP TABLE products`); err != nil {
		t.Fatalf("drop products: %v", err)
	}
	h := NewProductHandlers(services.NewProductService(env.logger, nullBroadcaster{}), env.logger)

	w := env.get(t, h.GetProducts, "/api/v1/products")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for storage failure, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetOrdersEnvelopeAndFilterErrors(t *testing.T) {
	env := newHandlerEnv(t)
	h := NewOrderHandlers(services.NewOrderService(env.logger, nullBroadcaster{}), env.logger)

	w := env.get(t, h.GetOrders, "/api/v1/orders")
	assertEnvelope(t, w, 0, 0, 1, 0)

	w = env.get(t, h.GetOrders, "/api/v1/orders?status=vanished")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status filter, got %d: %s", w.Code, w.Body.String())
	}

	if _, err := env.db.Exec(`DROP TABLE orders`); err != nil {
		t.Fatalf("drop orders: %v", err)
	}
	w = env.get(t, h.GetOrders, "/api/v1/orders")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for storage failure, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetPaidOrdersEnvelope(t *testing.T) {
	env := newHandlerEnv(t)
	h := NewOrderHandlers(services.NewOrderService(env.logger, nullBroadcaster{}), env.logger)

	w := env.get(t, h.GetPaidOrders, "/api/v1/orders/paid")
	assertEnvelope(t, w, 0, 0, 1, 0)
}

func TestGetCustomersEnvelope(t *testing.T) {
	env := newHandlerEnv(t)
	h := NewCustomerHandlers(services.NewCustomerService(env.logger), env.logger)

	w := env.get(t, h.GetCustomers, "/api/v1/customers")
	assertEnvelope(t, w, 0, 0, 1, 0)
}

func TestGetSpecialsEnvelope(t *testing.T) {
	env := newHandlerEnv(t)
	schedules := services.NewScheduleService(env.logger, performance.NewTracker(nil), nullBroadcaster{})
	h := NewSpecialHandlers(services.NewSpecialService(env.logger, nullBroadcaster{}, schedules), env.logger)

	w := env.get(t, h.GetSpecials, "/api/v1/specials")
	assertEnvelope(t, w, 0, 0, 1, 0)
}
