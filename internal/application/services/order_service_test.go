package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/plateful/plateful-go/internal/domain/repositories"
)

type orderHarness struct {
	*testEnv
	service *OrderService
	seq     int
}

func newOrderHarness(t *testing.T) *orderHarness {
	t.Helper()
	env := newTestEnv(t)
	return &orderHarness{
		testEnv: env,
		service: NewOrderService(env.logger, env.events),
	}
}

// storeOrder inserts an order the way the storefront would, bypassing the
// dashboard API. Later inserts get later created stamps so page order is
// newest first.
func (h *orderHarness) storeOrder(t *testing.T, id, number, status, payment string) {
	t.Helper()
	h.seq++
	created := fmt.Sprintf("2025-11-03 09:%02d:00", h.seq)
	_, err := h.db.Exec(
		`INSERT INTO orders (id, number, customer_name, status, payment_status, total_cents, created)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, number, "Walk-in", status, payment, 2400, created,
	)
	if err != nil {
		t.Fatalf("insert order %s: %v", id, err)
	}
}

func (h *orderHarness) storedStatus(t *testing.T, id string) (status, payment string) {
	t.Helper()
	if err := h.db.QueryRow(`SELECT status, payment_status FROM orders WHERE id = ?`, id).Scan(&status, &payment); err != nil {
		t.Fatalf("read order %s: %v", id, err)
	}
	return status, payment
}

func TestChangeStatusAdvancesKitchenFlow(t *testing.T) {
	h := newOrderHarness(t)
	h.storeOrder(t, "ord-1", "1001", "pending", "unpaid")

	for _, next := range []string{"preparing", "ready", "delivered"} {
		if err := h.service.ChangeStatus(h.tenantCtx, "ord-1", next); err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}
	if status, _ := h.storedStatus(t, "ord-1"); status != "delivered" {
		t.Fatalf("expected delivered, got %s", status)
	}

	events := h.events.orderEvents()
	if len(events) != 3 {
		t.Fatalf("expected one event per transition, got %d", len(events))
	}
	if events[0].OldStatus != "pending" || events[0].NewStatus != "preparing" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[2].NewStatus != "delivered" || events[2].OrderNumber != "1001" {
		t.Fatalf("unexpected last event: %+v", events[2])
	}

	// Delivered is terminal, even for a cancel.
	if err := h.service.ChangeStatus(h.tenantCtx, "ord-1", "cancelled"); err == nil {
		t.Fatal("expected delivered order to be immovable")
	}
}

func TestChangeStatusRejectsSkippedSteps(t *testing.T) {
	h := newOrderHarness(t)
	h.storeOrder(t, "ord-2", "1002", "pending", "unpaid")

	for _, skip := range []string{"ready", "delivered"} {
		if err := h.service.ChangeStatus(h.tenantCtx, "ord-2", skip); err == nil {
			t.Fatalf("expected pending to %s to be rejected", skip)
		}
	}
	if status, _ := h.storedStatus(t, "ord-2"); status != "pending" {
		t.Fatalf("rejected transition leaked into storage: %s", status)
	}
	if n := len(h.events.orderEvents()); n != 0 {
		t.Fatalf("rejected transitions must not broadcast, got %d events", n)
	}
}

func TestChangeStatusAllowsCancellingNonTerminal(t *testing.T) {
	h := newOrderHarness(t)
	h.storeOrder(t, "ord-3", "1003", "ready", "unpaid")

	if err := h.service.ChangeStatus(h.tenantCtx, "ord-3", "cancelled"); err != nil {
		t.Fatalf("cancel ready order: %v", err)
	}
	if status, _ := h.storedStatus(t, "ord-3"); status != "cancelled" {
		t.Fatalf("expected cancelled, got %s", status)
	}
	if err := h.service.ChangeStatus(h.tenantCtx, "ord-3", "preparing"); err == nil {
		t.Fatal("expected cancelled order to be immovable")
	}
}

func TestChangeStatusValidation(t *testing.T) {
	h := newOrderHarness(t)
	h.storeOrder(t, "ord-4", "1004", "pending", "unpaid")

	if err := h.service.ChangeStatus(h.tenantCtx, "ord-4", "burnt"); err == nil {
		t.Fatal("expected unknown status to be rejected")
	}
	if err := h.service.ChangeStatus(h.tenantCtx, "", "preparing"); err == nil {
		t.Fatal("expected empty id to be rejected")
	}
	if err := h.service.ChangeStatus(h.tenantCtx, "ghost", "preparing"); err == nil {
		t.Fatal("expected missing order to be rejected")
	}
}

func TestChangePaymentFlow(t *testing.T) {
	h := newOrderHarness(t)
	h.storeOrder(t, "ord-5", "1005", "pending", "unpaid")

	if err := h.service.ChangePayment(h.tenantCtx, "ord-5", "paid"); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if _, payment := h.storedStatus(t, "ord-5"); payment != "paid" {
		t.Fatalf("expected paid, got %s", payment)
	}
	if err := h.service.ChangePayment(h.tenantCtx, "ord-5", "refunded"); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if _, payment := h.storedStatus(t, "ord-5"); payment != "refunded" {
		t.Fatalf("expected refunded, got %s", payment)
	}

	events := h.events.orderEvents()
	if len(events) != 2 {
		t.Fatalf("expected one event per payment change, got %d", len(events))
	}
	if events[0].PaymentStatus != "paid" || events[0].OldStatus != events[0].NewStatus {
		t.Fatalf("unexpected payment event: %+v", events[0])
	}

	// Refunded is the end of the line.
	if err := h.service.ChangePayment(h.tenantCtx, "ord-5", "paid"); err == nil {
		t.Fatal("expected refunded order to reject further payment changes")
	}
}

func TestChangePaymentRejectsSkips(t *testing.T) {
	h := newOrderHarness(t)
	h.storeOrder(t, "ord-6", "1006", "pending", "unpaid")
	h.storeOrder(t, "ord-7", "1007", "pending", "paid")

	if err := h.service.ChangePayment(h.tenantCtx, "ord-6", "refunded"); err == nil {
		t.Fatal("expected unpaid order to reject a straight refund")
	}
	if err := h.service.ChangePayment(h.tenantCtx, "ord-7", "unpaid"); err == nil {
		t.Fatal("expected paid order to reject reverting to unpaid")
	}
	if err := h.service.ChangePayment(h.tenantCtx, "ord-6", "iou"); err == nil {
		t.Fatal("expected unknown payment status to be rejected")
	}
}

func TestGetPageFiltersOrders(t *testing.T) {
	h := newOrderHarness(t)
	h.storeOrder(t, "ord-a", "1010", "pending", "unpaid")
	h.storeOrder(t, "ord-b", "1011", "preparing", "paid")
	h.storeOrder(t, "ord-c", "1012", "delivered", "paid")

	orders, total, err := h.service.GetPage(h.tenantCtx, repositories.OrderQuery{Status: "preparing"})
	if err != nil {
		t.Fatalf("filter by status: %v", err)
	}
	if total != 1 || len(orders) != 1 || orders[0].ID != "ord-b" {
		t.Fatalf("unexpected status filter result: total=%d orders=%v", total, orders)
	}

	orders, total, err = h.service.GetPage(h.tenantCtx, repositories.OrderQuery{PaymentStatus: "paid"})
	if err != nil {
		t.Fatalf("filter by payment: %v", err)
	}
	if total != 2 || len(orders) != 2 {
		t.Fatalf("unexpected payment filter result: total=%d count=%d", total, len(orders))
	}
	// Newest first.
	if orders[0].ID != "ord-c" || orders[1].ID != "ord-b" {
		t.Fatalf("unexpected page order: %s, %s", orders[0].ID, orders[1].ID)
	}

	if _, _, err := h.service.GetPage(h.tenantCtx, repositories.OrderQuery{Status: "burnt"}); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter for unknown status, got %v", err)
	}
	if _, _, err := h.service.GetPage(h.tenantCtx, repositories.OrderQuery{PaymentStatus: "iou"}); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter for unknown payment status, got %v", err)
	}
}

func TestDeleteRemovesOrderAndItems(t *testing.T) {
	h := newOrderHarness(t)
	h.storeOrder(t, "ord-d", "1013", "pending", "unpaid")

	if _, err := h.db.Exec(`INSERT INTO products (id, title, slug, price_cents, status) VALUES ('prod-1', 'Margherita', 'margherita', 1200, 'active')`); err != nil {
		t.Fatalf("insert product: %v", err)
	}
	if _, err := h.db.Exec(`INSERT INTO order_items (id, order_id, product_id, title, quantity, price_cents) VALUES ('item-1', 'ord-d', 'prod-1', 'Margherita', 2, 1200)`); err != nil {
		t.Fatalf("insert order item: %v", err)
	}

	order, err := h.service.GetByID(h.tenantCtx, "ord-d")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order == nil || len(order.Items) != 1 || order.Items[0].Title != "Margherita" {
		t.Fatalf("expected order with one line item, got %+v", order)
	}

	if err := h.service.Delete(h.tenantCtx, "ord-d"); err != nil {
		t.Fatalf("delete order: %v", err)
	}

	var remaining int
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM order_items WHERE order_id = ?`, "ord-d").Scan(&remaining); err != nil {
		t.Fatalf("count items: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected line items removed with the order, got %d", remaining)
	}

	order, err = h.service.GetByID(h.tenantCtx, "ord-d")
	if err != nil {
		t.Fatalf("get deleted order: %v", err)
	}
	if order != nil {
		t.Fatalf("expected deleted order to be gone, got %+v", order)
	}

	if err := h.service.Delete(h.tenantCtx, "ord-d"); err == nil {
		t.Fatal("expected deleting a missing order to fail")
	}
}
