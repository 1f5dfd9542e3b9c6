package catalog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/domain/repositories"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/persistence/database"
)

const orderColumns = `id, number, customer_id, customer_name, status, payment_status, total_cents, note, created, changed`

// OrderRepository reads and maintains orders. Orders churn constantly while
// the kitchen works a shift, so they are never cached; every read goes to
// the database.
type OrderRepository struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
}

func NewOrderRepository(db *sql.DB, logger *logging.ChanneledLogger) *OrderRepository {
	return &OrderRepository{
		db:     db,
		logger: logger,
	}
}

func (r *OrderRepository) FindByID(tenantID, id string) (*catalog.OrderNode, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading order from database", "id", id)

	order, err := scanOrder(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to scan order", "error", err.Error(), "id", id)
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	items, err := r.loadItems(id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	duration := time.Since(start)
	r.logger.Database().Info("Order loaded from database", "id", id, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, tenantID)
	return order, nil
}

// FindPage loads one filtered page of orders with their line items attached.
func (r *OrderRepository) FindPage(tenantID string, query repositories.OrderQuery) ([]*catalog.OrderNode, int, error) {
	where, args := buildOrderFilter(query)

	total, err := countRows(r.db, r.logger, `SELECT COUNT(*) FROM orders`+where, args, tenantID)
	if err != nil {
		return nil, 0, err
	}

	pageQuery := `SELECT ` + orderColumns + ` FROM orders` + where +
		` ORDER BY created DESC, id LIMIT ? OFFSET ?`
	pageArgs := append(append([]any{}, args...), query.Limit, query.Offset())

	start := time.Now()
	r.logger.Database().Debug("Loading order page from database", "page", query.Page, "limit", query.Limit)

	rows, err := r.db.Query(pageQuery, pageArgs...)
	if err != nil {
		r.logger.Database().Error("Failed to query order page", "error", err.Error())
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*catalog.OrderNode
	var orderIDs []string
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
		orderIDs = append(orderIDs, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	itemsByOrder, err := r.loadItemsForOrders(orderIDs)
	if err != nil {
		return nil, 0, err
	}
	for _, order := range orders {
		order.Items = itemsByOrder[order.ID]
	}

	duration := time.Since(start)
	r.logger.Database().Info("Order page loaded from database", "count", len(orders), "total", total, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, pageQuery, duration, tenantID)
	return orders, total, nil
}

// UpdateStatus moves an order through the kitchen lifecycle. Transition
// validation happens in the service layer; the repository only guards
// against writes to rows that no longer exist.
func (r *OrderRepository) UpdateStatus(tenantID, id, status string) error {
	query := `UPDATE orders SET status = ?, changed = ? WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing order status update", "id", id, "status", status)

	result, err := r.db.Exec(query, status, formatTimestamp(time.Now()), id)
	if err != nil {
		r.logger.Database().Error("Order status update failed", "error", err.Error(), "id", id)
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("order %s not found", id)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Order status update completed", "id", id, "status", status, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, tenantID)
	return nil
}

func (r *OrderRepository) UpdatePayment(tenantID, id, paymentStatus string) error {
	query := `UPDATE orders SET payment_status = ?, changed = ? WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing order payment update", "id", id, "paymentStatus", paymentStatus)

	result, err := r.db.Exec(query, paymentStatus, formatTimestamp(time.Now()), id)
	if err != nil {
		r.logger.Database().Error("Order payment update failed", "error", err.Error(), "id", id)
		return fmt.Errorf("failed to update order payment: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("order %s not found", id)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Order payment update completed", "id", id, "paymentStatus", paymentStatus, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, tenantID)
	return nil
}

func (r *OrderRepository) Delete(tenantID, id string) error {
	start := time.Now()
	r.logger.Database().Debug("Executing order delete", "id", id)

	if _, err := r.db.Exec(`DELETE FROM order_items WHERE order_id = ?`, id); err != nil {
		r.logger.Database().Error("Order items delete failed", "error", err.Error(), "id", id)
		return fmt.Errorf("failed to delete order items: %w", err)
	}

	query := `DELETE FROM orders WHERE id = ?`
	if _, err := r.db.Exec(query, id); err != nil {
		r.logger.Database().Error("Order delete failed", "error", err.Error(), "id", id)
		return fmt.Errorf("failed to delete order: %w", err)
	}

	duration := time.Since(start)
	r.logger.Database().Info("Order delete completed", "id", id, "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, query, duration, tenantID)
	return nil
}

func buildOrderFilter(query repositories.OrderQuery) (string, []any) {
	var clauses []string
	var args []any

	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		clauses = append(clauses, "(number LIKE ? OR customer_name LIKE ?)")
		args = append(args, pattern, pattern)
	}
	if query.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, query.Status)
	}
	if query.PaymentStatus != "" {
		clauses = append(clauses, "payment_status = ?")
		args = append(args, query.PaymentStatus)
	}
	if query.From != nil {
		clauses = append(clauses, "created >= ?")
		args = append(args, formatTimestamp(*query.From))
	}
	if query.To != nil {
		clauses = append(clauses, "created <= ?")
		args = append(args, formatTimestamp(*query.To))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanOrder(s rowScanner) (*catalog.OrderNode, error) {
	var order catalog.OrderNode
	var customerID, note, changed sql.NullString
	var createdStr string

	err := s.Scan(&order.ID, &order.Number, &customerID, &order.CustomerName,
		&order.Status, &order.PaymentStatus, &order.TotalCents, &note, &createdStr, &changed)
	if err != nil {
		return nil, err
	}

	order.CustomerID = nullableString(customerID)
	order.Note = nullableString(note)
	if created, err := parseTimestamp(createdStr); err == nil {
		order.Created = created
	}
	order.Changed = nullableTime(changed)
	order.NodeType = "Order"

	return &order, nil
}

func (r *OrderRepository) loadItems(orderID string) ([]*catalog.OrderItem, error) {
	query := `SELECT id, product_id, title, quantity, price_cents FROM order_items WHERE order_id = ? ORDER BY id`

	rows, err := r.db.Query(query, orderID)
	if err != nil {
		r.logger.Database().Error("Failed to query order items", "error", err.Error(), "orderId", orderID)
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []*catalog.OrderItem
	for rows.Next() {
		var item catalog.OrderItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Title, &item.Quantity, &item.PriceCents); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

func (r *OrderRepository) loadItemsForOrders(orderIDs []string) (map[string][]*catalog.OrderItem, error) {
	itemsByOrder := make(map[string][]*catalog.OrderItem)
	if len(orderIDs) == 0 {
		return itemsByOrder, nil
	}

	placeholders := make([]string, len(orderIDs))
	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `SELECT id, order_id, product_id, title, quantity, price_cents 
              FROM order_items WHERE order_id IN (` + strings.Join(placeholders, ",") + `) ORDER BY id`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Database().Error("Failed to query order items batch", "error", err.Error(), "count", len(orderIDs))
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item catalog.OrderItem
		var orderID string
		if err := rows.Scan(&item.ID, &orderID, &item.ProductID, &item.Title, &item.Quantity, &item.PriceCents); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		itemsByOrder[orderID] = append(itemsByOrder[orderID], &item)
	}

	return itemsByOrder, rows.Err()
}
