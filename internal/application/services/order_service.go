// Package services provides order lifecycle orchestration
package services

import (
	"fmt"
	"time"

	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/domain/repositories"
	"github.com/plateful/plateful-go/internal/infrastructure/messaging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/tenant"
)

// OrderService orchestrates order lifecycle operations. Orders arrive from
// the storefront; the dashboard moves them through the kitchen flow and
// tracks payment separately.
type OrderService struct {
	logger      *logging.ChanneledLogger
	broadcaster messaging.Broadcaster
}

// NewOrderService creates a new order service singleton
func NewOrderService(logger *logging.ChanneledLogger, broadcaster messaging.Broadcaster) *OrderService {
	return &OrderService{
		logger:      logger,
		broadcaster: broadcaster,
	}
}

// GetByID returns an order with its line items
func (s *OrderService) GetByID(tenantCtx *tenant.Context, id string) (*catalog.OrderNode, error) {
	start := time.Now()
	if id == "" {
		return nil, fmt.Errorf("order ID cannot be empty")
	}

	orderRepo := tenantCtx.OrderRepo()
	order, err := orderRepo.FindByID(tenantCtx.TenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}

	s.logger.Orders().Info("Successfully retrieved order by ID", "tenantId", tenantCtx.TenantID, "orderId", id, "found", order != nil, "duration", time.Since(start))

	return order, nil
}

// GetPage returns one filtered page of orders plus the matching total
func (s *OrderService) GetPage(tenantCtx *tenant.Context, query repositories.OrderQuery) ([]*catalog.OrderNode, int, error) {
	start := time.Now()
	query.Normalize()

	if query.Status != "" && !catalog.ValidOrderStatus(query.Status) {
		return nil, 0, fmt.Errorf("%w: unknown order status %q", ErrInvalidFilter, query.Status)
	}
	if query.PaymentStatus != "" && !catalog.ValidPaymentStatus(query.PaymentStatus) {
		return nil, 0, fmt.Errorf("%w: unknown payment status %q", ErrInvalidFilter, query.PaymentStatus)
	}

	orderRepo := tenantCtx.OrderRepo()
	orders, total, err := orderRepo.FindPage(tenantCtx.TenantID, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get order page: %w", err)
	}

	s.logger.Orders().Info("Successfully retrieved order page", "tenantId", tenantCtx.TenantID, "page", query.Page, "count", len(orders), "total", total, "duration", time.Since(start))

	return orders, total, nil
}

// ChangeStatus advances an order through the kitchen flow. Transitions only
// move one step forward, non-terminal orders may always be cancelled, and
// delivered or cancelled orders never move again.
func (s *OrderService) ChangeStatus(tenantCtx *tenant.Context, id, status string) error {
	start := time.Now()
	if id == "" {
		return fmt.Errorf("order ID cannot be empty")
	}
	if !catalog.ValidOrderStatus(status) {
		return fmt.Errorf("unknown order status %q", status)
	}

	orderRepo := tenantCtx.OrderRepo()

	order, err := orderRepo.FindByID(tenantCtx.TenantID, id)
	if err != nil {
		return fmt.Errorf("failed to verify order %s exists: %w", id, err)
	}
	if order == nil {
		return fmt.Errorf("order %s not found", id)
	}
	if !catalog.CanTransitionOrder(order.Status, status) {
		return fmt.Errorf("order %s cannot move from %s to %s", id, order.Status, status)
	}

	if err := orderRepo.UpdateStatus(tenantCtx.TenantID, id, status); err != nil {
		return fmt.Errorf("failed to change order %s status: %w", id, err)
	}

	tenantCtx.CacheManager.InvalidateDashboard(tenantCtx.TenantID)
	s.broadcaster.BroadcastOrderEvent(tenantCtx.TenantID, messaging.OrderEvent{
		OrderID:     id,
		OrderNumber: order.Number,
		OldStatus:   order.Status,
		NewStatus:   status,
		At:          time.Now().UTC(),
	})

	s.logger.Orders().Info("Successfully changed order status", "tenantId", tenantCtx.TenantID, "orderId", id, "from", order.Status, "to", status, "duration", time.Since(start))

	return nil
}

// ChangePayment records a payment status change: unpaid orders get paid,
// paid orders get refunded.
func (s *OrderService) ChangePayment(tenantCtx *tenant.Context, id, paymentStatus string) error {
	start := time.Now()
	if id == "" {
		return fmt.Errorf("order ID cannot be empty")
	}
	if !catalog.ValidPaymentStatus(paymentStatus) {
		return fmt.Errorf("unknown payment status %q", paymentStatus)
	}

	orderRepo := tenantCtx.OrderRepo()

	order, err := orderRepo.FindByID(tenantCtx.TenantID, id)
	if err != nil {
		return fmt.Errorf("failed to verify order %s exists: %w", id, err)
	}
	if order == nil {
		return fmt.Errorf("order %s not found", id)
	}
	if !catalog.CanTransitionPayment(order.PaymentStatus, paymentStatus) {
		return fmt.Errorf("order %s payment cannot move from %s to %s", id, order.PaymentStatus, paymentStatus)
	}

	if err := orderRepo.UpdatePayment(tenantCtx.TenantID, id, paymentStatus); err != nil {
		return fmt.Errorf("failed to change order %s payment status: %w", id, err)
	}

	tenantCtx.CacheManager.InvalidateDashboard(tenantCtx.TenantID)
	s.broadcaster.BroadcastOrderEvent(tenantCtx.TenantID, messaging.OrderEvent{
		OrderID:       id,
		OrderNumber:   order.Number,
		OldStatus:     order.Status,
		NewStatus:     order.Status,
		PaymentStatus: paymentStatus,
		At:            time.Now().UTC(),
	})

	s.logger.Orders().Info("Successfully changed order payment status", "tenantId", tenantCtx.TenantID, "orderId", id, "from", order.PaymentStatus, "to", paymentStatus, "duration", time.Since(start))

	return nil
}

// Delete removes an order and its line items
func (s *OrderService) Delete(tenantCtx *tenant.Context, id string) error {
	start := time.Now()
	if id == "" {
		return fmt.Errorf("order ID cannot be empty")
	}

	orderRepo := tenantCtx.OrderRepo()

	existing, err := orderRepo.FindByID(tenantCtx.TenantID, id)
	if err != nil {
		return fmt.Errorf("failed to verify order %s exists: %w", id, err)
	}
	if existing == nil {
		return fmt.Errorf("order %s not found", id)
	}

	if err := orderRepo.Delete(tenantCtx.TenantID, id); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}

	tenantCtx.CacheManager.InvalidateDashboard(tenantCtx.TenantID)

	s.logger.Orders().Info("Successfully deleted order", "tenantId", tenantCtx.TenantID, "orderId", id, "number", existing.Number, "duration", time.Since(start))

	return nil
}
