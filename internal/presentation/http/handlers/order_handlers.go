package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful-go/internal/application/services"
	"github.com/plateful/plateful-go/internal/domain/repositories"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/presentation/http/middleware"
)

// OrderHandlers contains all order-related HTTP handlers
type OrderHandlers struct {
	orderService *services.OrderService
	logger       *logging.ChanneledLogger
}

// NewOrderHandlers creates order handlers with injected dependencies
func NewOrderHandlers(orderService *services.OrderService, logger *logging.ChanneledLogger) *OrderHandlers {
	return &OrderHandlers{
		orderService: orderService,
		logger:       logger,
	}
}

// GetOrders returns a page of orders filtered by the query string
func (h *OrderHandlers) GetOrders(c *gin.Context) {
	start := time.Now()
	h.logger.Orders().Debug("Received get orders request", "method", c.Request.Method, "path", c.Request.URL.Path)
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	query := repositories.OrderQuery{
		Search:        c.Query("search"),
		Status:        c.Query("status"),
		PaymentStatus: c.Query("paymentStatus"),
	}
	query.Page, _ = strconv.Atoi(c.Query("page"))
	query.Limit, _ = strconv.Atoi(c.Query("limit"))

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' timestamp, expected RFC3339"})
			return
		}
		query.From = &from
	}
	if toStr := c.Query("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' timestamp, expected RFC3339"})
			return
		}
		query.To = &to
	}

	query.Normalize()

	orders, total, err := h.orderService.GetPage(tenantCtx, query)
	if err != nil {
		if errors.Is(err, services.ErrInvalidFilter) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Orders().Info("Get orders request completed", "count", len(orders), "total", total, "duration", time.Since(start))
	c.JSON(http.StatusOK, listEnvelope(orders, total, query.PageQuery))
}

// GetPaidOrders returns the dashboard's "paid" tab: orders whose payment
// has settled, regardless of fulfilment state.
func (h *OrderHandlers) GetPaidOrders(c *gin.Context) {
	h.getPresetOrders(c, repositories.OrderQuery{PaymentStatus: "paid"})
}

// GetDeliveredOrders returns the dashboard's "delivered" tab.
func (h *OrderHandlers) GetDeliveredOrders(c *gin.Context) {
	h.getPresetOrders(c, repositories.OrderQuery{Status: "delivered"})
}

// getPresetOrders serves the fixed dashboard tabs. Only paging and search
// come from the query string; the tab decides the filter.
func (h *OrderHandlers) getPresetOrders(c *gin.Context, query repositories.OrderQuery) {
	start := time.Now()
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	query.Search = c.Query("search")
	query.Page, _ = strconv.Atoi(c.Query("page"))
	query.Limit, _ = strconv.Atoi(c.Query("limit"))
	query.Normalize()

	orders, total, err := h.orderService.GetPage(tenantCtx, query)
	if err != nil {
		// The preset filters are fixed, so any failure here is the backend's.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Orders().Info("Get orders request completed", "count", len(orders), "total", total, "duration", time.Since(start))
	c.JSON(http.StatusOK, listEnvelope(orders, total, query.PageQuery))
}

// GetOrderByID returns a specific order with its line items
func (h *OrderHandlers) GetOrderByID(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	orderID := c.Param("id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order ID is required"})
		return
	}

	order, err := h.orderService.GetByID(tenantCtx, orderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// ChangeOrderStatus advances an order through its lifecycle
func (h *OrderHandlers) ChangeOrderStatus(c *gin.Context) {
	start := time.Now()
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	orderID := c.Param("id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order ID is required"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.orderService.ChangeStatus(tenantCtx, orderID, req.Status); err != nil {
		// Rejected transitions and missing orders both surface as conflicts
		// so the dashboard refreshes its stale row.
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	h.logger.Orders().Info("Order status change request completed", "orderId", orderID, "status", req.Status, "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"message": "order status updated successfully",
		"orderId": orderID,
		"status":  req.Status,
	})
}

// ChangeOrderPayment records a payment or refund against an order
func (h *OrderHandlers) ChangeOrderPayment(c *gin.Context) {
	start := time.Now()
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	orderID := c.Param("id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order ID is required"})
		return
	}

	var req struct {
		PaymentStatus string `json:"paymentStatus" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.orderService.ChangePayment(tenantCtx, orderID, req.PaymentStatus); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	h.logger.Orders().Info("Order payment change request completed", "orderId", orderID, "paymentStatus", req.PaymentStatus, "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"message":       "order payment status updated successfully",
		"orderId":       orderID,
		"paymentStatus": req.PaymentStatus,
	})
}

// DeleteOrder removes an order and its line items
func (h *OrderHandlers) DeleteOrder(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	orderID := c.Param("id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order ID is required"})
		return
	}

	if err := h.orderService.Delete(tenantCtx, orderID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "order deleted successfully",
		"orderId": orderID,
	})
}
