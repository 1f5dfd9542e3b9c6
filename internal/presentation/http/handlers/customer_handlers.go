package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful-go/internal/application/services"
	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/domain/repositories"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/presentation/http/middleware"
)

// CustomerHandlers contains all customer-related HTTP handlers.
// Customers are created by the storefront ordering flow, so there is no
// create endpoint here.
type CustomerHandlers struct {
	customerService *services.CustomerService
	logger          *logging.ChanneledLogger
}

// NewCustomerHandlers creates customer handlers with injected dependencies
func NewCustomerHandlers(customerService *services.CustomerService, logger *logging.ChanneledLogger) *CustomerHandlers {
	return &CustomerHandlers{
		customerService: customerService,
		logger:          logger,
	}
}

// GetCustomers returns a page of customers filtered by the query string
func (h *CustomerHandlers) GetCustomers(c *gin.Context) {
	start := time.Now()
	h.logger.Catalog().Debug("Received get customers request", "method", c.Request.Method, "path", c.Request.URL.Path)
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	query := repositories.CustomerQuery{
		Search: c.Query("search"),
	}
	query.Page, _ = strconv.Atoi(c.Query("page"))
	query.Limit, _ = strconv.Atoi(c.Query("limit"))
	query.Normalize()

	customers, total, err := h.customerService.GetPage(tenantCtx, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Catalog().Info("Get customers request completed", "count", len(customers), "total", total, "duration", time.Since(start))
	c.JSON(http.StatusOK, listEnvelope(customers, total, query.PageQuery))
}

// GetCustomerByID returns a specific customer by ID
func (h *CustomerHandlers) GetCustomerByID(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	customerID := c.Param("id")
	if customerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer ID is required"})
		return
	}

	customer, err := h.customerService.GetByID(tenantCtx, customerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if customer == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return
	}

	c.JSON(http.StatusOK, customer)
}

// UpdateCustomer updates an existing customer's contact details
func (h *CustomerHandlers) UpdateCustomer(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	customerID := c.Param("id")
	if customerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer ID is required"})
		return
	}

	var customer catalog.CustomerNode
	if err := c.ShouldBindJSON(&customer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	// Ensure ID matches URL parameter
	customer.ID = customerID

	if err := h.customerService.Update(tenantCtx, &customer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "customer updated successfully",
		"customerId": customer.ID,
	})
}

// DeleteCustomer deletes a customer
func (h *CustomerHandlers) DeleteCustomer(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	customerID := c.Param("id")
	if customerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer ID is required"})
		return
	}

	if err := h.customerService.Delete(tenantCtx, customerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "customer deleted successfully",
		"customerId": customerID,
	})
}
