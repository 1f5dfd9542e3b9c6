// Package services provides application-level orchestration services
package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/plateful/plateful-go/internal/domain/entities/catalog"
	"github.com/plateful/plateful-go/internal/domain/repositories"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/tenant"
)

// CustomerService orchestrates customer record operations. Customers are
// created by the storefront ordering flow, never from the dashboard, so
// there is no Create here.
type CustomerService struct {
	logger *logging.ChanneledLogger
}

// NewCustomerService creates a new customer service singleton
func NewCustomerService(logger *logging.ChanneledLogger) *CustomerService {
	return &CustomerService{
		logger: logger,
	}
}

// GetByID returns a customer by ID (cache-first via repository)
func (s *CustomerService) GetByID(tenantCtx *tenant.Context, id string) (*catalog.CustomerNode, error) {
	start := time.Now()
	if id == "" {
		return nil, fmt.Errorf("customer ID cannot be empty")
	}

	customerRepo := tenantCtx.CustomerRepo()
	customer, err := customerRepo.FindByID(tenantCtx.TenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer %s: %w", id, err)
	}

	s.logger.Catalog().Info("Successfully retrieved customer by ID", "tenantId", tenantCtx.TenantID, "customerId", id, "found", customer != nil, "duration", time.Since(start))

	return customer, nil
}

// GetPage returns one filtered page of customers plus the matching total
func (s *CustomerService) GetPage(tenantCtx *tenant.Context, query repositories.CustomerQuery) ([]*catalog.CustomerNode, int, error) {
	start := time.Now()
	query.Normalize()

	customerRepo := tenantCtx.CustomerRepo()
	customers, total, err := customerRepo.FindPage(tenantCtx.TenantID, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get customer page: %w", err)
	}

	s.logger.Catalog().Info("Successfully retrieved customer page", "tenantId", tenantCtx.TenantID, "page", query.Page, "count", len(customers), "total", total, "duration", time.Since(start))

	return customers, total, nil
}

// Update updates a customer's contact details
func (s *CustomerService) Update(tenantCtx *tenant.Context, customer *catalog.CustomerNode) error {
	start := time.Now()
	if customer == nil {
		return fmt.Errorf("customer cannot be nil")
	}
	if customer.ID == "" {
		return fmt.Errorf("customer ID cannot be empty")
	}
	if customer.Name == "" {
		return fmt.Errorf("customer name cannot be empty")
	}
	if customer.Email == "" || !strings.Contains(customer.Email, "@") {
		return fmt.Errorf("customer email %q is not valid", customer.Email)
	}

	customerRepo := tenantCtx.CustomerRepo()

	existing, err := customerRepo.FindByID(tenantCtx.TenantID, customer.ID)
	if err != nil {
		return fmt.Errorf("failed to verify customer %s exists: %w", customer.ID, err)
	}
	if existing == nil {
		return fmt.Errorf("customer %s not found", customer.ID)
	}

	customer.Created = existing.Created
	customer.NodeType = "Customer"
	now := time.Now().UTC()
	customer.Changed = &now

	if err := customerRepo.Update(tenantCtx.TenantID, customer); err != nil {
		return fmt.Errorf("failed to update customer %s: %w", customer.ID, err)
	}

	s.logger.Catalog().Info("Successfully updated customer", "tenantId", tenantCtx.TenantID, "customerId", customer.ID, "duration", time.Since(start))

	return nil
}

// Delete deletes a customer. Their past orders keep the denormalized
// customer name.
func (s *CustomerService) Delete(tenantCtx *tenant.Context, id string) error {
	start := time.Now()
	if id == "" {
		return fmt.Errorf("customer ID cannot be empty")
	}

	customerRepo := tenantCtx.CustomerRepo()

	existing, err := customerRepo.FindByID(tenantCtx.TenantID, id)
	if err != nil {
		return fmt.Errorf("failed to verify customer %s exists: %w", id, err)
	}
	if existing == nil {
		return fmt.Errorf("customer %s not found", id)
	}

	if err := customerRepo.Delete(tenantCtx.TenantID, id); err != nil {
		return fmt.Errorf("failed to delete customer %s: %w", id, err)
	}

	s.logger.Catalog().Info("Successfully deleted customer", "tenantId", tenantCtx.TenantID, "customerId", id, "duration", time.Since(start))

	return nil
}
