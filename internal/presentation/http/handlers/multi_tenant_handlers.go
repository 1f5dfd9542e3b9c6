// Package handlers provides HTTP handlers for tenant lifecycle management.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plateful/plateful-go/internal/application/services"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/logging"
	"github.com/plateful/plateful-go/internal/infrastructure/observability/performance"
)

// SetupRequest is the fresh-install payload: credentials for the default
// tenant plus optional hosted database settings.
type SetupRequest struct {
	AdminEmail       string `json:"adminEmail" binding:"required"`
	AdminPassword    string `json:"adminPassword" binding:"required"`
	EditorPassword   string `json:"editorPassword,omitempty"`
	TursoDatabaseURL string `json:"tursoDatabaseURL,omitempty"`
	TursoAuthToken   string `json:"tursoAuthToken,omitempty"`
}

// MultiTenantHandlers handles HTTP requests for tenant lifecycle management.
type MultiTenantHandlers struct {
	service     *services.MultiTenantService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewMultiTenantHandlers creates a new MultiTenantHandlers instance.
func NewMultiTenantHandlers(
	service *services.MultiTenantService,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *MultiTenantHandlers {
	return &MultiTenantHandlers{
		service:     service,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// HandleProvisionTenant handles POST /api/v1/tenant/provision
func (h *MultiTenantHandlers) HandleProvisionTenant(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handler_provision_tenant", "unknown")
	defer marker.Complete()

	var req services.ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		marker.SetError(err)
		h.logger.Tenant().Warn("Failed to bind JSON for tenant provision", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	marker.TenantID = req.TenantID

	activationToken, err := h.service.ProvisionTenant(req)
	if err != nil {
		marker.SetError(err)
		h.logger.Tenant().Error("Tenant provisioning failed", "error", err, "tenantId", req.TenantID)
		// Business logic failures like "tenant already exists" map to 409.
		c.JSON(http.StatusConflict, gin.H{"error": "Tenant provisioning failed", "details": err.Error()})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusCreated, gin.H{
		"status":  "ok",
		"message": "Tenant provisioned successfully. Activation email sent.",
		"token":   activationToken,
	})
}

// HandleActivateTenant handles POST /api/v1/tenant/activation
func (h *MultiTenantHandlers) HandleActivateTenant(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handler_activate_tenant", "unknown")
	defer marker.Complete()

	var req services.ActivationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.service.ActivateTenant(req.Token); err != nil {
		marker.SetError(err)
		h.logger.Tenant().Error("Tenant activation failed", "error", err)
		c.JSON(http.StatusConflict, gin.H{"error": "Tenant activation failed", "details": err.Error()})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Tenant activated successfully."})
}

// HandleGetCapacity handles GET /api/v1/tenant/capacity
func (h *MultiTenantHandlers) HandleGetCapacity(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handler_get_capacity", "system")
	defer marker.Complete()

	capacity, err := h.service.GetCapacity()
	if err != nil {
		marker.SetError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get capacity", "details": err.Error()})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, capacity)
}

// HandleSetupInitialize handles POST /api/v1/setup/initialize. A fresh
// install has a registry entry for "default" with status "inactive";
// anything else means the system is already configured, and setup must
// refuse so this endpoint cannot reset a live install.
func (h *MultiTenantHandlers) HandleSetupInitialize(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handler_setup_initialize", "default")
	defer marker.Complete()

	registry := h.service.GetTenantManager().GetDetector().GetRegistry()

	defaultInfo, exists := registry.Tenants["default"]
	if !exists || defaultInfo.Status != "inactive" {
		marker.SetSuccess(false)
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Setup not available",
			"details": "System is already configured or not in fresh install state",
		})
		return
	}

	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		marker.SetError(err)
		h.logger.Tenant().Warn("Failed to bind JSON for setup initialize", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	provisionReq := services.ProvisionRequest{
		TenantID:         "default",
		AdminEmail:       req.AdminEmail,
		AdminPassword:    req.AdminPassword,
		EditorPassword:   req.EditorPassword,
		Domains:          []string{"*"},
		TursoDatabaseURL: req.TursoDatabaseURL,
		TursoAuthToken:   req.TursoAuthToken,
	}

	h.logger.Tenant().Info("Starting fresh install setup", "tenantId", "default")

	// Provision reserves the tenant and returns the activation token,
	// which setup consumes immediately instead of emailing it.
	activationToken, err := h.service.ProvisionTenant(provisionReq)
	if err != nil {
		marker.SetError(err)
		h.logger.Tenant().Error("Setup provisioning failed", "error", err)
		c.JSON(http.StatusConflict, gin.H{"error": "Setup failed", "details": err.Error()})
		return
	}

	if err := h.service.ActivateTenant(activationToken); err != nil {
		marker.SetError(err)
		h.logger.Tenant().Error("Setup activation failed", "error", err)
		c.JSON(http.StatusConflict, gin.H{"error": "Activation failed", "details": err.Error()})
		return
	}

	marker.SetSuccess(true)
	h.logger.Tenant().Info("Fresh install setup completed successfully")

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Setup completed successfully",
	})
}
