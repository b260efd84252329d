package handlers

import (
	"schoolhub/internal/models"
	"schoolhub/internal/services"
	"schoolhub/pkg/pagination"
	"schoolhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// TenantHandler serves tenant administration for the root tenant.
type TenantHandler struct {
	service *services.TenantService
}

// NewTenantHandler creates a TenantHandler.
func NewTenantHandler(service *services.TenantService) *TenantHandler {
	return &TenantHandler{service: service}
}

// List returns one page of tenants, oldest first.
func (h *TenantHandler) List(c *gin.Context) {
	page := pagination.ParseParams(c)
	tenants, total, err := h.service.List(c.Request.Context(), page)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessWithPage(c, tenants, pagination.NewInfo(page, total))
}

// Create provisions a tenant and seeds it.
func (h *TenantHandler) Create(c *gin.Context) {
	var req services.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindingMessages(err)...)
		return
	}

	tenant, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "Tenant created.", tenant)
}

// GetByID returns one tenant.
func (h *TenantHandler) GetByID(c *gin.Context) {
	tenant, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, tenant)
}

// Activate marks the tenant active.
func (h *TenantHandler) Activate(c *gin.Context) {
	h.respond(c, "Tenant activated.")(h.service.Activate(c.Request.Context(), c.Param("id")))
}

// Deactivate marks the tenant inactive. The root tenant cannot be deactivated.
func (h *TenantHandler) Deactivate(c *gin.Context) {
	h.respond(c, "Tenant deactivated.")(h.service.Deactivate(c.Request.Context(), c.Param("id")))
}

// UpgradeSubscription moves the tenant's subscription end date.
func (h *TenantHandler) UpgradeSubscription(c *gin.Context) {
	var req services.UpgradeSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindingMessages(err)...)
		return
	}
	h.respond(c, "Subscription upgraded.")(h.service.UpgradeSubscription(c.Request.Context(), c.Param("id"), req))
}

func (h *TenantHandler) respond(c *gin.Context, message string) func(*models.Tenant, error) {
	return func(tenant *models.Tenant, err error) {
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.SuccessWithMessage(c, message, tenant)
	}
}
