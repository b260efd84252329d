package handlers

import (
	"schoolhub/internal/middleware"
	"schoolhub/internal/services"
	"schoolhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// RoleHandler serves the current tenant's roles and their permissions.
type RoleHandler struct {
	service *services.RoleService
}

// NewRoleHandler creates a RoleHandler.
func NewRoleHandler(service *services.RoleService) *RoleHandler {
	return &RoleHandler{service: service}
}

// List returns the tenant's roles.
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.service.List(c.Request.Context(), middleware.CurrentTenant(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, roles)
}

// GetPermissions lists the permissions the role holds and could hold.
func (h *RoleHandler) GetPermissions(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	perms, err := h.service.GetPermissions(c.Request.Context(), middleware.CurrentTenant(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, perms)
}

// UpdatePermissions replaces the role's permissions.
func (h *RoleHandler) UpdatePermissions(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateRolePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindingMessages(err)...)
		return
	}

	perms, err := h.service.UpdatePermissions(c.Request.Context(), middleware.CurrentTenant(c), id, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "Role permissions updated.", perms)
}
