package handlers

import (
	"schoolhub/internal/authz"
	"schoolhub/internal/middleware"
	"schoolhub/internal/services"
	"schoolhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// CurrentUser is the caller as described by their access token.
type CurrentUser struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Tenant      string   `json:"tenant"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// UserHandler serves the caller's own profile and user role administration.
type UserHandler struct {
	service *services.UserService
}

// NewUserHandler creates a UserHandler. Me works with a nil service.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Me echoes the authenticated principal's claims.
func (h *UserHandler) Me(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Unauthorized(c, middleware.MsgUnauthorized)
		return
	}

	name, _ := claims.First(authz.ClaimName)
	response.Success(c, CurrentUser{
		ID:          claims.UserID(),
		Email:       claims.Email(),
		Name:        name,
		Tenant:      claims.Tenant(),
		Roles:       nonNil(claims.Roles()),
		Permissions: nonNil(claims.Permissions()),
	})
}

// GetByID returns one user of the current tenant.
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	user, err := h.service.GetByID(c.Request.Context(), middleware.CurrentTenant(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, user)
}

// GetRoles lists the tenant's roles with the user's membership of each.
func (h *UserHandler) GetRoles(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	roles, err := h.service.GetRoles(c.Request.Context(), middleware.CurrentTenant(c), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, roles)
}

// UpdateRoles changes the user's membership of the listed roles.
func (h *UserHandler) UpdateRoles(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateUserRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindingMessages(err)...)
		return
	}

	roles, err := h.service.UpdateRoles(c.Request.Context(), middleware.CurrentTenant(c), id, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "User roles updated.", roles)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
