package handlers

import (
	"context"
	"errors"

	"schoolhub/internal/middleware"
	"schoolhub/internal/models"
	"schoolhub/internal/services"
	"schoolhub/internal/tenancy"
	"schoolhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// TenantResolver finds the tenant claimed by a token the client sent in the
// request body.
type TenantResolver interface {
	ClaimedTenant(token string) string
	Resolve(ctx context.Context, id string) (*models.Tenant, error)
}

// TokenHandler serves login and refresh.
type TokenHandler struct {
	service  *services.TokenService
	resolver TenantResolver
}

// NewTokenHandler creates a TokenHandler. resolver may be nil, in which case
// refresh only works for requests that name their tenant in a header.
func NewTokenHandler(service *services.TokenService, resolver TenantResolver) *TokenHandler {
	return &TokenHandler{service: service, resolver: resolver}
}

// Login issues a token pair for the tenant named by the request.
func (h *TokenHandler) Login(c *gin.Context) {
	var req services.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindingMessages(err)...)
		return
	}

	tokens, err := h.service.Login(c.Request.Context(), middleware.CurrentTenant(c), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, tokens)
}

// Refresh swaps an access token, expired or not, and its refresh token for a
// new pair. Without a tenant header the tenant claim of currentJwt decides.
func (h *TokenHandler) Refresh(c *gin.Context) {
	var req services.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindingMessages(err)...)
		return
	}

	tenant, err := h.refreshTenant(c, req.CurrentJwt)
	if err != nil {
		response.Fail(c, err)
		return
	}

	tokens, err := h.service.Refresh(c.Request.Context(), tenant, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, tokens)
}

func (h *TokenHandler) refreshTenant(c *gin.Context, currentJwt string) (*models.Tenant, error) {
	if tenant := middleware.CurrentTenant(c); tenant != nil || h.resolver == nil {
		return tenant, nil
	}
	id := h.resolver.ClaimedTenant(currentJwt)
	if id == "" {
		return nil, nil
	}
	tenant, err := h.resolver.Resolve(c.Request.Context(), id)
	if errors.Is(err, tenancy.ErrTenantNotFound) {
		return nil, nil
	}
	return tenant, err
}
