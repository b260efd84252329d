package middleware

import (
	"errors"

	"schoolhub/internal/models"
	"schoolhub/internal/tenancy"
	"schoolhub/pkg/logger"
	"schoolhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// ContextTenantKey holds the resolved *models.Tenant in the gin context.
const ContextTenantKey = "tenant"

// TenantMiddleware attaches the tenant named by the request to the context.
type TenantMiddleware struct {
	resolver *tenancy.Resolver
}

// NewTenantMiddleware creates a TenantMiddleware.
func NewTenantMiddleware(resolver *tenancy.Resolver) *TenantMiddleware {
	return &TenantMiddleware{resolver: resolver}
}

// ResolveTenant looks the tenant up and stores it on the request. A request
// naming no tenant, or an unknown one, continues without; whatever runs
// next decides whether that is acceptable.
func (m *TenantMiddleware) ResolveTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, err := m.resolver.ResolveRequest(c.Request)
		switch {
		case err == nil:
			c.Set(ContextTenantKey, tenant)
			c.Request = c.Request.WithContext(tenancy.WithTenant(c.Request.Context(), tenant))
		case errors.Is(err, tenancy.ErrNoTenant), errors.Is(err, tenancy.ErrTenantNotFound):
		default:
			logger.GetLogger().WithError(err).Error("Tenant resolution failed")
			response.Fail(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentTenant returns the tenant resolved for c, or nil.
func CurrentTenant(c *gin.Context) *models.Tenant {
	if v, ok := c.Get(ContextTenantKey); ok {
		if tenant, ok := v.(*models.Tenant); ok {
			return tenant
		}
	}
	return nil
}
