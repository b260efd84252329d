package middleware

import (
	"errors"
	"fmt"

	"schoolhub/internal/authz"
	"schoolhub/internal/permissions"
	"schoolhub/internal/tenancy"
	"schoolhub/pkg/jwt"
	"schoolhub/pkg/logger"
	"schoolhub/pkg/metrics"
	"schoolhub/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ContextClaimsKey = "claims"
	ContextUserIDKey = "user_id"

	MsgTokenExpired = "Token has expired."
	MsgUnauthorized = "You are not authorized."
	MsgForbidden    = "You are not authorized to access this resource."
)

// AuthMiddleware authenticates bearer tokens and enforces policies.
type AuthMiddleware struct {
	tokens     *jwt.Manager
	authorizer *authz.Authorizer
	policies   *authz.PermissionPolicyProvider
}

// NewAuthMiddleware creates an AuthMiddleware. policies decides which
// permission names RequirePermission accepts.
func NewAuthMiddleware(tokens *jwt.Manager, authorizer *authz.Authorizer, policies *authz.PermissionPolicyProvider) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:     tokens,
		authorizer: authorizer,
		policies:   policies,
	}
}

// RequireLogin accepts only a valid, unexpired token minted for the tenant
// the request was resolved to.
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tenancy.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.Unauthorized(c, MsgUnauthorized)
			c.Abort()
			return
		}

		claims, err := m.tokens.Verify(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.Unauthorized(c, MsgTokenExpired)
			} else {
				response.Unauthorized(c, MsgUnauthorized)
			}
			c.Abort()
			return
		}

		tenant := CurrentTenant(c)
		if tenant == nil || tenant.ID != claims.Tenant {
			logger.ForTenant(claims.Tenant).WithField("user", claims.Subject).
				Warn("Token presented for a different tenant")
			response.Unauthorized(c, MsgUnauthorized)
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims.ClaimSet())
		c.Set(ContextUserIDKey, claims.Subject)
		c.Next()
	}
}

// RequirePolicy evaluates the named policy against the caller's claims.
// It must run after RequireLogin.
func (m *AuthMiddleware) RequirePolicy(policyName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Unauthorized(c, MsgUnauthorized)
			c.Abort()
			return
		}

		result, err := m.authorizer.Authorize(c.Request.Context(), claims, policyName)
		if err != nil {
			response.Fail(c, err)
			c.Abort()
			return
		}
		if !result.Succeeded {
			metrics.ObserveDenial(policyName)
			logger.ForTenant(claims.Tenant()).WithField("user", claims.UserID()).
				WithField("permission", policyName).Info("Permission denied")
			response.Forbidden(c, MsgForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePermission guards a route with Permission.<feature>.<action>. It
// panics when the permission is not in the catalog, so a typo fails at
// route registration instead of denying every request.
func (m *AuthMiddleware) RequirePermission(action, feature string) gin.HandlerFunc {
	name := permissions.NameFor(action, feature)
	if !m.policies.Known(name) {
		panic(fmt.Sprintf("middleware: permission %s is not in the catalog", name))
	}
	return m.RequirePolicy(name)
}

// Permission chains RequireLogin and RequirePermission.
func (m *AuthMiddleware) Permission(action, feature string) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.RequireLogin(),
		m.RequirePermission(action, feature),
	}
}

// Authenticated chains RequireLogin and the authenticated-user policy.
func (m *AuthMiddleware) Authenticated() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.RequireLogin(),
		m.RequirePolicy(authz.PolicyAuthenticated),
	}
}

// CurrentClaims returns the claims RequireLogin stored on c.
func CurrentClaims(c *gin.Context) (authz.ClaimSet, bool) {
	v, ok := c.Get(ContextClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(authz.ClaimSet)
	return claims, ok
}
