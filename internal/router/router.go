package router

import (
	"schoolhub/internal/handlers"
	"schoolhub/internal/middleware"
	"schoolhub/internal/permissions"
	"schoolhub/pkg/config"
	"schoolhub/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Config  *config.Config
	Tenant  *middleware.TenantMiddleware
	Auth    *middleware.AuthMiddleware
	Limiter *middleware.RateLimiter

	Tokens  *handlers.TokenHandler
	Tenants *handlers.TenantHandler
	Users   *handlers.UserHandler
	Roles   *handlers.RoleHandler
	Health  *handlers.HealthHandler
}

// SetupRouter builds the engine. Tenant resolution runs for every API
// request; authentication and authorization are attached per route.
func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(metrics.Instrument())
	router.Use(middleware.SetupCORS(d.Config.CORS))

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	registerRoutes(router, d)
	return router
}

func registerRoutes(router *gin.Engine, d Deps) {
	auth := d.Auth

	api := router.Group("/api/v1")
	api.GET("/health", d.Health.Health)

	scoped := api.Group("")
	scoped.Use(d.Tenant.ResolveTenant())
	{
		tokens := scoped.Group("/tokens")
		if d.Limiter != nil {
			tokens.Use(d.Limiter.Middleware())
		}
		{
			tokens.POST("/login", d.Tokens.Login)
			tokens.POST("/refresh-token", d.Tokens.Refresh)
		}

		users := scoped.Group("/users")
		{
			users.GET("/me", append(auth.Authenticated(), d.Users.Me)...)
			users.GET("/:id", append(auth.Permission(permissions.ActionRead, permissions.FeatureUsers), d.Users.GetByID)...)
			users.GET("/:id/roles", append(auth.Permission(permissions.ActionRead, permissions.FeatureUserRoles), d.Users.GetRoles)...)
			users.PUT("/:id/roles", append(auth.Permission(permissions.ActionUpdate, permissions.FeatureUserRoles), d.Users.UpdateRoles)...)
		}

		roles := scoped.Group("/roles")
		{
			roles.GET("", append(auth.Permission(permissions.ActionRead, permissions.FeatureRoles), d.Roles.List)...)
			roles.GET("/:id/claims", append(auth.Permission(permissions.ActionRead, permissions.FeatureRoleClaims), d.Roles.GetPermissions)...)
			roles.PUT("/:id/claims", append(auth.Permission(permissions.ActionUpdate, permissions.FeatureRoleClaims), d.Roles.UpdatePermissions)...)
		}

		tenants := scoped.Group("/tenants")
		{
			tenants.GET("", guard(auth, permissions.ActionRead, d.Tenants.List)...)
			tenants.POST("", guard(auth, permissions.ActionCreate, d.Tenants.Create)...)
			tenants.GET("/:id", guard(auth, permissions.ActionRead, d.Tenants.GetByID)...)
			tenants.PUT("/:id/activate", guard(auth, permissions.ActionUpdate, d.Tenants.Activate)...)
			tenants.PUT("/:id/deactivate", guard(auth, permissions.ActionUpdate, d.Tenants.Deactivate)...)
			tenants.PUT("/:id/upgrade", guard(auth, permissions.ActionUpgradeSubscription, d.Tenants.UpgradeSubscription)...)
		}
	}
}

func guard(auth *middleware.AuthMiddleware, action string, h gin.HandlerFunc) []gin.HandlerFunc {
	return append(auth.Permission(action, permissions.FeatureTenants), h)
}
