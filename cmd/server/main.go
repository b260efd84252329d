package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schoolhub/internal/authz"
	"schoolhub/internal/database"
	"schoolhub/internal/handlers"
	"schoolhub/internal/middleware"
	"schoolhub/internal/permissions"
	"schoolhub/internal/router"
	"schoolhub/internal/services"
	"schoolhub/internal/store"
	"schoolhub/internal/tenancy"
	"schoolhub/pkg/config"
	"schoolhub/pkg/jwt"
	"schoolhub/pkg/logger"
	"schoolhub/pkg/metrics"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Log); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger := logger.GetLogger()
	appLogger.Info("Starting schoolhub identity service...")

	metrics.Init()

	if err := database.Initialize(cfg); err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}

	dbRouter := database.NewRouter(database.GetDB(), tenantOpener(cfg))
	defer func() {
		if err := dbRouter.Close(); err != nil {
			appLogger.Error("Failed to close tenant databases:", err)
		}
		if err := database.Close(); err != nil {
			appLogger.Error("Failed to close database:", err)
		}
		if err := database.CloseCache(); err != nil {
			appLogger.Error("Failed to close Redis:", err)
		}
	}()

	tenantStore := store.NewTenantStore(dbRouter.Shared())
	users := store.NewUserDirectory(dbRouter)
	roles := store.NewRoleDirectory(dbRouter)

	tokens := jwt.NewManager(cfg.JWT.SecretKey, cfg.JWT.AccessTokenDuration)
	resolver := tenancy.NewResolver(cfg.Tenancy.HeaderName, tenantStore, tokens, database.GetCache(), cfg.Redis.TenantTTL)

	seeder := services.NewSeeder(tenantStore, users, roles, cfg.Tenancy)
	if err := seedData(seeder); err != nil {
		appLogger.Fatalf("Failed to initialize seed data: %v", err)
	}

	tokenService := services.NewTokenService(users, roles, tokens, cfg.Tenancy.RootID, cfg.JWT.RefreshTokenDuration)
	tenantService := services.NewTenantService(tenantStore, seeder, resolver, cfg.Tenancy.RootID)
	roleService := services.NewRoleService(roles, cfg.Tenancy.RootID)
	userService := services.NewUserService(users, roles)

	housekeeping := services.NewHousekeepingScheduler(tenantStore, users, cfg.Housekeeping.RefreshPurgeSpec)
	if err := housekeeping.Start(); err != nil {
		appLogger.Errorf("Failed to start housekeeping scheduler: %v", err)
	}
	defer housekeeping.Stop()

	gin.SetMode(cfg.Server.Mode)

	authorizer, policies := authz.NewDefaultAuthorizer(permissions.Names())
	limiter := middleware.NewRateLimiter(cfg.RateLimit.AuthPerSecond, cfg.RateLimit.AuthBurst)

	r := router.SetupRouter(router.Deps{
		Config:  cfg,
		Tenant:  middleware.NewTenantMiddleware(resolver),
		Auth:    middleware.NewAuthMiddleware(tokens, authorizer, policies),
		Limiter: limiter,
		Tokens:  handlers.NewTokenHandler(tokenService, resolver),
		Tenants: handlers.NewTenantHandler(tenantService),
		Users:   handlers.NewUserHandler(userService),
		Roles:   handlers.NewRoleHandler(roleService),
		Health:  handlers.NewHealthHandler(pingDB(dbRouter.Shared())),
	})

	sweepTicker := time.NewTicker(time.Minute)
	go func() {
		for range sweepTicker.C {
			limiter.Sweep()
		}
	}()
	defer sweepTicker.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	appLogger.Infof("Server started on port %s", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown:", err)
	}
	appLogger.Info("Server exited")
}

// tenantOpener connects to a dedicated tenant database and brings its schema
// up to date before first use.
func tenantOpener(cfg *config.Config) database.Opener {
	return func(connectionString string) (*gorm.DB, error) {
		db, err := database.Open(connectionString, cfg.Database, cfg.Server.Mode)
		if err != nil {
			return nil, err
		}
		if err := database.MigrateDB(db); err != nil {
			return nil, err
		}
		return db, nil
	}
}

func pingDB(db *gorm.DB) handlers.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
