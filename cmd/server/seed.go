package main

import (
	"context"
	"fmt"
	"time"

	"schoolhub/internal/services"
	"schoolhub/pkg/logger"
)

const seedTimeout = 2 * time.Minute

// seedData makes sure the root tenant exists and every tenant has its default
// roles, permission claims and admin user.
func seedData(seeder *services.Seeder) error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting seed data initialization...")

	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	start := time.Now()
	if err := seeder.Run(ctx); err != nil {
		return fmt.Errorf("seeding tenants: %w", err)
	}

	appLogger.WithField("elapsed", time.Since(start).String()).
		Info("Seed data initialization completed successfully")
	return nil
}
