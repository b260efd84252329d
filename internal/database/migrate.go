package database

import (
	"schoolhub/internal/models"
	"schoolhub/pkg/logger"

	"gorm.io/gorm"
)

// Migrate applies the schema to the shared database.
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB applies the schema to db. AutoMigrate only adds, so it is safe
// to run on every boot and on every tenant database.
func MigrateDB(db *gorm.DB) error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	err := db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Role{},
		&models.RoleClaim{},
		&models.UserRole{},
		&models.UserClaim{},
	)
	if err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")
	return nil
}
