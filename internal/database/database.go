package database

import (
	"fmt"
	"time"

	"schoolhub/pkg/config"
	"schoolhub/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB is the shared connection holding the tenant directory and the data of
// every tenant without a dedicated connection string.
var DB *gorm.DB

// Initialize opens the shared database.
func Initialize(cfg *config.Config) error {
	db, err := Open(cfg.Database.DSN(), cfg.Database, cfg.Server.Mode)
	if err != nil {
		return err
	}
	DB = db
	logger.GetLogger().Info("Database connection established")
	return nil
}

// Open connects to dsn and applies the pool settings.
func Open(dsn string, pool config.DatabaseConfig, mode string) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if mode == "debug" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// GetDB returns the shared database opened by Initialize.
func GetDB() *gorm.DB {
	return DB
}

// Close closes the shared database pool.
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
