package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"schoolhub/pkg/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	Logger   *logrus.Logger
	fallback sync.Once
)

// Initialize configures the process-wide logger from the log section.
func Initialize(cfg config.LogConfig) error {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if cfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return err
		}

		rotateLogger := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		l.SetOutput(io.MultiWriter(os.Stdout, rotateLogger))
	}

	Logger = l
	return nil
}

// GetLogger returns the configured logger, or a stderr text logger when
// Initialize has not run (tests, tooling).
func GetLogger() *logrus.Logger {
	if Logger == nil {
		fallback.Do(func() {
			if Logger == nil {
				Logger = logrus.New()
			}
		})
	}
	return Logger
}

// ForTenant tags entries with the tenant they concern.
func ForTenant(tenantID string) *logrus.Entry {
	return GetLogger().WithField("tenant", tenantID)
}
