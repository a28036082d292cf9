package db

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"loan-lifecycle/internal/config"
	"loan-lifecycle/internal/domain/audit"
	"loan-lifecycle/internal/domain/loan"
	"loan-lifecycle/internal/domain/repayment"
	"loan-lifecycle/internal/domain/sideeffect"
)

// OpenGorm opens the configured database and, when enabled, migrates the schema.
func OpenGorm(cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dial = sqlite.Open(cfg.SQLitePath)
	default:
		dial = mysql.Open(cfg.MySQLDSN())
	}

	db, err := OpenGormWithDialector(dial, LogLevel(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == "sqlite" {
		// one writer at a time
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	log.Info("gorm: connected", "driver", cfg.Driver)

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		log.Info("gorm: schema migrated")
	}
	return db, nil
}

// OpenGormWithDialector opens db over dial, sizes the pool and pings it.
func OpenGormWithDialector(dial gorm.Dialector, level logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&loan.Loan{}, &audit.Entry{}, &repayment.Installment{}, &sideeffect.Attempt{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func LogLevel(s string) logger.LogLevel {
	switch s {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
