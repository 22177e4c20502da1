package db

import (
	"fmt"  // Error wrapping
	"time" // Pool and slow query durations

	"apexpay/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
	"gorm.io/gorm/logger"  // GORM query logger
)

// Open connects to MySQL and sizes the connection pool
func Open(dsn string, isProd bool) (*gorm.DB, error) {
	level := logger.Info
	if isProd {
		level = logger.Warn
	}
	// Route GORM logs through logrus so they share the app's format
	gormLogger := logger.New(logrus.StandardLogger(), logger.Config{
		SlowThreshold:             200 * time.Millisecond, // Log slow queries
		LogLevel:                  level,                  // Verbose outside production
		IgnoreRecordNotFoundError: true,                   // Missing rows are expected
	})
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLogger}) // Open a connection to the database
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)                 // Bound concurrent connections
	sqlDB.SetMaxIdleConns(10)                 // Keep a warm pool
	sqlDB.SetConnMaxLifetime(5 * time.Minute) // Recycle connections
	return db, nil
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(&domain.User{}, &domain.Wallet{}, &domain.Transaction{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}
