package store

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/rbuysse/quizbox/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the configured database and migrates the schema.
func Open(driver, dsn string, debug bool) (*gorm.DB, error) {
	gormConfig := &gorm.Config{TranslateError: true}
	if !debug {
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	} else {
		// In debug mode, only log warnings and errors, not "record not found" info messages
		gormConfig.Logger = logger.Default.LogMode(logger.Warn)
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(sqliteDSN(dsn))
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if debug {
		log.Printf("Database initialized successfully (%s)", dialector.Name())
	}

	return db, nil
}

// sqliteDSN turns on foreign key enforcement, which sqlite leaves off per connection.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}

// Ping checks that a connection can be borrowed from the pool.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
