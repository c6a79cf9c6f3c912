package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"hooksink/internal/domain/event"
)

// Open opens (or creates) the embedded ledger database at path and ensures
// the schema exists. AutoMigrate is additive and safe to run on every cold
// start.
func Open(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if err := db.AutoMigrate(&event.Event{}); err != nil {
		return nil, fmt.Errorf("migrate ledger schema: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite tolerates a single writer; the per-tenant actor is already
	// serial, so one open connection is enough.
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// TenantPath returns the database file path for a tenant key inside dataDir.
func TenantPath(dataDir, tenantKey string) string {
	return filepath.Join(dataDir, tenantKey+".db")
}
