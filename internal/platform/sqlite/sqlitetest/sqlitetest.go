// Package sqlitetest opens throwaway migrated databases for tests.
package sqlitetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nicoceron/nimble-backend/internal/platform/sqlite"
	"github.com/nicoceron/nimble-backend/internal/repository"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := sqlite.New(context.Background(), sqlite.MemoryDSN("test-"+uuid.NewString()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
