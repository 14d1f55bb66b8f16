// Package testdb opens throwaway in-memory sqlite databases for repository
// and workflow tests.
package testdb

import (
	"fmt"
	"sync/atomic"
	"testing"

	"go-leave/internal/shared/connection"

	"gorm.io/gorm"
)

var seq atomic.Int64

// Open returns a fresh database with the given models migrated. Each call
// gets its own shared-cache name so parallel tests never see each other.
func Open(t *testing.T, models ...any) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared", seq.Add(1))
	db, err := connection.ConnectSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
