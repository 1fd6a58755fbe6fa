// Package databasetest opens throwaway databases for tests.
package databasetest

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"lumenai/internal/config"
	"lumenai/internal/database"
)

// Open opens a migrated SQLite database in a per-test temporary directory.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := database.Open(&config.DatabaseConfig{URL: "sqlite:///" + path})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}
