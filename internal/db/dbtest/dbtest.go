// Package dbtest поднимает SQLite-базу с полной схемой для тестов.
package dbtest

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/Leganyst/rollcall/internal/config"
	"github.com/Leganyst/rollcall/internal/db"
	"github.com/Leganyst/rollcall/internal/model"
)

// Open создаёт файл базы во временном каталоге теста и мигрирует схему.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.NewGormDB(&config.DBConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "rollcall.db"),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
