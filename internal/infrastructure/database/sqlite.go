package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLiteConnection opens a SQLite store for local runs and tests.
// SQLite allows one writer, so the pool is pinned to a single connection and
// transactions serialize instead of failing with "database is locked".
func NewSQLiteConnection(path string, env string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig(env))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}
