// Package dbtest opens an in-memory sqlite repository for package tests.
package dbtest

import (
	"testing"

	"github.com/inkbridge/settlement/internal/settlement/db"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewRepository returns a migrated repository backed by an in-memory
// sqlite database that lives for the duration of the test.
func NewRepository(t *testing.T) *db.Repository {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open test database")

	// A pooled second connection to ":memory:" would open a second,
	// empty database; pin the pool to one connection so every caller,
	// including concurrent ones, sees the same store.
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	repo, err := db.NewRepositoryFromDB(gdb)
	require.NoError(t, err, "failed to migrate test database")
	return repo
}
