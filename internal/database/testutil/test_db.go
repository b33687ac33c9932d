// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fi-advisor/fi/internal/database"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
// Each call gets its own named shared-cache database so parallel tests do
// not see each other's rows.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, database.Migrate(db))
	return db
}
