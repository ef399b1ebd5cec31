package adapters

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"auth_backend/internal/platform/db"
)

// setupTestDB prepares an in-memory SQLite database with every auth table.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), db.GormConfig())
	require.NoError(t, err, "failed to initialize test database")

	err = db.Migrate(gdb, Models()...)
	require.NoError(t, err, "failed to migrate tables")

	return gdb
}
