// Package dbtest opens throwaway SQLite databases with the application schema
// applied, for repository and service tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/pharmacy-inventory/pkg/db"
	"github.com/angelmondragon/pharmacy-inventory/pkg/migrate"
)

// Open returns a client bound to a private in-memory database. The database
// lives until the test finishes.
func Open(t testing.TB) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	// a single connection keeps the in-memory database alive and avoids shared-cache table locks
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	t.Cleanup(func() { _ = sqlDB.Close() })

	migrate.SetLogger(nil)
	require.NoError(t, migrate.Up(context.Background(), sqlDB, migrate.DialectSQLite))

	return db.FromGorm(conn)
}

// ClearRoles removes the seeded roles so tests can exercise the unseeded paths.
func ClearRoles(t testing.TB, client *db.Client) {
	t.Helper()
	require.NoError(t, client.DB().Exec("DELETE FROM user_roles").Error)
	require.NoError(t, client.DB().Exec("DELETE FROM roles").Error)
}
