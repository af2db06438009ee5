// Package dbtest opens isolated, fully migrated sqlite databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/angelmondragon/cardledger/pkg/db"
	"github.com/angelmondragon/cardledger/pkg/migrate"
)

// DSN returns a unique shared-cache in-memory DSN with foreign keys enforced.
func DSN(name string) string {
	return fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_foreign_keys=on", name, uuid.NewString())
}

// Open returns a client over a fresh in-memory database with every embedded
// migration applied. The database is dropped when the test finishes.
func Open(t testing.TB) *db.Client {
	t.Helper()

	conn, err := db.Open(sqlite.Open(DSN("ledger")))
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migrate.Up(context.Background(), sqlDB, migrate.DialectSQLite))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db.NewFromConn(conn)
}
