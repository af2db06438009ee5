package migrate_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/angelmondragon/cardledger/pkg/db"
	"github.com/angelmondragon/cardledger/pkg/db/dbtest"
	"github.com/angelmondragon/cardledger/pkg/migrate"
)

func readMigration(t *testing.T, dialect, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", dialect, "*_"+suffix+".sql"))
	require.NoError(t, err)
	require.NotEmpty(t, matches, "no %s migration for %s", suffix, dialect)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestInitialSchemaContainsReferentialActions(t *testing.T) {
	checks := []string{
		"FOREIGN KEY(retailer_id) REFERENCES retailers (id) ON DELETE CASCADE",
		"FOREIGN KEY(retailer_id) REFERENCES retailers (id) ON DELETE RESTRICT",
		"FOREIGN KEY(gift_card_id) REFERENCES gift_cards (id) ON DELETE CASCADE",
		"FOREIGN KEY(order_id) REFERENCES orders (id) ON DELETE SET NULL",
		"FOREIGN KEY(order_id) REFERENCES orders (id) ON DELETE CASCADE",
		"FOREIGN KEY(inventory_item_id) REFERENCES inventory_items (id) ON DELETE CASCADE",
		"FOREIGN KEY(order_item_id) REFERENCES order_items (id) ON DELETE SET NULL",
		"FOREIGN KEY(sale_id) REFERENCES sales (id) ON DELETE CASCADE",
		"FOREIGN KEY(inventory_item_id) REFERENCES inventory_items (id) ON DELETE SET NULL",
		"FOREIGN KEY(account_id) REFERENCES accounts (id) ON DELETE CASCADE",
		"average_cost NUMERIC(10, 4) DEFAULT 0 NOT NULL",
		"unit_cost NUMERIC(10, 4) NOT NULL",
		"DROP TABLE IF EXISTS retailers",
	}

	for _, dialect := range []string{migrate.DialectSQLite, migrate.DialectPostgres} {
		content := readMigration(t, dialect, "initial_schema")
		for _, sub := range checks {
			assert.Contains(t, content, sub, "%s migration", dialect)
		}
	}

	pg := readMigration(t, migrate.DialectPostgres, "initial_schema")
	assert.Contains(t, pg, "CREATE TYPE giftcardstatus AS ENUM ('active', 'used', 'void', 'archived')")
	assert.Contains(t, pg, "requires_pin BOOLEAN DEFAULT false NOT NULL")
	assert.NotContains(t, pg, "DATETIME")
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	require.NoError(t, migrate.ValidateDir(filepath.Join("migrations", migrate.DialectSQLite)))
	require.NoError(t, migrate.ValidateDir(filepath.Join("migrations", migrate.DialectPostgres)))
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))

	err := migrate.ValidateDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid migration filename")
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Sale Index")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_sale_index.sql"))
	require.NoError(t, migrate.ValidateDir(dir))
}

func TestShippedDialectsCarrySameVersions(t *testing.T) {
	require.NoError(t, migrate.ValidateEmbedded())
	require.NoError(t, migrate.ValidateTree("migrations"))
}

func TestCreateDialectPairValidates(t *testing.T) {
	root := t.TempDir()
	paths, err := migrate.CreateDialectPair(root, "add-account index")
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Base(paths[0]), filepath.Base(paths[1]))
	assert.True(t, strings.HasSuffix(paths[0], "_add_account_index.sql"))
	require.NoError(t, migrate.ValidateTree(root))
}

func TestValidateTreeRejectsUnpairedVersion(t *testing.T) {
	root := t.TempDir()
	_, err := migrate.CreateSQLMigration(filepath.Join(root, migrate.DialectSQLite), "only sqlite")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(root, migrate.DialectPostgres), 0o755))

	err = migrate.ValidateTree(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "versions only in sqlite3")
}

func TestEmbeddedMigrationsApplyOnSQLite(t *testing.T) {
	client := dbtest.Open(t)
	conn := client.DB()

	var tables []string
	require.NoError(t, conn.Raw("SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name").Scan(&tables).Error)
	for _, table := range []string{
		"retailers", "gift_cards", "gift_card_usage", "orders", "order_items", "attachments",
		"inventory_items", "inventory_movements", "sales", "sale_items", "accounts", "account_transactions",
	} {
		assert.Contains(t, tables, table)
	}

	type fkRow struct {
		Table    string `gorm:"column:table"`
		From     string `gorm:"column:from"`
		OnDelete string `gorm:"column:on_delete"`
	}
	var fks []fkRow
	require.NoError(t, conn.Raw("PRAGMA foreign_key_list(gift_card_usage)").Scan(&fks).Error)
	actions := map[string]string{}
	for _, fk := range fks {
		actions[fk.From] = fk.OnDelete
	}
	assert.Equal(t, "CASCADE", actions["gift_card_id"])
	assert.Equal(t, "SET NULL", actions["order_id"])
}

func TestMigrateToVersionRoundTrip(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(sqlite.Open(dbtest.DSN("migrate")))
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrate.Up(ctx, sqlDB, migrate.DialectSQLite))
	version, err := migrate.Version(ctx, sqlDB, migrate.DialectSQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(20251105000002), version)

	require.NoError(t, migrate.MigrateToVersion(ctx, sqlDB, migrate.DialectSQLite, "", "20251105000001"))
	var indexes int64
	require.NoError(t, conn.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_gift_cards_retailer_id'").Scan(&indexes).Error)
	assert.Zero(t, indexes)

	require.NoError(t, migrate.MigrateToVersion(ctx, sqlDB, migrate.DialectSQLite, "", "20251105000002"))
	require.NoError(t, conn.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'idx_gift_cards_retailer_id'").Scan(&indexes).Error)
	assert.Equal(t, int64(1), indexes)

	assert.Error(t, migrate.MigrateToVersion(ctx, sqlDB, migrate.DialectSQLite, "", "not-a-version"))
}

func TestGooseDialect(t *testing.T) {
	assert.Equal(t, migrate.DialectPostgres, migrate.GooseDialect("postgres"))
	assert.Equal(t, migrate.DialectSQLite, migrate.GooseDialect("sqlite"))
	assert.Equal(t, "pkg/migrate/migrations/postgres", migrate.DialectDir(migrate.DialectPostgres))
}
