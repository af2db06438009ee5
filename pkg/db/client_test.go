package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
)

type testModel struct {
	ID        int
	Name      string `gorm:"uniqueIndex"`
	ParentID  *int
	CreatedAt int64
}

type testParent struct {
	ID       int
	Children []testModel `gorm:"foreignKey:ParentID;constraint:OnDelete:RESTRICT"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:client_%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	conn, err := Open(sqlite.Open(dsn))
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := conn.AutoMigrate(&testParent{}, &testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := NewFromConn(db)

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	client := NewFromConn(db)

	assert.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&testModel{Name: "panicked"}).Error; err != nil {
				return err
			}
			panic("boom")
		})
	})

	var count int64
	require.NoError(t, db.Model(&testModel{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := NewFromConn(db)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
	assert.Equal(t, "sqlite", client.Dialect())
}

func TestNowFuncIsUTC(t *testing.T) {
	db := newTestDB(t)
	assert.Equal(t, "UTC", db.NowFunc().Location().String())
}

func TestViolationHelpers(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Create(&testModel{Name: "dup"}).Error)
	err := db.Create(&testModel{Name: "dup"}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err, ""))
	assert.False(t, IsForeignKeyViolation(err))

	missing := 999
	err = db.Create(&testModel{Name: "orphan", ParentID: &missing}).Error
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))

	assert.False(t, IsUniqueViolation(nil, ""))
	assert.True(t, IsNotFound(db.First(&testModel{}, 12345).Error))
}

func TestTranslate(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Create(&testModel{Name: "dup"}).Error)
	dup := db.Create(&testModel{Name: "dup"}).Error
	assert.True(t, pkgerrors.IsCode(Translate(dup, "model"), pkgerrors.CodeConflict))

	missing := 999
	orphan := db.Create(&testModel{Name: "orphan", ParentID: &missing}).Error
	assert.True(t, pkgerrors.IsCode(Translate(orphan, "model"), pkgerrors.CodeReferentialIntegrity))

	assert.True(t, pkgerrors.IsCode(Translate(db.First(&testModel{}, 12345).Error, "model"), pkgerrors.CodeNotFound))
	assert.True(t, pkgerrors.IsCode(Translate(errors.New("disk full"), "model"), pkgerrors.CodeStorage))

	typed := pkgerrors.New(pkgerrors.CodeValidation, "bad")
	assert.Same(t, typed, Translate(typed, "model"))
	assert.NoError(t, Translate(nil, "model"))
}
