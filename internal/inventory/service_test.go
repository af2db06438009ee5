package inventory

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/cardledger/internal/consistency"
	"github.com/angelmondragon/cardledger/internal/ledger"
	"github.com/angelmondragon/cardledger/pkg/db/dbtest"
	"github.com/angelmondragon/cardledger/pkg/db/models"
	"github.com/angelmondragon/cardledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
	"github.com/angelmondragon/cardledger/pkg/logger"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string {
	return &s
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client := dbtest.Open(t)
	engine, err := ledger.NewEngine(client, ledger.NewRepository(client.DB()))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(client.DB()), engine, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return svc, client.DB()
}

func TestCreateItemWithOpeningStock(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, CreateItemInput{ItemName: "PS5", SKU: strPtr("6523167"), InitialQuantity: 4, InitialCost: d("1800")})
	require.NoError(t, err)
	assert.Equal(t, 4, item.QuantityOnHand)
	assert.True(t, item.AverageCost.Equal(d("450")))

	movements, err := svc.Movements(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, enums.InventorySourceTypeAdjustment, movements[0].SourceType)
	assert.Equal(t, "Opening stock", *movements[0].Notes)

	bare, err := svc.CreateItem(ctx, CreateItemInput{ItemName: "Cable", SKU: strPtr("  ")})
	require.NoError(t, err)
	assert.Nil(t, bare.SKU)
	assert.Zero(t, bare.QuantityOnHand)

	_, err = svc.CreateItem(ctx, CreateItemInput{ItemName: "PS5 again", SKU: strPtr("6523167")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	_, err = svc.CreateItem(ctx, CreateItemInput{ItemName: "Bad", InitialQuantity: 1, InitialCost: d("-1")})
	assert.Equal(t, consistency.RuleInventoryCostSign, pkgerrors.As(err).Rule())
	list, err := svc.ListItems(ctx, "")
	require.NoError(t, err)
	assert.Len(t, list, 2, "failed create must not leave an item behind")
}

func TestAdjustAndHistory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, CreateItemInput{ItemName: "Lego", InitialQuantity: 10, InitialCost: d("100")})
	require.NoError(t, err)

	later := time.Now().UTC().Add(time.Hour)
	_, err = svc.Adjust(ctx, item.ID, AdjustInput{QuantityChange: -3, CostChange: d("-30"), Notes: strPtr("damaged"), MovementDate: &later})
	require.NoError(t, err)

	got, err := svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.QuantityOnHand)
	assert.True(t, got.TotalCost.Equal(d("70")))
	assert.True(t, got.AverageCost.Equal(d("10")))

	_, err = svc.Adjust(ctx, item.ID, AdjustInput{QuantityChange: -8, CostChange: d("-80")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNegativeInventory))

	history, err := svc.Movements(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, -3, history[0].QuantityChange, "newest movement first")
}

func TestUpdateAndSearch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, CreateItemInput{ItemName: "Nintendo Switch", UPC: strPtr("045496882648")})
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, CreateItemInput{ItemName: "Xbox"})
	require.NoError(t, err)

	updated, err := svc.UpdateItem(ctx, item.ID, UpdateItemInput{SKU: strPtr("SW-OLED"), Notes: strPtr("white")})
	require.NoError(t, err)
	assert.Equal(t, "SW-OLED", *updated.SKU)

	found, err := svc.ListItems(ctx, "sw-oled")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, item.ID, found[0].ID)

	found, err = svc.ListItems(ctx, "0454968")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = svc.UpdateItem(ctx, 404, UpdateItemInput{Notes: strPtr("x")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteItemDetachesSaleLines(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, CreateItemInput{ItemName: "GPU", InitialQuantity: 1, InitialCost: d("500")})
	require.NoError(t, err)

	sale := &models.Sale{SaleDate: time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC), TotalValue: d("600"), TotalCost: d("500"), Profit: d("100")}
	require.NoError(t, conn.Create(sale).Error)
	line := &models.SaleItem{SaleID: sale.ID, InventoryItemID: &item.ID, Quantity: 1, UnitPrice: d("600"), UnitCost: d("500"), LineTotal: d("600"), LineCost: d("500")}
	require.NoError(t, conn.Create(line).Error)

	require.NoError(t, svc.DeleteItem(ctx, item.ID))

	var reloaded models.SaleItem
	require.NoError(t, conn.First(&reloaded, line.ID).Error)
	assert.Nil(t, reloaded.InventoryItemID)

	var movements int64
	require.NoError(t, conn.Model(&models.InventoryMovement{}).Count(&movements).Error)
	assert.Zero(t, movements)

	assert.True(t, pkgerrors.IsCode(svc.DeleteItem(ctx, item.ID), pkgerrors.CodeNotFound))
}

func TestFindOrCreateMatchesSkuThenUpc(t *testing.T) {
	_, conn := newTestService(t)
	ctx := context.Background()
	repo := NewRepository(conn)

	bySku, err := repo.FindOrCreate(ctx, "Headphones", strPtr("HP-1"), nil)
	require.NoError(t, err)
	again, err := repo.FindOrCreate(ctx, "Headphones v2", strPtr("HP-1"), strPtr("999"))
	require.NoError(t, err)
	assert.Equal(t, bySku.ID, again.ID)

	byUpc, err := repo.FindOrCreate(ctx, "Speaker", nil, strPtr("111"))
	require.NoError(t, err)
	matched, err := repo.FindOrCreate(ctx, "Speaker", strPtr("SPK"), strPtr("111"))
	require.NoError(t, err)
	assert.Equal(t, byUpc.ID, matched.ID)
}
