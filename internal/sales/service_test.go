package sales

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

func requireRule(t *testing.T, err error, code pkgerrors.Code, rule string) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code(), err.Error())
	if rule != "" {
		assert.Equal(t, rule, typed.Rule(), err.Error())
	}
}

type fixture struct {
	svc    Service
	engine *ledger.Engine
	conn   *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	engine, err := ledger.NewEngine(client, ledger.NewRepository(client.DB()))
	require.NoError(t, err)
	svc, err := NewService(NewRepository(client.DB()), engine, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return &fixture{svc: svc, engine: engine, conn: client.DB()}
}

// stock creates an item holding qty units bought for cost.
func (f *fixture) stock(t *testing.T, name string, qty int, cost string) *models.InventoryItem {
	t.Helper()
	item := &models.InventoryItem{ItemName: name}
	require.NoError(t, f.conn.Create(item).Error)
	_, err := f.engine.ApplyInventoryMovement(context.Background(), ledger.MovementInput{
		ItemID:         item.ID,
		QuantityChange: qty,
		CostChange:     d(cost),
		Source:         ledger.AdjustmentSource{},
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) reloadItem(t *testing.T, id int64) models.InventoryItem {
	t.Helper()
	var item models.InventoryItem
	require.NoError(t, f.conn.First(&item, id).Error)
	return item
}

func saleDate() time.Time {
	return time.Date(2025, 11, 6, 0, 0, 0, 0, time.UTC)
}

func TestCreateSaleCostsAtMovingAverage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	item := f.stock(t, "Headphones", 3, "100.00")

	sale, err := f.svc.Create(ctx, CreateSaleInput{
		SaleDate: saleDate(),
		Lines:    []LineInput{{InventoryItemID: item.ID, Quantity: 2, UnitPrice: d("45.00")}},
	})
	require.NoError(t, err)

	assert.True(t, d("90.00").Equal(sale.TotalValue))
	assert.True(t, d("66.67").Equal(sale.TotalCost), sale.TotalCost.String())
	assert.True(t, d("23.33").Equal(sale.Profit), sale.Profit.String())
	require.Len(t, sale.Lines, 1)
	assert.True(t, d("33.335").Equal(sale.Lines[0].UnitCost), sale.Lines[0].UnitCost.String())

	left := f.reloadItem(t, item.ID)
	assert.Equal(t, 1, left.QuantityOnHand)
	assert.True(t, d("33.33").Equal(left.TotalCost), left.TotalCost.String())

	var movement models.InventoryMovement
	require.NoError(t, f.conn.Where("source_type = ?", enums.InventorySourceTypeSale).First(&movement).Error)
	require.NotNil(t, movement.SourceID)
	assert.Equal(t, sale.ID, *movement.SourceID)
	assert.Equal(t, -2, movement.QuantityChange)
}

func TestSellingLastUnitsLeavesNoResidual(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	item := f.stock(t, "Cable", 3, "10.00")

	_, err := f.svc.Create(ctx, CreateSaleInput{
		SaleDate: saleDate(),
		Lines:    []LineInput{{InventoryItemID: item.ID, Quantity: 1, UnitPrice: d("5.00")}},
	})
	require.NoError(t, err)
	sale, err := f.svc.Create(ctx, CreateSaleInput{
		SaleDate: saleDate(),
		Lines:    []LineInput{{InventoryItemID: item.ID, Quantity: 2, UnitPrice: d("5.00")}},
	})
	require.NoError(t, err)
	assert.True(t, d("6.67").Equal(sale.TotalCost), sale.TotalCost.String())

	empty := f.reloadItem(t, item.ID)
	assert.Zero(t, empty.QuantityOnHand)
	assert.True(t, empty.TotalCost.IsZero())
	assert.True(t, empty.AverageCost.IsZero())
}

func TestCreateSaleRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	item := f.stock(t, "Console", 1, "300.00")

	_, err := f.svc.Create(ctx, CreateSaleInput{SaleDate: saleDate()})
	requireRule(t, err, pkgerrors.CodeValidation, consistency.RuleSaleEmpty)

	_, err = f.svc.Create(ctx, CreateSaleInput{
		SaleDate: saleDate(),
		Lines:    []LineInput{{InventoryItemID: item.ID, Quantity: 0, UnitPrice: d("1.00")}},
	})
	requireRule(t, err, pkgerrors.CodeValidation, consistency.RuleSaleQuantityPositive)

	_, err = f.svc.Create(ctx, CreateSaleInput{
		SaleDate: saleDate(),
		Lines:    []LineInput{{InventoryItemID: item.ID, Quantity: 2, UnitPrice: d("350.00")}},
	})
	requireRule(t, err, pkgerrors.CodeNegativeInventory, "")

	_, err = f.svc.Create(ctx, CreateSaleInput{
		SaleDate: saleDate(),
		Lines:    []LineInput{{InventoryItemID: 999, Quantity: 1, UnitPrice: d("1.00")}},
	})
	requireRule(t, err, pkgerrors.CodeNotFound, "")

	var sales int64
	require.NoError(t, f.conn.Model(&models.Sale{}).Count(&sales).Error)
	assert.Zero(t, sales)
	assert.Equal(t, 1, f.reloadItem(t, item.ID).QuantityOnHand)
}

func TestDeleteSaleRestoresStockAndProceeds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	item := f.stock(t, "Speaker", 4, "200.00")
	bank := &models.Account{Name: "Checking", Type: enums.AccountTypeBank}
	require.NoError(t, f.conn.Create(bank).Error)

	sale, err := f.svc.Create(ctx, CreateSaleInput{
		SaleDate:          saleDate(),
		ProceedsAccountID: &bank.ID,
		Lines:             []LineInput{{InventoryItemID: item.ID, Quantity: 3, UnitPrice: d("70.00")}},
	})
	require.NoError(t, err)

	var account models.Account
	require.NoError(t, f.conn.First(&account, bank.ID).Error)
	assert.True(t, d("210.00").Equal(account.Balance))

	require.NoError(t, f.svc.Delete(ctx, sale.ID))

	restored := f.reloadItem(t, item.ID)
	assert.Equal(t, 4, restored.QuantityOnHand)
	assert.True(t, d("200.00").Equal(restored.TotalCost), restored.TotalCost.String())

	require.NoError(t, f.conn.First(&account, bank.ID).Error)
	assert.True(t, account.Balance.IsZero())

	var lines int64
	require.NoError(t, f.conn.Model(&models.SaleItem{}).Count(&lines).Error)
	assert.Zero(t, lines)

	drift, err := f.engine.RecomputeInventoryItem(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, drift.Changed())

	_, err = f.svc.Get(ctx, sale.ID)
	requireRule(t, err, pkgerrors.CodeNotFound, "")
}

func TestUpdateSaleReplacesLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.stock(t, "Mouse", 5, "50.00")
	second := f.stock(t, "Keyboard", 2, "80.00")

	sale, err := f.svc.Create(ctx, CreateSaleInput{
		SaleDate: saleDate(),
		Lines:    []LineInput{{InventoryItemID: first.ID, Quantity: 2, UnitPrice: d("15.00")}},
	})
	require.NoError(t, err)

	buyer := "eBay buyer"
	updated, err := f.svc.Update(ctx, sale.ID, UpdateSaleInput{
		Buyer: &buyer,
		Lines: []LineInput{{InventoryItemID: second.ID, Quantity: 1, UnitPrice: d("55.00")}},
	})
	require.NoError(t, err)
	assert.Equal(t, &buyer, updated.Buyer)
	assert.True(t, d("55.00").Equal(updated.TotalValue))
	assert.True(t, d("40.00").Equal(updated.TotalCost))
	assert.True(t, d("15.00").Equal(updated.Profit))
	require.Len(t, updated.Lines, 1)

	assert.Equal(t, 5, f.reloadItem(t, first.ID).QuantityOnHand)
	assert.Equal(t, 1, f.reloadItem(t, second.ID).QuantityOnHand)

	notes := "relisted"
	header, err := f.svc.Update(ctx, sale.ID, UpdateSaleInput{Notes: &notes})
	require.NoError(t, err)
	assert.Len(t, header.Lines, 1)
	assert.True(t, d("55.00").Equal(header.TotalValue))

	_, err = f.svc.Update(ctx, sale.ID, UpdateSaleInput{Lines: []LineInput{}})
	requireRule(t, err, pkgerrors.CodeValidation, consistency.RuleSaleEmpty)
}

func TestListSalesByWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	item := f.stock(t, "Tablet", 3, "300.00")
	for _, day := range []int{3, 6, 9} {
		_, err := f.svc.Create(ctx, CreateSaleInput{
			SaleDate: time.Date(2025, 11, day, 0, 0, 0, 0, time.UTC),
			Lines:    []LineInput{{InventoryItemID: item.ID, Quantity: 1, UnitPrice: d("120.00")}},
		})
		require.NoError(t, err)
	}

	from := time.Date(2025, 11, 4, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 11, 8, 0, 0, 0, 0, time.UTC)
	window, err := f.svc.List(ctx, ListFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, 6, window[0].SaleDate.Day())

	all, err := f.svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
