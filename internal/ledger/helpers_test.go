package ledger

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/cardledger/pkg/db"
	"github.com/angelmondragon/cardledger/pkg/db/dbtest"
	"github.com/angelmondragon/cardledger/pkg/db/models"
	"github.com/angelmondragon/cardledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
	"github.com/angelmondragon/cardledger/pkg/metrics"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got.String())
}

func requireCode(t *testing.T, err error, code pkgerrors.Code, rule string) {
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
	client *db.Client
	conn   *gorm.DB
	engine *Engine
	reg    *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	reg := prometheus.NewRegistry()
	engine, err := NewEngine(client, NewRepository(client.DB()),
		WithMetrics(metrics.NewLedgerMetrics(reg)),
		WithClock(func() time.Time { return time.Date(2025, 11, 5, 15, 30, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)
	return &fixture{client: client, conn: client.DB(), engine: engine, reg: reg}
}

func (f *fixture) retailer(t *testing.T) *models.Retailer {
	t.Helper()
	r := &models.Retailer{Code: "BBY", Name: "Best Buy", RequiresPin: true}
	require.NoError(t, f.conn.Create(r).Error)
	return r
}

func (f *fixture) giftCard(t *testing.T, face string) *models.GiftCard {
	t.Helper()
	var retailer models.Retailer
	if err := f.conn.First(&retailer).Error; err != nil {
		retailer = *f.retailer(t)
	}
	var count int64
	require.NoError(t, f.conn.Model(&models.GiftCard{}).Count(&count).Error)
	card := &models.GiftCard{
		RetailerID:       retailer.ID,
		SKU:              "BBY-20251105-" + decimal.NewFromInt(count+1).StringFixed(0),
		CardNumber:       "6000" + decimal.NewFromInt(count+1).StringFixed(0),
		AcquisitionCost:  d(face).Mul(d("0.9")).Round(2),
		FaceValue:        d(face),
		RemainingBalance: d(face),
		Status:           enums.GiftCardStatusActive,
	}
	require.NoError(t, f.conn.Create(card).Error)
	return card
}

func (f *fixture) order(t *testing.T) *models.Order {
	t.Helper()
	var retailer models.Retailer
	if err := f.conn.First(&retailer).Error; err != nil {
		retailer = *f.retailer(t)
	}
	o := &models.Order{
		RetailerID:    retailer.ID,
		OrderNumber:   "BBY-1001",
		OrderDate:     time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC),
		PaymentMethod: enums.PaymentMethodGiftCard,
		Subtotal:      d("50"),
		Tax:           d("0"),
		Shipping:      d("0"),
		TotalCost:     d("50"),
		Status:        enums.OrderStatusOrdered,
	}
	require.NoError(t, f.conn.Create(o).Error)
	return o
}

func (f *fixture) item(t *testing.T, name string) *models.InventoryItem {
	t.Helper()
	item := &models.InventoryItem{ItemName: name, AverageCost: decimal.Zero, TotalCost: decimal.Zero}
	require.NoError(t, f.conn.Create(item).Error)
	return item
}

func (f *fixture) sale(t *testing.T) *models.Sale {
	t.Helper()
	s := &models.Sale{
		SaleDate:   time.Date(2025, 11, 6, 0, 0, 0, 0, time.UTC),
		TotalValue: decimal.Zero,
		TotalCost:  decimal.Zero,
		Profit:     decimal.Zero,
	}
	require.NoError(t, f.conn.Create(s).Error)
	return s
}

func (f *fixture) account(t *testing.T, name string, accountType enums.AccountType, limit *string) *models.Account {
	t.Helper()
	a := &models.Account{Name: name, Type: accountType, Balance: decimal.Zero}
	if limit != nil {
		a.CreditLimit = decimal.NewNullDecimal(d(*limit))
	}
	require.NoError(t, f.conn.Create(a).Error)
	return a
}

func (f *fixture) reloadCard(t *testing.T, id int64) models.GiftCard {
	t.Helper()
	var card models.GiftCard
	require.NoError(t, f.conn.First(&card, id).Error)
	return card
}

func (f *fixture) reloadItem(t *testing.T, id int64) models.InventoryItem {
	t.Helper()
	var item models.InventoryItem
	require.NoError(t, f.conn.First(&item, id).Error)
	return item
}

func (f *fixture) reloadAccount(t *testing.T, id int64) models.Account {
	t.Helper()
	var account models.Account
	require.NoError(t, f.conn.First(&account, id).Error)
	return account
}

func strPtr(s string) *string {
	return &s
}
