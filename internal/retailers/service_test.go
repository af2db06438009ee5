package retailers

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/cardledger/internal/consistency"
	"github.com/angelmondragon/cardledger/pkg/db"
	"github.com/angelmondragon/cardledger/pkg/db/dbtest"
	"github.com/angelmondragon/cardledger/pkg/db/models"
	"github.com/angelmondragon/cardledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
	"github.com/angelmondragon/cardledger/pkg/logger"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(client, NewRepository(client.DB()), logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return svc, client
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	added, err := svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(Defaults), added)

	added, err = svc.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, added)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, "AMZ", list[0].Code)

	bby, err := svc.GetByCode(ctx, " bby ")
	require.NoError(t, err)
	assert.True(t, bby.RequiresPin)
	assert.Equal(t, "Best Buy", bby.Name)
}

func TestCreateRejectsDuplicatesAndInvalidInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRetailerInput{Code: "tgt", Name: "Target"})
	require.NoError(t, err)
	assert.Equal(t, "TGT", created.Code)

	_, err = svc.Create(ctx, CreateRetailerInput{Code: "TGT", Name: "Target Two"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	_, err = svc.Create(ctx, CreateRetailerInput{Code: "", Name: "Nameless"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, consistency.RuleFieldInvalid, pkgerrors.As(err).Rule())
}

func TestUpdateRetailer(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRetailerInput{Code: "WMT", Name: "Walmart"})
	require.NoError(t, err)

	pin := true
	updated, err := svc.Update(ctx, created.ID, UpdateRetailerInput{RequiresPin: &pin})
	require.NoError(t, err)
	assert.True(t, updated.RequiresPin)
	assert.Equal(t, "Walmart", updated.Name)

	_, err = svc.Update(ctx, 999, UpdateRetailerInput{RequiresPin: &pin})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteRestrictedByOrders(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	conn := client.DB()

	retailer, err := svc.Create(ctx, CreateRetailerInput{Code: "BBY", Name: "Best Buy"})
	require.NoError(t, err)
	order := &models.Order{
		RetailerID:    retailer.ID,
		OrderNumber:   "A-1",
		OrderDate:     time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		PaymentMethod: enums.PaymentMethodCreditCard,
		TotalCost:     decimal.NewFromInt(10),
		Status:        enums.OrderStatusOrdered,
	}
	require.NoError(t, conn.Create(order).Error)

	err = svc.Delete(ctx, retailer.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeReferentialIntegrity), "got %v", err)
	assert.Equal(t, consistency.RuleRetailerHasOrders, pkgerrors.As(err).Rule())

	_, err = svc.Get(ctx, retailer.ID)
	require.NoError(t, err)
}

func TestDeleteCascadesGiftCards(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	conn := client.DB()

	retailer, err := svc.Create(ctx, CreateRetailerInput{Code: "DDR", Name: "Doordash"})
	require.NoError(t, err)
	card := &models.GiftCard{
		RetailerID:       retailer.ID,
		SKU:              "DDR-20251101-0001",
		CardNumber:       "1234",
		AcquisitionCost:  decimal.NewFromInt(45),
		FaceValue:        decimal.NewFromInt(50),
		RemainingBalance: decimal.NewFromInt(40),
		Status:           enums.GiftCardStatusActive,
	}
	require.NoError(t, conn.Create(card).Error)
	require.NoError(t, conn.Create(&models.GiftCardUsage{
		GiftCardID: card.ID,
		AmountUsed: decimal.NewFromInt(10),
		UsageDate:  time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC),
	}).Error)

	require.NoError(t, svc.Delete(ctx, retailer.ID))

	var cards, usage int64
	require.NoError(t, conn.Model(&models.GiftCard{}).Count(&cards).Error)
	require.NoError(t, conn.Model(&models.GiftCardUsage{}).Count(&usage).Error)
	assert.Zero(t, cards)
	assert.Zero(t, usage)

	err = svc.Delete(ctx, retailer.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
