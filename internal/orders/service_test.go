package orders

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
	"github.com/angelmondragon/cardledger/internal/inventory"
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
	svc  Service
	conn *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	engine, err := ledger.NewEngine(client, ledger.NewRepository(client.DB()))
	require.NoError(t, err)
	receiver := NewInventoryReceiver(inventory.NewRepository(client.DB()))
	svc, err := NewService(NewRepository(client.DB()), engine, receiver, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)

	conn := client.DB()
	require.NoError(t, conn.Create(&models.Retailer{Code: "BBY", Name: "Best Buy", RequiresPin: true}).Error)
	return &fixture{svc: svc, conn: conn}
}

func (f *fixture) card(t *testing.T, sku, face string) *models.GiftCard {
	t.Helper()
	var retailer models.Retailer
	require.NoError(t, f.conn.First(&retailer, "code = ?", "BBY").Error)
	card := &models.GiftCard{
		RetailerID:       retailer.ID,
		SKU:              sku,
		CardNumber:       "6000" + sku,
		AcquisitionCost:  d(face).Mul(d("0.9")).Round(2),
		FaceValue:        d(face),
		RemainingBalance: d(face),
		Status:           enums.GiftCardStatusActive,
	}
	require.NoError(t, f.conn.Create(card).Error)
	return card
}

func (f *fixture) account(t *testing.T, name string, accountType enums.AccountType) *models.Account {
	t.Helper()
	account := &models.Account{Name: name, Type: accountType, Balance: decimal.Zero}
	require.NoError(t, f.conn.Create(account).Error)
	return account
}

func (f *fixture) reloadCard(t *testing.T, id int64) models.GiftCard {
	t.Helper()
	var card models.GiftCard
	require.NoError(t, f.conn.First(&card, id).Error)
	return card
}

func baseInput() CreateOrderInput {
	return CreateOrderInput{
		RetailerCode:  "bby",
		OrderNumber:   "BBY-1001",
		OrderDate:     time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC),
		PaymentMethod: enums.PaymentMethodGiftCard,
		Subtotal:      d("90.00"),
		Tax:           d("7.20"),
		Shipping:      d("2.80"),
		Items: []ItemInput{
			{ItemName: "USB-C cable", SKU: strPtr("CBL-1"), Quantity: 2, UnitPrice: d("15.00")},
			{ItemName: "Charger", UPC: strPtr("012345678905"), Quantity: 1, UnitPrice: d("60.00")},
		},
	}
}

func TestCreateOrderAppliesAllocations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.card(t, "BBY-20251101-0001", "50.00")
	second := f.card(t, "BBY-20251101-0002", "75.00")

	input := baseInput()
	input.Allocations = []Allocation{
		{GiftCardID: first.ID, Amount: d("50.00")},
		{GiftCardID: second.ID, Amount: d("50.00")},
	}
	order, err := f.svc.Create(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusOrdered, order.Status)
	assert.True(t, d("100.00").Equal(order.TotalCost))
	assert.True(t, d("100.00").Equal(order.GiftCardSpend))
	require.Len(t, order.Items, 2)
	assert.True(t, d("30.00").Equal(order.Items[0].TotalPrice))
	require.Len(t, order.Allocations, 2)

	drained := f.reloadCard(t, first.ID)
	assert.True(t, drained.RemainingBalance.IsZero())
	assert.Equal(t, enums.GiftCardStatusUsed, drained.Status)
	partial := f.reloadCard(t, second.ID)
	assert.True(t, d("25.00").Equal(partial.RemainingBalance))
	assert.Equal(t, enums.GiftCardStatusActive, partial.Status)
}

func TestCreateOrderRollsBackOnInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.card(t, "BBY-20251101-0001", "80.00")
	second := f.card(t, "BBY-20251101-0002", "10.00")

	input := baseInput()
	input.Allocations = []Allocation{
		{GiftCardID: first.ID, Amount: d("80.00")},
		{GiftCardID: second.ID, Amount: d("20.00")},
	}
	_, err := f.svc.Create(ctx, input)
	requireRule(t, err, pkgerrors.CodeInsufficientBalance, consistency.RuleGiftCardInsufficient)

	var orders int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
	assert.True(t, d("80.00").Equal(f.reloadCard(t, first.ID).RemainingBalance))
}

func TestCreateOrderValidatesTotals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	input := baseInput()
	input.TotalCost = decimalPtr(d("120.00"))
	_, err := f.svc.Create(ctx, input)
	requireRule(t, err, pkgerrors.CodeValidation, consistency.RuleOrderTotalMismatch)

	card := f.card(t, "BBY-20251101-0001", "50.00")
	mixed := baseInput()
	mixed.PaymentMethod = enums.PaymentMethodMixed
	mixed.CreditCardSpend = d("40.00")
	mixed.Allocations = []Allocation{{GiftCardID: card.ID, Amount: d("50.00")}}
	_, err = f.svc.Create(ctx, mixed)
	requireRule(t, err, pkgerrors.CodeValidation, consistency.RuleOrderPaymentMismatch)

	badLine := baseInput()
	badLine.Items[0].TotalPrice = decimalPtr(d("31.00"))
	_, err = f.svc.Create(ctx, badLine)
	requireRule(t, err, pkgerrors.CodeValidation, consistency.RuleOrderItemTotalMismatch)

	unknown := baseInput()
	unknown.RetailerCode = "ZZZ"
	_, err = f.svc.Create(ctx, unknown)
	requireRule(t, err, pkgerrors.CodeNotFound, "")
}

func TestMixedOrderChargesCreditCardAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	card := f.card(t, "BBY-20251101-0001", "50.00")
	visa := f.account(t, "Visa", enums.AccountTypeCreditCard)

	input := baseInput()
	input.PaymentMethod = enums.PaymentMethodMixed
	input.CreditCardSpend = d("60.00")
	input.CreditCardAccountID = &visa.ID
	input.Allocations = []Allocation{{GiftCardID: card.ID, Amount: d("40.00")}}
	order, err := f.svc.Create(ctx, input)
	require.NoError(t, err)

	var account models.Account
	require.NoError(t, f.conn.First(&account, visa.ID).Error)
	assert.True(t, d("60.00").Equal(account.Balance))

	var txn models.AccountTransaction
	require.NoError(t, f.conn.First(&txn, "account_id = ?", visa.ID).Error)
	assert.Equal(t, enums.AccountRelatedTypeOrder, txn.RelatedType)
	require.NotNil(t, txn.RelatedID)
	assert.Equal(t, order.ID, *txn.RelatedID)
}

func TestDeliverBooksInventory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	existing := &models.InventoryItem{ItemName: "Charger", UPC: strPtr("012345678905")}
	require.NoError(t, f.conn.Create(existing).Error)

	order, err := f.svc.Create(ctx, baseInput())
	require.NoError(t, err)

	shipped, err := f.svc.SetStatus(ctx, order.ID, enums.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, shipped.Status)

	delivered, err := f.svc.SetStatus(ctx, order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, delivered.Status)

	var charger models.InventoryItem
	require.NoError(t, f.conn.First(&charger, existing.ID).Error)
	assert.Equal(t, 1, charger.QuantityOnHand)
	assert.True(t, d("60.00").Equal(charger.TotalCost))

	var cable models.InventoryItem
	require.NoError(t, f.conn.First(&cable, "sku = ?", "CBL-1").Error)
	assert.Equal(t, 2, cable.QuantityOnHand)
	assert.True(t, d("15.0000").Equal(cable.AverageCost))

	var movements []models.InventoryMovement
	require.NoError(t, f.conn.Order("id").Find(&movements).Error)
	require.Len(t, movements, 2)
	for i, m := range movements {
		assert.Equal(t, enums.InventorySourceTypeOrder, m.SourceType)
		require.NotNil(t, m.SourceID)
		assert.Equal(t, order.ID, *m.SourceID)
		require.NotNil(t, m.OrderItemID)
		assert.Equal(t, order.Items[i].ID, *m.OrderItemID)
	}

	_, err = f.svc.SetStatus(ctx, order.ID, enums.OrderStatusCancelled)
	requireRule(t, err, pkgerrors.CodeValidation, consistency.RuleOrderStatusTransition)

	_, err = f.svc.AddItem(ctx, order.ID, ItemInput{ItemName: "Late", Quantity: 1, UnitPrice: d("1.00")})
	requireRule(t, err, pkgerrors.CodeConflict, consistency.RuleOrderStatusTransition)
}

func TestCreateDeliveredOrderReceivesImmediately(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	input := baseInput()
	input.Status = enums.OrderStatusDelivered
	_, err := f.svc.Create(ctx, input)
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.conn.Model(&models.InventoryMovement{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestCancelKeepsGiftCardSpend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	card := f.card(t, "BBY-20251101-0001", "100.00")

	input := baseInput()
	input.Allocations = []Allocation{{GiftCardID: card.ID, Amount: d("100.00")}}
	order, err := f.svc.Create(ctx, input)
	require.NoError(t, err)

	_, err = f.svc.SetStatus(ctx, order.ID, enums.OrderStatusCancelled)
	require.NoError(t, err)
	assert.True(t, f.reloadCard(t, card.ID).RemainingBalance.IsZero())

	_, err = f.svc.Allocate(ctx, order.ID, Allocation{GiftCardID: card.ID, Amount: d("1.00")})
	requireRule(t, err, pkgerrors.CodeConflict, consistency.RuleOrderStatusTransition)
}

func TestAllocateRefreshesGiftCardSpend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	card := f.card(t, "BBY-20251101-0001", "150.00")

	order, err := f.svc.Create(ctx, baseInput())
	require.NoError(t, err)

	alloc, err := f.svc.Allocate(ctx, order.ID, Allocation{GiftCardID: card.ID, Amount: d("60.00")})
	require.NoError(t, err)
	assert.Equal(t, card.ID, alloc.GiftCardID)

	_, err = f.svc.Allocate(ctx, order.ID, Allocation{GiftCardID: card.ID, Amount: d("40.01")})
	requireRule(t, err, pkgerrors.CodeValidation, consistency.RuleOrderPaymentMismatch)
	assert.True(t, d("90.00").Equal(f.reloadCard(t, card.ID).RemainingBalance))

	detail, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, d("60.00").Equal(detail.GiftCardSpend))
	assert.Len(t, detail.Allocations, 1)
}

func TestUpdateRecomputesTotal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order, err := f.svc.Create(ctx, baseInput())
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, order.ID, UpdateOrderInput{Shipping: decimalPtr(d("0.00")), OrderNumber: strPtr(" BBY-1002 ")})
	require.NoError(t, err)
	assert.True(t, d("97.20").Equal(updated.TotalCost))
	assert.Equal(t, "BBY-1002", updated.OrderNumber)

	_, err = f.svc.Update(ctx, order.ID, UpdateOrderInput{Tax: decimalPtr(d("-1.00"))})
	requireRule(t, err, pkgerrors.CodeValidation, consistency.RuleOrderAmountNonNegative)
}

func TestAllocateKeepsMixedOrderBalanced(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.card(t, "BBY-20251101-0001", "50.00")
	second := f.card(t, "BBY-20251101-0002", "50.00")

	input := baseInput()
	input.PaymentMethod = enums.PaymentMethodMixed
	input.CreditCardSpend = d("60.00")
	input.Allocations = []Allocation{{GiftCardID: first.ID, Amount: d("40.00")}}
	order, err := f.svc.Create(ctx, input)
	require.NoError(t, err)

	_, err = f.svc.Allocate(ctx, order.ID, Allocation{GiftCardID: second.ID, Amount: d("10.00")})
	requireRule(t, err, pkgerrors.CodeValidation, consistency.RuleOrderPaymentMismatch)
	assert.True(t, d("50.00").Equal(f.reloadCard(t, second.ID).RemainingBalance))

	detail, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, d("40.00").Equal(detail.GiftCardSpend))
	assert.Len(t, detail.Allocations, 1)
}

func TestUpdateRejectsDeliveredOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	input := baseInput()
	input.Status = enums.OrderStatusDelivered
	order, err := f.svc.Create(ctx, input)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, order.ID, UpdateOrderInput{Subtotal: decimalPtr(d("10.00"))})
	requireRule(t, err, pkgerrors.CodeConflict, consistency.RuleOrderStatusTransition)

	detail, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, d("90.00").Equal(detail.Subtotal))
	assert.True(t, d("100.00").Equal(detail.TotalCost))
}

func TestUpdateKeepsTotalAboveGiftCardSpend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	card := f.card(t, "BBY-20251101-0001", "100.00")

	input := baseInput()
	input.Allocations = []Allocation{{GiftCardID: card.ID, Amount: d("100.00")}}
	order, err := f.svc.Create(ctx, input)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, order.ID, UpdateOrderInput{Subtotal: decimalPtr(d("10.00"))})
	requireRule(t, err, pkgerrors.CodeValidation, consistency.RuleOrderPaymentMismatch)

	detail, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, d("100.00").Equal(detail.TotalCost))
	assert.True(t, d("100.00").Equal(detail.GiftCardSpend))
}

func TestUpdateCreditCardSpendOnceCharged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	visa := f.account(t, "Visa", enums.AccountTypeCreditCard)

	uncharged := baseInput()
	uncharged.PaymentMethod = enums.PaymentMethodCreditCard
	order, err := f.svc.Create(ctx, uncharged)
	require.NoError(t, err)
	updated, err := f.svc.Update(ctx, order.ID, UpdateOrderInput{CreditCardSpend: decimalPtr(d("100.00"))})
	require.NoError(t, err)
	assert.True(t, d("100.00").Equal(updated.CreditCardSpend))

	charged := baseInput()
	charged.OrderNumber = "BBY-1002"
	charged.PaymentMethod = enums.PaymentMethodCreditCard
	charged.CreditCardSpend = d("100.00")
	charged.CreditCardAccountID = &visa.ID
	order, err = f.svc.Create(ctx, charged)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, order.ID, UpdateOrderInput{CreditCardSpend: decimalPtr(d("80.00"))})
	requireRule(t, err, pkgerrors.CodeConflict, consistency.RuleOrderChargePosted)

	same, err := f.svc.Update(ctx, order.ID, UpdateOrderInput{CreditCardSpend: decimalPtr(d("100.00")), OrderNumber: strPtr("BBY-1003")})
	require.NoError(t, err)
	assert.Equal(t, "BBY-1003", same.OrderNumber)

	var account models.Account
	require.NoError(t, f.conn.First(&account, visa.ID).Error)
	assert.True(t, d("100.00").Equal(account.Balance))
}

func TestDeleteOrderKeepsHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	card := f.card(t, "BBY-20251101-0001", "100.00")

	input := baseInput()
	input.Status = enums.OrderStatusDelivered
	input.Allocations = []Allocation{{GiftCardID: card.ID, Amount: d("30.00")}}
	order, err := f.svc.Create(ctx, input)
	require.NoError(t, err)
	_, err = f.svc.AddAttachment(ctx, order.ID, AttachmentInput{FilePath: "receipts/bby-1001.pdf", Label: strPtr("receipt")})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, order.ID))

	_, err = f.svc.Get(ctx, order.ID)
	requireRule(t, err, pkgerrors.CodeNotFound, "")

	var usage models.GiftCardUsage
	require.NoError(t, f.conn.First(&usage, "gift_card_id = ?", card.ID).Error)
	assert.Nil(t, usage.OrderID)
	assert.True(t, d("70.00").Equal(f.reloadCard(t, card.ID).RemainingBalance))

	var movements []models.InventoryMovement
	require.NoError(t, f.conn.Find(&movements).Error)
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.Nil(t, m.OrderItemID)
	}

	var attachments int64
	require.NoError(t, f.conn.Model(&models.Attachment{}).Count(&attachments).Error)
	assert.Zero(t, attachments)

	requireRule(t, f.svc.Delete(ctx, order.ID), pkgerrors.CodeNotFound, "")
}

func TestItemsAndAttachments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	order, err := f.svc.Create(ctx, baseInput())
	require.NoError(t, err)

	item, err := f.svc.AddItem(ctx, order.ID, ItemInput{ItemName: "Case", Quantity: 3, UnitPrice: d("4.00")})
	require.NoError(t, err)
	assert.True(t, d("12.00").Equal(item.TotalPrice))

	_, err = f.svc.AddItem(ctx, order.ID, ItemInput{ItemName: "Bad", Quantity: 0, UnitPrice: d("4.00")})
	requireRule(t, err, pkgerrors.CodeValidation, consistency.RuleOrderItemQuantityPositive)

	require.NoError(t, f.svc.RemoveItem(ctx, order.ID, item.ID))
	requireRule(t, f.svc.RemoveItem(ctx, order.ID, item.ID), pkgerrors.CodeNotFound, "")

	att, err := f.svc.AddAttachment(ctx, order.ID, AttachmentInput{FilePath: "receipts/a.pdf"})
	require.NoError(t, err)
	detail, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Items, 2)
	require.Len(t, detail.Attachments, 1)

	require.NoError(t, f.svc.DeleteAttachment(ctx, order.ID, att.ID))
	requireRule(t, f.svc.DeleteAttachment(ctx, order.ID, att.ID), pkgerrors.CodeNotFound, "")
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first, err := f.svc.Create(ctx, baseInput())
	require.NoError(t, err)
	second := baseInput()
	second.OrderNumber = "BBY-1002"
	second.OrderDate = time.Date(2025, 11, 7, 0, 0, 0, 0, time.UTC)
	_, err = f.svc.Create(ctx, second)
	require.NoError(t, err)
	_, err = f.svc.SetStatus(ctx, first.ID, enums.OrderStatusShipped)
	require.NoError(t, err)

	all, err := f.svc.List(ctx, ListFilters{RetailerCode: "ALL"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "BBY-1002", all[0].OrderNumber)

	shipped := enums.OrderStatusShipped
	filtered, err := f.svc.List(ctx, ListFilters{RetailerCode: "BBY", Status: &shipped})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, first.ID, filtered[0].ID)

	from := time.Date(2025, 11, 6, 0, 0, 0, 0, time.UTC)
	recent, err := f.svc.List(ctx, ListFilters{From: &from})
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func decimalPtr(v decimal.Decimal) *decimal.Decimal {
	return &v
}
