package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/cardledger/internal/consistency"
	"github.com/angelmondragon/cardledger/internal/ledger"
	"github.com/angelmondragon/cardledger/internal/retailers"
	"github.com/angelmondragon/cardledger/pkg/db"
	"github.com/angelmondragon/cardledger/pkg/db/models"
	"github.com/angelmondragon/cardledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
	"github.com/angelmondragon/cardledger/pkg/logger"
	"github.com/angelmondragon/cardledger/pkg/money"
)

type ledgerEngine interface {
	Atomically(ctx context.Context, keys []string, fn func(tx *gorm.DB) error) error
	ApplyGiftCardUsageTx(ctx context.Context, tx *gorm.DB, in ledger.UsageInput) (*models.GiftCardUsage, error)
	ApplyInventoryMovementTx(ctx context.Context, tx *gorm.DB, in ledger.MovementInput) (*models.InventoryMovement, error)
	ApplyAccountTransactionTx(ctx context.Context, tx *gorm.DB, in ledger.TransactionInput) (*models.AccountTransaction, error)
}

// Service defines order operations. Every call that spends gift card balance or
// receives stock runs as one transaction with the ledger engine.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderDetail, error)
	Get(ctx context.Context, id int64) (*OrderDetail, error)
	List(ctx context.Context, filters ListFilters) ([]OrderDTO, error)
	Update(ctx context.Context, id int64, input UpdateOrderInput) (*OrderDTO, error)
	SetStatus(ctx context.Context, id int64, status enums.OrderStatus) (*OrderDTO, error)
	AddItem(ctx context.Context, id int64, input ItemInput) (*ItemDTO, error)
	RemoveItem(ctx context.Context, id, itemID int64) error
	Allocate(ctx context.Context, id int64, allocation Allocation) (*AllocationDTO, error)
	AddAttachment(ctx context.Context, id int64, input AttachmentInput) (*AttachmentDTO, error)
	DeleteAttachment(ctx context.Context, id, attachmentID int64) error
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo      Repository
	engine    ledgerEngine
	inventory InventoryReceiver
	logg      *logger.Logger
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, engine ledgerEngine, inventory InventoryReceiver, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if engine == nil {
		return nil, fmt.Errorf("ledger engine required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory receiver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, engine: engine, inventory: inventory, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderDetail, error) {
	if err := consistency.Struct(input); err != nil {
		return nil, err
	}
	status := input.Status
	if status == "" {
		status = enums.OrderStatusOrdered
	}

	giftSpend := decimal.Zero
	keys := []string{}
	for _, alloc := range input.Allocations {
		if err := consistency.PositiveAmount("amount", alloc.Amount); err != nil {
			return nil, err
		}
		giftSpend = giftSpend.Add(alloc.Amount)
		keys = append(keys, ledger.Key(ledger.KindGiftCard, alloc.GiftCardID))
	}
	total := money.Sum(input.Subtotal, input.Tax, input.Shipping)
	if input.TotalCost != nil {
		total = *input.TotalCost
	}
	amounts := consistency.OrderAmounts{
		Subtotal:        input.Subtotal,
		Tax:             input.Tax,
		Shipping:        input.Shipping,
		TotalCost:       total,
		CreditCardSpend: input.CreditCardSpend,
		GiftCardSpend:   giftSpend,
	}
	if err := consistency.OrderTotals(input.PaymentMethod, amounts); err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	for _, in := range input.Items {
		item, err := buildItem(in)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if input.CreditCardAccountID != nil {
		keys = append(keys, ledger.Key(ledger.KindAccount, *input.CreditCardAccountID))
	}
	if status == enums.OrderStatusDelivered {
		received, err := s.receiveKeys(ctx, items)
		if err != nil {
			return nil, err
		}
		keys = append(keys, received...)
	}

	order := &models.Order{
		OrderNumber:     strings.TrimSpace(input.OrderNumber),
		OrderDate:       ledger.DateOnly(input.OrderDate),
		OrderEmail:      input.OrderEmail,
		PaymentMethod:   input.PaymentMethod,
		Subtotal:        input.Subtotal,
		Tax:             input.Tax,
		Shipping:        input.Shipping,
		TotalCost:       total,
		CreditCardSpend: input.CreditCardSpend,
		GiftCardSpend:   giftSpend,
		Status:          status,
		ReceiptPath:     input.ReceiptPath,
	}
	err := s.engine.Atomically(ctx, keys, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		retailer, err := retailers.Lookup(ctx, tx, input.RetailerCode)
		if err != nil {
			return err
		}
		order.RetailerID = retailer.ID
		if err := repo.CreateOrder(ctx, order); err != nil {
			return db.Translate(err, "order")
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return db.Translate(err, "order items")
		}

		for _, alloc := range input.Allocations {
			_, err := s.engine.ApplyGiftCardUsageTx(ctx, tx, ledger.UsageInput{
				GiftCardID: alloc.GiftCardID,
				Amount:     alloc.Amount,
				OrderID:    &order.ID,
				UsageDate:  order.OrderDate,
			})
			if err != nil {
				return err
			}
		}
		if input.CreditCardAccountID != nil && order.CreditCardSpend.IsPositive() {
			if err := s.charge(ctx, tx, repo, *input.CreditCardAccountID, order); err != nil {
				return err
			}
		}
		if status == enums.OrderStatusDelivered {
			return s.receive(ctx, tx, order, items)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithEntity(ctx, ledger.KindOrder, order.ID)
	s.logg.Info(s.logg.WithField(ctx, "status", order.Status), "order created")
	return s.Get(ctx, order.ID)
}

func (s *service) Get(ctx context.Context, id int64) (*OrderDetail, error) {
	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		return nil, db.Translate(err, fmt.Sprintf("order %d", id))
	}
	items, err := s.repo.Items(ctx, id)
	if err != nil {
		return nil, db.Translate(err, "order items")
	}
	usage, err := s.repo.Usage(ctx, id)
	if err != nil {
		return nil, db.Translate(err, "order allocations")
	}
	attachments, err := s.repo.Attachments(ctx, id)
	if err != nil {
		return nil, db.Translate(err, "order attachments")
	}

	detail := &OrderDetail{
		OrderDTO:    *FromModel(order),
		Items:       make([]ItemDTO, 0, len(items)),
		Allocations: make([]AllocationDTO, 0, len(usage)),
		Attachments: make([]AttachmentDTO, 0, len(attachments)),
	}
	for i := range items {
		detail.Items = append(detail.Items, itemFromModel(&items[i]))
	}
	for i := range usage {
		detail.Allocations = append(detail.Allocations, allocationFromModel(&usage[i]))
	}
	for i := range attachments {
		detail.Attachments = append(detail.Attachments, attachmentFromModel(&attachments[i]))
	}
	return detail, nil
}

func (s *service) List(ctx context.Context, filters ListFilters) ([]OrderDTO, error) {
	rows, err := s.repo.ListOrders(ctx, filters)
	if err != nil {
		return nil, db.Translate(err, "orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateOrderInput) (*OrderDTO, error) {
	if err := consistency.Struct(input); err != nil {
		return nil, err
	}
	var order *models.Order
	err := s.engine.Atomically(ctx, []string{ledger.Key(ledger.KindOrder, id)}, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		if order, err = repo.FindOrder(ctx, id); err != nil {
			return db.Translate(err, fmt.Sprintf("order %d", id))
		}
		if err := editable(order); err != nil {
			return err
		}
		if input.CreditCardSpend != nil && !input.CreditCardSpend.Equal(order.CreditCardSpend) {
			charged, err := repo.Charged(ctx, id)
			if err != nil {
				return db.Translate(err, "order charges")
			}
			if charged {
				return pkgerrors.New(pkgerrors.CodeConflict, "credit card spend is already charged to an account").
					WithRule(consistency.RuleOrderChargePosted).
					WithDetails(map[string]any{"credit_card_spend": order.CreditCardSpend.String()})
			}
		}
		if input.OrderNumber != nil {
			order.OrderNumber = strings.TrimSpace(*input.OrderNumber)
		}
		if input.OrderDate != nil {
			order.OrderDate = ledger.DateOnly(*input.OrderDate)
		}
		if input.OrderEmail != nil {
			order.OrderEmail = input.OrderEmail
		}
		if input.PaymentMethod != nil {
			order.PaymentMethod = *input.PaymentMethod
		}
		if input.ReceiptPath != nil {
			order.ReceiptPath = input.ReceiptPath
		}
		amountsChanged := input.Subtotal != nil || input.Tax != nil || input.Shipping != nil
		setIf(&order.Subtotal, input.Subtotal)
		setIf(&order.Tax, input.Tax)
		setIf(&order.Shipping, input.Shipping)
		setIf(&order.CreditCardSpend, input.CreditCardSpend)
		switch {
		case input.TotalCost != nil:
			order.TotalCost = *input.TotalCost
		case amountsChanged:
			order.TotalCost = money.Sum(order.Subtotal, order.Tax, order.Shipping)
		}
		if err := consistency.OrderTotals(order.PaymentMethod, amountsOf(order)); err != nil {
			return err
		}
		return db.Translate(repo.UpdateOrder(ctx, order), "order")
	})
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

// SetStatus moves the order along its lifecycle. Reaching delivered books every
// line into inventory at its total price. Cancelling leaves gift card spend in
// place; the usage rows are history.
func (s *service) SetStatus(ctx context.Context, id int64, status enums.OrderStatus) (*OrderDTO, error) {
	keys := []string{ledger.Key(ledger.KindOrder, id)}
	if status == enums.OrderStatusDelivered {
		items, err := s.repo.Items(ctx, id)
		if err != nil {
			return nil, db.Translate(err, "order items")
		}
		received, err := s.receiveKeys(ctx, items)
		if err != nil {
			return nil, err
		}
		keys = append(keys, received...)
	}

	var order *models.Order
	err := s.engine.Atomically(ctx, keys, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		if order, err = repo.FindOrder(ctx, id); err != nil {
			return db.Translate(err, fmt.Sprintf("order %d", id))
		}
		if err := consistency.OrderTransition(order.Status, status); err != nil {
			return err
		}
		if order.Status == status {
			return nil
		}
		if err := repo.UpdateStatus(ctx, id, status); err != nil {
			return db.Translate(err, "order")
		}
		order.Status = status
		if status != enums.OrderStatusDelivered {
			return nil
		}
		items, err := repo.Items(ctx, id)
		if err != nil {
			return db.Translate(err, "order items")
		}
		return s.receive(ctx, tx, order, items)
	})
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithEntity(ctx, ledger.KindOrder, id)
	s.logg.Info(s.logg.WithField(ctx, "status", status), "order status changed")
	return FromModel(order), nil
}

func (s *service) AddItem(ctx context.Context, id int64, input ItemInput) (*ItemDTO, error) {
	if err := consistency.Struct(input); err != nil {
		return nil, err
	}
	item, err := buildItem(input)
	if err != nil {
		return nil, err
	}
	err = s.engine.Atomically(ctx, []string{ledger.Key(ledger.KindOrder, id)}, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, id)
		if err != nil {
			return db.Translate(err, fmt.Sprintf("order %d", id))
		}
		if err := editable(order); err != nil {
			return err
		}
		item.OrderID = id
		items := []models.OrderItem{item}
		if err := repo.CreateItems(ctx, items); err != nil {
			return db.Translate(err, "order item")
		}
		item = items[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := itemFromModel(&item)
	return &dto, nil
}

func (s *service) RemoveItem(ctx context.Context, id, itemID int64) error {
	return s.engine.Atomically(ctx, []string{ledger.Key(ledger.KindOrder, id)}, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, id)
		if err != nil {
			return db.Translate(err, fmt.Sprintf("order %d", id))
		}
		if err := editable(order); err != nil {
			return err
		}
		if _, err := repo.FindItem(ctx, id, itemID); err != nil {
			return db.Translate(err, fmt.Sprintf("order item %d", itemID))
		}
		return db.Translate(repo.DeleteItem(ctx, itemID), "order item")
	})
}

// Allocate spends more gift card balance on an existing order. The order's
// gift card spend is refreshed from its usage rows and the order totals are
// checked again, so a mixed order only accepts spend that keeps it balanced.
func (s *service) Allocate(ctx context.Context, id int64, allocation Allocation) (*AllocationDTO, error) {
	if err := consistency.Struct(allocation); err != nil {
		return nil, err
	}
	keys := []string{ledger.Key(ledger.KindOrder, id), ledger.Key(ledger.KindGiftCard, allocation.GiftCardID)}
	var usage *models.GiftCardUsage
	err := s.engine.Atomically(ctx, keys, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, id)
		if err != nil {
			return db.Translate(err, fmt.Sprintf("order %d", id))
		}
		if order.Status == enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeConflict, "cannot allocate gift cards to a cancelled order").
				WithRule(consistency.RuleOrderStatusTransition)
		}
		usage, err = s.engine.ApplyGiftCardUsageTx(ctx, tx, ledger.UsageInput{
			GiftCardID: allocation.GiftCardID,
			Amount:     allocation.Amount,
			OrderID:    &id,
		})
		if err != nil {
			return err
		}
		rows, err := repo.Usage(ctx, id)
		if err != nil {
			return db.Translate(err, "order allocations")
		}
		spend := decimal.Zero
		for _, row := range rows {
			spend = spend.Add(row.AmountUsed)
		}
		order.GiftCardSpend = spend
		if err := consistency.OrderTotals(order.PaymentMethod, amountsOf(order)); err != nil {
			return err
		}
		return db.Translate(repo.SetGiftCardSpend(ctx, id, spend), "order")
	})
	if err != nil {
		return nil, err
	}
	dto := allocationFromModel(usage)
	return &dto, nil
}

func (s *service) AddAttachment(ctx context.Context, id int64, input AttachmentInput) (*AttachmentDTO, error) {
	if err := consistency.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindOrder(ctx, id); err != nil {
		return nil, db.Translate(err, fmt.Sprintf("order %d", id))
	}
	attachment := &models.Attachment{OrderID: id, FilePath: strings.TrimSpace(input.FilePath), Label: input.Label}
	if err := s.repo.CreateAttachment(ctx, attachment); err != nil {
		return nil, db.Translate(err, "attachment")
	}
	dto := attachmentFromModel(attachment)
	return &dto, nil
}

func (s *service) DeleteAttachment(ctx context.Context, id, attachmentID int64) error {
	return db.Translate(s.repo.DeleteAttachment(ctx, id, attachmentID), fmt.Sprintf("attachment %d", attachmentID))
}

// Delete removes the order, its lines and attachments. Gift card usage is kept
// without its order link, so the spent balance stays spent.
func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.engine.Atomically(ctx, []string{ledger.Key(ledger.KindOrder, id)}, func(tx *gorm.DB) error {
		return db.Translate(s.repo.WithTx(tx).DeleteOrder(ctx, id), fmt.Sprintf("order %d", id))
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithEntity(ctx, ledger.KindOrder, id), "order deleted")
	return nil
}

// charge posts the credit card spend against the paying account. Credit card
// balances are debt, so the charge raises them; other accounts are drawn down.
func (s *service) charge(ctx context.Context, tx *gorm.DB, repo Repository, accountID int64, order *models.Order) error {
	accountType, err := repo.AccountType(ctx, accountID)
	if err != nil {
		return db.Translate(err, fmt.Sprintf("account %d", accountID))
	}
	amount := order.CreditCardSpend
	if accountType != enums.AccountTypeCreditCard {
		amount = amount.Neg()
	}
	description := fmt.Sprintf("Order %s", order.OrderNumber)
	_, err = s.engine.ApplyAccountTransactionTx(ctx, tx, ledger.TransactionInput{
		AccountID:       accountID,
		Amount:          amount,
		Related:         ledger.RelatedOrder{OrderID: order.ID},
		Description:     &description,
		TransactionDate: order.OrderDate,
	})
	return err
}

// receiveKeys lists the lock keys of inventory items the lines already match.
// Lines that create a new item need no lock.
func (s *service) receiveKeys(ctx context.Context, items []models.OrderItem) ([]string, error) {
	keys := make([]string, 0, len(items))
	for i := range items {
		match, err := s.inventory.Match(ctx, nil, blankToNil(items[i].SKU), blankToNil(items[i].UPC))
		if err != nil {
			return nil, db.Translate(err, "inventory item")
		}
		if match != nil {
			keys = append(keys, ledger.Key(ledger.KindInventoryItem, match.ID))
		}
	}
	return keys, nil
}

func (s *service) receive(ctx context.Context, tx *gorm.DB, order *models.Order, items []models.OrderItem) error {
	notes := fmt.Sprintf("Received order %s", order.OrderNumber)
	for i := range items {
		line := items[i]
		item, err := s.inventory.FindOrCreate(ctx, tx, line.ItemName, blankToNil(line.SKU), blankToNil(line.UPC))
		if err != nil {
			return db.Translate(err, "inventory item")
		}
		_, err = s.engine.ApplyInventoryMovementTx(ctx, tx, ledger.MovementInput{
			ItemID:         item.ID,
			QuantityChange: line.Quantity,
			CostChange:     line.TotalPrice,
			Source:         ledger.OrderSource{OrderID: order.ID, OrderItemID: &line.ID},
			Notes:          &notes,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func buildItem(in ItemInput) (models.OrderItem, error) {
	total := in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity)))
	if in.TotalPrice != nil {
		total = *in.TotalPrice
	}
	if err := consistency.OrderItem(in.Quantity, in.UnitPrice, total); err != nil {
		return models.OrderItem{}, err
	}
	if err := consistency.Cents("total_price", total); err != nil {
		return models.OrderItem{}, err
	}
	return models.OrderItem{
		ItemName:   strings.TrimSpace(in.ItemName),
		SKU:        blankToNil(in.SKU),
		UPC:        blankToNil(in.UPC),
		Quantity:   in.Quantity,
		UnitPrice:  in.UnitPrice,
		TotalPrice: total,
	}, nil
}

func editable(order *models.Order) error {
	if order.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("order is %s and can no longer change", order.Status)).
			WithRule(consistency.RuleOrderStatusTransition)
	}
	return nil
}

func amountsOf(order *models.Order) consistency.OrderAmounts {
	return consistency.OrderAmounts{
		Subtotal:        order.Subtotal,
		Tax:             order.Tax,
		Shipping:        order.Shipping,
		TotalCost:       order.TotalCost,
		CreditCardSpend: order.CreditCardSpend,
		GiftCardSpend:   order.GiftCardSpend,
	}
}

func setIf(dst *decimal.Decimal, v *decimal.Decimal) {
	if v != nil {
		*dst = *v
	}
}

func blankToNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
