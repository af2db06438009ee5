package ledger

import (
	"fmt"

	"github.com/angelmondragon/cardledger/pkg/db/models"
	"github.com/angelmondragon/cardledger/pkg/enums"
)

// MovementSource identifies what produced an inventory movement. The concrete
// types are OrderSource, SaleSource and AdjustmentSource.
type MovementSource interface {
	SourceType() enums.InventorySourceType
	columns() (sourceID *int64, orderItemID *int64)
}

// OrderSource is an inbound movement received from an order. OrderItemID is
// optional and links the movement to the delivered line.
type OrderSource struct {
	OrderID     int64
	OrderItemID *int64
}

// SaleSource is an outbound movement caused by a sale.
type SaleSource struct {
	SaleID int64
}

// AdjustmentSource is a manual correction with no linked record.
type AdjustmentSource struct{}

func (OrderSource) SourceType() enums.InventorySourceType      { return enums.InventorySourceTypeOrder }
func (SaleSource) SourceType() enums.InventorySourceType       { return enums.InventorySourceTypeSale }
func (AdjustmentSource) SourceType() enums.InventorySourceType { return enums.InventorySourceTypeAdjustment }

func (s OrderSource) columns() (*int64, *int64) {
	id := s.OrderID
	return &id, s.OrderItemID
}

func (s SaleSource) columns() (*int64, *int64) {
	id := s.SaleID
	return &id, nil
}

func (AdjustmentSource) columns() (*int64, *int64) {
	return nil, nil
}

// SourceOf decodes the stored soft link of a movement. A link whose target was
// deleted still decodes; callers that need the target must check it exists.
func SourceOf(m models.InventoryMovement) (MovementSource, error) {
	switch m.SourceType {
	case enums.InventorySourceTypeOrder:
		if m.SourceID == nil {
			return nil, fmt.Errorf("movement %d: order source without id", m.ID)
		}
		return OrderSource{OrderID: *m.SourceID, OrderItemID: m.OrderItemID}, nil
	case enums.InventorySourceTypeSale:
		if m.SourceID == nil {
			return nil, fmt.Errorf("movement %d: sale source without id", m.ID)
		}
		return SaleSource{SaleID: *m.SourceID}, nil
	case enums.InventorySourceTypeAdjustment:
		return AdjustmentSource{}, nil
	}
	return nil, fmt.Errorf("movement %d: unknown source type %q", m.ID, m.SourceType)
}

// RelatedRef identifies what an account transaction belongs to. The concrete
// types are RelatedOrder, RelatedSale, Deposit and Withdrawal.
type RelatedRef interface {
	RelatedType() enums.AccountRelatedType
	relatedID() *int64
}

// RelatedOrder links a transaction to an order payment.
type RelatedOrder struct {
	OrderID int64
}

// RelatedSale links a transaction to sale proceeds.
type RelatedSale struct {
	SaleID int64
}

// Deposit adds funds to the account.
type Deposit struct{}

// Withdrawal removes funds from the account.
type Withdrawal struct{}

func (RelatedOrder) RelatedType() enums.AccountRelatedType { return enums.AccountRelatedTypeOrder }
func (RelatedSale) RelatedType() enums.AccountRelatedType  { return enums.AccountRelatedTypeSale }
func (Deposit) RelatedType() enums.AccountRelatedType      { return enums.AccountRelatedTypeDeposit }
func (Withdrawal) RelatedType() enums.AccountRelatedType   { return enums.AccountRelatedTypeWithdrawal }

func (r RelatedOrder) relatedID() *int64 {
	id := r.OrderID
	return &id
}

func (r RelatedSale) relatedID() *int64 {
	id := r.SaleID
	return &id
}

func (Deposit) relatedID() *int64    { return nil }
func (Withdrawal) relatedID() *int64 { return nil }

// RelatedOf decodes the stored soft link of a transaction.
func RelatedOf(t models.AccountTransaction) (RelatedRef, error) {
	switch t.RelatedType {
	case enums.AccountRelatedTypeOrder:
		if t.RelatedID == nil {
			return nil, fmt.Errorf("transaction %d: order link without id", t.ID)
		}
		return RelatedOrder{OrderID: *t.RelatedID}, nil
	case enums.AccountRelatedTypeSale:
		if t.RelatedID == nil {
			return nil, fmt.Errorf("transaction %d: sale link without id", t.ID)
		}
		return RelatedSale{SaleID: *t.RelatedID}, nil
	case enums.AccountRelatedTypeDeposit:
		return Deposit{}, nil
	case enums.AccountRelatedTypeWithdrawal:
		return Withdrawal{}, nil
	}
	return nil, fmt.Errorf("transaction %d: unknown related type %q", t.ID, t.RelatedType)
}
