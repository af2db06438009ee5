package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/cardledger/internal/consistency"
	"github.com/angelmondragon/cardledger/internal/ledger"
	"github.com/angelmondragon/cardledger/pkg/db"
	"github.com/angelmondragon/cardledger/pkg/db/models"
	"github.com/angelmondragon/cardledger/pkg/logger"
)

type ledgerEngine interface {
	Atomically(ctx context.Context, keys []string, fn func(tx *gorm.DB) error) error
	ApplyInventoryMovement(ctx context.Context, in ledger.MovementInput) (*models.InventoryMovement, error)
	ApplyInventoryMovementTx(ctx context.Context, tx *gorm.DB, in ledger.MovementInput) (*models.InventoryMovement, error)
}

// Service exposes inventory operations.
type Service interface {
	CreateItem(ctx context.Context, input CreateItemInput) (*ItemDTO, error)
	GetItem(ctx context.Context, id int64) (*ItemDTO, error)
	ListItems(ctx context.Context, search string) ([]ItemDTO, error)
	UpdateItem(ctx context.Context, id int64, input UpdateItemInput) (*ItemDTO, error)
	DeleteItem(ctx context.Context, id int64) error
	Adjust(ctx context.Context, id int64, input AdjustInput) (*MovementDTO, error)
	Movements(ctx context.Context, id int64) ([]MovementDTO, error)
}

type service struct {
	repo   *Repository
	engine ledgerEngine
	logg   *logger.Logger
}

// NewService builds an inventory service.
func NewService(repo *Repository, engine ledgerEngine, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if engine == nil {
		return nil, fmt.Errorf("ledger engine required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, engine: engine, logg: logg}, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*ItemDTO, error) {
	if err := consistency.Struct(input); err != nil {
		return nil, err
	}
	var item *models.InventoryItem
	err := s.engine.Atomically(ctx, nil, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item = &models.InventoryItem{
			ItemName:    strings.TrimSpace(input.ItemName),
			SKU:         blankToNil(input.SKU),
			UPC:         blankToNil(input.UPC),
			AverageCost: decimal.Zero,
			TotalCost:   decimal.Zero,
			Notes:       input.Notes,
		}
		if err := repo.Create(ctx, item); err != nil {
			return db.Translate(err, "inventory item")
		}
		if input.InitialQuantity == 0 && input.InitialCost.IsZero() {
			return nil
		}
		notes := "Opening stock"
		_, err := s.engine.ApplyInventoryMovementTx(ctx, tx, ledger.MovementInput{
			ItemID:         item.ID,
			QuantityChange: input.InitialQuantity,
			CostChange:     input.InitialCost,
			Source:         ledger.AdjustmentSource{},
			Notes:          &notes,
		})
		if err != nil {
			return err
		}
		item, err = repo.FindByID(ctx, item.ID)
		return db.Translate(err, "inventory item")
	})
	if err != nil {
		return nil, err
	}
	return FromModel(item), nil
}

func (s *service) GetItem(ctx context.Context, id int64) (*ItemDTO, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Translate(err, fmt.Sprintf("inventory item %d", id))
	}
	return FromModel(item), nil
}

func (s *service) ListItems(ctx context.Context, search string) ([]ItemDTO, error) {
	rows, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, db.Translate(err, "inventory items")
	}
	out := make([]ItemDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) UpdateItem(ctx context.Context, id int64, input UpdateItemInput) (*ItemDTO, error) {
	if err := consistency.Struct(input); err != nil {
		return nil, err
	}
	var item *models.InventoryItem
	err := s.engine.Atomically(ctx, []string{ledger.Key(ledger.KindInventoryItem, id)}, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		if item, err = repo.FindByID(ctx, id); err != nil {
			return db.Translate(err, fmt.Sprintf("inventory item %d", id))
		}
		if input.ItemName != nil {
			item.ItemName = strings.TrimSpace(*input.ItemName)
		}
		if input.SKU != nil {
			item.SKU = blankToNil(input.SKU)
		}
		if input.UPC != nil {
			item.UPC = blankToNil(input.UPC)
		}
		if input.Notes != nil {
			item.Notes = input.Notes
		}
		return db.Translate(repo.UpdateDetails(ctx, item), "inventory item")
	})
	if err != nil {
		return nil, err
	}
	return FromModel(item), nil
}

// DeleteItem removes the item with its movement history. Sale lines that sold
// it keep their figures and lose the link.
func (s *service) DeleteItem(ctx context.Context, id int64) error {
	err := s.engine.Atomically(ctx, []string{ledger.Key(ledger.KindInventoryItem, id)}, func(tx *gorm.DB) error {
		return db.Translate(s.repo.WithTx(tx).Delete(ctx, id), fmt.Sprintf("inventory item %d", id))
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithEntity(ctx, ledger.KindInventoryItem, id), "inventory item deleted")
	return nil
}

func (s *service) Adjust(ctx context.Context, id int64, input AdjustInput) (*MovementDTO, error) {
	if err := consistency.Struct(input); err != nil {
		return nil, err
	}
	in := ledger.MovementInput{
		ItemID:         id,
		QuantityChange: input.QuantityChange,
		CostChange:     input.CostChange,
		Source:         ledger.AdjustmentSource{},
		Notes:          input.Notes,
	}
	if input.MovementDate != nil {
		in.MovementDate = *input.MovementDate
	}
	movement, err := s.engine.ApplyInventoryMovement(ctx, in)
	if err != nil {
		return nil, err
	}
	dto := MovementFromModel(movement)
	return &dto, nil
}

func (s *service) Movements(ctx context.Context, id int64) ([]MovementDTO, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, db.Translate(err, fmt.Sprintf("inventory item %d", id))
	}
	rows, err := s.repo.Movements(ctx, id)
	if err != nil {
		return nil, db.Translate(err, "inventory movements")
	}
	out := make([]MovementDTO, 0, len(rows))
	for i := range rows {
		out = append(out, MovementFromModel(&rows[i]))
	}
	return out, nil
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
