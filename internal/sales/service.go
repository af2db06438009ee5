package sales

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/cardledger/internal/consistency"
	"github.com/angelmondragon/cardledger/internal/ledger"
	"github.com/angelmondragon/cardledger/pkg/db"
	"github.com/angelmondragon/cardledger/pkg/db/models"
	"github.com/angelmondragon/cardledger/pkg/enums"
	"github.com/angelmondragon/cardledger/pkg/logger"
	"github.com/angelmondragon/cardledger/pkg/money"
)

type ledgerEngine interface {
	Atomically(ctx context.Context, keys []string, fn func(tx *gorm.DB) error) error
	InventoryItemTx(ctx context.Context, tx *gorm.DB, id int64) (*models.InventoryItem, error)
	ApplyInventoryMovementTx(ctx context.Context, tx *gorm.DB, in ledger.MovementInput) (*models.InventoryMovement, error)
	ApplyAccountTransactionTx(ctx context.Context, tx *gorm.DB, in ledger.TransactionInput) (*models.AccountTransaction, error)
}

// Service records sales. Each line removes stock at the item's moving-average
// cost; edits and deletes put the stock back with adjustment movements.
type Service interface {
	Create(ctx context.Context, input CreateSaleInput) (*SaleDTO, error)
	Get(ctx context.Context, id int64) (*SaleDTO, error)
	List(ctx context.Context, filter ListFilter) ([]SaleDTO, error)
	Update(ctx context.Context, id int64, input UpdateSaleInput) (*SaleDTO, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo   *Repository
	engine ledgerEngine
	logg   *logger.Logger
}

func NewService(repo *Repository, engine ledgerEngine, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if engine == nil {
		return nil, fmt.Errorf("ledger engine required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, engine: engine, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateSaleInput) (*SaleDTO, error) {
	if err := consistency.Struct(input); err != nil {
		return nil, err
	}
	if err := validateLines(input.Lines); err != nil {
		return nil, err
	}
	keys := lineKeys(input.Lines, nil)
	if input.ProceedsAccountID != nil {
		keys = append(keys, ledger.Key(ledger.KindAccount, *input.ProceedsAccountID))
	}

	sale := &models.Sale{
		Buyer:    input.Buyer,
		SaleDate: ledger.DateOnly(input.SaleDate),
		Notes:    input.Notes,
	}
	var lines []models.SaleItem
	err := s.engine.Atomically(ctx, keys, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, sale); err != nil {
			return db.Translate(err, "sale")
		}
		var err error
		if lines, err = s.post(ctx, tx, sale, input.Lines); err != nil {
			return err
		}
		if err := db.Translate(repo.Save(ctx, sale), "sale"); err != nil {
			return err
		}
		if input.ProceedsAccountID != nil {
			return s.depositProceeds(ctx, tx, *input.ProceedsAccountID, sale, sale.TotalValue)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithEntity(ctx, ledger.KindSale, sale.ID)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"total_value": sale.TotalValue.String(),
		"profit":      sale.Profit.String(),
	}), "sale recorded")
	return FromModel(sale, lines), nil
}

func (s *service) Get(ctx context.Context, id int64) (*SaleDTO, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Translate(err, fmt.Sprintf("sale %d", id))
	}
	lines, err := s.repo.Lines(ctx, id)
	if err != nil {
		return nil, db.Translate(err, "sale items")
	}
	return FromModel(sale, lines), nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]SaleDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, db.Translate(err, "sales")
	}
	out := make([]SaleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i], nil))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateSaleInput) (*SaleDTO, error) {
	if err := consistency.Struct(input); err != nil {
		return nil, err
	}
	replace := input.Lines != nil
	keys := []string{ledger.Key(ledger.KindSale, id)}
	var proceeds map[int64]decimal.Decimal
	if replace {
		if err := validateLines(input.Lines); err != nil {
			return nil, err
		}
		old, err := s.repo.Lines(ctx, id)
		if err != nil {
			return nil, db.Translate(err, "sale items")
		}
		if proceeds, err = s.repo.Proceeds(ctx, id); err != nil {
			return nil, db.Translate(err, "sale proceeds")
		}
		keys = append(keys, lineKeys(input.Lines, old)...)
		keys = append(keys, accountKeys(proceeds)...)
	}

	var sale *models.Sale
	var lines []models.SaleItem
	err := s.engine.Atomically(ctx, keys, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		if sale, err = repo.FindByID(ctx, id); err != nil {
			return db.Translate(err, fmt.Sprintf("sale %d", id))
		}
		if input.Buyer != nil {
			sale.Buyer = input.Buyer
		}
		if input.SaleDate != nil {
			sale.SaleDate = ledger.DateOnly(*input.SaleDate)
		}
		if input.Notes != nil {
			sale.Notes = input.Notes
		}

		if replace {
			if err := s.reverse(ctx, tx, sale, proceeds); err != nil {
				return err
			}
			if lines, err = s.post(ctx, tx, sale, input.Lines); err != nil {
				return err
			}
			for _, accountID := range sortedIDs(proceeds) {
				if err := s.depositProceeds(ctx, tx, accountID, sale, sale.TotalValue); err != nil {
					return err
				}
			}
		} else if lines, err = repo.Lines(ctx, id); err != nil {
			return db.Translate(err, "sale items")
		}
		return db.Translate(repo.Save(ctx, sale), "sale")
	})
	if err != nil {
		return nil, err
	}
	return FromModel(sale, lines), nil
}

// Delete returns the sold stock with adjustment movements, backs out any
// proceeds and removes the sale with its lines.
func (s *service) Delete(ctx context.Context, id int64) error {
	old, err := s.repo.Lines(ctx, id)
	if err != nil {
		return db.Translate(err, "sale items")
	}
	proceeds, err := s.repo.Proceeds(ctx, id)
	if err != nil {
		return db.Translate(err, "sale proceeds")
	}
	keys := append([]string{ledger.Key(ledger.KindSale, id)}, lineKeys(nil, old)...)
	keys = append(keys, accountKeys(proceeds)...)

	err = s.engine.Atomically(ctx, keys, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sale, err := repo.FindByID(ctx, id)
		if err != nil {
			return db.Translate(err, fmt.Sprintf("sale %d", id))
		}
		if err := s.reverse(ctx, tx, sale, proceeds); err != nil {
			return err
		}
		return db.Translate(repo.Delete(ctx, id), fmt.Sprintf("sale %d", id))
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithEntity(ctx, ledger.KindSale, id), "sale deleted")
	return nil
}

// post books each line against inventory and sets the sale totals.
func (s *service) post(ctx context.Context, tx *gorm.DB, sale *models.Sale, inputs []LineInput) ([]models.SaleItem, error) {
	repo := s.repo.WithTx(tx)
	lines := make([]models.SaleItem, 0, len(inputs))
	totalValue, totalCost := decimal.Zero, decimal.Zero
	notes := fmt.Sprintf("Sale %d", sale.ID)
	for _, in := range inputs {
		item, err := s.engine.InventoryItemTx(ctx, tx, in.InventoryItemID)
		if err != nil {
			return nil, err
		}
		qty := decimal.NewFromInt(int64(in.Quantity))
		cost := ledger.StateOf(item).SaleCost(in.Quantity)
		_, err = s.engine.ApplyInventoryMovementTx(ctx, tx, ledger.MovementInput{
			ItemID:         item.ID,
			QuantityChange: -in.Quantity,
			CostChange:     cost.Neg(),
			Source:         ledger.SaleSource{SaleID: sale.ID},
			MovementDate:   sale.SaleDate,
			Notes:          &notes,
		})
		if err != nil {
			return nil, err
		}

		itemID := item.ID
		line := models.SaleItem{
			SaleID:          sale.ID,
			InventoryItemID: &itemID,
			Quantity:        in.Quantity,
			UnitPrice:       in.UnitPrice,
			UnitCost:        money.Round4(cost.Div(qty)),
			LineTotal:       money.Round2(in.UnitPrice.Mul(qty)),
			LineCost:        cost,
		}
		if err := repo.CreateLine(ctx, &line); err != nil {
			return nil, db.Translate(err, "sale item")
		}
		lines = append(lines, line)
		totalValue = totalValue.Add(line.LineTotal)
		totalCost = totalCost.Add(line.LineCost)
	}
	sale.TotalValue = totalValue
	sale.TotalCost = totalCost
	sale.Profit = totalValue.Sub(totalCost)
	return lines, nil
}

// reverse puts every line's stock back at the cost it left with, backs out the
// proceeds and drops the lines. Lines whose item was deleted have nothing to
// return to.
func (s *service) reverse(ctx context.Context, tx *gorm.DB, sale *models.Sale, proceeds map[int64]decimal.Decimal) error {
	repo := s.repo.WithTx(tx)
	lines, err := repo.Lines(ctx, sale.ID)
	if err != nil {
		return db.Translate(err, "sale items")
	}
	notes := fmt.Sprintf("Reversal of sale %d", sale.ID)
	for _, line := range lines {
		if line.InventoryItemID == nil {
			continue
		}
		_, err := s.engine.ApplyInventoryMovementTx(ctx, tx, ledger.MovementInput{
			ItemID:         *line.InventoryItemID,
			QuantityChange: line.Quantity,
			CostChange:     line.LineCost,
			Source:         ledger.AdjustmentSource{},
			Notes:          &notes,
		})
		if err != nil {
			return err
		}
	}
	for _, accountID := range sortedIDs(proceeds) {
		description := notes
		_, err := s.engine.ApplyAccountTransactionTx(ctx, tx, ledger.TransactionInput{
			AccountID:   accountID,
			Amount:      proceeds[accountID].Neg(),
			Related:     ledger.RelatedSale{SaleID: sale.ID},
			Description: &description,
		})
		if err != nil {
			return err
		}
	}
	return db.Translate(repo.DeleteLines(ctx, sale.ID), "sale items")
}

// depositProceeds posts the sale value to an account. A credit card balance is
// debt, so proceeds pay it down.
func (s *service) depositProceeds(ctx context.Context, tx *gorm.DB, accountID int64, sale *models.Sale, amount decimal.Decimal) error {
	if amount.IsZero() {
		return nil
	}
	accountType, err := s.repo.WithTx(tx).AccountType(ctx, accountID)
	if err != nil {
		return db.Translate(err, fmt.Sprintf("account %d", accountID))
	}
	if accountType == enums.AccountTypeCreditCard {
		amount = amount.Neg()
	}
	description := fmt.Sprintf("Sale %d", sale.ID)
	_, err = s.engine.ApplyAccountTransactionTx(ctx, tx, ledger.TransactionInput{
		AccountID:       accountID,
		Amount:          amount,
		Related:         ledger.RelatedSale{SaleID: sale.ID},
		Description:     &description,
		TransactionDate: sale.SaleDate,
	})
	return err
}

func validateLines(lines []LineInput) error {
	if err := consistency.SaleLines(len(lines)); err != nil {
		return err
	}
	for _, line := range lines {
		if err := consistency.SaleQuantity(line.Quantity); err != nil {
			return err
		}
		if err := consistency.NonNegative(consistency.RuleFieldInvalid, "unit_price", line.UnitPrice); err != nil {
			return err
		}
		if err := consistency.Cents("unit_price", line.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

func lineKeys(inputs []LineInput, existing []models.SaleItem) []string {
	keys := make([]string, 0, len(inputs)+len(existing))
	for _, in := range inputs {
		keys = append(keys, ledger.Key(ledger.KindInventoryItem, in.InventoryItemID))
	}
	for _, line := range existing {
		if line.InventoryItemID != nil {
			keys = append(keys, ledger.Key(ledger.KindInventoryItem, *line.InventoryItemID))
		}
	}
	return keys
}

func accountKeys(proceeds map[int64]decimal.Decimal) []string {
	keys := make([]string, 0, len(proceeds))
	for _, id := range sortedIDs(proceeds) {
		keys = append(keys, ledger.Key(ledger.KindAccount, id))
	}
	return keys
}

func sortedIDs(m map[int64]decimal.Decimal) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
