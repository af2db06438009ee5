package giftcards

import (
	"context"
	"fmt"
	"strings"
	"time"

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
)

type ledgerEngine interface {
	Atomically(ctx context.Context, keys []string, fn func(tx *gorm.DB) error) error
	ApplyGiftCardUsage(ctx context.Context, in ledger.UsageInput) (*models.GiftCardUsage, error)
	ApplyGiftCardUsageTx(ctx context.Context, tx *gorm.DB, in ledger.UsageInput) (*models.GiftCardUsage, error)
}

// Service exposes gift card operations.
type Service interface {
	Create(ctx context.Context, input CreateGiftCardInput) (*GiftCardDTO, error)
	CreateTx(ctx context.Context, tx *gorm.DB, input CreateGiftCardInput) (*GiftCardDTO, error)
	Get(ctx context.Context, id int64) (*GiftCardDTO, error)
	List(ctx context.Context, filter ListFilter) ([]GiftCardDTO, error)
	Update(ctx context.Context, id int64, input UpdateGiftCardInput) (*GiftCardDTO, error)
	SetStatus(ctx context.Context, id int64, status enums.GiftCardStatus) (*GiftCardDTO, error)
	Use(ctx context.Context, id int64, amount decimal.Decimal, orderID *int64) (*UsageDTO, error)
	Usage(ctx context.Context, id int64) ([]UsageDTO, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo   *Repository
	engine ledgerEngine
	logg   *logger.Logger
	now    func() time.Time
}

// NewService builds a gift card service.
func NewService(repo *Repository, engine ledgerEngine, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("gift card repository required")
	}
	if engine == nil {
		return nil, fmt.Errorf("ledger engine required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, engine: engine, logg: logg, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, input CreateGiftCardInput) (*GiftCardDTO, error) {
	var out *GiftCardDTO
	// A new card has no id to lock yet; the opening usage joins this transaction.
	err := s.engine.Atomically(ctx, nil, func(tx *gorm.DB) error {
		var err error
		out, err = s.CreateTx(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithEntity(ctx, ledger.KindGiftCard, out.ID), "gift card created")
	return out, nil
}

// CreateTx creates the card inside the caller's transaction. Bulk import uses it
// to run one row per transaction.
func (s *service) CreateTx(ctx context.Context, tx *gorm.DB, input CreateGiftCardInput) (*GiftCardDTO, error) {
	if err := consistency.Struct(input); err != nil {
		return nil, err
	}
	if err := consistency.PositiveAmount("face_value", input.FaceValue); err != nil {
		return nil, err
	}
	if err := consistency.NonNegative(consistency.RuleFieldInvalid, "acquisition_cost", input.AcquisitionCost); err != nil {
		return nil, err
	}
	remaining := input.FaceValue
	if input.RemainingBalance != nil {
		remaining = *input.RemainingBalance
		if err := consistency.Cents("remaining_balance", remaining); err != nil {
			return nil, err
		}
		if err := consistency.GiftCardBalance(remaining, input.FaceValue); err != nil {
			return nil, err
		}
	}

	retailer, err := retailers.Lookup(ctx, tx, input.RetailerCode)
	if err != nil {
		return nil, err
	}
	pin := trimmed(input.CardPin)
	if retailer.RequiresPin && pin == nil {
		return nil, pkgerrors.Violation(consistency.RuleFieldInvalid, fmt.Sprintf("retailer %s requires a card pin", retailer.Code)).
			WithDetails(map[string]string{"card_pin": "is required"})
	}

	repo := s.repo.WithTx(tx)
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		prefix := SKUPrefix(retailer.Code, s.now())
		last, err := repo.LastSequence(ctx, retailer.ID, prefix)
		if err != nil {
			return nil, db.Translate(err, "gift card")
		}
		sku = FormatSKU(prefix, last+1)
	}

	card := &models.GiftCard{
		RetailerID:       retailer.ID,
		SKU:              sku,
		CardNumber:       strings.TrimSpace(input.CardNumber),
		CardPin:          pin,
		AcquisitionCost:  input.AcquisitionCost,
		FaceValue:        input.FaceValue,
		RemainingBalance: input.FaceValue,
		Status:           enums.GiftCardStatusActive,
		PurchaseDate:     dateOnly(input.PurchaseDate),
		Notes:            input.Notes,
	}
	if err := repo.Create(ctx, card); err != nil {
		return nil, db.Translate(err, "gift card "+sku)
	}

	if spent := input.FaceValue.Sub(remaining); spent.IsPositive() {
		in := ledger.UsageInput{GiftCardID: card.ID, Amount: spent}
		if card.PurchaseDate != nil {
			in.UsageDate = *card.PurchaseDate
		}
		if _, err := s.engine.ApplyGiftCardUsageTx(ctx, tx, in); err != nil {
			return nil, err
		}
		if card, err = repo.FindByID(ctx, card.ID); err != nil {
			return nil, db.Translate(err, "gift card")
		}
	}
	return FromModel(card), nil
}

func (s *service) Get(ctx context.Context, id int64) (*GiftCardDTO, error) {
	card, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Translate(err, fmt.Sprintf("gift card %d", id))
	}
	return FromModel(card), nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]GiftCardDTO, error) {
	var retailerID *int64
	code := retailers.NormalizeCode(filter.RetailerCode)
	if code != "" && code != "ALL" {
		retailer, err := retailers.Lookup(ctx, s.repo.db, code)
		if err != nil {
			return nil, err
		}
		retailerID = &retailer.ID
	}
	rows, err := s.repo.List(ctx, retailerID, filter.Status)
	if err != nil {
		return nil, db.Translate(err, "gift cards")
	}
	out := make([]GiftCardDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateGiftCardInput) (*GiftCardDTO, error) {
	if err := consistency.Struct(input); err != nil {
		return nil, err
	}
	if input.AcquisitionCost != nil {
		if err := consistency.NonNegative(consistency.RuleFieldInvalid, "acquisition_cost", *input.AcquisitionCost); err != nil {
			return nil, err
		}
	}
	var card *models.GiftCard
	err := s.engine.Atomically(ctx, []string{ledger.Key(ledger.KindGiftCard, id)}, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		if card, err = repo.FindByID(ctx, id); err != nil {
			return db.Translate(err, fmt.Sprintf("gift card %d", id))
		}
		if input.CardNumber != nil {
			card.CardNumber = strings.TrimSpace(*input.CardNumber)
		}
		if input.CardPin != nil {
			card.CardPin = trimmed(input.CardPin)
		}
		if input.AcquisitionCost != nil {
			card.AcquisitionCost = *input.AcquisitionCost
		}
		if input.PurchaseDate != nil {
			card.PurchaseDate = dateOnly(input.PurchaseDate)
		}
		if input.Notes != nil {
			card.Notes = input.Notes
		}
		return db.Translate(repo.UpdateDetails(ctx, card), "gift card")
	})
	if err != nil {
		return nil, err
	}
	return FromModel(card), nil
}

// SetStatus retires a card as void or archived. Active and used are derived from
// the balance and cannot be set by hand.
func (s *service) SetStatus(ctx context.Context, id int64, status enums.GiftCardStatus) (*GiftCardDTO, error) {
	var card *models.GiftCard
	err := s.engine.Atomically(ctx, []string{ledger.Key(ledger.KindGiftCard, id)}, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		if card, err = repo.FindByID(ctx, id); err != nil {
			return db.Translate(err, fmt.Sprintf("gift card %d", id))
		}
		if err := consistency.GiftCardTransition(card.Status, status); err != nil {
			return err
		}
		if card.Status == status {
			return nil
		}
		card.Status = status
		return db.Translate(repo.UpdateStatus(ctx, id, status), "gift card")
	})
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithEntity(ctx, ledger.KindGiftCard, id)
	s.logg.Info(s.logg.WithField(ctx, "status", status), "gift card status changed")
	return FromModel(card), nil
}

func (s *service) Use(ctx context.Context, id int64, amount decimal.Decimal, orderID *int64) (*UsageDTO, error) {
	usage, err := s.engine.ApplyGiftCardUsage(ctx, ledger.UsageInput{GiftCardID: id, Amount: amount, OrderID: orderID})
	if err != nil {
		return nil, err
	}
	dto := UsageFromModel(usage)
	return &dto, nil
}

func (s *service) Usage(ctx context.Context, id int64) ([]UsageDTO, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, db.Translate(err, fmt.Sprintf("gift card %d", id))
	}
	rows, err := s.repo.Usage(ctx, id)
	if err != nil {
		return nil, db.Translate(err, "gift card usage")
	}
	out := make([]UsageDTO, 0, len(rows))
	for i := range rows {
		out = append(out, UsageFromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.engine.Atomically(ctx, []string{ledger.Key(ledger.KindGiftCard, id)}, func(tx *gorm.DB) error {
		return db.Translate(s.repo.WithTx(tx).Delete(ctx, id), fmt.Sprintf("gift card %d", id))
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithEntity(ctx, ledger.KindGiftCard, id), "gift card deleted")
	return nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := ledger.DateOnly(*t)
	return &d
}
