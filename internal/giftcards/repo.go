package giftcards

import (
	"context"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/cardledger/pkg/db/models"
	"github.com/angelmondragon/cardledger/pkg/enums"
)

// Repository handles gift card persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to gift card operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, card *models.GiftCard) error {
	return r.db.WithContext(ctx).Create(card).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.GiftCard, error) {
	var card models.GiftCard
	if err := r.db.WithContext(ctx).First(&card, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// List returns cards ordered by retailer then sku.
func (r *Repository) List(ctx context.Context, retailerID *int64, status *enums.GiftCardStatus) ([]models.GiftCard, error) {
	q := r.db.WithContext(ctx).Model(&models.GiftCard{})
	if retailerID != nil {
		q = q.Where("retailer_id = ?", *retailerID)
	}
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var cards []models.GiftCard
	if err := q.Order("retailer_id ASC, sku ASC").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// UpdateDetails writes the descriptive columns only. Balance and status are
// written by the ledger engine.
func (r *Repository) UpdateDetails(ctx context.Context, card *models.GiftCard) error {
	return r.db.WithContext(ctx).Model(card).
		Select("card_number", "card_pin", "acquisition_cost", "purchase_date", "notes").
		Updates(card).Error
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status enums.GiftCardStatus) error {
	return r.db.WithContext(ctx).Model(&models.GiftCard{}).Where("id = ?", id).Update("status", status).Error
}

// Usage lists a card's usage rows oldest first.
func (r *Repository) Usage(ctx context.Context, id int64) ([]models.GiftCardUsage, error) {
	var rows []models.GiftCardUsage
	if err := r.db.WithContext(ctx).Where("gift_card_id = ?", id).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes the card and its usage rows.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("gift_card_id = ?", id).Delete(&models.GiftCardUsage{}).Error; err != nil {
		return err
	}
	res := db.Delete(&models.GiftCard{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LastSequence returns the highest sequence already used under a sku prefix.
func (r *Repository) LastSequence(ctx context.Context, retailerID int64, prefix string) (int, error) {
	var skus []string
	err := r.db.WithContext(ctx).Model(&models.GiftCard{}).
		Where("retailer_id = ? AND sku LIKE ?", retailerID, prefix+"-%").
		Order("sku DESC").
		Limit(1).
		Pluck("sku", &skus).Error
	if err != nil || len(skus) == 0 {
		return 0, err
	}
	parts := strings.Split(skus[0], "-")
	n, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0, nil
	}
	return n, nil
}
