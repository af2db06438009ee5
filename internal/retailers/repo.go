package retailers

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/cardledger/pkg/db/models"
)

// Repository handles retailer persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to retailer operations.
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

func (r *Repository) Create(ctx context.Context, retailer *models.Retailer) error {
	return r.db.WithContext(ctx).Create(retailer).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Retailer, error) {
	var retailer models.Retailer
	if err := r.db.WithContext(ctx).First(&retailer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &retailer, nil
}

func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Retailer, error) {
	var retailer models.Retailer
	if err := r.db.WithContext(ctx).First(&retailer, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &retailer, nil
}

// List returns every retailer ordered by code.
func (r *Repository) List(ctx context.Context) ([]models.Retailer, error) {
	var retailers []models.Retailer
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&retailers).Error; err != nil {
		return nil, err
	}
	return retailers, nil
}

func (r *Repository) Update(ctx context.Context, retailer *models.Retailer) error {
	return r.db.WithContext(ctx).Save(retailer).Error
}

// CountOrders reports how many orders still reference the retailer.
func (r *Repository) CountOrders(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("retailer_id = ?", id).Count(&count).Error
	return count, err
}

// Delete removes the retailer together with its gift cards and their usage.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	cards := db.Model(&models.GiftCard{}).Select("id").Where("retailer_id = ?", id)
	if err := db.Where("gift_card_id IN (?)", cards).Delete(&models.GiftCardUsage{}).Error; err != nil {
		return err
	}
	if err := db.Where("retailer_id = ?", id).Delete(&models.GiftCard{}).Error; err != nil {
		return err
	}
	res := db.Delete(&models.Retailer{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
