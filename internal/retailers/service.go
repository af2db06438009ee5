package retailers

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/cardledger/internal/consistency"
	"github.com/angelmondragon/cardledger/pkg/db"
	"github.com/angelmondragon/cardledger/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
	"github.com/angelmondragon/cardledger/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes retailer operations.
type Service interface {
	Create(ctx context.Context, input CreateRetailerInput) (*RetailerDTO, error)
	Get(ctx context.Context, id int64) (*RetailerDTO, error)
	GetByCode(ctx context.Context, code string) (*RetailerDTO, error)
	List(ctx context.Context) ([]RetailerDTO, error)
	Update(ctx context.Context, id int64, input UpdateRetailerInput) (*RetailerDTO, error)
	Delete(ctx context.Context, id int64) error
	SeedDefaults(ctx context.Context) (int, error)
}

type service struct {
	tx   txRunner
	repo *Repository
	logg *logger.Logger
}

// NewService builds a retailer service.
func NewService(tx txRunner, repo *Repository, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("retailer repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{tx: tx, repo: repo, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateRetailerInput) (*RetailerDTO, error) {
	if err := consistency.Struct(input); err != nil {
		return nil, err
	}
	retailer := input.toModel()
	if err := s.repo.Create(ctx, retailer); err != nil {
		return nil, db.Translate(err, "retailer")
	}
	return FromModel(retailer), nil
}

func (s *service) Get(ctx context.Context, id int64) (*RetailerDTO, error) {
	retailer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Translate(err, "retailer")
	}
	return FromModel(retailer), nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*RetailerDTO, error) {
	retailer, err := s.repo.FindByCode(ctx, NormalizeCode(code))
	if err != nil {
		return nil, db.Translate(err, "retailer "+NormalizeCode(code))
	}
	return FromModel(retailer), nil
}

func (s *service) List(ctx context.Context) ([]RetailerDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, db.Translate(err, "retailers")
	}
	out := make([]RetailerDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateRetailerInput) (*RetailerDTO, error) {
	if err := consistency.Struct(input); err != nil {
		return nil, err
	}
	retailer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Translate(err, "retailer")
	}
	if input.Code != nil {
		retailer.Code = NormalizeCode(*input.Code)
	}
	if input.Name != nil {
		retailer.Name = strings.TrimSpace(*input.Name)
	}
	if input.RequiresPin != nil {
		retailer.RequiresPin = *input.RequiresPin
	}
	if input.Notes != nil {
		retailer.Notes = input.Notes
	}
	if err := s.repo.Update(ctx, retailer); err != nil {
		return nil, db.Translate(err, "retailer")
	}
	return FromModel(retailer), nil
}

// Delete refuses while orders reference the retailer; otherwise the retailer's
// gift cards and their usage go with it.
func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, id); err != nil {
			return err
		}
		orders, err := repo.CountOrders(ctx, id)
		if err != nil {
			return err
		}
		if orders > 0 {
			return pkgerrors.New(pkgerrors.CodeReferentialIntegrity, "retailer still has orders").
				WithRule(consistency.RuleRetailerHasOrders).
				WithDetails(map[string]any{"retailer_id": id, "orders": orders})
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return db.Translate(err, "retailer")
	}
	s.logg.Info(s.logg.WithEntity(ctx, "retailer", id), "retailer deleted")
	return nil
}

// SeedDefaults inserts any default retailer whose code is missing and reports
// how many were added. Running it again is a no-op.
func (s *service) SeedDefaults(ctx context.Context) (int, error) {
	added := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		added = 0
		for _, input := range Defaults {
			_, err := repo.FindByCode(ctx, input.Code)
			if err == nil {
				continue
			}
			if !db.IsNotFound(err) {
				return err
			}
			if err := repo.Create(ctx, input.toModel()); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, db.Translate(err, "retailer seed")
	}
	if added > 0 {
		s.logg.Info(s.logg.WithField(ctx, "added", added), "default retailers seeded")
	}
	return added, nil
}

// Lookup resolves a retailer by code for other services.
func Lookup(ctx context.Context, tx *gorm.DB, code string) (*models.Retailer, error) {
	retailer, err := NewRepository(tx).FindByCode(ctx, NormalizeCode(code))
	if err != nil {
		return nil, db.Translate(err, "retailer "+NormalizeCode(code))
	}
	return retailer, nil
}
