package accounts

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
	"github.com/angelmondragon/cardledger/pkg/enums"
	pkgerrors "github.com/angelmondragon/cardledger/pkg/errors"
	"github.com/angelmondragon/cardledger/pkg/logger"
)

type ledgerEngine interface {
	Atomically(ctx context.Context, keys []string, fn func(tx *gorm.DB) error) error
	ApplyAccountTransaction(ctx context.Context, in ledger.TransactionInput) (*models.AccountTransaction, error)
}

// Service exposes account operations.
type Service interface {
	Create(ctx context.Context, input CreateAccountInput) (*AccountDTO, error)
	Get(ctx context.Context, id int64) (*AccountDTO, error)
	List(ctx context.Context) ([]AccountDTO, error)
	Update(ctx context.Context, id int64, input UpdateAccountInput) (*AccountDTO, error)
	Delete(ctx context.Context, id int64) error
	RecordTransaction(ctx context.Context, id int64, input RecordTransactionInput) (*TransactionDTO, error)
	Transactions(ctx context.Context, id int64) ([]TransactionDTO, error)
}

type service struct {
	repo   *Repository
	engine ledgerEngine
	logg   *logger.Logger
}

// NewService builds an account service.
func NewService(repo *Repository, engine ledgerEngine, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("account repository required")
	}
	if engine == nil {
		return nil, fmt.Errorf("ledger engine required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, engine: engine, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateAccountInput) (*AccountDTO, error) {
	if err := consistency.Struct(input); err != nil {
		return nil, err
	}
	if err := consistency.CreditLimit(input.Type, input.CreditLimit); err != nil {
		return nil, err
	}
	account := &models.Account{
		Name:        strings.TrimSpace(input.Name),
		Type:        input.Type,
		Balance:     decimal.Zero,
		CreditLimit: input.CreditLimit,
		Notes:       input.Notes,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, db.Translate(err, "account "+account.Name)
	}
	return FromModel(account), nil
}

func (s *service) Get(ctx context.Context, id int64) (*AccountDTO, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Translate(err, fmt.Sprintf("account %d", id))
	}
	return FromModel(account), nil
}

func (s *service) List(ctx context.Context) ([]AccountDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, db.Translate(err, "accounts")
	}
	out := make([]AccountDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// Update edits the descriptive fields. Lowering a credit limit below the
// outstanding balance is refused.
func (s *service) Update(ctx context.Context, id int64, input UpdateAccountInput) (*AccountDTO, error) {
	if err := consistency.Struct(input); err != nil {
		return nil, err
	}
	var account *models.Account
	err := s.engine.Atomically(ctx, []string{ledger.Key(ledger.KindAccount, id)}, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		if account, err = repo.FindByID(ctx, id); err != nil {
			return db.Translate(err, fmt.Sprintf("account %d", id))
		}
		if input.Name != nil {
			account.Name = strings.TrimSpace(*input.Name)
		}
		if input.Notes != nil {
			account.Notes = input.Notes
		}
		switch {
		case input.ClearCreditLimit:
			account.CreditLimit = decimal.NullDecimal{}
		case input.CreditLimit != nil:
			account.CreditLimit = decimal.NewNullDecimal(*input.CreditLimit)
		}
		if err := consistency.CreditLimit(account.Type, account.CreditLimit); err != nil {
			return err
		}
		if err := consistency.AccountBalance(account.Type, account.Balance, account.CreditLimit); err != nil {
			return err
		}
		return db.Translate(repo.UpdateDetails(ctx, account), "account")
	})
	if err != nil {
		return nil, err
	}
	return FromModel(account), nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.engine.Atomically(ctx, []string{ledger.Key(ledger.KindAccount, id)}, func(tx *gorm.DB) error {
		return db.Translate(s.repo.WithTx(tx).Delete(ctx, id), fmt.Sprintf("account %d", id))
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithEntity(ctx, ledger.KindAccount, id), "account deleted")
	return nil
}

func (s *service) RecordTransaction(ctx context.Context, id int64, input RecordTransactionInput) (*TransactionDTO, error) {
	if err := consistency.Struct(input); err != nil {
		return nil, err
	}
	related, err := RelatedRef(input.RelatedType, input.RelatedID)
	if err != nil {
		return nil, err
	}
	in := ledger.TransactionInput{
		AccountID:   id,
		Amount:      input.Amount,
		Related:     related,
		Description: input.Description,
	}
	if input.TransactionDate != nil {
		in.TransactionDate = *input.TransactionDate
	}
	txn, err := s.engine.ApplyAccountTransaction(ctx, in)
	if err != nil {
		return nil, err
	}
	dto := TransactionFromModel(txn)
	return &dto, nil
}

func (s *service) Transactions(ctx context.Context, id int64) ([]TransactionDTO, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, db.Translate(err, fmt.Sprintf("account %d", id))
	}
	rows, err := s.repo.Transactions(ctx, id)
	if err != nil {
		return nil, db.Translate(err, "account transactions")
	}
	out := make([]TransactionDTO, 0, len(rows))
	for i := range rows {
		out = append(out, TransactionFromModel(&rows[i]))
	}
	return out, nil
}

// RelatedRef builds the typed link for a transaction from its wire form.
func RelatedRef(relatedType enums.AccountRelatedType, relatedID *int64) (ledger.RelatedRef, error) {
	needsID := relatedType == enums.AccountRelatedTypeOrder || relatedType == enums.AccountRelatedTypeSale
	if needsID && relatedID == nil {
		return nil, pkgerrors.Violation(consistency.RuleFieldInvalid, fmt.Sprintf("%s transactions need a related_id", relatedType)).
			WithDetails(map[string]string{"related_id": "is required"})
	}
	if !needsID && relatedID != nil {
		return nil, pkgerrors.Violation(consistency.RuleFieldInvalid, fmt.Sprintf("%s transactions cannot carry a related_id", relatedType)).
			WithDetails(map[string]string{"related_id": "must be empty"})
	}
	switch relatedType {
	case enums.AccountRelatedTypeOrder:
		return ledger.RelatedOrder{OrderID: *relatedID}, nil
	case enums.AccountRelatedTypeSale:
		return ledger.RelatedSale{SaleID: *relatedID}, nil
	case enums.AccountRelatedTypeDeposit:
		return ledger.Deposit{}, nil
	case enums.AccountRelatedTypeWithdrawal:
		return ledger.Withdrawal{}, nil
	}
	return nil, pkgerrors.Violation(consistency.RuleFieldInvalid, fmt.Sprintf("unknown related type %q", relatedType))
}
