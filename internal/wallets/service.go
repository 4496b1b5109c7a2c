package wallets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abed-obaah/royal-backend/pkg/db"
	"github.com/abed-obaah/royal-backend/pkg/db/models"
	"github.com/abed-obaah/royal-backend/pkg/enums"
	pkgerrors "github.com/abed-obaah/royal-backend/pkg/errors"
)

// Service exposes wallet reads and lazy provisioning. Balances are mutated
// only by the order/transaction engines, never through this surface.
type Service interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Get(ctx context.Context, userID uuid.UUID) (*WalletView, error)
}

// WalletView is the read shape served to clients; Total is derived.
type WalletView struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	InvestedBalance  decimal.Decimal `json:"invested_balance"`
	Total            decimal.Decimal `json:"total"`
	Currency         enums.Currency  `json:"currency"`
}

type service struct {
	repo Repository
}

// NewService wires a wallet service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return GetOrCreate(ctx, s.repo, userID)
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*WalletView, error) {
	wallet, err := GetOrCreate(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	return &WalletView{
		ID:               wallet.ID,
		UserID:           wallet.UserID,
		AvailableBalance: wallet.AvailableBalance,
		InvestedBalance:  wallet.InvestedBalance,
		Total:            wallet.TotalBalance(),
		Currency:         wallet.Currency,
	}, nil
}

// GetOrCreate loads the user's wallet, creating it on first use. A lost
// creation race falls back to the winner's row. The helper is shared with the
// order/transaction engines, which call it against a tx-bound repository.
func GetOrCreate(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Wallet, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	wallet, err := repo.FindByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}

	fresh := &models.Wallet{
		UserID:           userID,
		AvailableBalance: decimal.Zero,
		InvestedBalance:  decimal.Zero,
		Currency:         enums.CurrencyUSD,
	}
	if createErr := repo.Create(ctx, fresh); createErr != nil {
		if db.IsUniqueViolation(createErr, "") {
			wallet, err = repo.FindByUserID(ctx, userID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload wallet after race")
			}
			return wallet, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "create wallet")
	}
	return fresh, nil
}
