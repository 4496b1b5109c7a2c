package assets

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abed-obaah/royal-backend/pkg/db/models"
	"github.com/abed-obaah/royal-backend/pkg/enums"
	pkgerrors "github.com/abed-obaah/royal-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes asset catalog reads and the admin management surface.
type Service interface {
	Create(ctx context.Context, input CreateAssetInput) (*models.Asset, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	List(ctx context.Context, status *enums.AssetStatus) ([]models.Asset, error)
	UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (*models.Asset, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.AssetStatus) (*models.Asset, error)
}

// CreateAssetInput captures the immutable data a new asset requires.
type CreateAssetInput struct {
	Title       string
	Artist      string
	Kind        enums.AssetKind
	ImageURL    *string
	TotalShares int64
	Price       decimal.Decimal
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds an asset service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("asset repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateAssetInput) (*models.Asset, error) {
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if input.Artist == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artist required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid asset kind")
	}
	if input.TotalShares <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total shares must be positive")
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	asset := &models.Asset{
		Title:           input.Title,
		Artist:          input.Artist,
		Kind:            input.Kind,
		ImageURL:        input.ImageURL,
		TotalShares:     input.TotalShares,
		AvailableShares: input.TotalShares,
		Price:           input.Price,
		Status:          enums.AssetStatusActive,
	}
	if err := s.repo.Create(ctx, asset); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create asset")
	}
	return asset, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset id required")
	}
	asset, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load asset")
	}
	return asset, nil
}

func (s *service) List(ctx context.Context, status *enums.AssetStatus) ([]models.Asset, error) {
	assets, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assets")
	}
	return assets, nil
}

// UpdatePrice changes the unit price and refreshes the last-known price on
// every holding of the asset under one transaction.
func (s *service) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (*models.Asset, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset id required")
	}
	if !price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	var updated *models.Asset
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		asset, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load asset")
		}
		if err := repo.UpdatePrice(ctx, asset.ID, price); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update asset price")
		}
		if err := tx.WithContext(ctx).Exec(`
			UPDATE portfolio_items
			SET current_price = ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE asset_id = ?
		`, price, asset.ID).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh holding prices")
		}
		asset.Price = price
		updated = asset
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status enums.AssetStatus) (*models.Asset, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset id required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid asset status")
	}

	asset, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset.Status == status {
		return asset, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update asset status")
	}
	asset.Status = status
	return asset, nil
}
