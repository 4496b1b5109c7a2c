package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgerrors "github.com/abed-obaah/royal-backend/pkg/errors"
)

// Service exposes the holdings read surface.
type Service interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]HoldingView, error)
	Get(ctx context.Context, userID, itemID uuid.UUID) (*HoldingView, error)
}

// HoldingView is the client-facing holding shape; CurrentValue is derived on
// read, CostBasis is the stored exact acquisition cost.
type HoldingView struct {
	ID            uuid.UUID       `json:"id"`
	AssetID       uuid.UUID       `json:"asset_id"`
	Quantity      int64           `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	CostBasis     decimal.Decimal `json:"cost_basis"`
}

type service struct {
	repo Repository
}

// NewService wires a portfolio service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("portfolio repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]HoldingView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list holdings")
	}
	views := make([]HoldingView, 0, len(items))
	for _, item := range items {
		views = append(views, HoldingView{
			ID:            item.ID,
			AssetID:       item.AssetID,
			Quantity:      item.Quantity,
			PurchasePrice: item.PurchasePrice,
			CurrentPrice:  item.CurrentPrice,
			CurrentValue:  item.CurrentValue(),
			CostBasis:     item.CostBasis,
		})
	}
	return views, nil
}

func (s *service) Get(ctx context.Context, userID, itemID uuid.UUID) (*HoldingView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "portfolio item id required")
	}
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "holding not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load holding")
	}
	if item.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "holding does not belong to user")
	}
	view := &HoldingView{
		ID:            item.ID,
		AssetID:       item.AssetID,
		Quantity:      item.Quantity,
		PurchasePrice: item.PurchasePrice,
		CurrentPrice:  item.CurrentPrice,
		CurrentValue:  item.CurrentValue(),
		CostBasis:     item.CostBasis,
	}
	return view, nil
}
