package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abed-obaah/royal-backend/internal/assets"
	"github.com/abed-obaah/royal-backend/internal/portfolio"
	"github.com/abed-obaah/royal-backend/internal/wallets"
	"github.com/abed-obaah/royal-backend/pkg/db"
	"github.com/abed-obaah/royal-backend/pkg/db/models"
	"github.com/abed-obaah/royal-backend/pkg/enums"
	pkgerrors "github.com/abed-obaah/royal-backend/pkg/errors"
	"github.com/abed-obaah/royal-backend/pkg/metrics"
)

const (
	opSubmitBuy   = "submit_buy"
	opSubmitSell  = "submit_sell"
	opResolveSell = "resolve_sell"

	repriceBackoff  = 10 * time.Millisecond
	repriceAttempts = 4
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the order state machine. Buys settle synchronously; sells park
// as pending until an admin resolves them. Every balance and inventory effect
// of an order happens inside a single transaction with the order row itself.
type Service interface {
	SubmitBuy(ctx context.Context, input SubmitBuyInput) (*BuyResult, error)
	SubmitSell(ctx context.Context, input SubmitSellInput) (*models.Order, error)
	ResolveSell(ctx context.Context, input ResolveSellInput) (*SellResolution, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListPendingSells(ctx context.Context) ([]models.Order, error)
}

type service struct {
	repo      Repository
	wallets   wallets.Repository
	assets    assets.Repository
	portfolio portfolio.Repository
	tx        txRunner
	metrics   *metrics.EngineMetrics
}

// NewService builds an order service with the required dependencies. Metrics
// may be nil.
func NewService(repo Repository, walletRepo wallets.Repository, assetRepo assets.Repository, portfolioRepo portfolio.Repository, tx txRunner, m *metrics.EngineMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if walletRepo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if assetRepo == nil {
		return nil, fmt.Errorf("asset repository required")
	}
	if portfolioRepo == nil {
		return nil, fmt.Errorf("portfolio repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:      repo,
		wallets:   walletRepo,
		assets:    assetRepo,
		portfolio: portfolioRepo,
		tx:        tx,
		metrics:   m,
	}, nil
}

// SubmitBuy reserves asset shares, moves funds from available to invested and
// folds the purchase into the buyer's holding at a weighted-average price.
// The holding reprice is a compare-and-swap; on contention the whole
// transaction rolls back and is retried with fresh reads.
func (s *service) SubmitBuy(ctx context.Context, input SubmitBuyInput) (*BuyResult, error) {
	start := time.Now()
	if input.UserID == uuid.Nil {
		return nil, s.fail(opSubmitBuy, pkgerrors.New(pkgerrors.CodeValidation, "user id required"))
	}
	if input.AssetID == uuid.Nil {
		return nil, s.fail(opSubmitBuy, pkgerrors.New(pkgerrors.CodeValidation, "asset id required"))
	}
	if input.Quantity <= 0 {
		return nil, s.fail(opSubmitBuy, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive"))
	}

	var result *BuyResult
	backoff := retry.WithMaxRetries(repriceAttempts, retry.NewFibonacci(repriceBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			res, err := s.executeBuy(ctx, tx, input)
			if err != nil {
				return err
			}
			result = res
			return nil
		})
		if attemptErr != nil && pkgerrors.As(attemptErr).Code() == pkgerrors.CodeConflict {
			s.metrics.IncRetry(opSubmitBuy)
			return retry.RetryableError(attemptErr)
		}
		return attemptErr
	})
	if err != nil {
		return nil, s.fail(opSubmitBuy, err)
	}
	s.metrics.IncSuccess(opSubmitBuy)
	s.metrics.ObserveDuration(opSubmitBuy, time.Since(start))
	return result, nil
}

func (s *service) executeBuy(ctx context.Context, tx *gorm.DB, input SubmitBuyInput) (*BuyResult, error) {
	assetRepo := s.assets.WithTx(tx)
	walletRepo := s.wallets.WithTx(tx)
	portfolioRepo := s.portfolio.WithTx(tx)
	orderRepo := s.repo.WithTx(tx)

	asset, err := assetRepo.FindByID(ctx, input.AssetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load asset")
	}
	if asset.Status != enums.AssetStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeAssetInactive, "asset is not open for trading")
	}

	reserved, err := assetRepo.ReserveShares(ctx, asset.ID, input.Quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve shares")
	}
	if !reserved {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientShares, "not enough shares available")
	}

	wallet, err := wallets.GetOrCreate(ctx, walletRepo, input.UserID)
	if err != nil {
		return nil, err
	}

	cost := asset.Price.Mul(decimal.NewFromInt(input.Quantity))
	moved, err := walletRepo.MoveAvailableToInvested(ctx, wallet.ID, cost)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "move funds to invested")
	}
	if !moved {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "available balance does not cover order cost").
			WithDetails(map[string]string{"required": cost.String()})
	}

	item, err := s.settleIntoHolding(ctx, portfolioRepo, input, asset, cost)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		Reference:       newReference("ORD"),
		UserID:          input.UserID,
		AssetID:         asset.ID,
		PortfolioItemID: &item.ID,
		Type:            enums.OrderTypeBuy,
		Status:          enums.OrderStatusCompleted,
		Quantity:        input.Quantity,
		Price:           asset.Price,
		Total:           cost,
		RealizedPnL:     decimal.Zero,
	}
	if err := orderRepo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record buy order")
	}
	return &BuyResult{Order: order, Holding: item}, nil
}

// settleIntoHolding upserts the buyer's holding for the asset. A lost CAS or a
// lost insert race surfaces as CodeConflict so the caller can retry.
func (s *service) settleIntoHolding(ctx context.Context, repo portfolio.Repository, input SubmitBuyInput, asset *models.Asset, cost decimal.Decimal) (*models.PortfolioItem, error) {
	item, err := repo.FindByUserAndAsset(ctx, input.UserID, asset.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load holding")
		}
		item = &models.PortfolioItem{
			UserID:        input.UserID,
			AssetID:       asset.ID,
			Quantity:      input.Quantity,
			PurchasePrice: asset.Price,
			CostBasis:     cost,
			CurrentPrice:  asset.Price,
		}
		if createErr := repo.Create(ctx, item); createErr != nil {
			if db.IsUniqueViolation(createErr, "") {
				return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, createErr, "holding created concurrently")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, createErr, "create holding")
		}
		return item, nil
	}

	newQty := item.Quantity + input.Quantity
	newBasis := item.CostBasis.Add(cost)
	newAvg := newBasis.DivRound(decimal.NewFromInt(newQty), 8)
	swapped, err := repo.CompareAndReprice(ctx, item.ID, item.Quantity, newQty, newBasis, newAvg, asset.Price)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reprice holding")
	}
	if !swapped {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "holding repriced concurrently")
	}
	item.Quantity = newQty
	item.CostBasis = newBasis
	item.PurchasePrice = newAvg
	item.CurrentPrice = asset.Price
	return item, nil
}

// SubmitSell parks a pending sell order against a holding. Shares are not
// moved yet; they are virtually held by counting other pending sells so the
// same shares cannot back two orders.
func (s *service) SubmitSell(ctx context.Context, input SubmitSellInput) (*models.Order, error) {
	start := time.Now()
	if input.UserID == uuid.Nil {
		return nil, s.fail(opSubmitSell, pkgerrors.New(pkgerrors.CodeValidation, "user id required"))
	}
	if input.PortfolioItemID == uuid.Nil {
		return nil, s.fail(opSubmitSell, pkgerrors.New(pkgerrors.CodeValidation, "portfolio item id required"))
	}
	if input.Quantity <= 0 {
		return nil, s.fail(opSubmitSell, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive"))
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		portfolioRepo := s.portfolio.WithTx(tx)
		orderRepo := s.repo.WithTx(tx)

		item, err := portfolioRepo.FindByID(ctx, input.PortfolioItemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "holding not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load holding")
		}
		if item.UserID != input.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "holding belongs to another user")
		}

		// Lock the holding row so two submissions cannot both pass the
		// virtual-hold check, then re-read under the lock.
		if err := portfolioRepo.Touch(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock holding")
		}
		item, err = portfolioRepo.FindByID(ctx, item.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload holding")
		}

		pending, err := orderRepo.PendingSellQuantity(ctx, item.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum pending sells")
		}
		if item.Quantity-pending < input.Quantity {
			return pkgerrors.New(pkgerrors.CodeInsufficientHoldings, "holding does not cover requested quantity").
				WithDetails(map[string]int64{"held": item.Quantity, "pending": pending})
		}

		asset, err := s.assets.WithTx(tx).FindByID(ctx, item.AssetID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load asset")
		}

		order = &models.Order{
			Reference:       newReference("ORD"),
			UserID:          input.UserID,
			AssetID:         item.AssetID,
			PortfolioItemID: &item.ID,
			Type:            enums.OrderTypeSell,
			Status:          enums.OrderStatusPending,
			Quantity:        input.Quantity,
			Price:           asset.Price,
			Total:           asset.Price.Mul(decimal.NewFromInt(input.Quantity)),
			RealizedPnL:     decimal.Zero,
		}
		if err := orderRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record sell order")
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(opSubmitSell, err)
	}
	s.metrics.IncSuccess(opSubmitSell)
	s.metrics.ObserveDuration(opSubmitSell, time.Since(start))
	return order, nil
}

// ResolveSell applies an admin decision to a pending sell. Approval draws the
// shares out of the holding, returns them to the asset float and settles the
// proceeds into the seller's available balance; rejection only flips status.
// Resolving an already-terminal order is a no-op returning the stored row.
func (s *service) ResolveSell(ctx context.Context, input ResolveSellInput) (*SellResolution, error) {
	start := time.Now()
	if input.OrderID == uuid.Nil {
		return nil, s.fail(opResolveSell, pkgerrors.New(pkgerrors.CodeValidation, "order id required"))
	}
	if input.AdminID == uuid.Nil {
		return nil, s.fail(opResolveSell, pkgerrors.New(pkgerrors.CodeValidation, "admin id required"))
	}
	if !input.Action.IsValid() {
		return nil, s.fail(opResolveSell, pkgerrors.New(pkgerrors.CodeValidation, "action must be approve or reject"))
	}

	var result *SellResolution
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		res, err := s.executeResolve(ctx, tx, input)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, s.fail(opResolveSell, err)
	}
	s.metrics.IncSuccess(opResolveSell)
	s.metrics.ObserveDuration(opResolveSell, time.Since(start))
	return result, nil
}

func (s *service) executeResolve(ctx context.Context, tx *gorm.DB, input ResolveSellInput) (*SellResolution, error) {
	orderRepo := s.repo.WithTx(tx)

	order, err := orderRepo.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.Type != enums.OrderTypeSell {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only sell orders require resolution")
	}
	if order.Status.IsTerminal() {
		return &SellResolution{Order: order, RealizedPnL: order.RealizedPnL}, nil
	}
	if order.PortfolioItemID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "sell order has no holding reference")
	}

	if input.Action == ResolutionReject {
		claimed, err := orderRepo.MarkResolved(ctx, order.ID, enums.OrderStatusRejected, input.AdminID, decimal.Zero)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reject order")
		}
		if !claimed {
			// Lost the race to another resolver; report what won.
			return s.reloadResolution(ctx, orderRepo, order.ID)
		}
		order.Status = enums.OrderStatusRejected
		return &SellResolution{Order: order, RealizedPnL: decimal.Zero}, nil
	}

	portfolioRepo := s.portfolio.WithTx(tx)
	item, err := portfolioRepo.FindByID(ctx, *order.PortfolioItemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load holding")
	}

	costBasis := item.BasisFor(order.Quantity)
	realized := order.Total.Sub(costBasis)

	claimed, err := orderRepo.MarkResolved(ctx, order.ID, enums.OrderStatusCompleted, input.AdminID, realized)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete order")
	}
	if !claimed {
		return s.reloadResolution(ctx, orderRepo, order.ID)
	}

	drawn, err := portfolioRepo.ApplySell(ctx, item.ID, order.Quantity, costBasis)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "draw down holding")
	}
	if !drawn {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientHoldings, "holding no longer covers order quantity")
	}

	released, err := s.assets.WithTx(tx).ReleaseShares(ctx, order.AssetID, order.Quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "release shares")
	}
	if !released {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "share release would exceed asset float")
	}

	walletRepo := s.wallets.WithTx(tx)
	wallet, err := walletRepo.FindByUserID(ctx, order.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load seller wallet")
	}
	settled, err := walletRepo.SettleInvested(ctx, wallet.ID, order.Total, costBasis)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settle proceeds")
	}
	if !settled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invested balance does not cover holding cost basis")
	}

	order.Status = enums.OrderStatusCompleted
	order.RealizedPnL = realized
	return &SellResolution{Order: order, RealizedPnL: realized}, nil
}

func (s *service) reloadResolution(ctx context.Context, repo Repository, id uuid.UUID) (*SellResolution, error) {
	order, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload order")
	}
	return &SellResolution{Order: order, RealizedPnL: order.RealizedPnL}, nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return order, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return orders, nil
}

func (s *service) ListPendingSells(ctx context.Context) ([]models.Order, error) {
	orders, err := s.repo.ListPendingSells(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pending sells")
	}
	return orders, nil
}

func (s *service) fail(op string, err error) error {
	s.metrics.IncFailure(op, string(pkgerrors.As(err).Code()))
	return err
}

func newReference(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(raw[:12])
}
