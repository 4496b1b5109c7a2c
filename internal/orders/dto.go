package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abed-obaah/royal-backend/pkg/db/models"
)

// SubmitBuyInput carries a buy request. Quantity is in whole shares; the
// engine prices the order from the asset's current price inside the
// transaction, never from client input.
type SubmitBuyInput struct {
	UserID   uuid.UUID
	AssetID  uuid.UUID
	Quantity int64
}

// SubmitSellInput carries a sell request against an existing holding.
type SubmitSellInput struct {
	UserID          uuid.UUID
	PortfolioItemID uuid.UUID
	Quantity        int64
}

// ResolutionAction is an admin's decision on a pending sell order.
type ResolutionAction string

const (
	ResolutionApprove ResolutionAction = "approve"
	ResolutionReject  ResolutionAction = "reject"
)

// IsValid reports whether the action is a recognized decision.
func (a ResolutionAction) IsValid() bool {
	return a == ResolutionApprove || a == ResolutionReject
}

// ResolveSellInput carries an admin resolution of a pending sell order.
type ResolveSellInput struct {
	OrderID uuid.UUID
	AdminID uuid.UUID
	Action  ResolutionAction
}

// BuyResult reports a completed buy alongside the holding it settled into.
type BuyResult struct {
	Order   *models.Order         `json:"order"`
	Holding *models.PortfolioItem `json:"holding"`
}

// SellResolution reports a resolved sell order. RealizedPnL is zero for
// rejections.
type SellResolution struct {
	Order       *models.Order   `json:"order"`
	RealizedPnL decimal.Decimal `json:"realized_pnl"`
}
