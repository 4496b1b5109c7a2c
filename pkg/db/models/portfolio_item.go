package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PortfolioItem is the (user, asset) ownership row. CostBasis accumulates the
// exact amount moved into invested for the held shares; PurchasePrice is the
// rounded weighted average derived from it, kept for display only. Rows are
// kept at quantity zero so resolved sell orders retain their anchor.
type PortfolioItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_portfolio_user_asset" json:"user_id"`
	AssetID       uuid.UUID       `gorm:"column:asset_id;type:uuid;not null;uniqueIndex:idx_portfolio_user_asset" json:"asset_id"`
	Quantity      int64           `gorm:"column:quantity;not null;default:0" json:"quantity"`
	PurchasePrice decimal.Decimal `gorm:"column:purchase_price;type:numeric(20,8);not null;default:0" json:"purchase_price"`
	CostBasis     decimal.Decimal `gorm:"column:cost_basis;type:numeric(20,8);not null;default:0" json:"cost_basis"`
	CurrentPrice  decimal.Decimal `gorm:"column:current_price;type:numeric(20,8);not null;default:0" json:"current_price"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (p *PortfolioItem) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// CurrentValue returns the derived market value of the holding.
func (p *PortfolioItem) CurrentValue() decimal.Decimal {
	return p.CurrentPrice.Mul(decimal.NewFromInt(p.Quantity))
}

// BasisFor returns the exact cost basis attributable to qty shares of the
// holding. Draining the holding takes the full accumulated basis so rounding
// residue from the weighted average never leaks into the wallet ledger.
func (p *PortfolioItem) BasisFor(qty int64) decimal.Decimal {
	if qty >= p.Quantity {
		return p.CostBasis
	}
	share := p.CostBasis.
		Mul(decimal.NewFromInt(qty)).
		DivRound(decimal.NewFromInt(p.Quantity), 8)
	if share.GreaterThan(p.CostBasis) {
		return p.CostBasis
	}
	return share
}
