package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abed-obaah/royal-backend/pkg/enums"
)

// Order records a buy or sell intent and doubles as the audit trail for the
// inventory/ledger effects it caused. Rows are transitioned, never deleted.
type Order struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Reference       string            `gorm:"column:reference;not null;uniqueIndex" json:"reference"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	AssetID         uuid.UUID         `gorm:"column:asset_id;type:uuid;not null;index" json:"asset_id"`
	PortfolioItemID *uuid.UUID        `gorm:"column:portfolio_item_id;type:uuid;index" json:"portfolio_item_id,omitempty"`
	Type            enums.OrderType   `gorm:"column:type;type:text;not null" json:"type"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	Quantity        int64             `gorm:"column:quantity;not null" json:"quantity"`
	Price           decimal.Decimal   `gorm:"column:price;type:numeric(20,8);not null" json:"price"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(20,8);not null" json:"total"`
	RealizedPnL     decimal.Decimal   `gorm:"column:realized_pnl;type:numeric(20,8);not null;default:0" json:"realized_pnl"`
	ResolvedBy      *uuid.UUID        `gorm:"column:resolved_by;type:uuid" json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time        `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
