package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abed-obaah/royal-backend/pkg/enums"
)

// Wallet is the custodial ledger row for a single user. AvailableBalance and
// InvestedBalance are only mutated inside an engine transaction; the displayed
// total is always derived, never stored.
type Wallet struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex" json:"user_id"`
	AvailableBalance decimal.Decimal `gorm:"column:available_balance;type:numeric(20,8);not null;default:0" json:"available_balance"`
	InvestedBalance  decimal.Decimal `gorm:"column:invested_balance;type:numeric(20,8);not null;default:0" json:"invested_balance"`
	Currency         enums.Currency  `gorm:"column:currency;type:text;not null;default:'USD'" json:"currency"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// TotalBalance returns the derived display balance.
func (w *Wallet) TotalBalance() decimal.Decimal {
	return w.AvailableBalance.Add(w.InvestedBalance)
}
