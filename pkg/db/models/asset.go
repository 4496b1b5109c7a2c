package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abed-obaah/royal-backend/pkg/enums"
)

// Asset is a tradable song or basket of songs. TotalShares is fixed at
// creation; AvailableShares moves between the asset and investor portfolios
// and must stay within [0, TotalShares].
type Asset struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string            `gorm:"column:title;not null" json:"title"`
	Artist          string            `gorm:"column:artist;not null" json:"artist"`
	Kind            enums.AssetKind   `gorm:"column:kind;type:text;not null;default:'song'" json:"kind"`
	ImageURL        *string           `gorm:"column:image_url" json:"image_url,omitempty"`
	TotalShares     int64             `gorm:"column:total_shares;not null" json:"total_shares"`
	AvailableShares int64             `gorm:"column:available_shares;not null" json:"available_shares"`
	Price           decimal.Decimal   `gorm:"column:price;type:numeric(20,8);not null" json:"price"`
	Status          enums.AssetStatus `gorm:"column:status;type:text;not null;default:'active'" json:"status"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
