package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abed-obaah/royal-backend/pkg/enums"
)

// Transaction records a wallet funding or defunding event. Withdrawals debit
// the wallet at request time (the hold); a failed withdrawal refunds it.
type Transaction struct {
	ID                uuid.UUID                  `gorm:"type:uuid;primaryKey" json:"id"`
	Reference         string                     `gorm:"column:reference;not null;uniqueIndex" json:"reference"`
	UserID            uuid.UUID                  `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	WalletID          uuid.UUID                  `gorm:"column:wallet_id;type:uuid;not null;index" json:"wallet_id"`
	Kind              enums.TransactionKind      `gorm:"column:kind;type:text;not null" json:"kind"`
	EntryType         enums.TransactionEntryType `gorm:"column:entry_type;type:text;not null" json:"entry_type"`
	Amount            decimal.Decimal            `gorm:"column:amount;type:numeric(20,8);not null" json:"amount"`
	Status            enums.TransactionStatus    `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	Method            enums.PayoutMethod         `gorm:"column:method;type:text;not null" json:"method"`
	Network           *enums.CryptoNetwork       `gorm:"column:network;type:text" json:"network,omitempty"`
	ProofURL          *string                    `gorm:"column:proof_url" json:"proof_url,omitempty"`
	WithdrawalDetails *string                    `gorm:"column:withdrawal_details" json:"withdrawal_details,omitempty"`
	AdminNotes        *string                    `gorm:"column:admin_notes" json:"admin_notes,omitempty"`
	ResolvedBy        *uuid.UUID                 `gorm:"column:resolved_by;type:uuid" json:"resolved_by,omitempty"`
	ResolvedAt        *time.Time                 `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	CreatedAt         time.Time                  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time                  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
