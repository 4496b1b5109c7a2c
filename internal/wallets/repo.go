package wallets

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abed-obaah/royal-backend/pkg/db/models"
)

// Repository manages persistence for wallet rows. Every balance mutation is a
// single conditional UPDATE so the read-check-write is atomic per wallet key;
// callers treat a false return as the failed precondition.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, wallet *models.Wallet) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	DebitAvailable(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (bool, error)
	CreditAvailable(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error
	MoveAvailableToInvested(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (bool, error)
	SettleInvested(ctx context.Context, walletID uuid.UUID, proceeds, costBasis decimal.Decimal) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Create(wallet).Error
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).First(&wallet, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).First(&wallet, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// DebitAvailable withholds amount from the available balance. It returns false
// when the balance is short, leaving the row untouched.
func (r *repository) DebitAvailable(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE wallets
		SET available_balance = available_balance - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND available_balance >= ?
	`, amount, walletID, amount)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CreditAvailable(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE wallets
		SET available_balance = available_balance + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, amount, walletID).Error
}

// MoveAvailableToInvested funds a buy: the purchase amount leaves available
// and enters invested in one statement.
func (r *repository) MoveAvailableToInvested(ctx context.Context, walletID uuid.UUID, amount decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE wallets
		SET available_balance = available_balance - ?,
			invested_balance = invested_balance + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND available_balance >= ?
	`, amount, amount, walletID, amount)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SettleInvested applies an approved sell: sale proceeds enter available and
// the cost basis of the sold shares leaves invested. The difference is the
// realized gain or loss, recorded on the order, never re-entered here.
func (r *repository) SettleInvested(ctx context.Context, walletID uuid.UUID, proceeds, costBasis decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE wallets
		SET available_balance = available_balance + ?,
			invested_balance = invested_balance - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND invested_balance >= ?
	`, proceeds, costBasis, walletID, costBasis)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
