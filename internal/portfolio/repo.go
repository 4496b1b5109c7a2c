package portfolio

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abed-obaah/royal-backend/pkg/db/models"
)

// Repository manages persistence for portfolio holdings. Quantity mutations
// are guarded UPDATEs: the buy path CAS-checks the prior quantity so the
// weighted-average repricing never clobbers a concurrent write, and the sell
// path refuses to draw a holding below zero.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.PortfolioItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PortfolioItem, error)
	FindByUserAndAsset(ctx context.Context, userID, assetID uuid.UUID) (*models.PortfolioItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PortfolioItem, error)
	CompareAndReprice(ctx context.Context, id uuid.UUID, oldQty, newQty int64, costBasis, purchasePrice, currentPrice decimal.Decimal) (bool, error)
	ApplySell(ctx context.Context, id uuid.UUID, qty int64, basis decimal.Decimal) (bool, error)
	Touch(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a portfolio repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, item *models.PortfolioItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PortfolioItem, error) {
	var item models.PortfolioItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindByUserAndAsset(ctx context.Context, userID, assetID uuid.UUID) (*models.PortfolioItem, error) {
	var item models.PortfolioItem
	if err := r.db.WithContext(ctx).
		First(&item, "user_id = ? AND asset_id = ?", userID, assetID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PortfolioItem, error) {
	var items []models.PortfolioItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CompareAndReprice swaps in the recomputed quantity, accumulated cost basis
// and weighted-average purchase price, but only if the row still holds oldQty.
// A false return means the caller lost the race and must reload and retry.
func (r *repository) CompareAndReprice(ctx context.Context, id uuid.UUID, oldQty, newQty int64, costBasis, purchasePrice, currentPrice decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE portfolio_items
		SET quantity = ?,
			cost_basis = ?,
			purchase_price = ?,
			current_price = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quantity = ?
	`, newQty, costBasis, purchasePrice, currentPrice, id, oldQty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Touch writes the holding row without changing it, taking its row lock for
// the remainder of the transaction. Sell submission uses it to serialize the
// virtual-hold check against concurrent submissions on the same holding.
func (r *repository) Touch(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE portfolio_items SET updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, id).Error
}

// ApplySell draws down an approved sell's quantity and its share of the
// accumulated cost basis. A drain to zero shares zeroes the basis outright so
// no rounding residue survives the holding. A false return means the holding
// no longer covers the order.
func (r *repository) ApplySell(ctx context.Context, id uuid.UUID, qty int64, basis decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE portfolio_items
		SET quantity = quantity - ?,
			cost_basis = CASE WHEN quantity = ? THEN 0 ELSE cost_basis - ? END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quantity >= ? AND cost_basis >= ?
	`, qty, qty, basis, id, qty, basis)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
