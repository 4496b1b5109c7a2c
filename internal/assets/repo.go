package assets

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abed-obaah/royal-backend/pkg/db/models"
	"github.com/abed-obaah/royal-backend/pkg/enums"
)

// Repository manages persistence for asset inventory. Share movements are
// conditional UPDATEs so concurrent buys/sells against the same asset cannot
// both pass their check and overdraw or overfill the float.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, asset *models.Asset) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	List(ctx context.Context, status *enums.AssetStatus) ([]models.Asset, error)
	UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AssetStatus) error
	ReserveShares(ctx context.Context, id uuid.UUID, qty int64) (bool, error)
	ReleaseShares(ctx context.Context, id uuid.UUID, qty int64) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an asset repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, asset *models.Asset) error {
	return r.db.WithContext(ctx).Create(asset).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	if err := r.db.WithContext(ctx).First(&asset, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *repository) List(ctx context.Context, status *enums.AssetStatus) ([]models.Asset, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var assets []models.Asset
	if err := query.Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

func (r *repository) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.Asset{}).
		Where("id = ?", id).
		Update("price", price).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AssetStatus) error {
	return r.db.WithContext(ctx).Model(&models.Asset{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ReserveShares takes qty out of the asset float. A false return means the
// float was short; nothing changes.
func (r *repository) ReserveShares(ctx context.Context, id uuid.UUID, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE assets
		SET available_shares = available_shares - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ? AND available_shares >= ?
	`, qty, id, enums.AssetStatusActive, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReleaseShares returns qty to the asset float, refusing to exceed the fixed
// total_shares bound.
func (r *repository) ReleaseShares(ctx context.Context, id uuid.UUID, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE assets
		SET available_shares = available_shares + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND available_shares + ? <= total_shares
	`, qty, id, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
