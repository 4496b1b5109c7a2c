package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abed-obaah/royal-backend/pkg/db/models"
	"github.com/abed-obaah/royal-backend/pkg/enums"
)

// Repository manages persistence for orders. Resolution is a conditional
// UPDATE on pending status so a resolved row can never transition twice.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListPendingSells(ctx context.Context) ([]models.Order, error)
	PendingSellQuantity(ctx context.Context, portfolioItemID uuid.UUID) (int64, error)
	MarkResolved(ctx context.Context, id uuid.UUID, status enums.OrderStatus, adminID uuid.UUID, realizedPnL decimal.Decimal) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListPendingSells(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Where("type = ? AND status = ?", enums.OrderTypeSell, enums.OrderStatusPending).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// PendingSellQuantity sums the virtual hold on a holding: shares already
// promised to pending sell orders but not yet drawn down.
func (r *repository) PendingSellQuantity(ctx context.Context, portfolioItemID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("portfolio_item_id = ? AND type = ? AND status = ?",
			portfolioItemID, enums.OrderTypeSell, enums.OrderStatusPending).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// MarkResolved claims the pending order for the given terminal status. A
// false return means another actor resolved it first.
func (r *repository) MarkResolved(ctx context.Context, id uuid.UUID, status enums.OrderStatus, adminID uuid.UUID, realizedPnL decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE orders
		SET status = ?,
			resolved_by = ?,
			resolved_at = CURRENT_TIMESTAMP,
			realized_pnl = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`, status, adminID, realizedPnL, id, enums.OrderStatusPending)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
