package transactions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abed-obaah/royal-backend/pkg/db/models"
	"github.com/abed-obaah/royal-backend/pkg/enums"
)

// Repository manages persistence for wallet transactions. Status transitions
// are conditional UPDATEs on pending status so a resolved transaction can
// never be resolved twice.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
	ListPending(ctx context.Context, kind *enums.TransactionKind) ([]models.Transaction, error)
	MarkResolved(ctx context.Context, id uuid.UUID, status enums.TransactionStatus, adminID uuid.UUID, notes *string) (bool, error)
	ClearProof(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transaction repository bound to the provided
// database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).First(&txn, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *repository) ListPending(ctx context.Context, kind *enums.TransactionKind) ([]models.Transaction, error) {
	query := r.db.WithContext(ctx).Where("status = ?", enums.TransactionStatusPending)
	if kind != nil {
		query = query.Where("kind = ?", *kind)
	}
	var txns []models.Transaction
	if err := query.Order("created_at ASC").Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// MarkResolved claims the pending transaction for the given terminal status.
// A false return means another actor resolved it first.
func (r *repository) MarkResolved(ctx context.Context, id uuid.UUID, status enums.TransactionStatus, adminID uuid.UUID, notes *string) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE transactions
		SET status = ?,
			resolved_by = ?,
			resolved_at = CURRENT_TIMESTAMP,
			admin_notes = COALESCE(?, admin_notes),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`, status, adminID, notes, id, enums.TransactionStatusPending)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ClearProof removes the payment proof from a still-pending transaction.
func (r *repository) ClearProof(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE transactions
		SET proof_url = NULL,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ? AND proof_url IS NOT NULL
	`, id, enums.TransactionStatusPending)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
