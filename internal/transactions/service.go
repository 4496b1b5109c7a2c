package transactions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/abed-obaah/royal-backend/internal/wallets"
	"github.com/abed-obaah/royal-backend/pkg/db/models"
	"github.com/abed-obaah/royal-backend/pkg/enums"
	pkgerrors "github.com/abed-obaah/royal-backend/pkg/errors"
	"github.com/abed-obaah/royal-backend/pkg/metrics"
)

const (
	opCreateDeposit  = "create_deposit"
	opCreateWithdraw = "create_withdraw"
	opUpdateStatus   = "update_transaction_status"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CreateDepositInput carries a user's claim of an off-platform payment.
type CreateDepositInput struct {
	UserID   uuid.UUID
	Amount   decimal.Decimal
	Method   enums.PayoutMethod
	Network  *enums.CryptoNetwork
	ProofURL *string
}

// CreateWithdrawInput carries a user's request to move funds off platform.
type CreateWithdrawInput struct {
	UserID            uuid.UUID
	Amount            decimal.Decimal
	Method            enums.PayoutMethod
	Network           *enums.CryptoNetwork
	WithdrawalDetails string
}

// UpdateStatusInput carries an admin resolution of a pending transaction.
type UpdateStatusInput struct {
	TransactionID uuid.UUID
	AdminID       uuid.UUID
	Status        enums.TransactionStatus
	Notes         *string
}

// Service is the transaction state machine. Deposits credit the wallet only
// on completion; withdrawals debit it at request time and refund on failure.
type Service interface {
	CreateDeposit(ctx context.Context, input CreateDepositInput) (*models.Transaction, error)
	CreateWithdraw(ctx context.Context, input CreateWithdrawInput) (*models.Transaction, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Transaction, error)
	DeleteProof(ctx context.Context, userID, transactionID uuid.UUID) (*models.Transaction, error)
	Get(ctx context.Context, userID, transactionID uuid.UUID) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
	ListPending(ctx context.Context, kind *enums.TransactionKind) ([]models.Transaction, error)
}

type service struct {
	repo    Repository
	wallets wallets.Repository
	tx      txRunner
	metrics *metrics.EngineMetrics
}

// NewService builds a transaction service with the required dependencies.
// Metrics may be nil.
func NewService(repo Repository, walletRepo wallets.Repository, tx txRunner, m *metrics.EngineMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transaction repository required")
	}
	if walletRepo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, wallets: walletRepo, tx: tx, metrics: m}, nil
}

// CreateDeposit records a pending deposit claim. The wallet is untouched
// until an admin confirms the funds arrived.
func (s *service) CreateDeposit(ctx context.Context, input CreateDepositInput) (*models.Transaction, error) {
	start := time.Now()
	if err := validateFunding(input.UserID, input.Amount, input.Method, input.Network); err != nil {
		return nil, s.fail(opCreateDeposit, err)
	}

	var txn *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		wallet, err := wallets.GetOrCreate(ctx, s.wallets.WithTx(tx), input.UserID)
		if err != nil {
			return err
		}
		txn = &models.Transaction{
			Reference: newReference("TXN"),
			UserID:    input.UserID,
			WalletID:  wallet.ID,
			Kind:      enums.TransactionKindDeposit,
			EntryType: enums.TransactionKindDeposit.EntryType(),
			Amount:    input.Amount,
			Status:    enums.TransactionStatusPending,
			Method:    input.Method,
			Network:   input.Network,
			ProofURL:  input.ProofURL,
		}
		if err := s.repo.WithTx(tx).Create(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record deposit")
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(opCreateDeposit, err)
	}
	s.metrics.IncSuccess(opCreateDeposit)
	s.metrics.ObserveDuration(opCreateDeposit, time.Since(start))
	return txn, nil
}

// CreateWithdraw places a hold by debiting the available balance immediately.
// The debit and the pending row commit together or not at all.
func (s *service) CreateWithdraw(ctx context.Context, input CreateWithdrawInput) (*models.Transaction, error) {
	start := time.Now()
	if err := validateFunding(input.UserID, input.Amount, input.Method, input.Network); err != nil {
		return nil, s.fail(opCreateWithdraw, err)
	}
	details := strings.TrimSpace(input.WithdrawalDetails)
	if details == "" {
		return nil, s.fail(opCreateWithdraw, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal details required"))
	}

	var txn *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		walletRepo := s.wallets.WithTx(tx)
		wallet, err := wallets.GetOrCreate(ctx, walletRepo, input.UserID)
		if err != nil {
			return err
		}
		debited, err := walletRepo.DebitAvailable(ctx, wallet.ID, input.Amount)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hold withdrawal amount")
		}
		if !debited {
			return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "available balance does not cover withdrawal").
				WithDetails(map[string]string{"requested": input.Amount.String()})
		}
		txn = &models.Transaction{
			Reference:         newReference("TXN"),
			UserID:            input.UserID,
			WalletID:          wallet.ID,
			Kind:              enums.TransactionKindWithdraw,
			EntryType:         enums.TransactionKindWithdraw.EntryType(),
			Amount:            input.Amount,
			Status:            enums.TransactionStatusPending,
			Method:            input.Method,
			Network:           input.Network,
			WithdrawalDetails: &details,
		}
		if err := s.repo.WithTx(tx).Create(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record withdrawal")
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(opCreateWithdraw, err)
	}
	s.metrics.IncSuccess(opCreateWithdraw)
	s.metrics.ObserveDuration(opCreateWithdraw, time.Since(start))
	return txn, nil
}

// UpdateStatus applies an admin resolution. Completing a deposit credits the
// wallet; failing a withdrawal refunds the hold. The other two combinations
// have no balance effect. Resolving an already-terminal transaction is a
// no-op returning the stored row.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Transaction, error) {
	start := time.Now()
	if input.TransactionID == uuid.Nil {
		return nil, s.fail(opUpdateStatus, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required"))
	}
	if input.AdminID == uuid.Nil {
		return nil, s.fail(opUpdateStatus, pkgerrors.New(pkgerrors.CodeValidation, "admin id required"))
	}
	if !input.Status.IsValid() || !input.Status.IsTerminal() {
		return nil, s.fail(opUpdateStatus, pkgerrors.New(pkgerrors.CodeValidation, "status must be completed or failed"))
	}

	var result *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		txn, err := repo.FindByID(ctx, input.TransactionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load transaction")
		}
		if txn.Status.IsTerminal() {
			result = txn
			return nil
		}

		claimed, err := repo.MarkResolved(ctx, txn.ID, input.Status, input.AdminID, input.Notes)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve transaction")
		}
		if !claimed {
			// Lost the race to another resolver; report what won.
			result, err = repo.FindByID(ctx, txn.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload transaction")
			}
			return nil
		}

		if err := s.applyResolution(ctx, tx, txn, input.Status); err != nil {
			return err
		}
		txn.Status = input.Status
		result = txn
		return nil
	})
	if err != nil {
		return nil, s.fail(opUpdateStatus, err)
	}
	s.metrics.IncSuccess(opUpdateStatus)
	s.metrics.ObserveDuration(opUpdateStatus, time.Since(start))
	return result, nil
}

func (s *service) applyResolution(ctx context.Context, tx *gorm.DB, txn *models.Transaction, status enums.TransactionStatus) error {
	walletRepo := s.wallets.WithTx(tx)
	switch {
	case txn.Kind == enums.TransactionKindDeposit && status == enums.TransactionStatusCompleted:
		if err := walletRepo.CreditAvailable(ctx, txn.WalletID, txn.Amount); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "credit deposit")
		}
	case txn.Kind == enums.TransactionKindWithdraw && status == enums.TransactionStatusFailed:
		if err := walletRepo.CreditAvailable(ctx, txn.WalletID, txn.Amount); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "refund withdrawal hold")
		}
	}
	return nil
}

// DeleteProof removes the payment proof from the caller's still-pending
// transaction.
func (s *service) DeleteProof(ctx context.Context, userID, transactionID uuid.UUID) (*models.Transaction, error) {
	if userID == uuid.Nil || transactionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and transaction id required")
	}

	var result *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		txn, err := repo.FindByID(ctx, transactionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load transaction")
		}
		if txn.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "transaction belongs to another user")
		}
		if txn.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "resolved transactions are immutable")
		}
		if txn.ProofURL == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction has no proof attached")
		}
		cleared, err := repo.ClearProof(ctx, txn.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear proof")
		}
		if !cleared {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction resolved concurrently")
		}
		txn.ProofURL = nil
		result = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, userID, transactionID uuid.UUID) (*models.Transaction, error) {
	txn, err := s.repo.FindByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load transaction")
	}
	if txn.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "transaction belongs to another user")
	}
	return txn, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	txns, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list transactions")
	}
	return txns, nil
}

func (s *service) ListPending(ctx context.Context, kind *enums.TransactionKind) ([]models.Transaction, error) {
	txns, err := s.repo.ListPending(ctx, kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list pending transactions")
	}
	return txns, nil
}

func (s *service) fail(op string, err error) error {
	s.metrics.IncFailure(op, string(pkgerrors.As(err).Code()))
	return err
}

func validateFunding(userID uuid.UUID, amount decimal.Decimal, method enums.PayoutMethod, network *enums.CryptoNetwork) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payout method")
	}
	if method == enums.PayoutMethodCrypto {
		if network == nil || !network.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "crypto transactions require a network")
		}
	} else if network != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "network only applies to crypto transactions")
	}
	return nil
}

func newReference(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(raw[:12])
}
