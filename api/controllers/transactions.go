package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/abed-obaah/royal-backend/api/responses"
	"github.com/abed-obaah/royal-backend/api/validators"
	"github.com/abed-obaah/royal-backend/internal/transactions"
	"github.com/abed-obaah/royal-backend/pkg/enums"
	pkgerrors "github.com/abed-obaah/royal-backend/pkg/errors"
	"github.com/abed-obaah/royal-backend/pkg/logger"
)

type depositRequest struct {
	Amount   decimal.Decimal `json:"amount" validate:"required"`
	Method   string          `json:"method" validate:"required,oneof=crypto bank"`
	Network  *string         `json:"network,omitempty"`
	ProofURL *string         `json:"proof_url,omitempty"`
}

type withdrawRequest struct {
	Amount            decimal.Decimal `json:"amount" validate:"required"`
	Method            string          `json:"method" validate:"required,oneof=crypto bank"`
	Network           *string         `json:"network,omitempty"`
	WithdrawalDetails string          `json:"withdrawal_details" validate:"required"`
}

type updateTransactionStatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=completed failed"`
	Notes  *string `json:"notes,omitempty"`
}

func parseFundingMethod(method string, network *string) (enums.PayoutMethod, *enums.CryptoNetwork, error) {
	parsed, err := enums.ParsePayoutMethod(method)
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	if network == nil {
		return parsed, nil, nil
	}
	net, err := enums.ParseCryptoNetwork(*network)
	if err != nil {
		return "", nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid crypto network")
	}
	return parsed, &net, nil
}

// TransactionDeposit records a pending deposit claim for admin review.
func TransactionDeposit(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body depositRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, network, err := parseFundingMethod(body.Method, body.Network)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.CreateDeposit(r.Context(), transactions.CreateDepositInput{
			UserID:   userID,
			Amount:   body.Amount,
			Method:   method,
			Network:  network,
			ProofURL: body.ProofURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}

// TransactionWithdraw places a withdrawal hold on the wallet and records the
// pending request.
func TransactionWithdraw(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body withdrawRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, network, err := parseFundingMethod(body.Method, body.Network)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.CreateWithdraw(r.Context(), transactions.CreateWithdrawInput{
			UserID:            userID,
			Amount:            body.Amount,
			Method:            method,
			Network:           network,
			WithdrawalDetails: body.WithdrawalDetails,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}

func TransactionList(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func TransactionDetail(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txnID, err := validators.PathUUID(r, "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.Get(r.Context(), userID, txnID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, txn)
	}
}

// TransactionDeleteProof detaches the proof document from a pending
// transaction so the owner can re-upload.
func TransactionDeleteProof(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txnID, err := validators.PathUUID(r, "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.DeleteProof(r.Context(), userID, txnID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, txn)
	}
}

// AdminPendingTransactions lists pending deposits/withdrawals; ?kind= narrows.
func AdminPendingTransactions(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var kind *enums.TransactionKind
		if raw := r.URL.Query().Get("kind"); raw != "" {
			parsed, err := enums.ParseTransactionKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind filter"))
				return
			}
			kind = &parsed
		}

		list, err := svc.ListPending(r.Context(), kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// AdminTransactionStatus resolves a pending transaction to a terminal state.
func AdminTransactionStatus(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txnID, err := validators.PathUUID(r, "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateTransactionStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseTransactionStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		txn, err := svc.UpdateStatus(r.Context(), transactions.UpdateStatusInput{
			TransactionID: txnID,
			AdminID:       adminID,
			Status:        status,
			Notes:         body.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, txn)
	}
}
