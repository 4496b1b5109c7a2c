package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/abed-obaah/royal-backend/api/responses"
	"github.com/abed-obaah/royal-backend/api/validators"
	"github.com/abed-obaah/royal-backend/internal/orders"
	pkgerrors "github.com/abed-obaah/royal-backend/pkg/errors"
	"github.com/abed-obaah/royal-backend/pkg/logger"
)

type submitBuyRequest struct {
	AssetID  uuid.UUID `json:"asset_id" validate:"required"`
	Quantity int64     `json:"quantity" validate:"required,gt=0"`
}

type submitSellRequest struct {
	PortfolioItemID uuid.UUID `json:"portfolio_item_id" validate:"required"`
	Quantity        int64     `json:"quantity" validate:"required,gt=0"`
}

type resolveSellRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
}

// OrderSubmitBuy settles a buy synchronously: funds move, shares reserve, and
// the holding updates in one pass.
func OrderSubmitBuy(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body submitBuyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SubmitBuy(r.Context(), orders.SubmitBuyInput{
			UserID:   userID,
			AssetID:  body.AssetID,
			Quantity: body.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// OrderSubmitSell records a pending sell priced at submission time; shares
// stay in the holding until an admin resolves the order.
func OrderSubmitSell(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body submitSellRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.SubmitSell(r.Context(), orders.SubmitSellInput{
			UserID:          userID,
			PortfolioItemID: body.PortfolioItemID,
			Quantity:        body.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func OrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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

func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// AdminPendingSells lists the sell orders awaiting resolution.
func AdminPendingSells(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListPendingSells(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// AdminResolveSell approves or rejects a pending sell order.
func AdminResolveSell(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body resolveSellRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action := orders.ResolutionAction(body.Action)
		if !action.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown resolution action"))
			return
		}

		result, err := svc.ResolveSell(r.Context(), orders.ResolveSellInput{
			OrderID: orderID,
			AdminID: adminID,
			Action:  action,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
