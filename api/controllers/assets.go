package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/abed-obaah/royal-backend/api/responses"
	"github.com/abed-obaah/royal-backend/api/validators"
	"github.com/abed-obaah/royal-backend/internal/assets"
	"github.com/abed-obaah/royal-backend/pkg/enums"
	pkgerrors "github.com/abed-obaah/royal-backend/pkg/errors"
	"github.com/abed-obaah/royal-backend/pkg/logger"
)

type createAssetRequest struct {
	Title       string          `json:"title" validate:"required"`
	Artist      string          `json:"artist" validate:"required"`
	Kind        string          `json:"kind" validate:"required,oneof=song basket"`
	ImageURL    *string         `json:"image_url,omitempty"`
	TotalShares int64           `json:"total_shares" validate:"required,gt=0"`
	Price       decimal.Decimal `json:"price" validate:"required"`
}

type updateAssetPriceRequest struct {
	Price decimal.Decimal `json:"price" validate:"required"`
}

type updateAssetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

// AssetList serves the tradeable catalog; ?status= narrows it.
func AssetList(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status *enums.AssetStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed, err := enums.ParseAssetStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		list, err := svc.List(r.Context(), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

func AssetDetail(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		asset, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, asset)
	}
}

// AdminAssetCreate lists a new asset with its full share float available.
func AdminAssetCreate(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createAssetRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		kind, err := enums.ParseAssetKind(body.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid asset kind"))
			return
		}

		asset, err := svc.Create(r.Context(), assets.CreateAssetInput{
			Title:       body.Title,
			Artist:      body.Artist,
			Kind:        kind,
			ImageURL:    body.ImageURL,
			TotalShares: body.TotalShares,
			Price:       body.Price,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, asset)
	}
}

// AdminAssetUpdatePrice reprices an asset and cascades to open holdings.
func AdminAssetUpdatePrice(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateAssetPriceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		asset, err := svc.UpdatePrice(r.Context(), id, body.Price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, asset)
	}
}

func AdminAssetSetStatus(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "assetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateAssetStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseAssetStatus(body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid asset status"))
			return
		}

		asset, err := svc.SetStatus(r.Context(), id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, asset)
	}
}
