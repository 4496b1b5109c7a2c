package controllers

import (
	"net/http"

	"github.com/abed-obaah/royal-backend/api/responses"
	"github.com/abed-obaah/royal-backend/api/validators"
	"github.com/abed-obaah/royal-backend/internal/portfolio"
	"github.com/abed-obaah/royal-backend/pkg/logger"
)

// PortfolioList returns the caller's holdings with derived valuations.
func PortfolioList(svc portfolio.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		holdings, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, holdings)
	}
}

func PortfolioDetail(svc portfolio.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemID, err := validators.PathUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		holding, err := svc.Get(r.Context(), userID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, holding)
	}
}
