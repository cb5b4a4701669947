package controllers

import (
	"net/http"

	"github.com/vrukshaservices/vruksha-backend/api/middleware"
	"github.com/vrukshaservices/vruksha-backend/api/responses"
	"github.com/vrukshaservices/vruksha-backend/api/validators"
	"github.com/vrukshaservices/vruksha-backend/internal/auth"
	"github.com/vrukshaservices/vruksha-backend/internal/orders"
	"github.com/vrukshaservices/vruksha-backend/pkg/logger"
)

// PlaceOrder handles POST /api/orders. Customer identity comes from the
// authenticated account, not the request body.
func PlaceOrder(svc *orders.Service, authSvc *auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body orders.PlaceOrderInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		userID := middleware.UserIDFromContext(ctx)
		me, err := authSvc.Me(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(ctx, userID, me.Name, me.Email, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// ListUserOrders handles GET /api/orders/user.
func ListUserOrders(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, err := svc.ListForUser(r.Context(), middleware.EmailFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

// ListOrders handles GET /api/admin/orders with limit/offset/search.
func ListOrders(svc *orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.QueryInt(r, "limit", 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.QueryInt(r, "offset", 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views, err := svc.List(r.Context(), limit, offset, r.URL.Query().Get("search"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}
