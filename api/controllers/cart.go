package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/vrukshaservices/vruksha-backend/api/middleware"
	"github.com/vrukshaservices/vruksha-backend/api/responses"
	"github.com/vrukshaservices/vruksha-backend/api/validators"
	"github.com/vrukshaservices/vruksha-backend/internal/cart"
	"github.com/vrukshaservices/vruksha-backend/internal/wishlist"
	"github.com/vrukshaservices/vruksha-backend/pkg/logger"
)

// GetCart handles GET /api/cart.
func GetCart(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.Get(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

type putCartRequest struct {
	Items json.RawMessage `json:"items" validate:"required"`
}

// PutCart handles PUT /api/cart.
func PutCart(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body putCartRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.Put(r.Context(), middleware.UserIDFromContext(r.Context()), body.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}

// ClearCart handles DELETE /api/cart.
func ClearCart(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Clear(r.Context(), middleware.UserIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": json.RawMessage("[]")})
	}
}

// GetWishlist handles GET /api/wishlist.
func GetWishlist(svc *wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := svc.Get(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"product_ids": ids})
	}
}

// AddWishlistItem handles POST /api/wishlist/{productId}.
func AddWishlistItem(svc *wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathInt(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ids, err := svc.Add(r.Context(), middleware.UserIDFromContext(r.Context()), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"product_ids": ids})
	}
}

// RemoveWishlistItem handles DELETE /api/wishlist/{productId}.
func RemoveWishlistItem(svc *wishlist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.PathInt(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ids, err := svc.Remove(r.Context(), middleware.UserIDFromContext(r.Context()), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"product_ids": ids})
	}
}
