package controllers

import (
	"net/http"

	"github.com/vrukshaservices/vruksha-backend/api/middleware"
	"github.com/vrukshaservices/vruksha-backend/api/responses"
	"github.com/vrukshaservices/vruksha-backend/api/validators"
	"github.com/vrukshaservices/vruksha-backend/internal/notifications"
	"github.com/vrukshaservices/vruksha-backend/internal/users"
	"github.com/vrukshaservices/vruksha-backend/pkg/logger"
)

// ListUsers handles GET /api/admin/users.
func ListUsers(svc *users.Service, logg *logger.Logger) http.HandlerFunc {
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
		rows, err := svc.List(r.Context(), limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// PromoteUser handles POST /api/admin/users/{id}/promote.
func PromoteUser(svc *users.Service, logg *logger.Logger) http.HandlerFunc {
	return setAdminFlag(svc, logg, true)
}

// DemoteUser handles POST /api/admin/users/{id}/demote.
func DemoteUser(svc *users.Service, logg *logger.Logger) http.HandlerFunc {
	return setAdminFlag(svc, logg, false)
}

func setAdminFlag(svc *users.Service, logg *logger.Logger, isAdmin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, err := validators.PathInt(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID := middleware.UserIDFromContext(r.Context())
		if err := svc.SetAdmin(r.Context(), actorID, targetID, isAdmin); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"user_id": targetID, "is_admin": isAdmin})
	}
}

// ListNotifications handles GET /api/admin/notifications.
func ListNotifications(svc *notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.QueryInt(r, "limit", 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unackedOnly := r.URL.Query().Get("unacknowledged") == "true"
		rows, err := svc.List(r.Context(), unackedOnly, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// AcknowledgeNotification handles POST /api/admin/notifications/{id}/ack.
func AcknowledgeNotification(svc *notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathInt(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		row, err := svc.Acknowledge(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}
