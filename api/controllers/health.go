package controllers

import (
	"net/http"

	"github.com/vrukshaservices/vruksha-backend/api/responses"
	"github.com/vrukshaservices/vruksha-backend/pkg/db"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
	"github.com/vrukshaservices/vruksha-backend/pkg/logger"
)

// Health handles GET /health. It reports degraded when the database is
// unreachable.
func Health(pinger db.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger != nil {
			if err := pinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
