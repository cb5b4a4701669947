package validators

import (
	"net/http"
	"strconv"

	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
)

// QueryInt parses an optional integer query parameter, returning fallback
// when the parameter is absent.
func QueryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, name+" must be an integer")
	}
	return value, nil
}

// RequiredQueryInt parses a mandatory integer query parameter.
func RequiredQueryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, name+" is required")
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, name+" must be an integer")
	}
	return value, nil
}
