package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "ferreteria/internal/errors"
)

// PathID parses a positive integer URL parameter.
func PathID(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, apperrors.ValidationDetail{
			Field:   name,
			Code:    apperrors.CodeInvalidField,
			Message: name + " must be a positive integer",
		})
	}
	return id, nil
}

// QueryInt reads an optional integer query parameter; absent yields def.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError("invalid "+name, apperrors.ValidationDetail{
			Field:   name,
			Code:    apperrors.CodeInvalidField,
			Message: name + " must be an integer",
		})
	}
	return v, nil
}
