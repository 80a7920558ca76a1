package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"festivalscheduling/internal/delivery/http/helpers"
	"festivalscheduling/internal/delivery/http/middleware"
	"festivalscheduling/internal/domain"

	"github.com/google/uuid"
)

// errorMapping translates a domain error into an HTTP status and envelope code.
type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, http.StatusBadRequest, helpers.ErrCodeBadRequest},
	{domain.ErrMalformedRow, http.StatusBadRequest, helpers.ErrCodeBadRequest},
	{domain.ErrAmbiguousDateKey, http.StatusBadRequest, helpers.ErrCodeBadRequest},
	{domain.ErrInvalidLoginCode, http.StatusUnauthorized, helpers.ErrCodeUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden, helpers.ErrCodeForbidden},
	{domain.ErrNotFound, http.StatusNotFound, helpers.ErrCodeNotFound},
	{domain.ErrUserNotFound, http.StatusNotFound, helpers.ErrCodeNotFound},
	{domain.ErrAlreadyExists, http.StatusConflict, helpers.ErrCodeConflict},
	{domain.ErrDuplicateEmail, http.StatusConflict, helpers.ErrCodeConflict},
	{domain.ErrProtectedDeletion, http.StatusConflict, helpers.ErrCodeConflict},
	{domain.ErrCapacityExceeded, http.StatusConflict, helpers.ErrCodeConflict},
	{domain.ErrBookingDisabled, http.StatusConflict, helpers.ErrCodeConflict},
}

// writeServiceError writes the envelope for err. Known domain errors keep
// their message; anything else is logged and reported as an internal error.
func writeServiceError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			helpers.WriteJSONError(w, m.status, m.code, err.Error())
			return
		}
	}
	logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal server error")
}

// requireUser returns the authenticated user ID or writes 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

// pathID reads a UUID path value or writes 400.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	raw := r.PathValue(name)
	if raw == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing "+name)
		return "", false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid "+name)
		return "", false
	}
	return id.String(), true
}
