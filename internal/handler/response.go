// Package handler translates HTTP requests into service calls and domain
// errors back into status codes. Handlers stay thin: decode, delegate,
// encode.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/excel-finder/internal/apperror"
)

// ErrorResponse is the error shape every endpoint returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON sends data with the given status. Headers must be set before
// the first body write, so the order here is fixed.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status. The service layer
// never sees status codes; this switch is the only place the mapping
// lives.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// Unknown error. The raw message may carry paths or SQL, so the
		// client gets a generic body.
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	errorType := "internal_error"

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
		errorType = "validation_error"
	case errors.Is(err, apperror.ErrNoFileSelected):
		status = http.StatusBadRequest
		errorType = "no_file_selected"
	case errors.Is(err, apperror.ErrUnsupportedType):
		status = http.StatusBadRequest
		errorType = "unsupported_type"
	case errors.Is(err, apperror.ErrInvalidOTP):
		status = http.StatusBadRequest
		errorType = "invalid_otp"
	case errors.Is(err, apperror.ErrResetFailed):
		status = http.StatusBadRequest
		errorType = "reset_failed"
	case errors.Is(err, apperror.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		errorType = "invalid_credentials"
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		errorType = "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
		errorType = "conflict"
	case errors.Is(err, apperror.ErrFileTooLarge):
		status = http.StatusRequestEntityTooLarge
		errorType = "file_too_large"
	case errors.Is(err, apperror.ErrRemoteProcessing):
		status = http.StatusInternalServerError
		errorType = "processing_error"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: appErr.Message,
	})
}

// decodeJSON reads the request body into dst. A malformed body becomes a
// validation error so the client sees a 400, not a 500.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON request body")
	}
	return nil
}
