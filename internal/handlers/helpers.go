package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/icfy/sizebot/internal/errors"
	"github.com/icfy/sizebot/internal/models"
)

// writeJSON writes a JSON response with the given status code
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("Failed to encode JSON response", err)
	}
}

// writeAppError writes an application error response
func (h *Handler) writeAppError(w http.ResponseWriter, appErr *errors.AppError) {
	response := &models.ErrorResponse{
		Error:   appErr.Message,
		Code:    string(appErr.Code),
		Details: appErr.Details,
	}

	// Log the error for internal monitoring
	h.log.With("error_code", appErr.Code).
		With("status_code", appErr.StatusCode).
		Error(appErr.Message, appErr.Err)

	h.writeJSON(w, response, appErr.StatusCode)
}

// writeError translates any error into an error response, preserving the
// taxonomy when it is an AppError.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		h.writeAppError(w, appErr)
		return
	}
	h.writeAppError(w, errors.InternalError(err))
}

// queryCount parses an optional count query parameter with a default.
func queryCount(r *http.Request, def int) int {
	value := r.URL.Query().Get("count")
	if value == "" {
		return def
	}
	count, err := strconv.Atoi(value)
	if err != nil || count < 1 {
		return def
	}
	return count
}
