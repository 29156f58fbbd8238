package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"moneyman/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps a domain error onto its HTTP status. Unrecognized
// errors become a generic 500; internal failures are never downgraded
// to client errors, and client errors never masked as internal ones.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeErrorMessage(w, status, "internal server error")
		return
	}
	writeErrorMessage(w, status, err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrEditWindowExpired):
		return http.StatusForbidden
	case errors.Is(err, core.ErrTransactionNotFound),
		errors.Is(err, core.ErrAccountNotFound),
		errors.Is(err, core.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrAccountInUse),
		errors.Is(err, core.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, core.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
