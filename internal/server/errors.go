package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/thaafei/domainx/core"
	"github.com/thaafei/domainx/core/algo"
	"github.com/thaafei/domainx/internal/contract"
)

// Error codes returned in the "code" field of an error body.
const (
	errCodeValidation  = "validation_error"
	errCodeBadRequest  = "bad_request"
	errCodeNotFound    = "not_found"
	errCodeRateLimited = "rate_limited"
	errCodeInternal    = "internal_error"
)

// errorResponse is the body of every failed request: {"error": {"code": "...", "message": "..."}}.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// writeServiceError maps core and store errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contract.ErrDomainNotFound),
		errors.Is(err, contract.ErrLibraryNotFound),
		errors.Is(err, contract.ErrMetricNotFound):
		writeError(w, http.StatusNotFound, errCodeNotFound, err.Error())
	case errors.Is(err, algo.ErrWeightSum),
		errors.Is(err, algo.ErrWeightRange),
		errors.Is(err, algo.ErrMissingCategory),
		errors.Is(err, algo.ErrUnknownCategory),
		errors.Is(err, core.ErrInvalidValue):
		writeError(w, http.StatusBadRequest, errCodeValidation, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, errCodeInternal, "internal error")
	}
}
