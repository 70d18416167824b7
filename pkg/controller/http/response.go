package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/usecase"
	"github.com/secmon-lab/cottus/pkg/utils/errutil"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
)

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		errutil.Handle(ctx, err, "failed to encode JSON response")
	}
}

// decodeJSON reads a bounded JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return goerr.Wrap(err, "invalid JSON body")
	}
	return nil
}

// statusOf maps use case errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, usecase.ErrAuthFailure), errors.Is(err, usecase.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, usecase.ErrCompanyNotFound),
		errors.Is(err, usecase.ErrTicketNotFound),
		errors.Is(err, usecase.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrEmptyMessage), errors.Is(err, usecase.ErrInvalidCompany):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrReplyInFlight):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleError writes the mapped status. Client errors are answered with the
// sentinel message only; server errors go through errutil.
func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		errutil.HandleHTTP(ctx, w, err, status)
		return
	}

	logging.From(ctx).Warn("request rejected", "status", status, "error", err.Error())
	writeJSON(ctx, w, status, errorResponse{Error: publicMessage(err)})
}

func publicMessage(err error) string {
	for _, sentinel := range []error{
		usecase.ErrAuthFailure,
		usecase.ErrInvalidToken,
		usecase.ErrCompanyNotFound,
		usecase.ErrTicketNotFound,
		usecase.ErrSessionNotFound,
		usecase.ErrEmptyMessage,
		usecase.ErrInvalidCompany,
		usecase.ErrReplyInFlight,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return http.StatusText(statusOf(err))
}
