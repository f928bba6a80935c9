package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/openfooty/matchday/internal/platform/logging"
	"github.com/openfooty/matchday/internal/usecase"
)

const (
	responseAPIVersion = "2.0"
	errorDomain        = "matchday"
)

type responseEnvelope struct {
	APIVersion string         `json:"apiVersion"`
	Data       any            `json:"data,omitempty"`
	Error      *responseError `json:"error,omitempty"`
}

type responseError struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Status  string              `json:"status"`
	Errors  []responseErrorItem `json:"errors,omitempty"`
}

type responseErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, payload responseEnvelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	body, err := sonic.Marshal(payload)
	if err != nil {
		logging.Default().ErrorContext(ctx, "unable to encode http response", "error", err)
		return
	}
	if _, err := w.Write(body); err != nil {
		logging.Default().WarnContext(ctx, "unable to write http response", "error", err)
	}
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	writeJSON(ctx, w, statusCode, responseEnvelope{
		APIVersion: responseAPIVersion,
		Data:       data,
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, statusCode int, status, reason, message string) {
	writeJSON(ctx, w, statusCode, responseEnvelope{
		APIVersion: responseAPIVersion,
		Error: &responseError{
			Code:    statusCode,
			Message: message,
			Status:  status,
			Errors: []responseErrorItem{
				{Domain: errorDomain, Reason: reason, Message: message},
			},
		},
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	writeError(ctx, w, http.StatusInternalServerError, "INTERNAL", "internalError", "internal server error")
}

// mapError translates usecase sentinels into the API error vocabulary.
// Unknown errors intentionally collapse to a generic 500 so provider and
// storage details never leak to callers.
func mapError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		writeError(ctx, w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalidArgument", err.Error())
	case errors.Is(err, usecase.ErrNotFound):
		writeError(ctx, w, http.StatusNotFound, "NOT_FOUND", "notFound", err.Error())
	case errors.Is(err, usecase.ErrUnauthorized):
		writeError(ctx, w, http.StatusUnauthorized, "UNAUTHENTICATED", "unauthenticated", err.Error())
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		writeError(ctx, w, http.StatusServiceUnavailable, "UNAVAILABLE", "dependencyUnavailable", err.Error())
	default:
		writeInternalError(ctx, w)
	}
}
