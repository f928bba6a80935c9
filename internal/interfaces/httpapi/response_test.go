package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/openfooty/matchday/internal/usecase"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unable to decode response body: %v", err)
	}
	return envelope
}

func TestWriteSuccessEnvelope(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Fatalf("unexpected content type: %q", got)
	}

	envelope := decodeEnvelope(t, rec)
	if envelope.APIVersion != responseAPIVersion {
		t.Fatalf("unexpected apiVersion: %q", envelope.APIVersion)
	}
	if envelope.Error != nil {
		t.Fatalf("success envelope must not carry an error: %+v", envelope.Error)
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantCode   int
		wantStatus string
	}{
		{"invalid input", fmt.Errorf("%w: week must be an integer", usecase.ErrInvalidInput), http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"not found", fmt.Errorf("%w: season missing", usecase.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", usecase.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"dependency unavailable", usecase.ErrDependencyUnavailable, http.StatusServiceUnavailable, "UNAVAILABLE"},
		{"unknown", fmt.Errorf("db connection lost"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			mapError(context.Background(), rec, tc.err)

			if rec.Code != tc.wantCode {
				t.Fatalf("expected status %d, got %d", tc.wantCode, rec.Code)
			}
			envelope := decodeEnvelope(t, rec)
			if envelope.Error == nil {
				t.Fatal("expected an error envelope")
			}
			if envelope.Error.Status != tc.wantStatus {
				t.Fatalf("expected error status %q, got %q", tc.wantStatus, envelope.Error.Status)
			}
			if len(envelope.Error.Errors) != 1 || envelope.Error.Errors[0].Domain != errorDomain {
				t.Fatalf("unexpected error items: %+v", envelope.Error.Errors)
			}
		})
	}
}

func TestMapError_UnknownErrorHidesDetail(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	mapError(context.Background(), rec, fmt.Errorf("pq: password authentication failed"))

	envelope := decodeEnvelope(t, rec)
	if envelope.Error.Message != "internal server error" {
		t.Fatalf("internal error detail leaked: %q", envelope.Error.Message)
	}
}
