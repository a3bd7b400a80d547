package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/athlete-network/internal/usecase"
)

func TestWriteSuccess_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
}

func TestWriteError_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "INVALID_ARGUMENT" {
		t.Fatalf("expected error status INVALID_ARGUMENT, got %v", errorObj["status"])
	}
}

func TestMapError_Taxonomy(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{name: "invalid input", err: usecase.ErrInvalidExpiry, wantStatus: http.StatusBadRequest, wantReason: "invalidInput"},
		{name: "not found", err: fmt.Errorf("%w: club not found", usecase.ErrNotFound), wantStatus: http.StatusNotFound, wantReason: "notFound"},
		{name: "forbidden", err: fmt.Errorf("%w: club admin role required", usecase.ErrForbidden), wantStatus: http.StatusForbidden, wantReason: "forbidden"},
		{name: "role mismatch", err: usecase.ErrRoleMismatch, wantStatus: http.StatusForbidden, wantReason: "roleMismatch"},
		{name: "agent blocked", err: fmt.Errorf("apply: %w", usecase.ErrAgentBlocked), wantStatus: http.StatusForbidden, wantReason: "agentBlocked"},
		{name: "not authorized to represent", err: usecase.ErrNotAuthorizedToRepresent, wantStatus: http.StatusForbidden, wantReason: "notAuthorizedToRepresent"},
		{name: "last admin", err: usecase.ErrLastAdmin, wantStatus: http.StatusConflict, wantReason: "lastAdmin"},
		{name: "already applied", err: usecase.ErrAlreadyApplied, wantStatus: http.StatusConflict, wantReason: "alreadyApplied"},
		{name: "duplicate join request", err: usecase.ErrDuplicateJoinRequest, wantStatus: http.StatusConflict, wantReason: "duplicateJoinRequest"},
		{name: "closed opportunity", err: usecase.ErrOpportunityClosed, wantStatus: http.StatusConflict, wantReason: "invalidStateTransition"},
		{name: "dependency", err: usecase.ErrDependencyUnavailable, wantStatus: http.StatusServiceUnavailable, wantReason: "dependencyUnavailable"},
		{name: "unknown", err: fmt.Errorf("pq: connection reset"), wantStatus: http.StatusInternalServerError, wantReason: "internalError"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mapError(context.Background(), tc.err)
			if got.HTTPStatus != tc.wantStatus || got.Reason != tc.wantReason {
				t.Fatalf("mapError(%v) = %d/%s, want %d/%s", tc.err, got.HTTPStatus, got.Reason, tc.wantStatus, tc.wantReason)
			}
		})
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("select clubs: pq: password authentication failed"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("expected internal error details to be hidden: %s", rec.Body.String())
	}
}
