package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/yungbote/aaos-backend/internal/domain/governance"
	"github.com/yungbote/aaos-backend/internal/projection"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"paused", governance.NewError(governance.CodePaused, "op", "User is paused; cannot record confidence.", nil),
			http.StatusLocked, "paused", "User is paused; cannot record confidence."},
		{"forbidden", governance.NewError(governance.CodeForbidden, "op", "Session does not belong to user.", nil),
			http.StatusForbidden, "forbidden", "Session does not belong to user."},
		{"invariant wrapped", fmt.Errorf("outer: %w", governance.NewError(governance.CodeInvariantViolation, "op", "Invalid transition: A -> B", nil)),
			http.StatusConflict, "invariant_violation", "Invalid transition: A -> B"},
		{"precondition", governance.NewError(governance.CodePreconditionFailed, "op", "no models", nil),
			http.StatusConflict, "precondition_failed", "no models"},
		{"internal hides cause", governance.NewError(governance.CodeInternal, "op", "pq: password authentication failed", nil),
			http.StatusInternalServerError, "internal", "internal error"},
		{"projection guard", &projection.GuardError{Code: projection.CodeUnauthorized, Message: "Session is not accessible to user."},
			http.StatusForbidden, "UNAUTHORIZED", "Session is not accessible to user."},
		{"unknown projection", &projection.UnknownProjectionError{Name: "x"},
			http.StatusNotFound, "UNKNOWN_PROJECTION", "Unknown projection: x"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal", "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code, msg := StatusFor(tc.err)
			if status != tc.wantStatus || code != tc.wantCode || msg != tc.wantMsg {
				t.Fatalf("StatusFor = (%d, %q, %q), want (%d, %q, %q)", status, code, msg, tc.wantStatus, tc.wantCode, tc.wantMsg)
			}
		})
	}
}
