package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCode_Status(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeUnsupportedMethod, http.StatusBadRequest},
		{CodePersistence, http.StatusInternalServerError},
		{CodeTimeout, http.StatusGatewayTimeout},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.Status(); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   NotFound("Payment"),
			expected: "NOT_FOUND: Payment not found",
		},
		{
			name:     "with underlying error",
			appErr:   Persistence("Error reserving slot", errors.New("connection refused")),
			expected: "PERSISTENCE_ERROR: Error reserving slot (caused by: connection refused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_UnwrapAndCause(t *testing.T) {
	original := errors.New("server selection timeout")
	appErr := Wrap(original, CodePersistence, "store unavailable")

	if !errors.Is(appErr, original) {
		t.Error("errors.Is should reach the original error")
	}
	if appErr.Cause() != "server selection timeout" {
		t.Errorf("unexpected cause %q", appErr.Cause())
	}
	if InvalidInput("missing").Cause() != "" {
		t.Error("expected empty cause without an underlying error")
	}
}

func TestAppError_StatusCode(t *testing.T) {
	if got := (&AppError{Code: CodeNotFound}).StatusCode(); got != http.StatusNotFound {
		t.Errorf("expected status derived from code, got %d", got)
	}
	if got := (&AppError{Code: CodeNotFound, HTTPStatus: http.StatusGone}).StatusCode(); got != http.StatusGone {
		t.Errorf("expected explicit status to win, got %d", got)
	}
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name       string
		err        *AppError
		wantCode   Code
		wantStatus int
	}{
		{"not found", NotFound("Payment"), CodeNotFound, http.StatusNotFound},
		{"invalid input", InvalidInput("bad"), CodeInvalidInput, http.StatusBadRequest},
		{"unsupported method", UnsupportedMethod("Invalid payment method", cause), CodeUnsupportedMethod, http.StatusBadRequest},
		{"persistence", Persistence("Error processing payment", cause), CodePersistence, http.StatusInternalServerError},
		{"internal", Internal("oops", cause), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("too slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("MongoDB"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, tt.err.StatusCode())
			}
		})
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Reservation", "12345")

	if err.Message != "Reservation not found" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Details["id"] != "12345" || err.Details["resource"] != "Reservation" {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestAsAppError(t *testing.T) {
	appErr := NotFound("Payment")

	if AsAppError(appErr) != appErr {
		t.Error("AsAppError() should return the same AppError")
	}
	if AsAppError(fmt.Errorf("service layer: %w", appErr)) != appErr {
		t.Error("AsAppError() should unwrap to the AppError")
	}

	plain := errors.New("plain")
	result := AsAppError(plain)
	if result.Code != CodeInternal || result.Err != plain {
		t.Errorf("expected plain error wrapped as internal, got %+v", result)
	}
}

func TestIsAppErrorAndHasCode(t *testing.T) {
	if !IsAppError(NotFound("Payment")) || IsAppError(errors.New("plain")) {
		t.Error("IsAppError() misclassified an error")
	}
	if !HasCode(fmt.Errorf("wrapped: %w", UnsupportedMethod("x", nil)), CodeUnsupportedMethod) {
		t.Error("HasCode() should match through wrapping")
	}
	if HasCode(NotFound("Payment"), CodeInvalidInput) {
		t.Error("HasCode() should not match a different code")
	}
}
