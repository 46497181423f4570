package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)

	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "validation failed" {
		t.Errorf("expected message 'validation failed', got %s", err.Message)
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, err.HTTPStatus)
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name: "without underlying error",
			appErr: &AppError{
				Code:    CodeNotFound,
				Message: "resource not found",
			},
			expected: "NOT_FOUND: resource not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("database connection failed"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: database connection failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.appErr.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	appErr := Internal("wrapped", originalErr)

	if unwrapped := errors.Unwrap(appErr); unwrapped != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
}

func TestBookingErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"missing field", MissingField("client_name"), CodeMissingField, http.StatusBadRequest},
		{"barber not found", BarberNotFound("abc"), CodeBarberNotFound, http.StatusNotFound},
		{"past date", PastDate("2020-01-01"), CodePastDate, http.StatusBadRequest},
		{"past time", PastTime("09:00"), CodePastTime, http.StatusBadRequest},
		{"slot taken", SlotTaken(), CodeSlotTaken, http.StatusConflict},
		{"invalid transition", InvalidTransition("completed", "cancelled"), CodeInvalidTransition, http.StatusUnprocessableEntity},
		{"store unavailable", StoreUnavailable(errors.New("no reachable servers")), CodeStoreUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.err.StatusCode())
			}
		})
	}
}

func TestAsAppError_HidesInternalText(t *testing.T) {
	raw := errors.New("E11000 duplicate key error collection")
	appErr := AsAppError(raw)

	if appErr.Code != CodeInternal {
		t.Errorf("expected code %s, got %s", CodeInternal, appErr.Code)
	}
	if appErr.Message == raw.Error() {
		t.Error("storage engine error text must not be used as the client message")
	}
	if !errors.Is(appErr, raw) {
		t.Error("original error should remain reachable via errors.Is for logging")
	}
}

func TestAsAppError_PassThrough(t *testing.T) {
	orig := SlotTaken()
	if got := AsAppError(orig); got != orig {
		t.Error("AsAppError should return AppError values unchanged")
	}
}

func TestAsAppError_UnwrapsWrappedErrors(t *testing.T) {
	orig := SlotTaken()
	wrapped := fmt.Errorf("transaction failed: %w", orig)

	if !IsAppError(wrapped) {
		t.Error("IsAppError should see through error wrapping")
	}
	got := AsAppError(wrapped)
	if got != orig {
		t.Errorf("AsAppError(wrapped) = %v, want the original AppError", got)
	}
	if got.Code != CodeSlotTaken {
		t.Errorf("code = %s, want %s", got.Code, CodeSlotTaken)
	}
}
