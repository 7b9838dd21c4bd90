package errors

import (
	"errors"
	"net/http"
	"testing"
)

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
				Message: "evento not found",
			},
			expected: "NOT_FOUND: evento not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("mongo connection failed"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: mongo connection failed)",
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
	appErr := Wrap(originalErr, CodeInternal, "wrapped", http.StatusInternalServerError)

	if errors.Unwrap(appErr) != originalErr {
		t.Errorf("Unwrap() should return original error")
	}
}

func TestInvalidState(t *testing.T) {
	err := InvalidState("reserva cannot be confirmed from status rejeitada", map[string]any{"status": "rejeitada"})

	if err.Code != CodeInvalidState {
		t.Errorf("expected code %s, got %s", CodeInvalidState, err.Code)
	}
	if err.StatusCode() != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, err.StatusCode())
	}
}

func TestHasCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		want bool
	}{
		{"matching code", Forbidden("not the owner"), CodeForbidden, true},
		{"different code", NotFound("Reserva"), CodeForbidden, false},
		{"plain error", errors.New("boom"), CodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasCode(tt.err, tt.code); got != tt.want {
				t.Errorf("HasCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Validation("missing motivo", nil)
	if AsAppError(appErr) != appErr {
		t.Errorf("AsAppError should return the same *AppError unchanged")
	}

	plain := errors.New("boom")
	converted := AsAppError(plain)
	if converted.Code != CodeInternal {
		t.Errorf("expected plain errors to convert to %s, got %s", CodeInternal, converted.Code)
	}
	if errors.Unwrap(converted) != plain {
		t.Errorf("converted error should wrap the original")
	}
}
