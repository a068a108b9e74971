package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/itroad/users-service/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"missing credentials", domain.ErrMissingCredentials, http.StatusUnauthorized, "missing credentials"},
		{"expired", domain.ErrTokenExpired, http.StatusUnauthorized, "token expired"},
		{"invalid", domain.ErrInvalidToken, http.StatusUnauthorized, "invalid token"},
		{"unknown subject", domain.ErrUnknownSubject, http.StatusUnauthorized, "invalid token"},
		{"forbidden with reason", fmt.Errorf("%w: admin only", domain.ErrForbidden), http.StatusForbidden, "access forbidden"},
		{"not found", domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{"duplicate email", domain.ErrDuplicateEmail, http.StatusConflict, "email already exists"},
		{"duplicate username", domain.ErrDuplicateUsername, http.StatusConflict, "username already exists"},
		{"duplicate phone", domain.ErrDuplicatePhoneNumber, http.StatusConflict, "phone number already exists"},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed"), http.StatusMethodNotAllowed, "method not allowed"},
		{"unexpected", errors.New("mongo exploded"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			NewHTTPErrorHandler(zerolog.Nop())(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Error != tc.message {
				t.Errorf("error = %q, want %q", resp.Error, tc.message)
			}
		})
	}
}

func TestHTTPErrorHandler_ValidationFields(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/users", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	verr := &domain.ValidationError{Fields: map[string]string{
		"username": "username is required",
		"password": "password must be at least 6 characters",
	}}
	NewHTTPErrorHandler(zerolog.Nop())(verr, c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Fields) != 2 || resp.Fields["username"] == "" {
		t.Errorf("fields = %v", resp.Fields)
	}
}
