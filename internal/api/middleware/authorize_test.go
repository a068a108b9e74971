package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/itroad/users-service/internal/core/domain"
	"github.com/itroad/users-service/internal/core/policy"
)

func newAuthorizeContext(id *domain.Identity, param string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if param != "" {
		c.SetParamNames("id")
		c.SetParamValues(param)
	}
	if id != nil {
		c.Set(IdentityKey, *id)
	}
	return c
}

func TestAuthorize_Allows(t *testing.T) {
	admin := domain.Identity{UserID: 1, Username: "root", Role: domain.RoleAdmin}
	c := newAuthorizeContext(&admin, "7")

	called := false
	handler := Authorize(policy.ActionDeleteUser, zerolog.Nop())(func(c echo.Context) error {
		called = true
		return nil
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
}

func TestAuthorize_SelfAccess(t *testing.T) {
	member := domain.Identity{UserID: 7, Username: "alice", Role: domain.RoleAdherant}
	next := func(c echo.Context) error { return nil }

	if err := Authorize(policy.ActionReadUser, zerolog.Nop())(next)(newAuthorizeContext(&member, "7")); err != nil {
		t.Fatalf("own record: unexpected error: %v", err)
	}

	err := Authorize(policy.ActionReadUser, zerolog.Nop())(next)(newAuthorizeContext(&member, "8"))
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("other record: expected ErrForbidden, got %v", err)
	}
}

func TestAuthorize_Forbids(t *testing.T) {
	member := domain.Identity{UserID: 7, Username: "alice", Role: domain.RoleAdherant}
	c := newAuthorizeContext(&member, "")

	err := Authorize(policy.ActionCreateUser, zerolog.Nop())(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})(c)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAuthorize_InvalidTarget(t *testing.T) {
	admin := domain.Identity{UserID: 1, Username: "root", Role: domain.RoleAdmin}
	c := newAuthorizeContext(&admin, "abc")

	err := Authorize(policy.ActionReadUser, zerolog.Nop())(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAuthorize_RequiresIdentity(t *testing.T) {
	c := newAuthorizeContext(nil, "")

	err := Authorize(policy.ActionListUsers, zerolog.Nop())(func(c echo.Context) error { return nil })(c)
	if !errors.Is(err, domain.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}
