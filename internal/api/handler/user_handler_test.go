package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/itroad/users-service/internal/api/middleware"
	"github.com/itroad/users-service/internal/core/domain"
	"github.com/itroad/users-service/internal/core/ports"
)

type stubUserService struct {
	getAllFn          func(ctx context.Context) ([]ports.UserView, error)
	getByIDFn         func(ctx context.Context, id int64) (*ports.UserView, error)
	getByUsernameFn   func(ctx context.Context, username string) (*ports.UserView, error)
	getByFiltersFn    func(ctx context.Context, in ports.SearchUsersInput) ([]ports.UserView, error)
	getStatsFn        func(ctx context.Context) (*ports.UserStats, error)
	createFn          func(ctx context.Context, in ports.CreateUserInput) (*ports.UserView, error)
	updateFn          func(ctx context.Context, id int64, in ports.UpdateUserInput) (*ports.UserView, error)
	deleteFn          func(ctx context.Context, id int64) error
	updateLastLoginFn func(ctx context.Context, id int64) (*ports.UserView, error)
}

func (s *stubUserService) GetAllUsers(ctx context.Context) ([]ports.UserView, error) {
	return s.getAllFn(ctx)
}

func (s *stubUserService) GetUserByID(ctx context.Context, id int64) (*ports.UserView, error) {
	return s.getByIDFn(ctx, id)
}

func (s *stubUserService) GetUserByUsername(ctx context.Context, username string) (*ports.UserView, error) {
	return s.getByUsernameFn(ctx, username)
}

func (s *stubUserService) GetUsersByFilters(ctx context.Context, in ports.SearchUsersInput) ([]ports.UserView, error) {
	return s.getByFiltersFn(ctx, in)
}

func (s *stubUserService) GetUserStats(ctx context.Context) (*ports.UserStats, error) {
	return s.getStatsFn(ctx)
}

func (s *stubUserService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*ports.UserView, error) {
	return s.createFn(ctx, in)
}

func (s *stubUserService) UpdateUser(ctx context.Context, id int64, in ports.UpdateUserInput) (*ports.UserView, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubUserService) DeleteUser(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

func (s *stubUserService) UpdateLastLogin(ctx context.Context, id int64) (*ports.UserView, error) {
	return s.updateLastLoginFn(ctx, id)
}

var (
	adminIdentity  = domain.Identity{UserID: 1, Username: "root", Role: domain.RoleAdmin}
	memberIdentity = domain.Identity{UserID: 7, Username: "alice", Role: domain.RoleAdherant}
)

func newContext(method, target, body string, id *domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != nil {
		c.Set(middleware.IdentityKey, *id)
	}
	return c, rec
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func TestUserHandler_List(t *testing.T) {
	login := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	stub := &stubUserService{getAllFn: func(context.Context) ([]ports.UserView, error) {
		return []ports.UserView{{ID: 1, Username: "alice", Role: "Adherant", PhoneNumber: "+33600000000", LastLogin: &login}}, nil
	}}
	h := NewUserHandler(stub, zerolog.Nop())

	c, rec := newContext(http.MethodGet, "/api/users", "", &adminIdentity)
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 user, got %d", len(resp))
	}
	u := resp[0]
	if u["phoneNumber"] != "+33600000000" || u["lastLogin"] != "2025-03-14" {
		t.Fatalf("unexpected user payload: %+v", u)
	}
	if _, ok := u["password"]; ok {
		t.Fatalf("password leaked: %+v", u)
	}
}

func TestUserHandler_Me(t *testing.T) {
	stub := &stubUserService{getByUsernameFn: func(_ context.Context, username string) (*ports.UserView, error) {
		if username != "alice" {
			t.Fatalf("unexpected username %q", username)
		}
		return &ports.UserView{ID: 7, Username: "alice", Role: "Adherant"}, nil
	}}
	h := NewUserHandler(stub, zerolog.Nop())

	c, rec := newContext(http.MethodGet, "/api/users/me", "", &memberIdentity)
	if err := h.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUserHandler_Me_WithoutIdentity(t *testing.T) {
	h := NewUserHandler(&stubUserService{}, zerolog.Nop())

	c, _ := newContext(http.MethodGet, "/api/users/me", "", nil)
	if err := h.Me(c); !errors.Is(err, domain.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestUserHandler_Search_DefaultsToAll(t *testing.T) {
	var got ports.SearchUsersInput
	stub := &stubUserService{getByFiltersFn: func(_ context.Context, in ports.SearchUsersInput) ([]ports.UserView, error) {
		got = in
		return []ports.UserView{}, nil
	}}
	h := NewUserHandler(stub, zerolog.Nop())

	c, rec := newContext(http.MethodGet, "/api/users/search?name=mar&status=", "", &adminIdentity)
	if err := h.Search(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := ports.SearchUsersInput{Name: "mar", Role: "all", Status: "all"}
	if got != want {
		t.Fatalf("filters = %+v, want %+v", got, want)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty JSON array, got %s", rec.Body.String())
	}
}

func TestUserHandler_Stats(t *testing.T) {
	stub := &stubUserService{getStatsFn: func(context.Context) (*ports.UserStats, error) {
		return &ports.UserStats{TotalUsers: 3, ActiveUsers: 2, AdherantUsers: 2, AdminUsers: 1}, nil
	}}
	h := NewUserHandler(stub, zerolog.Nop())

	c, rec := newContext(http.MethodGet, "/api/users/stats", "", &adminIdentity)
	if err := h.Stats(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp map[string]float64
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["totalUsers"] != 3 || resp["adminUsers"] != 1 {
		t.Fatalf("unexpected stats: %+v", resp)
	}
}

func TestUserHandler_Get_InvalidID(t *testing.T) {
	h := NewUserHandler(&stubUserService{}, zerolog.Nop())

	c, _ := newContext(http.MethodGet, "/api/users/abc", "", &adminIdentity)
	err := h.Get(withID(c, "abc"))

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestUserHandler_Get_NotFound(t *testing.T) {
	stub := &stubUserService{getByIDFn: func(context.Context, int64) (*ports.UserView, error) {
		return nil, domain.ErrUserNotFound
	}}
	h := NewUserHandler(stub, zerolog.Nop())

	c, _ := newContext(http.MethodGet, "/api/users/42", "", &adminIdentity)
	if err := h.Get(withID(c, "42")); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserHandler_Create_Success(t *testing.T) {
	stub := &stubUserService{createFn: func(_ context.Context, in ports.CreateUserInput) (*ports.UserView, error) {
		if in.Username != "alice" || in.Password != "secret1" || in.PhoneNumber != "+33600000000" {
			t.Fatalf("unexpected input: %+v", in)
		}
		return &ports.UserView{ID: 2, Username: in.Username, Role: "Adherant", Status: "Active"}, nil
	}}
	h := NewUserHandler(stub, zerolog.Nop())

	body := `{"username":"alice","password":"secret1","phoneNumber":"+33600000000"}`
	c, rec := newContext(http.MethodPost, "/api/users", body, &adminIdentity)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestUserHandler_Create_ValidationFailure(t *testing.T) {
	stub := &stubUserService{createFn: func(context.Context, ports.CreateUserInput) (*ports.UserView, error) {
		t.Fatalf("should not be called")
		return nil, nil
	}}
	h := NewUserHandler(stub, zerolog.Nop())

	body := `{"username":"al","password":"123","role":"root","email":"nope","phoneNumber":"12ab"}`
	c, _ := newContext(http.MethodPost, "/api/users", body, &adminIdentity)
	err := h.Create(c)

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	for _, field := range []string{"username", "password", "role", "email", "phoneNumber"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Errorf("missing field error for %s: %v", field, verr.Fields)
		}
	}
}

func TestUserHandler_Create_InvalidPayload(t *testing.T) {
	h := NewUserHandler(&stubUserService{}, zerolog.Nop())

	c, _ := newContext(http.MethodPost, "/api/users", "not-json", &adminIdentity)
	err := h.Create(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestUserHandler_Update_PartialAndStripsRole(t *testing.T) {
	var got ports.UpdateUserInput
	stub := &stubUserService{updateFn: func(_ context.Context, id int64, in ports.UpdateUserInput) (*ports.UserView, error) {
		if id != 7 {
			t.Fatalf("unexpected id %d", id)
		}
		got = in
		return &ports.UserView{ID: 7, Username: "alice", Role: "Adherant"}, nil
	}}
	h := NewUserHandler(stub, zerolog.Nop())

	body := `{"bio":"","role":"Admin"}`
	c, rec := newContext(http.MethodPut, "/api/users/7", body, &memberIdentity)
	if err := h.Update(withID(c, "7")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if bio, ok := got.Bio.Get(); !ok || bio != "" {
		t.Fatalf("bio should be present and empty, got %q (set=%v)", bio, ok)
	}
	if got.Name.IsSet() || got.Email.IsSet() {
		t.Fatalf("absent fields were set: %+v", got)
	}
	if got.Role.IsSet() {
		t.Fatalf("role change from a non-admin was not stripped")
	}
}

func TestUserHandler_Update_AdminKeepsRole(t *testing.T) {
	var got ports.UpdateUserInput
	stub := &stubUserService{updateFn: func(_ context.Context, _ int64, in ports.UpdateUserInput) (*ports.UserView, error) {
		got = in
		return &ports.UserView{ID: 7, Username: "alice", Role: "Admin"}, nil
	}}
	h := NewUserHandler(stub, zerolog.Nop())

	c, _ := newContext(http.MethodPut, "/api/users/7", `{"role":"admin"}`, &adminIdentity)
	if err := h.Update(withID(c, "7")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if role, ok := got.Role.Get(); !ok || role != domain.RoleAdmin {
		t.Fatalf("role = %q (set=%v), want Admin", role, ok)
	}
}

func TestUserHandler_Update_ValidationFailure(t *testing.T) {
	h := NewUserHandler(&stubUserService{}, zerolog.Nop())

	c, _ := newContext(http.MethodPut, "/api/users/7", `{"name":"A","avatar":"not a url"}`, &memberIdentity)
	err := h.Update(withID(c, "7"))

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["name"]; !ok {
		t.Errorf("missing name error: %v", verr.Fields)
	}
	if _, ok := verr.Fields["avatar"]; !ok {
		t.Errorf("missing avatar error: %v", verr.Fields)
	}
}

func TestUserHandler_Update_BlankNameRejected(t *testing.T) {
	stub := &stubUserService{updateFn: func(context.Context, int64, ports.UpdateUserInput) (*ports.UserView, error) {
		t.Fatalf("should not be called")
		return nil, nil
	}}
	h := NewUserHandler(stub, zerolog.Nop())

	c, _ := newContext(http.MethodPut, "/api/users/7", `{"name":"   "}`, &memberIdentity)
	err := h.Update(withID(c, "7"))

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["name"]; !ok {
		t.Errorf("missing name error: %v", verr.Fields)
	}
}

func TestUserHandler_Update_TrimsBeforeValidating(t *testing.T) {
	var got ports.UpdateUserInput
	stub := &stubUserService{updateFn: func(_ context.Context, _ int64, in ports.UpdateUserInput) (*ports.UserView, error) {
		got = in
		return &ports.UserView{ID: 7, Username: "alice", Role: "Adherant"}, nil
	}}
	h := NewUserHandler(stub, zerolog.Nop())

	c, _ := newContext(http.MethodPut, "/api/users/7", `{"name":"  Al  ","bio":"   "}`, &memberIdentity)
	if err := h.Update(withID(c, "7")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if name, ok := got.Name.Get(); !ok || name != "Al" {
		t.Errorf("name = %q (set=%v), want Al", name, ok)
	}
	if bio, ok := got.Bio.Get(); !ok || bio != "" {
		t.Errorf("bio = %q (set=%v), want present and empty", bio, ok)
	}
}

func TestUserHandler_Delete(t *testing.T) {
	stub := &stubUserService{deleteFn: func(_ context.Context, id int64) error {
		if id != 7 {
			t.Fatalf("unexpected id %d", id)
		}
		return nil
	}}
	h := NewUserHandler(stub, zerolog.Nop())

	c, rec := newContext(http.MethodDelete, "/api/users/7", "", &adminIdentity)
	if err := h.Delete(withID(c, "7")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestUserHandler_UpdateLastLogin(t *testing.T) {
	today := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	stub := &stubUserService{updateLastLoginFn: func(_ context.Context, id int64) (*ports.UserView, error) {
		return &ports.UserView{ID: id, Username: "alice", Role: "Adherant", LastLogin: &today}, nil
	}}
	h := NewUserHandler(stub, zerolog.Nop())

	c, rec := newContext(http.MethodPut, "/api/users/7/last-login", "", &memberIdentity)
	if err := h.UpdateLastLogin(withID(c, "7")); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["lastLogin"] != "2025-03-15" {
		t.Fatalf("lastLogin = %v", resp["lastLogin"])
	}
}
