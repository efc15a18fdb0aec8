package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medrx/medrx/internal/platform/apperror"
	"github.com/medrx/medrx/internal/platform/auth"
)

func newTestHandler() (*Handler, *Service, *echo.Echo) {
	svc, _, _ := newTestService(Options{})
	h := NewHandler(svc)
	e := echo.New()
	return h, svc, e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func asUser(req *http.Request, u *User) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), u.Identity()))
}

func TestHandler_Register(t *testing.T) {
	h, _, e := newTestHandler()

	body := `{"email":"p@x.com","password":"Patient1A","role":"patient","first_name":"Pat","last_name":"Smith"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", body), rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Errorf("response leaks password material: %s", rec.Body.String())
	}

	var u User
	json.Unmarshal(rec.Body.Bytes(), &u)
	if u.Email != "p@x.com" || u.Role != auth.RolePatient {
		t.Errorf("unexpected user %+v", u)
	}
}

func TestHandler_Register_DuplicateIsBadRequest(t *testing.T) {
	h, _, e := newTestHandler()
	body := `{"email":"p@x.com","password":"Patient1A","role":"patient","first_name":"Pat","last_name":"Smith"}`

	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", body), httptest.NewRecorder())
	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c = e.NewContext(jsonRequest(http.MethodPost, "/auth/register", body), httptest.NewRecorder())
	err := h.Register(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandler_Register_Invalid(t *testing.T) {
	h, _, e := newTestHandler()

	body := `{"email":"p@x.com","password":"short","role":"patient","first_name":"Pat","last_name":"Smith"}`
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", body), httptest.NewRecorder())
	if err := h.Register(c); apperror.KindOf(err) != apperror.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestHandler_Login(t *testing.T) {
	h, svc, e := newTestHandler()
	svc.Register(context.Background(), validRegistration("d@x.com", auth.RoleDoctor))

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"email":"d@x.com","password":"Patient1A"}`), rec)
	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("expected Cache-Control: no-store")
	}

	var tok TokenResponse
	json.Unmarshal(rec.Body.Bytes(), &tok)
	if tok.AccessToken == "" || tok.TokenType != "bearer" {
		t.Errorf("unexpected token response %+v", tok)
	}

	c = e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"email":"d@x.com","password":"Wrong1234"}`), httptest.NewRecorder())
	if err := h.Login(c); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestHandler_TokenForm(t *testing.T) {
	h, svc, e := newTestHandler()
	svc.Register(context.Background(), validRegistration("p@x.com", auth.RolePatient))

	form := url.Values{"username": {"p@x.com"}, "password": {"Patient1A"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()

	if err := h.TokenForm(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_ValidateToken(t *testing.T) {
	h, svc, e := newTestHandler()
	u, _ := svc.Register(context.Background(), validRegistration("p@x.com", auth.RolePatient))

	rec := httptest.NewRecorder()
	c := e.NewContext(asUser(httptest.NewRequest(http.MethodPost, "/auth/validate-token", nil), u), rec)
	if err := h.ValidateToken(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var id auth.Identity
	json.Unmarshal(rec.Body.Bytes(), &id)
	if id.UserID != u.ID || id.Role != auth.RolePatient {
		t.Errorf("unexpected identity %+v", id)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/validate-token", nil), httptest.NewRecorder())
	if err := h.ValidateToken(c); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken without identity, got %v", err)
	}
}

func TestHandler_Profile(t *testing.T) {
	h, svc, e := newTestHandler()
	ctx := context.Background()
	u, _ := svc.Register(ctx, validRegistration("p@x.com", auth.RolePatient))
	svc.Register(ctx, validRegistration("taken@x.com", auth.RolePatient))

	rec := httptest.NewRecorder()
	c := e.NewContext(asUser(httptest.NewRequest(http.MethodGet, "/users/profile", nil), u), rec)
	if err := h.GetProfile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"email":"p@x.com"`) {
		t.Errorf("unexpected profile body %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(asUser(jsonRequest(http.MethodPut, "/users/profile", `{"last_name":"Jones"}`), u), rec)
	if err := h.UpdateProfile(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var updated User
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.LastName != "Jones" || updated.FirstName != "Ada" {
		t.Errorf("expected partial update, got %+v", updated)
	}

	c = e.NewContext(asUser(jsonRequest(http.MethodPut, "/users/profile", `{"email":"taken@x.com"}`), u), httptest.NewRecorder())
	err := h.UpdateProfile(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for taken email, got %v", err)
	}
}

func TestHandler_Routes_RoleEnforcement(t *testing.T) {
	h, svc, e := newTestHandler()
	ctx := context.Background()
	patient, _ := svc.Register(ctx, validRegistration("p@x.com", auth.RolePatient))
	admin, _ := svc.CreateAdmin(ctx, validRegistration("a@x.com", auth.RoleAdmin))

	e.HTTPErrorHandler = apperror.HTTPErrorHandler(zerolog.Nop())
	h.RegisterRoutes(e.Group(""))

	tests := []struct {
		name string
		user *User
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"patient", patient, http.StatusForbidden},
		{"admin", admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users?limit=1", nil)
			if tt.user != nil {
				req = asUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}
