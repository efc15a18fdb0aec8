package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medrx/medrx/internal/platform/apperror"
)

type stubAuthenticator struct {
	id  *Identity
	err error
	got string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*Identity, error) {
	s.got = token
	return s.id, s.err
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{"missing", "", "", ErrMissingHeader},
		{"no bearer prefix", "Token abc123", "", ErrBadHeader},
		{"missing token", "Bearer", "", ErrBadHeader},
		{"empty value", "Bearer ", "", ErrBadHeader},
		{"basic auth", "Basic dXNlcjpwYXNz", "", ErrBadHeader},
		{"valid", "Bearer abc.def.ghi", "abc.def.ghi", nil},
		{"lowercase scheme", "bearer abc", "abc", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, err := BearerToken(req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestAuthenticate_StoresIdentity(t *testing.T) {
	id := &Identity{UserID: uuid.New(), Role: RoleDoctor, Email: "d@x.com"}
	stub := &stubAuthenticator{id: id}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/prescriptions", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *Identity
	h := Authenticate(stub, nil)(func(c echo.Context) error {
		seen, _ = IdentityFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stub.got != "tok" {
		t.Errorf("expected token %q passed through, got %q", "tok", stub.got)
	}
	if seen == nil || seen.UserID != id.UserID {
		t.Fatalf("expected identity in context, got %+v", seen)
	}
	if c.Get("user_role") != "doctor" {
		t.Errorf("expected user_role on echo context, got %v", c.Get("user_role"))
	}
	if UserIDFromContext(c.Request().Context()) != id.UserID {
		t.Error("UserIDFromContext mismatch")
	}
}

func TestAuthenticate_Rejects(t *testing.T) {
	stub := &stubAuthenticator{err: ErrInvalidToken}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.Header.Set("Authorization", "Bearer expired")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Authenticate(stub, nil)(okHandler)(c)
	if apperror.KindOf(err) != apperror.KindUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := Authenticate(&stubAuthenticator{}, nil)(okHandler)(c)
	if !errors.Is(err, ErrMissingHeader) {
		t.Fatalf("expected ErrMissingHeader, got %v", err)
	}
}

func TestAuthenticate_Skipper(t *testing.T) {
	stub := &stubAuthenticator{err: ErrInvalidToken}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/health")

	if err := Authenticate(stub, AuthSkipper)(okHandler)(c); err != nil {
		t.Fatalf("expected skipped path to pass, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
