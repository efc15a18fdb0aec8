package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestIs_MatchesKindSentinel(t *testing.T) {
	errApptMissing := NotFound("appointment not found")
	wrapped := fmt.Errorf("load appointment: %w", errApptMissing)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("expected wrapped error to match ErrNotFound")
	}
	if !errors.Is(wrapped, errApptMissing) {
		t.Error("expected wrapped error to match its own sentinel")
	}
	if errors.Is(wrapped, ErrConflict) {
		t.Error("did not expect wrapped error to match ErrConflict")
	}
	if errors.Is(wrapped, NotFound("user not found")) {
		t.Error("did not expect match against a different not-found sentinel")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad %s", "input"), KindValidation},
		{"unauthenticated", Unauthenticated("no token"), KindUnauthenticated},
		{"forbidden", Forbidden("nope"), KindForbidden},
		{"not found", NotFound("missing"), KindNotFound},
		{"conflict", Conflict("dup"), KindConflict},
		{"wrapped conflict", fmt.Errorf("ctx: %w", Conflict("dup")), KindConflict},
		{"plain error", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPublicMessage_HidesInternalCause(t *testing.T) {
	err := Wrap(KindInternal, "db exploded", errors.New("connection refused on 10.0.0.5"))
	if got := PublicMessage(err); got != "internal server error" {
		t.Errorf("expected generic message, got %q", got)
	}
	if got := PublicMessage(errors.New("raw")); got != "internal server error" {
		t.Errorf("expected generic message for plain error, got %q", got)
	}
	if got := PublicMessage(Forbidden("not your appointment")); got != "not your appointment" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	want := map[Kind]int{
		KindValidation:      http.StatusBadRequest,
		KindUnauthenticated: http.StatusUnauthorized,
		KindForbidden:       http.StatusForbidden,
		KindNotFound:        http.StatusNotFound,
		KindConflict:        http.StatusConflict,
		KindInternal:        http.StatusInternalServerError,
	}
	for k, status := range want {
		if got := HTTPStatus(k); got != status {
			t.Errorf("HTTPStatus(%v) = %d, want %d", k, got, status)
		}
	}
}

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", NotFound("appointment not found"), http.StatusNotFound, "appointment not found"},
		{"unauthenticated", Unauthenticated("invalid token"), http.StatusUnauthorized, "invalid token"},
		{"internal", errors.New("pq: secret detail"), http.StatusInternalServerError, "internal server error"},
		{"echo error", echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded"), http.StatusTooManyRequests, "rate limit exceeded"},
		{"echo 404", echo.ErrNotFound, http.StatusNotFound, "Not Found"},
	}

	h := HTTPErrorHandler(zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			h(tt.err, c)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON body: %v", err)
			}
			if body.Error != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, body.Error)
			}
			if tt.wantStatus == http.StatusUnauthorized && rec.Header().Get(echo.HeaderWWWAuthenticate) != "Bearer" {
				t.Error("expected WWW-Authenticate: Bearer header")
			}
		})
	}
}
