package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/medrx/medrx/internal/platform/apperror"
	"github.com/medrx/medrx/pkg/clock"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestTokenService(clk clock.Clock) *TokenService {
	return NewTokenService(testSigningKey, "medrx", 30*time.Minute, clk)
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := newTestTokenService(clock.NewMock(testNow))
	userID := uuid.New()

	token, exp, err := svc.Issue(userID, RoleDoctor, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := testNow.Add(30 * time.Minute); !exp.Equal(want) {
		t.Errorf("expected expiry %v, got %v", want, exp)
	}

	id, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.UserID != userID {
		t.Errorf("expected user %s, got %s", userID, id.UserID)
	}
	if id.Role != RoleDoctor {
		t.Errorf("expected role doctor, got %s", id.Role)
	}
}

func TestTokenService_Expiry(t *testing.T) {
	clk := clock.NewMock(testNow)
	svc := newTestTokenService(clk)

	token, _, err := svc.Issue(uuid.New(), RolePatient, 10*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clk.Advance(9 * time.Minute)
	if _, err := svc.Verify(token); err != nil {
		t.Fatalf("expected token to be valid before expiry, got %v", err)
	}

	clk.Advance(2 * time.Minute)
	_, err = svc.Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
	if apperror.KindOf(err) != apperror.KindUnauthenticated {
		t.Errorf("expected unauthenticated kind, got %v", apperror.KindOf(err))
	}
}

func TestTokenService_RejectsTampering(t *testing.T) {
	svc := newTestTokenService(clock.NewMock(testNow))
	token, _, err := svc.Issue(uuid.New(), RolePatient, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := NewTokenService([]byte("a-completely-different-secret-key!!"), "medrx", time.Hour, clock.NewMock(testNow))
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected signature mismatch to fail, got %v", err)
	}

	parts := strings.Split(token, ".")
	parts[1] = parts[1][:len(parts[1])-2] + "xy"
	if _, err := svc.Verify(strings.Join(parts, ".")); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected modified payload to fail, got %v", err)
	}

	if _, err := svc.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected malformed token to fail, got %v", err)
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    "medrx",
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		},
		Role: RoleAdmin,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(testSigningKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	svc := newTestTokenService(clock.NewMock(testNow))
	if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected HS512 token to be rejected, got %v", err)
	}
}

func TestTokenService_RejectsWrongIssuerAndMissingExpiry(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
	}{
		{"wrong issuer", Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   uuid.NewString(),
				Issuer:    "someone-else",
				ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
			},
			Role: RolePatient,
		}},
		{"no expiry", Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString(), Issuer: "medrx"},
			Role:             RolePatient,
		}},
		{"bad subject", Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-123",
				Issuer:    "medrx",
				ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
			},
			Role: RolePatient,
		}},
		{"unknown role", Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   uuid.NewString(),
				Issuer:    "medrx",
				ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
			},
			Role: Role("superuser"),
		}},
	}

	svc := newTestTokenService(clock.NewMock(testNow))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tt.claims).SignedString(testSigningKey)
			if err != nil {
				t.Fatalf("sign: %v", err)
			}
			if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestTokenService_IssueRejectsInvalidRole(t *testing.T) {
	svc := newTestTokenService(clock.NewMock(testNow))
	if _, _, err := svc.Issue(uuid.New(), Role("nurse"), 0); err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole(" Doctor "); err != nil || r != RoleDoctor {
		t.Errorf("ParseRole(Doctor) = %q, %v", r, err)
	}
	if _, err := ParseRole("physician"); err == nil {
		t.Error("expected error for unknown role")
	}
}
