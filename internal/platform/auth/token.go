package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/medrx/medrx/internal/platform/apperror"
	"github.com/medrx/medrx/pkg/clock"
)

// ErrInvalidToken covers malformed, tampered and expired tokens alike.
var ErrInvalidToken = apperror.Unauthenticated("invalid or expired token")

// Claims is the payload of an access token. Subject holds the user id.
type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

// TokenVerifier checks a raw token and returns the identity it carries.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// TokenService issues and verifies HS256 access tokens. It keeps no state
// besides its key: a token stays valid until it expires.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  clock.Clock
}

func NewTokenService(secret []byte, issuer string, ttl time.Duration, clk clock.Clock) *TokenService {
	if clk == nil {
		clk = clock.Real()
	}
	return &TokenService{secret: secret, issuer: issuer, ttl: ttl, clock: clk}
}

// TTL is the lifetime used when Issue is called with a zero ttl.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for userID. A non-positive ttl falls back to the
// service default. It returns the token and its expiry.
func (s *TokenService) Issue(userID uuid.UUID, role Role, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	if !role.Valid() {
		return "", time.Time{}, fmt.Errorf("issue token: invalid role %q", role)
	}

	now := s.clock.Now()
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify validates signature, issuer and expiry against the injected clock.
func (s *TokenService) Verify(token string) (*Identity, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return &Identity{UserID: userID, Role: claims.Role}, nil
}
