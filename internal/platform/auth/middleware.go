package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/medrx/medrx/internal/platform/apperror"
)

var (
	ErrMissingHeader = apperror.Unauthenticated("missing authorization header")
	ErrBadHeader     = apperror.Unauthenticated("invalid authorization format")
)

// BearerToken extracts the token from an "Authorization: Bearer ..." header.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", ErrMissingHeader
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrBadHeader
	}
	return strings.TrimSpace(parts[1]), nil
}

// Authenticate resolves the bearer token on every request not matched by
// skipper and stores the identity in the request context.
func Authenticate(authn Authenticator, skipper func(echo.Context) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}

			token, err := BearerToken(c.Request())
			if err != nil {
				return err
			}

			id, err := authn.Authenticate(c.Request().Context(), token)
			if err != nil {
				return err
			}

			// Set on echo context for the request logger and audit trail
			c.Set("user_id", id.UserID.String())
			c.Set("user_role", string(id.Role))

			ctx := WithIdentity(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
