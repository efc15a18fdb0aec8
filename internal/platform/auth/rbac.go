package auth

import (
	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that checks the authenticated identity
// holds one of the specified roles.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFromContext(c.Request().Context())
			if !ok {
				return ErrInvalidToken
			}
			if _, err := CheckRole(id, roles...); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// RequireAuthenticated only checks that an identity is present.
func RequireAuthenticated() echo.MiddlewareFunc {
	return RequireRole(Roles...)
}
