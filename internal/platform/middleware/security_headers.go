package middleware

import "github.com/labstack/echo/v4"

// SecurityHeaders sets the response headers every JSON endpoint should carry.
// HSTS is only sent when the server terminates TLS itself; behind a plain
// HTTP listener it would be ignored or wrong. Responses may contain
// prescriptions, so Cache-Control defaults to no-store and handlers may
// loosen it.
func SecurityHeaders(hsts bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cache-Control", "no-store")
			if hsts {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			return next(c)
		}
	}
}
