package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists route paths that bypass authentication.
var publicPaths = map[string]bool{
	"/":              true,
	"/health":        true,
	"/health/db":     true,
	"/auth/register": true,
	"/auth/login":    true,
	"/auth/token":    true,
	"/doctors":       true,
}

// AuthSkipper returns true for requests whose route should skip
// authentication. It matches on the registered route path, so
// /doctors/profile is still protected while /doctors is not.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given route path is public.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
