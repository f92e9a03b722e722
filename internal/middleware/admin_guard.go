package middleware

import (
	"github.com/labstack/echo/v4"

	"inkwell/internal/auth"
	"inkwell/internal/errors"
)

// AdminGuard ensures only admin users can access admin routes. It must run
// after RequireAuth.
func AdminGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, ok := auth.IdentityFrom(c.Request().Context())
		if !ok {
			return fail(errors.ErrUnauthorized)
		}
		if !identity.IsAdmin() {
			return fail(errors.ErrForbidden)
		}
		return next(c)
	}
}
