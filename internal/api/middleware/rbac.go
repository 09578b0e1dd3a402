package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/todo-app/identity-service/internal/api/metrics"
	"github.com/todo-app/identity-service/internal/core/domain"
)

// RequireRole lets through callers whose role is at least min. It must run
// after Auth. Denials return domain.ErrForbidden for the error handler.
func RequireRole(min domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": domain.ReasonAuthFailed})
			}
			if !domain.IsAtLeast(id.Role, min) {
				metrics.AuthorizationDeniedTotal.WithLabelValues(min.String()).Inc()
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
