package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/todo-app/identity-service/internal/api/middleware"
	"github.com/todo-app/identity-service/internal/core/domain"
)

// ctxIdentity returns the caller stored by the Auth middleware. Its absence
// means the route was mounted without Auth, reported as 401.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok || id.SubjectID == "" {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, domain.ReasonAuthFailed)
	}
	return id, nil
}
