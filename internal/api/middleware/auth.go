package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/todo-app/identity-service/internal/api/metrics"
	"github.com/todo-app/identity-service/internal/core/domain"
	"github.com/todo-app/identity-service/internal/core/ports"
)

const identityKey = "identity"

// Auth authenticates the request and stores the caller's identity in the
// context. Unauthenticated requests get 401 with the outcome's reason.
func Auth(authn ports.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			out := authn.Authenticate(echoRequest{c: c})
			metrics.AuthenticationsTotal.WithLabelValues(outcomeLabel(out)).Inc()

			if !out.Authenticated || out.Identity == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": out.Reason})
			}

			c.Set(identityKey, *out.Identity)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity stored by Auth.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(identityKey).(domain.Identity)
	return id, ok
}

// SetIdentity stores id as the authenticated caller.
func SetIdentity(c echo.Context, id domain.Identity) {
	c.Set(identityKey, id)
}

func outcomeLabel(out domain.AuthOutcome) string {
	if out.Authenticated {
		return "authenticated"
	}
	switch out.Reason {
	case domain.ReasonNoToken:
		return "no_token"
	case domain.ReasonInvalidToken:
		return "invalid_token"
	default:
		return "failed"
	}
}
