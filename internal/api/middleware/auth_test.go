package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/todo-app/identity-service/internal/core/domain"
	"github.com/todo-app/identity-service/internal/core/ports"
)

type stubAuthenticator struct {
	out     domain.AuthOutcome
	gotAuth string
	gotCk   string
	ckErr   error
}

func (s *stubAuthenticator) Authenticate(req ports.Request) domain.AuthOutcome {
	s.gotAuth = req.Header("Authorization")
	s.gotCk, s.ckErr = req.Cookie("auth_token")
	return s.out
}

func TestAuth_SetsIdentity(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc")
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "xyz"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	stub := &stubAuthenticator{out: domain.Authenticated(domain.Identity{SubjectID: "1", Username: "alice", Role: domain.RoleUser})}
	handler := Auth(stub)(func(c echo.Context) error {
		id, ok := IdentityFrom(c)
		if !ok || id.Username != "alice" {
			t.Fatalf("identity not set: %+v", id)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.gotAuth != "Bearer abc" || stub.gotCk != "xyz" {
		t.Fatalf("request adapter passed %q / %q", stub.gotAuth, stub.gotCk)
	}
}

func TestAuth_MissingCookieIsErrNoCookie(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	stub := &stubAuthenticator{out: domain.Unauthenticated(domain.ReasonNoToken)}
	_ = Auth(stub)(func(c echo.Context) error { return nil })(c)

	if !errors.Is(stub.ckErr, http.ErrNoCookie) {
		t.Fatalf("expected http.ErrNoCookie, got %v", stub.ckErr)
	}
}

func TestAuth_Rejects(t *testing.T) {
	for _, reason := range []string{domain.ReasonNoToken, domain.ReasonInvalidToken, domain.ReasonAuthFailed} {
		t.Run(reason, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := Auth(&stubAuthenticator{out: domain.Unauthenticated(reason)})(func(c echo.Context) error {
				t.Fatalf("should not reach next handler")
				return nil
			})

			_ = handler(c)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			want := `{"error":"` + reason + `"}` + "\n"
			if rec.Body.String() != want {
				t.Fatalf("expected body %q, got %q", want, rec.Body.String())
			}
		})
	}
}
