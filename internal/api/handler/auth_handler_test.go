package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/todo-app/identity-service/internal/api/middleware"
	"github.com/todo-app/identity-service/internal/core/domain"
	"github.com/todo-app/identity-service/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.AuthResult, error)
	loginFn    func(ctx context.Context, in ports.LoginInput) (*domain.AuthResult, error)
	getByIDFn  func(ctx context.Context, id string) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, in ports.LoginInput) (*domain.AuthResult, error) {
	return s.loginFn(ctx, in)
}

func (s *stubAuthService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.getByIDFn(ctx, id)
}

var testCookie = CookieConfig{Name: "auth_token", Secure: true}

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected echo.HTTPError, got %v", err)
	}
	return he.Code
}

func authCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == testCookie.Name {
			return ck
		}
	}
	t.Fatalf("auth cookie not set")
	return nil
}

func TestAuthHandler_Register_Success(t *testing.T) {
	expires := time.Now().Add(24 * time.Hour)
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.AuthResult, error) {
			if in.Username != "alice" || in.Password != "secret" || in.FirstNameRuby != "アリス" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.AuthResult{
				User:      domain.PublicUser{ID: "u1", Username: in.Username, Role: domain.RoleUser},
				Token:     "token123",
				ExpiresAt: expires,
			}, nil
		},
	}
	handler := NewAuthHandler(stub, testCookie)

	c, rec := newContext(http.MethodPost, "/auth/register",
		`{"username":"alice","password":"secret","first_name_ruby":"アリス"}`)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("expected token, got %v", resp["token"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["username"] != "alice" {
		t.Fatalf("unexpected user payload: %+v", resp["user"])
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatalf("response leaks password hash")
	}

	ck := authCookie(t, rec)
	if ck.Value != "token123" || !ck.HttpOnly || !ck.Secure || ck.MaxAge <= 0 {
		t.Fatalf("unexpected cookie: %+v", ck)
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.AuthResult, error) {
			return nil, domain.ErrDuplicateUsername
		},
	}
	handler := NewAuthHandler(stub, testCookie)

	c, rec := newContext(http.MethodPost, "/auth/register", `{"username":"bob","password":"x"}`)
	err := handler.Register(c)

	if !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("no cookie expected on failure")
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	cases := map[string]string{
		"not json":          "not-json",
		"missing password":  `{"username":"bob"}`,
		"missing username":  `{"password":"x"}`,
		"username too long": `{"username":"` + strings.Repeat("a", 51) + `","password":"x"}`,
		"password too long": `{"username":"bob","password":"` + strings.Repeat("p", 73) + `"}`,
		"multibyte password over 72 bytes": `{"username":"bob","password":"` + strings.Repeat("é", 37) + `"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			stub := &stubAuthService{
				registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.AuthResult, error) {
					t.Fatalf("should not be called")
					return nil, nil
				},
			}
			c, _ := newContext(http.MethodPost, "/auth/register", body)

			err := NewAuthHandler(stub, testCookie).Register(c)
			if code := httpCode(t, err); code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", code)
			}
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, in ports.LoginInput) (*domain.AuthResult, error) {
			if in.Username != "alice" || in.Password != "secret" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.AuthResult{
				User:      domain.PublicUser{ID: "u1", Username: "alice", Role: domain.RoleAdmin},
				Token:     "token456",
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
	handler := NewAuthHandler(stub, testCookie)

	c, rec := newContext(http.MethodPost, "/auth/login", `{"username":"alice","password":"secret"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ck := authCookie(t, rec); ck.Value != "token456" {
		t.Fatalf("unexpected cookie value %q", ck.Value)
	}
}

func TestAuthHandler_Login_Failures(t *testing.T) {
	for _, want := range []error{domain.ErrInvalidCredentials, domain.ErrTooManyAttempts} {
		stub := &stubAuthService{
			loginFn: func(ctx context.Context, in ports.LoginInput) (*domain.AuthResult, error) {
				return nil, want
			},
		}
		c, _ := newContext(http.MethodPost, "/auth/login", `{"username":"alice","password":"nope"}`)

		err := NewAuthHandler(stub, testCookie).Login(c)
		if !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/auth/logout", "")

	if err := NewAuthHandler(&stubAuthService{}, testCookie).Logout(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if ck := authCookie(t, rec); ck.Value != "" || ck.MaxAge >= 0 {
		t.Fatalf("cookie not cleared: %+v", ck)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	stub := &stubAuthService{
		getByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			if id != "u1" {
				t.Fatalf("unexpected id %q", id)
			}
			return &domain.User{ID: "u1", Username: "alice", PasswordHash: "$2a$secret", Role: domain.RoleUser}, nil
		},
	}
	c, rec := newContext(http.MethodGet, "/auth/me", "")
	middleware.SetIdentity(c, domain.Identity{SubjectID: "u1", Username: "alice", Role: domain.RoleUser})

	if err := NewAuthHandler(stub, testCookie).Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "$2a$secret") {
		t.Fatalf("response leaks password hash: %s", rec.Body.String())
	}
}

func TestAuthHandler_Me_WithoutIdentity(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/auth/me", "")

	err := NewAuthHandler(&stubAuthService{}, testCookie).Me(c)
	if code := httpCode(t, err); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestUserHandler_GetByID(t *testing.T) {
	stub := &stubAuthService{
		getByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			if id == "missing" {
				return nil, domain.ErrUserNotFound
			}
			return &domain.User{ID: id, Username: "carol", PasswordHash: "h", Role: domain.RoleGuest}, nil
		},
	}
	handler := NewUserHandler(stub)

	c, rec := newContext(http.MethodGet, "/admin/users/u9", "")
	c.SetParamNames("id")
	c.SetParamValues("u9")
	if err := handler.GetByID(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, _ = newContext(http.MethodGet, "/admin/users/missing", "")
	c.SetParamNames("id")
	c.SetParamValues("missing")
	if err := handler.GetByID(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
