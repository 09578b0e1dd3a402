package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/todo-app/identity-service/internal/core/domain"
	"github.com/todo-app/identity-service/internal/core/ports"
)

// DefaultCookieName is the cookie consulted when no bearer header is sent.
const DefaultCookieName = "auth_token"

// Authenticator resolves the caller of a request from its bearer header or,
// failing that, its auth cookie.
type Authenticator struct {
	tokens     ports.TokenService
	cookieName string
	log        zerolog.Logger
}

func NewAuthenticator(tokens ports.TokenService, cookieName string, log zerolog.Logger) *Authenticator {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Authenticator{tokens: tokens, cookieName: cookieName, log: log}
}

// CookieName is the cookie this authenticator reads.
func (a *Authenticator) CookieName() string {
	return a.cookieName
}

// Authenticate never panics and never returns an error: every failure is
// folded into an unauthenticated outcome.
func (a *Authenticator) Authenticate(req ports.Request) (out domain.AuthOutcome) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Msg("authentication panicked")
			out = domain.Unauthenticated(domain.ReasonAuthFailed)
		}
	}()

	token, found, err := a.extract(req)
	if err != nil {
		a.log.Error().Err(err).Msg("authentication failed")
		return domain.Unauthenticated(domain.ReasonAuthFailed)
	}
	if !found {
		return domain.Unauthenticated(domain.ReasonNoToken)
	}

	id, err := a.tokens.Verify(token)
	if err != nil {
		return domain.Unauthenticated(domain.ReasonInvalidToken)
	}
	return domain.Authenticated(id)
}

func (a *Authenticator) extract(req ports.Request) (string, bool, error) {
	if token, ok := ExtractBearer(req.Header("Authorization")); ok {
		return token, true, nil
	}

	value, err := req.Cookie(a.cookieName)
	switch {
	case errors.Is(err, http.ErrNoCookie):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("read cookie %q: %w", a.cookieName, err)
	case value == "":
		return "", false, nil
	}
	return value, true, nil
}
