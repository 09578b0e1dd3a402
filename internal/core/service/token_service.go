package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/todo-app/identity-service/internal/core/domain"
)

const (
	// DefaultTokenTTL is how long an issued token stays valid.
	DefaultTokenTTL = 24 * time.Hour

	bearerPrefix = "Bearer "
)

// tokenClaims is the signed payload. Subject carries the user ID.
type tokenClaims struct {
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 identity tokens with a secret that
// is fixed for the lifetime of the value.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger
	parser *jwt.Parser
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithTTL overrides DefaultTokenTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now for both issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(log zerolog.Logger) TokenOption {
	return func(s *TokenService) { s.log = log }
}

// NewTokenService fails when secret is empty.
func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token service: signing secret is empty")
	}
	s := &TokenService{
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	return s, nil
}

// Issue signs a token for id that expires TTL after now.
func (s *TokenService) Issue(id domain.Identity) (string, time.Time, error) {
	if id.SubjectID == "" || id.Username == "" || !id.Role.Valid() {
		return "", time.Time{}, domain.ErrInvalidIdentity
	}

	now := s.now()
	claims := tokenClaims{
		Username: id.Username,
		Role:     id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify returns the identity carried by a valid token. Every rejection,
// whether malformed, tampered or expired, is reported as
// domain.ErrTokenInvalid; the cause is only logged.
func (s *TokenService) Verify(raw string) (domain.Identity, error) {
	claims := &tokenClaims{}
	if _, err := s.parser.ParseWithClaims(raw, claims, s.key); err != nil {
		s.log.Debug().Err(err).Msg("token rejected")
		return domain.Identity{}, domain.ErrTokenInvalid
	}

	// exp must lie strictly in the future; the parser accepts exp == now.
	if !claims.ExpiresAt.After(s.now()) {
		s.log.Debug().Time("exp", claims.ExpiresAt.Time).Msg("token rejected: expired")
		return domain.Identity{}, domain.ErrTokenInvalid
	}

	id := domain.Identity{SubjectID: claims.Subject, Username: claims.Username, Role: claims.Role}
	if id.SubjectID == "" || id.Username == "" || !id.Role.Valid() {
		s.log.Debug().Str("sub", id.SubjectID).Int("role", int(id.Role)).Msg("token rejected: incomplete identity")
		return domain.Identity{}, domain.ErrTokenInvalid
	}
	return id, nil
}

func (s *TokenService) key(_ *jwt.Token) (any, error) {
	return s.secret, nil
}

// ExtractBearer pulls the token out of an Authorization header value. The
// "Bearer " prefix is case-sensitive. A bare "Bearer " yields ("", true):
// a token was presented, it is just empty.
func ExtractBearer(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	return header[len(bearerPrefix):], true
}
