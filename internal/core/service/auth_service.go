package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/todo-app/identity-service/internal/core/domain"
	"github.com/todo-app/identity-service/internal/core/ports"
)

// Logins that cannot match a stored user still pay for one comparison
// against a hash of dummyPassword made at the configured cost.
const (
	dummyPassword     = "identity-service-timing-pad"
	fallbackDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// AuthService implements registration and login.
type AuthService struct {
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenService
	throttle ports.LoginThrottle
	log      zerolog.Logger

	dummyHash string
}

func NewAuthService(users ports.UserRepository, hasher ports.PasswordHasher, tokens ports.TokenService, log zerolog.Logger) *AuthService {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		log.Warn().Err(err).Msg("dummy hash at configured cost failed, using default cost")
		dummy = fallbackDummyHash
	}
	return &AuthService{users: users, hasher: hasher, tokens: tokens, log: log, dummyHash: dummy}
}

// WithThrottle enables failed-login counting. A nil throttle disables it.
func (s *AuthService) WithThrottle(t ports.LoginThrottle) *AuthService {
	s.throttle = t
	return s
}

// Register creates an account with the default user role and signs it in.
//
// The username check and the insert are separate store calls; the store's
// unique index on active usernames is what makes concurrent registrations
// of the same name safe, and Create reports that as ErrDuplicateUsername.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.AuthResult, error) {
	if !validUsername(in.Username) || !validPassword(in.Password) {
		return nil, domain.ErrInvalidInput
	}

	existing, err := s.users.FindByUsername(ctx, in.Username)
	switch {
	case err == nil && existing != nil:
		return nil, domain.ErrDuplicateUsername
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("register: lookup: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	created, err := s.users.Create(ctx, &domain.User{
		Username:      in.Username,
		PasswordHash:  hash,
		Role:          domain.RoleUser,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		FirstNameRuby: in.FirstNameRuby,
		LastNameRuby:  in.LastNameRuby,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			return nil, domain.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("register: create: %w", err)
	}

	result, err := s.issue(created)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return result, nil
}

// Login checks credentials and signs the user in. An unknown username and a
// wrong password are both reported as ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*domain.AuthResult, error) {
	if in.Username == "" || !validPassword(in.Password) {
		s.padCompare()
		return nil, domain.ErrInvalidCredentials
	}

	if s.throttle != nil {
		blocked, err := s.throttle.Blocked(ctx, in.Username)
		if err != nil {
			s.log.Warn().Err(err).Str("username", in.Username).Msg("login throttle check failed, continuing")
		} else if blocked {
			return nil, domain.ErrTooManyAttempts
		}
	}

	user, err := s.users.FindByUsername(ctx, in.Username)
	found := err == nil && user != nil
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("login: lookup: %w", err)
	}

	hash := s.dummyHash
	if found {
		hash = user.PasswordHash
	}
	ok, verifyErr := s.hasher.Verify(in.Password, hash)
	if found && verifyErr != nil {
		s.log.Error().Err(verifyErr).Str("user_id", user.ID).Msg("stored credential unusable")
		return nil, fmt.Errorf("login: %w", verifyErr)
	}
	if !found || !ok {
		s.recordFailure(ctx, in.Username)
		return nil, domain.ErrInvalidCredentials
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, in.Username); err != nil {
			s.log.Warn().Err(err).Str("username", in.Username).Msg("failed to reset login throttle")
		}
	}

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return result, nil
}

// GetByID returns the stored user as-is, credential hash included. Callers
// that expose it must use User.Public.
func (s *AuthService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *AuthService) issue(u *domain.User) (*domain.AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(u.Identity())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &domain.AuthResult{User: u.Public(), Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, username string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, username); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("failed to record login failure")
	}
}

func (s *AuthService) padCompare() {
	_, _ = s.hasher.Verify(dummyPassword, s.dummyHash)
}

// validPassword bounds the length in bytes, which is what bcrypt limits.
func validPassword(pw string) bool {
	return pw != "" && len(pw) <= domain.MaxPasswordBytes
}

func validUsername(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= 1 && n <= domain.MaxUsernameLength
}
