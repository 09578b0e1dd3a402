package domain

import "time"

// Identity is what a token asserts about its bearer.
type Identity struct {
	SubjectID string `json:"sub"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
}

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	User      PublicUser `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Reasons reported on an unauthenticated AuthOutcome.
const (
	ReasonNoToken      = "No token provided"
	ReasonInvalidToken = "Invalid token"
	ReasonAuthFailed   = "Authentication failed"
)

// AuthOutcome is the per-request result of authenticating a caller.
type AuthOutcome struct {
	Authenticated bool
	Identity      *Identity
	Reason        string
}

// Authenticated builds a successful outcome for id.
func Authenticated(id Identity) AuthOutcome {
	return AuthOutcome{Authenticated: true, Identity: &id}
}

// Unauthenticated builds a failed outcome carrying reason.
func Unauthenticated(reason string) AuthOutcome {
	return AuthOutcome{Reason: reason}
}
