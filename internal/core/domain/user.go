package domain

import "time"

const (
	// MaxUsernameLength bounds User.Username, in characters.
	MaxUsernameLength = 50
	// MaxPasswordBytes is the longest password bcrypt accepts.
	MaxPasswordBytes = 72
)

// User models an account as held by the user store.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	Role          Role      `json:"role"`
	FirstName     string    `json:"first_name,omitempty"`
	LastName      string    `json:"last_name,omitempty"`
	FirstNameRuby string    `json:"first_name_ruby,omitempty"`
	LastNameRuby  string    `json:"last_name_ruby,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	CreatedBy     string    `json:"created_by,omitempty"`
	UpdatedBy     string    `json:"updated_by,omitempty"`
	Deleted       bool      `json:"-"`
}

// PublicUser is the outward-facing projection of a User. It has no
// credential field, so it cannot leak one.
type PublicUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Role          Role      `json:"role"`
	FirstName     string    `json:"first_name,omitempty"`
	LastName      string    `json:"last_name,omitempty"`
	FirstNameRuby string    `json:"first_name_ruby,omitempty"`
	LastNameRuby  string    `json:"last_name_ruby,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Public strips the credential hash and audit actors.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Role:          u.Role,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		FirstNameRuby: u.FirstNameRuby,
		LastNameRuby:  u.LastNameRuby,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// Identity returns the token subject for u.
func (u *User) Identity() Identity {
	return Identity{SubjectID: u.ID, Username: u.Username, Role: u.Role}
}
