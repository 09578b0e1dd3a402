package domain

// Role is an account tier. Lower values carry broader privilege.
type Role int

const (
	RoleAdmin   Role = 1
	RoleManager Role = 2
	RoleUser    Role = 4
	RoleGuest   Role = 8
)

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser, RoleGuest:
		return true
	}
	return false
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleManager:
		return "manager"
	case RoleUser:
		return "user"
	case RoleGuest:
		return "guest"
	default:
		return "unknown"
	}
}

// IsAtLeast reports whether caller satisfies a requirement of required or
// better. Values outside the closed set never satisfy, and never satisfy
// anything.
func IsAtLeast(caller, required Role) bool {
	if !caller.Valid() || !required.Valid() {
		return false
	}
	return caller <= required
}
