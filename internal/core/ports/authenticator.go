package ports

import "github.com/todo-app/identity-service/internal/core/domain"

// Request is the slice of an inbound request the authenticator reads.
type Request interface {
	// Header returns the raw value of the named header, or "".
	Header(name string) string
	// Cookie returns the raw value of the named cookie. A missing cookie
	// is reported with http.ErrNoCookie.
	Cookie(name string) (string, error)
}

type Authenticator interface {
	Authenticate(req Request) domain.AuthOutcome
}
