package domain

import "time"

// Session is the single active login of a user. Its ID doubles as the jti
// claim of the token handed out at login.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}

// Principal is the authenticated identity attached to a request. Core
// operations receive it explicitly; a nil Principal means unauthenticated.
type Principal struct {
	UserID    string
	Username  string
	Email     string
	Role      string
	SessionID string
}

// IsAdmin reports whether the principal carries the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
