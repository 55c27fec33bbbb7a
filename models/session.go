package models

// Session is the authenticated identity handed to the components that need
// an authorization decision. It is passed explicitly; nothing in the core
// reads it from ambient state.
type Session struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	Token  string `json:"token"`
}

// Authenticated reports whether the session carries a user identity.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// IsAdmin reports whether the session may change issue status.
func (s Session) IsAdmin() bool {
	return s.Authenticated() && s.Role == RoleAdmin
}
