package models

import "time"

// FlashKind is the kind of a one-shot notification
type FlashKind string

// FlashKind constants
const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a one-shot user-facing notification, cleared on first read
type Flash struct {
	Kind    FlashKind
	Message string
}

// Session is a server-held session record.
// User is nil for a guest session, which only exists to carry a flash message.
type Session struct {
	// Token is the raw cookie value. It is only known right after creation or
	// when the session was resolved from a request cookie; the store keeps its hash.
	Token     string
	TokenHash string
	User      *UserSnapshot
	Flash     *Flash
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Authenticated reports whether the session belongs to a logged in user
func (s *Session) Authenticated() bool {
	return s != nil && s.User != nil
}

// HasRole reports whether the session user satisfies the required role
func (s *Session) HasRole(required Role) bool {
	return s.Authenticated() && s.User.Role.Satisfies(required)
}
