package models

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles
type Role string

// Role constants
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole converts raw input into a Role, rejecting anything outside the enumeration
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
}

// Satisfies reports whether a holder of r may access something that requires the given role.
// Admins satisfy every requirement, users only their own.
func (r Role) Satisfies(required Role) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleUser:
		return required == RoleUser
	default:
		return false
	}
}

// Label returns the human readable role name
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleUser:
		return "User"
	default:
		return "Unknown"
	}
}

// User represents a user in the system
type User struct {
	ID           int        `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never serialize password hash
	Role         Role       `json:"role"`
	IsActive     bool       `json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// Snapshot returns the identity copy stored in a session at login time
func (u *User) Snapshot() *UserSnapshot {
	return &UserSnapshot{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
	}
}

// UserSnapshot is the minimal identity held by a session.
// It is not refreshed after login: a role change applies on the next login.
type UserSnapshot struct {
	ID       int
	Username string
	Role     Role
}

// RegisterRequest represents the registration form
type RegisterRequest struct {
	Username        string `form:"username" label:"Username" validate:"required,username" message:"Username must be between 3 and 20 characters (letters, numbers and underscores)."`
	Email           string `form:"email" label:"Email" validate:"required,email,max=255" message:"Please enter a valid email address."`
	Password        string `form:"password" label:"Password" validate:"required,password" message:"Password must be between 8 and 72 characters long."`
	ConfirmPassword string `form:"confirm_password" label:"Password confirmation" validate:"eqfield=Password" message:"Passwords do not match."`
}

// LoginRequest represents the login form. Identifier is a username or an email.
type LoginRequest struct {
	Identifier string `form:"identifier" label:"Username or email" validate:"required" message:"Please enter your username or email."`
	Password   string `form:"password" label:"Password" validate:"required" message:"Please enter your password."`
}

// LoginMeta describes the caller of a login attempt
type LoginMeta struct {
	IP        string
	UserAgent string
}
