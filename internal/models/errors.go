package models

import (
	"errors"
	"sort"
	"strings"
)

// Error kinds returned by services and translated to HTTP responses by handlers
var (
	// ErrNotFound covers both a missing record and a record owned by someone else
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials never says whether the identifier or the password was wrong
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSelfModification is returned when an admin tries to demote or deactivate their own account
	ErrSelfModification = errors.New("administrators cannot demote or deactivate their own account")
	// ErrInvalidRole is returned for a role outside the enumeration
	ErrInvalidRole = errors.New("invalid role")
	// ErrConflict is returned when a unique constraint rejects a write
	ErrConflict = errors.New("already exists")
)

// ValidationErrors maps form field names to human readable messages
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	msgs := v.Messages()
	return "validation failed: " + strings.Join(msgs, " ")
}

// Messages returns the messages ordered by field name
func (v ValidationErrors) Messages() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, v[k])
	}
	return msgs
}

// Add records a message for a field, keeping the first one
func (v ValidationErrors) Add(field, message string) {
	if _, ok := v[field]; !ok {
		v[field] = message
	}
}

// AsValidationErrors extracts ValidationErrors from err
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
