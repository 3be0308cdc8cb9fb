package domain

import (
	"strings"
	"time"
)

// Role is the part a user plays in the task workflow.
type Role string

const (
	RoleEPM       Role = "EPM"
	RoleVolunteer Role = "Volunteer"
	RoleReviewer  Role = "Reviewer"
)

// ParseRole maps a role name to its canonical value, ignoring case.
func ParseRole(value string) (Role, error) {
	for _, r := range []Role{RoleEPM, RoleVolunteer, RoleReviewer} {
		if strings.EqualFold(strings.TrimSpace(value), string(r)) {
			return r, nil
		}
	}
	return "", ErrInvalidRole
}

// Is reports whether r names the same role as other, ignoring case.
func (r Role) Is(other Role) bool {
	return strings.EqualFold(string(r), string(other))
}

// User represents a registered account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (a Actor) Valid() bool {
	return a.Username != "" && a.Role != ""
}
