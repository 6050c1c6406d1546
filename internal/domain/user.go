package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role enumerates technician roles.
type Role string

const (
	RoleDeveloper   Role = "DEVELOPER"
	RoleCoordinator Role = "COORDINATOR"
	RoleAssistant   Role = "ASSISTANT"
)

// ParseRole normalizes a role string against the closed set.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch role {
	case RoleDeveloper, RoleCoordinator, RoleAssistant:
		return role, nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

// User models a technician account. Requesters are not users; they exist
// only as free-text contact fields on tickets.
type User struct {
	ID           int64
	Name         string
	Email        *string
	Phone        *string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SeesAllTickets reports whether the role is exempt from assignee scoping.
func (r Role) SeesAllTickets() bool {
	return r == RoleDeveloper || r == RoleCoordinator
}
