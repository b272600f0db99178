package auth

import (
	"errors"
	"time"
)

// Role names used in token claims and the permission table.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleStaff      = "staff"
	RoleTechnician = "technician"
)

// User represents an admin account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}

var (
	// ErrEmailTaken indicates a duplicate registration.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrWeakPassword indicates the password fails the minimum policy.
	ErrWeakPassword = errors.New("auth: password must be at least 8 characters")
)

// validRoles guards role values accepted at registration.
var validRoles = map[string]struct{}{
	RoleAdmin:      {},
	RoleManager:    {},
	RoleStaff:      {},
	RoleTechnician: {},
}

// IsValidRole reports whether the role name is known.
func IsValidRole(role string) bool {
	_, ok := validRoles[role]
	return ok
}
