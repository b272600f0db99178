package technicians

import (
	"errors"
	"time"
)

// Technician performs customization services on orders.
type Technician struct {
	ID             int64
	Name           string
	Specialization string
	Status         string
	MaxAssignments int
	OpenLoad       int
}

// AssignmentStatus of a service request assignment.
type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "pending"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentCompleted  AssignmentStatus = "completed"
)

// Assignment ties a service request to a technician.
type Assignment struct {
	ID               int64
	ServiceRequestID int64
	TechnicianID     int64
	Status           AssignmentStatus
	CreatedAt        time.Time
}

var (
	// ErrNotFound indicates no matching assignment.
	ErrNotFound = errors.New("technicians: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("technicians: invalid input")
	// ErrNoneAvailable indicates no technician can take the request.
	ErrNoneAvailable = errors.New("technicians: none available")
)

// ValidAssignmentStatus reports whether s is a known assignment status.
func ValidAssignmentStatus(s AssignmentStatus) bool {
	switch s {
	case AssignmentPending, AssignmentInProgress, AssignmentCompleted:
		return true
	}
	return false
}
