package technicians

import (
	"context"
	"log/slog"
	"strings"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	FindAvailable(ctx context.Context, specialization string) (Technician, error)
	InsertAssignment(ctx context.Context, serviceRequestID, technicianID int64) (int64, error)
	UpdateAssignmentStatus(ctx context.Context, assignmentID int64, status AssignmentStatus) error
	ListAssignments(ctx context.Context, technicianID int64, limit, offset int) ([]Assignment, error)
}

// Service assigns service requests to technicians.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
}

// NewService constructs the technician service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Assign picks the least loaded technician matching the specialization and
// creates a pending assignment.
func (s *Service) Assign(ctx context.Context, serviceRequestID int64, specialization string) (Assignment, error) {
	specialization = strings.TrimSpace(specialization)
	if serviceRequestID <= 0 || specialization == "" {
		return Assignment{}, ErrValidation
	}
	tech, err := s.repo.FindAvailable(ctx, specialization)
	if err != nil {
		return Assignment{}, err
	}
	id, err := s.repo.InsertAssignment(ctx, serviceRequestID, tech.ID)
	if err != nil {
		return Assignment{}, err
	}
	s.logger.Info("technician assigned",
		slog.Int64("assignment_id", id),
		slog.Int64("technician_id", tech.ID),
		slog.Int64("service_request_id", serviceRequestID))
	return Assignment{
		ID:               id,
		ServiceRequestID: serviceRequestID,
		TechnicianID:     tech.ID,
		Status:           AssignmentPending,
	}, nil
}

// UpdateStatus moves an assignment to a new status.
func (s *Service) UpdateStatus(ctx context.Context, assignmentID int64, status AssignmentStatus) error {
	if assignmentID <= 0 || !ValidAssignmentStatus(status) {
		return ErrValidation
	}
	return s.repo.UpdateAssignmentStatus(ctx, assignmentID, status)
}

// ListAssignments returns a technician's assignments.
func (s *Service) ListAssignments(ctx context.Context, technicianID int64, limit, offset int) ([]Assignment, error) {
	if technicianID <= 0 {
		return nil, ErrValidation
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListAssignments(ctx, technicianID, limit, offset)
}
