package technicians

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists technician data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindAvailable returns the least loaded active technician with the given
// specialization who is under their assignment cap.
func (r *Repository) FindAvailable(ctx context.Context, specialization string) (Technician, error) {
	var t Technician
	err := r.pool.QueryRow(ctx, `SELECT t.id, t.name, t.specialization, t.status, t.max_assignments,
COALESCE(a.open_count, 0) AS open_load
FROM technicians t
LEFT JOIN (
    SELECT technician_id, COUNT(*) AS open_count
    FROM technician_assignments
    WHERE status IN ('pending', 'in_progress')
    GROUP BY technician_id
) a ON a.technician_id = t.id
WHERE t.status = 'active'
  AND t.specialization = $1
  AND COALESCE(a.open_count, 0) < t.max_assignments
ORDER BY open_load ASC, t.id ASC
LIMIT 1`, specialization).
		Scan(&t.ID, &t.Name, &t.Specialization, &t.Status, &t.MaxAssignments, &t.OpenLoad)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Technician{}, ErrNoneAvailable
		}
		return Technician{}, err
	}
	return t, nil
}

// InsertAssignment creates a pending assignment row.
func (r *Repository) InsertAssignment(ctx context.Context, serviceRequestID, technicianID int64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO technician_assignments
(service_request_id, technician_id, status, created_at)
VALUES ($1,$2,'pending',NOW()) RETURNING id`, serviceRequestID, technicianID).Scan(&id)
	return id, err
}

// UpdateAssignmentStatus moves an assignment through its lifecycle.
func (r *Repository) UpdateAssignmentStatus(ctx context.Context, assignmentID int64, status AssignmentStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE technician_assignments SET status=$1 WHERE id=$2`, status, assignmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAssignments returns a technician's assignments, newest first.
func (r *Repository) ListAssignments(ctx context.Context, technicianID int64, limit, offset int) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, service_request_id, technician_id, status, created_at
FROM technician_assignments WHERE technician_id=$1 ORDER BY id DESC LIMIT $2 OFFSET $3`,
		technicianID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.ServiceRequestID, &a.TechnicianID, &a.Status, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
