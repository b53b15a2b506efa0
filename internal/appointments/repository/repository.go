package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("appointment not found")

// Appointment statuses.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Appointment struct {
	ID        uuid.UUID
	ClinicID  uuid.UUID
	LeadID    uuid.UUID
	Title     string
	Notes     *string
	StartTime time.Time
	EndTime   time.Time
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const appointmentColumns = `id, clinic_id, lead_id, title, notes, start_time, end_time, status, created_at, updated_at`

func scanAppointment(row pgx.Row) (Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.ClinicID, &a.LeadID, &a.Title, &a.Notes,
		&a.StartTime, &a.EndTime, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Appointment{}, ErrNotFound
	}
	return a, err
}

func (r *Repository) Create(ctx context.Context, clinicID, leadID uuid.UUID, title string, notes *string, start, end time.Time) (Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx, `
		INSERT INTO appointments (clinic_id, lead_id, title, notes, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+appointmentColumns+`
	`, clinicID, leadID, title, notes, start, end, StatusScheduled))
}

func (r *Repository) GetByID(ctx context.Context, clinicID, id uuid.UUID) (Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments WHERE id = $1 AND clinic_id = $2
	`, id, clinicID))
}

// ListRange returns the clinic's appointments overlapping [from, to).
func (r *Repository) ListRange(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE clinic_id = $1 AND start_time < $3 AND end_time > $2
		ORDER BY start_time ASC
	`, clinicID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	appointments := make([]Appointment, 0)
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.ClinicID, &a.LeadID, &a.Title, &a.Notes,
			&a.StartTime, &a.EndTime, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

// SetStatus transitions an appointment. The guard keeps terminal states
// terminal: a cancelled or completed appointment never changes again.
func (r *Repository) SetStatus(ctx context.Context, clinicID, id uuid.UUID, status string) (Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx, `
		UPDATE appointments SET status = $3, updated_at = now()
		WHERE id = $1 AND clinic_id = $2 AND status = $4
		RETURNING `+appointmentColumns+`
	`, id, clinicID, status, StatusScheduled))
}
