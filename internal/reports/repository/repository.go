package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("report job not found")

// Job statuses. pending is the only state a job can be cancelled from.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Job struct {
	ID             uuid.UUID
	ClinicID       uuid.UUID
	RequestedBy    uuid.UUID
	RequestedEmail string
	Kind           string
	Status         string
	FileKey        *string
	LastError      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

const jobColumns = `id, clinic_id, requested_by, requested_email, kind, status, file_key, last_error, created_at, updated_at, completed_at`

func scanJob(row pgx.Row) (Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.ClinicID, &j.RequestedBy, &j.RequestedEmail, &j.Kind,
		&j.Status, &j.FileKey, &j.LastError, &j.CreatedAt, &j.UpdatedAt, &j.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	return j, err
}

func (r *Repository) Create(ctx context.Context, clinicID, requestedBy uuid.UUID, requestedEmail, kind string) (Job, error) {
	return scanJob(r.pool.QueryRow(ctx, `
		INSERT INTO report_jobs (clinic_id, requested_by, requested_email, kind, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+jobColumns+`
	`, clinicID, requestedBy, requestedEmail, kind, StatusPending))
}

func (r *Repository) GetByID(ctx context.Context, clinicID, id uuid.UUID) (Job, error) {
	return scanJob(r.pool.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM report_jobs WHERE id = $1 AND clinic_id = $2
	`, id, clinicID))
}

func (r *Repository) List(ctx context.Context, clinicID uuid.UUID, limit int) ([]Job, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM report_jobs WHERE clinic_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, clinicID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]Job, 0)
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.ClinicID, &j.RequestedBy, &j.RequestedEmail, &j.Kind,
			&j.Status, &j.FileKey, &j.LastError, &j.CreatedAt, &j.UpdatedAt, &j.CompletedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// Cancel flips a pending job to cancelled. It reports false when the job has
// already left pending, making cancellation race-free against the worker.
func (r *Repository) Cancel(ctx context.Context, clinicID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE report_jobs SET status = $3, updated_at = now()
		WHERE id = $1 AND clinic_id = $2 AND status = $4
	`, id, clinicID, StatusCancelled, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Claim moves a job to processing. Cancelled and completed jobs cannot be
// claimed, which is how a cancelled job escapes the worker; failed and
// interrupted jobs can, so delivery retries make progress.
func (r *Repository) Claim(ctx context.Context, clinicID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE report_jobs SET status = $3, updated_at = now()
		WHERE id = $1 AND clinic_id = $2 AND status = ANY($4)
	`, id, clinicID, StatusProcessing, []string{StatusPending, StatusProcessing, StatusFailed})
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, fileKey string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE report_jobs
		SET status = $2, file_key = $3, last_error = NULL, completed_at = now(), updated_at = now()
		WHERE id = $1
	`, id, StatusCompleted, fileKey)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE report_jobs SET status = $2, last_error = $3, updated_at = now()
		WHERE id = $1
	`, id, StatusFailed, lastError)
	return err
}
