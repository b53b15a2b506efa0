package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("pipeline stage not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Stage is a named kanban column. DisplayOrder defines left-to-right order;
// values are kept dense by the reorder operation but sorting never assumes
// contiguity.
type Stage struct {
	ID           uuid.UUID
	ClinicID     uuid.UUID
	Name         string
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const stageColumns = `id, clinic_id, name, display_order, created_at, updated_at`

func scanStage(row pgx.Row) (Stage, error) {
	var stage Stage
	err := row.Scan(&stage.ID, &stage.ClinicID, &stage.Name, &stage.DisplayOrder, &stage.CreatedAt, &stage.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Stage{}, ErrNotFound
	}
	return stage, err
}

func (r *Repository) Create(ctx context.Context, clinicID uuid.UUID, name string, displayOrder int) (Stage, error) {
	return scanStage(r.pool.QueryRow(ctx, `
		INSERT INTO pipeline_stages (clinic_id, name, display_order)
		VALUES ($1, $2, $3)
		RETURNING `+stageColumns+`
	`, clinicID, name, displayOrder))
}

func (r *Repository) GetByID(ctx context.Context, clinicID, id uuid.UUID) (Stage, error) {
	return scanStage(r.pool.QueryRow(ctx, `
		SELECT `+stageColumns+`
		FROM pipeline_stages WHERE id = $1 AND clinic_id = $2
	`, id, clinicID))
}

// ListByClinic returns all stages of a clinic in display order.
func (r *Repository) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]Stage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+stageColumns+`
		FROM pipeline_stages WHERE clinic_id = $1
		ORDER BY display_order ASC, created_at ASC
	`, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stages := make([]Stage, 0)
	for rows.Next() {
		var stage Stage
		if err := rows.Scan(&stage.ID, &stage.ClinicID, &stage.Name, &stage.DisplayOrder, &stage.CreatedAt, &stage.UpdatedAt); err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, rows.Err()
}

func (r *Repository) Rename(ctx context.Context, clinicID, id uuid.UUID, name string) (Stage, error) {
	return scanStage(r.pool.QueryRow(ctx, `
		UPDATE pipeline_stages SET name = $3, updated_at = now()
		WHERE id = $1 AND clinic_id = $2
		RETURNING `+stageColumns+`
	`, id, clinicID, name))
}

// StageOrderUpdate assigns a stage its new display order.
type StageOrderUpdate struct {
	ID           uuid.UUID
	DisplayOrder int
}

// UpsertStageOrder applies a full reorder in one transaction so readers never
// observe a partially applied reorder.
func (r *Repository) UpsertStageOrder(ctx context.Context, clinicID uuid.UUID, updates []StageOrderUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, update := range updates {
		tag, err := tx.Exec(ctx, `
			UPDATE pipeline_stages SET display_order = $3, updated_at = now()
			WHERE id = $1 AND clinic_id = $2
		`, update.ID, clinicID, update.DisplayOrder)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
	}

	return tx.Commit(ctx)
}

func (r *Repository) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM pipeline_stages WHERE id = $1 AND clinic_id = $2
	`, id, clinicID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FirstStage returns the clinic's left-most stage, used as the default column
// for new leads.
func (r *Repository) FirstStage(ctx context.Context, clinicID uuid.UUID) (Stage, error) {
	return scanStage(r.pool.QueryRow(ctx, `
		SELECT `+stageColumns+`
		FROM pipeline_stages WHERE clinic_id = $1
		ORDER BY display_order ASC, created_at ASC
		LIMIT 1
	`, clinicID))
}
