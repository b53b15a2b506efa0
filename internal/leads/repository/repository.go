package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID                    uuid.UUID
	ClinicID              uuid.UUID
	Name                  string
	Phone                 string
	Email                 *string
	Origin                *string
	AIConversationEnabled *bool
	StageID               uuid.UUID
	LastContactAt         time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

const leadColumns = `id, clinic_id, name, phone, email, origin, ai_conversation_enabled, stage_id, last_contact_at, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.ClinicID, &lead.Name, &lead.Phone, &lead.Email, &lead.Origin,
		&lead.AIConversationEnabled, &lead.StageID, &lead.LastContactAt,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

type CreateLeadParams struct {
	ClinicID uuid.UUID
	Name     string
	Phone    string
	Email    *string
	Origin   *string
	StageID  uuid.UUID
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		INSERT INTO leads (clinic_id, name, phone, email, origin, stage_id, last_contact_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING `+leadColumns+`
	`, params.ClinicID, params.Name, params.Phone, params.Email, params.Origin, params.StageID))
}

func (r *Repository) GetByID(ctx context.Context, clinicID, id uuid.UUID) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads WHERE id = $1 AND clinic_id = $2
	`, id, clinicID))
}

type UpdateLeadParams struct {
	Name   *string
	Phone  *string
	Email  *string
	Origin *string
}

func (r *Repository) Update(ctx context.Context, clinicID, id uuid.UUID, params UpdateLeadParams) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads SET
			name = COALESCE($3, name),
			phone = COALESCE($4, phone),
			email = COALESCE($5, email),
			origin = COALESCE($6, origin),
			updated_at = now()
		WHERE id = $1 AND clinic_id = $2
		RETURNING `+leadColumns+`
	`, id, clinicID, params.Name, params.Phone, params.Email, params.Origin))
}

func (r *Repository) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1 AND clinic_id = $2`, id, clinicID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByStage returns all leads on a kanban column, most recently contacted first.
func (r *Repository) ListByStage(ctx context.Context, clinicID, stageID uuid.UUID) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads WHERE clinic_id = $1 AND stage_id = $2
		ORDER BY last_contact_at DESC
	`, clinicID, stageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

type ListParams struct {
	Search string
	Offset int
	Limit  int
}

func (r *Repository) List(ctx context.Context, clinicID uuid.UUID, params ListParams) ([]Lead, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM leads
		WHERE clinic_id = $1 AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR phone ILIKE '%' || $2 || '%')
	`, clinicID, params.Search).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE clinic_id = $1 AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR phone ILIKE '%' || $2 || '%')
		ORDER BY last_contact_at DESC
		OFFSET $3 LIMIT $4
	`, clinicID, params.Search, params.Offset, params.Limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads, err := collectLeads(rows)
	return leads, total, err
}

// SetAIEnabled persists the AI auto-response flag. With onlyIfNull the write
// is conditional on the flag never having been resolved, which is how the
// resolver guarantees a racing manual toggle is never clobbered. Returns
// whether a row was actually written.
func (r *Repository) SetAIEnabled(ctx context.Context, clinicID, id uuid.UUID, enabled bool, onlyIfNull bool) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET ai_conversation_enabled = $3, updated_at = now()
		WHERE id = $1 AND clinic_id = $2
		  AND ($4 = false OR ai_conversation_enabled IS NULL)
	`, id, clinicID, enabled, onlyIfNull)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MoveToStage places a lead on another kanban column and counts as contact.
func (r *Repository) MoveToStage(ctx context.Context, clinicID, id, stageID uuid.UUID) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads SET stage_id = $3, last_contact_at = now(), updated_at = now()
		WHERE id = $1 AND clinic_id = $2
		RETURNING `+leadColumns+`
	`, id, clinicID, stageID))
}

// ReassignStage bulk-moves leads onto the target stage. Leads already on the
// target are skipped so a retried migration is a no-op in effect.
func (r *Repository) ReassignStage(ctx context.Context, clinicID uuid.UUID, leadIDs []uuid.UUID, targetStageID uuid.UUID) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET stage_id = $3, last_contact_at = now(), updated_at = now()
		WHERE clinic_id = $1 AND id = ANY($2) AND stage_id <> $3
	`, clinicID, leadIDs, targetStageID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// CountByStage reports how many leads currently sit on a stage.
func (r *Repository) CountByStage(ctx context.Context, clinicID, stageID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM leads WHERE clinic_id = $1 AND stage_id = $2
	`, clinicID, stageID).Scan(&count)
	return count, err
}

// ListIDsByStage returns the ids of all leads on a stage, used by the
// stage-deletion migration.
func (r *Repository) ListIDsByStage(ctx context.Context, clinicID, stageID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM leads WHERE clinic_id = $1 AND stage_id = $2
	`, clinicID, stageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListUnresolvedAI returns leads whose AI activation was never resolved.
// Used by admin tooling to re-run resolution after settings changes.
func (r *Repository) ListUnresolvedAI(ctx context.Context, clinicID uuid.UUID) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads WHERE clinic_id = $1 AND ai_conversation_enabled IS NULL
		ORDER BY created_at ASC
	`, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeads(rows)
}

func collectLeads(rows pgx.Rows) ([]Lead, error) {
	leads := make([]Lead, 0)
	for rows.Next() {
		var lead Lead
		err := rows.Scan(
			&lead.ID, &lead.ClinicID, &lead.Name, &lead.Phone, &lead.Email, &lead.Origin,
			&lead.AIConversationEnabled, &lead.StageID, &lead.LastContactAt,
			&lead.CreatedAt, &lead.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}
