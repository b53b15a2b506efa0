package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("clinic not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Clinic is a tenant. Every other table in the system hangs off its id.
type Clinic struct {
	ID                  uuid.UUID
	Name                string
	MessagingWebhookURL *string
	EmailEnabled        bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AISettings holds the clinic-wide AI assistant configuration consulted when
// a lead's activation is resolved.
type AISettings struct {
	ClinicID             uuid.UUID
	ActiveForAllNewLeads bool
	ActiveForAdLeadsOnly bool
	PersonaPrompt        *string
	OperatingMode        string
	UpdatedAt            time.Time
}

// BusinessHour is one weekday's opening window. Weekday follows time.Weekday
// (0 = Sunday). A clinic without a row for a weekday is closed that day.
type BusinessHour struct {
	ClinicID uuid.UUID
	Weekday  int
	OpensAt  string
	ClosesAt string
}

const clinicColumns = `id, name, messaging_webhook_url, email_enabled, created_at, updated_at`

func scanClinic(row pgx.Row) (Clinic, error) {
	var c Clinic
	err := row.Scan(&c.ID, &c.Name, &c.MessagingWebhookURL, &c.EmailEnabled, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Clinic{}, ErrNotFound
	}
	return c, err
}

func (r *Repository) Create(ctx context.Context, name string) (Clinic, error) {
	return scanClinic(r.pool.QueryRow(ctx, `
		INSERT INTO clinics (name)
		VALUES ($1)
		RETURNING `+clinicColumns+`
	`, name))
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Clinic, error) {
	return scanClinic(r.pool.QueryRow(ctx, `
		SELECT `+clinicColumns+`
		FROM clinics WHERE id = $1
	`, id))
}

func (r *Repository) List(ctx context.Context) ([]Clinic, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+clinicColumns+`
		FROM clinics ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clinics := make([]Clinic, 0)
	for rows.Next() {
		var c Clinic
		if err := rows.Scan(&c.ID, &c.Name, &c.MessagingWebhookURL, &c.EmailEnabled, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		clinics = append(clinics, c)
	}
	return clinics, rows.Err()
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, name *string, webhookURL *string, emailEnabled *bool) (Clinic, error) {
	return scanClinic(r.pool.QueryRow(ctx, `
		UPDATE clinics SET
			name = COALESCE($2, name),
			messaging_webhook_url = COALESCE($3, messaging_webhook_url),
			email_enabled = COALESCE($4, email_enabled),
			updated_at = now()
		WHERE id = $1
		RETURNING `+clinicColumns+`
	`, id, name, webhookURL, emailEnabled))
}

// GetAISettings returns the clinic's AI configuration. A clinic without a
// settings row gets the zero configuration (everything off), not an error.
func (r *Repository) GetAISettings(ctx context.Context, clinicID uuid.UUID) (AISettings, error) {
	var s AISettings
	err := r.pool.QueryRow(ctx, `
		SELECT clinic_id, ai_active_for_all_new_leads, ai_active_for_ad_leads_only,
		       persona_prompt, operating_mode, updated_at
		FROM clinic_ai_settings WHERE clinic_id = $1
	`, clinicID).Scan(&s.ClinicID, &s.ActiveForAllNewLeads, &s.ActiveForAdLeadsOnly,
		&s.PersonaPrompt, &s.OperatingMode, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return AISettings{ClinicID: clinicID, OperatingMode: "manual"}, nil
	}
	return s, err
}

func (r *Repository) UpsertAISettings(ctx context.Context, s AISettings) (AISettings, error) {
	var out AISettings
	err := r.pool.QueryRow(ctx, `
		INSERT INTO clinic_ai_settings
			(clinic_id, ai_active_for_all_new_leads, ai_active_for_ad_leads_only, persona_prompt, operating_mode)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (clinic_id) DO UPDATE SET
			ai_active_for_all_new_leads = EXCLUDED.ai_active_for_all_new_leads,
			ai_active_for_ad_leads_only = EXCLUDED.ai_active_for_ad_leads_only,
			persona_prompt = EXCLUDED.persona_prompt,
			operating_mode = EXCLUDED.operating_mode,
			updated_at = now()
		RETURNING clinic_id, ai_active_for_all_new_leads, ai_active_for_ad_leads_only,
		          persona_prompt, operating_mode, updated_at
	`, s.ClinicID, s.ActiveForAllNewLeads, s.ActiveForAdLeadsOnly, s.PersonaPrompt, s.OperatingMode).
		Scan(&out.ClinicID, &out.ActiveForAllNewLeads, &out.ActiveForAdLeadsOnly,
			&out.PersonaPrompt, &out.OperatingMode, &out.UpdatedAt)
	return out, err
}

func (r *Repository) ListBusinessHours(ctx context.Context, clinicID uuid.UUID) ([]BusinessHour, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT clinic_id, weekday, opens_at, closes_at
		FROM clinic_business_hours WHERE clinic_id = $1
		ORDER BY weekday ASC
	`, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hours := make([]BusinessHour, 0)
	for rows.Next() {
		var h BusinessHour
		if err := rows.Scan(&h.ClinicID, &h.Weekday, &h.OpensAt, &h.ClosesAt); err != nil {
			return nil, err
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

// ReplaceBusinessHours swaps the clinic's whole weekly schedule in one
// transaction so a reader never sees a half-written week.
func (r *Repository) ReplaceBusinessHours(ctx context.Context, clinicID uuid.UUID, hours []BusinessHour) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM clinic_business_hours WHERE clinic_id = $1
	`, clinicID); err != nil {
		return err
	}

	for _, h := range hours {
		if _, err := tx.Exec(ctx, `
			INSERT INTO clinic_business_hours (clinic_id, weekday, opens_at, closes_at)
			VALUES ($1, $2, $3, $4)
		`, clinicID, h.Weekday, h.OpensAt, h.ClosesAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
