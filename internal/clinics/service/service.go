// Package service implements clinic provisioning and per-clinic configuration:
// AI assistant settings and the weekly business-hours schedule.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"clinicportal_backend/internal/clinics/domain"
	"clinicportal_backend/internal/clinics/ports"
	"clinicportal_backend/internal/clinics/repository"
	"clinicportal_backend/internal/clinics/seed"
	"clinicportal_backend/internal/clinics/transport"
	"clinicportal_backend/platform/apperr"

	"github.com/google/uuid"
)

// Store is the persistence surface for clinics. *repository.Repository
// implements it; tests substitute an in-memory fake.
type Store interface {
	Create(ctx context.Context, name string) (repository.Clinic, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Clinic, error)
	List(ctx context.Context) ([]repository.Clinic, error)
	Update(ctx context.Context, id uuid.UUID, name *string, webhookURL *string, emailEnabled *bool) (repository.Clinic, error)
	GetAISettings(ctx context.Context, clinicID uuid.UUID) (repository.AISettings, error)
	UpsertAISettings(ctx context.Context, s repository.AISettings) (repository.AISettings, error)
	ListBusinessHours(ctx context.Context, clinicID uuid.UUID) ([]repository.BusinessHour, error)
	ReplaceBusinessHours(ctx context.Context, clinicID uuid.UUID, hours []repository.BusinessHour) error
}

type Service struct {
	repo              Store
	seedStages        ports.StageSeeder
	stageTemplatePath string
}

func New(repo Store, seedStages ports.StageSeeder, stageTemplatePath string) *Service {
	return &Service{repo: repo, seedStages: seedStages, stageTemplatePath: stageTemplatePath}
}

// Create provisions a tenant: the clinic row plus its default pipeline stages
// from the YAML template. Stage seeding failure does not roll back the clinic;
// an operator can re-seed, and an empty board is usable.
func (s *Service) Create(ctx context.Context, req transport.CreateClinicRequest) (transport.ClinicResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return transport.ClinicResponse{}, apperr.Validation("clinic name must not be empty")
	}

	clinic, err := s.repo.Create(ctx, name)
	if err != nil {
		return transport.ClinicResponse{}, storeErr("create clinic", err)
	}

	stages, err := seed.LoadStageTemplate(s.stageTemplatePath)
	if err != nil {
		return transport.ClinicResponse{}, apperr.Wrap(apperr.KindInternal, "load stage template", err)
	}
	if err := s.seedStages(ctx, clinic.ID, stages); err != nil {
		return transport.ClinicResponse{}, apperr.Wrap(apperr.KindInternal, "seed default stages", err)
	}

	return toClinicResponse(clinic), nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.ClinicResponse, error) {
	clinic, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ClinicResponse{}, mapNotFound(err)
	}
	return toClinicResponse(clinic), nil
}

func (s *Service) List(ctx context.Context) ([]transport.ClinicResponse, error) {
	clinics, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeErr("list clinics", err)
	}

	out := make([]transport.ClinicResponse, len(clinics))
	for i, c := range clinics {
		out[i] = toClinicResponse(c)
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateClinicRequest) (transport.ClinicResponse, error) {
	clinic, err := s.repo.Update(ctx, id, req.Name, req.MessagingWebhookURL, req.EmailEnabled)
	if err != nil {
		return transport.ClinicResponse{}, mapNotFound(err)
	}
	return toClinicResponse(clinic), nil
}

// AISettings returns the clinic's AI configuration, zero-valued when the
// clinic never saved one.
func (s *Service) AISettings(ctx context.Context, clinicID uuid.UUID) (transport.AISettingsResponse, error) {
	settings, err := s.repo.GetAISettings(ctx, clinicID)
	if err != nil {
		return transport.AISettingsResponse{}, storeErr("get ai settings", err)
	}
	return toAISettingsResponse(settings), nil
}

func (s *Service) UpdateAISettings(ctx context.Context, clinicID uuid.UUID, req transport.UpdateAISettingsRequest) (transport.AISettingsResponse, error) {
	if _, err := s.repo.GetByID(ctx, clinicID); err != nil {
		return transport.AISettingsResponse{}, mapNotFound(err)
	}

	settings, err := s.repo.UpsertAISettings(ctx, repository.AISettings{
		ClinicID:             clinicID,
		ActiveForAllNewLeads: req.ActiveForAllNewLeads,
		ActiveForAdLeadsOnly: req.ActiveForAdLeadsOnly,
		PersonaPrompt:        req.PersonaPrompt,
		OperatingMode:        req.OperatingMode,
	})
	if err != nil {
		return transport.AISettingsResponse{}, storeErr("save ai settings", err)
	}
	return toAISettingsResponse(settings), nil
}

func (s *Service) BusinessHours(ctx context.Context, clinicID uuid.UUID) (transport.BusinessHoursResponse, error) {
	hours, err := s.repo.ListBusinessHours(ctx, clinicID)
	if err != nil {
		return transport.BusinessHoursResponse{}, storeErr("list business hours", err)
	}

	out := transport.BusinessHoursResponse{ClinicID: clinicID, Hours: make([]transport.BusinessHourEntry, len(hours))}
	for i, h := range hours {
		out.Hours[i] = transport.BusinessHourEntry{Weekday: h.Weekday, OpensAt: h.OpensAt, ClosesAt: h.ClosesAt}
	}
	return out, nil
}

func (s *Service) UpdateBusinessHours(ctx context.Context, clinicID uuid.UUID, req transport.UpdateBusinessHoursRequest) (transport.BusinessHoursResponse, error) {
	hours := make([]repository.BusinessHour, len(req.Hours))
	for i, entry := range req.Hours {
		opens, err := domain.ParseClock(entry.OpensAt)
		if err != nil {
			return transport.BusinessHoursResponse{}, apperr.Validation(err.Error())
		}
		closes, err := domain.ParseClock(entry.ClosesAt)
		if err != nil {
			return transport.BusinessHoursResponse{}, apperr.Validation(err.Error())
		}
		if closes <= opens {
			return transport.BusinessHoursResponse{}, apperr.Validation("closing time must be after opening time")
		}
		hours[i] = repository.BusinessHour{
			ClinicID: clinicID,
			Weekday:  entry.Weekday,
			OpensAt:  entry.OpensAt,
			ClosesAt: entry.ClosesAt,
		}
	}

	if err := s.repo.ReplaceBusinessHours(ctx, clinicID, hours); err != nil {
		return transport.BusinessHoursResponse{}, storeErr("save business hours", err)
	}

	return s.BusinessHours(ctx, clinicID)
}

// IsOpenAt reports whether t falls inside the clinic's business hours. It
// backs the appointments module's slot validation.
func (s *Service) IsOpenAt(ctx context.Context, clinicID uuid.UUID, t time.Time) (bool, error) {
	rows, err := s.repo.ListBusinessHours(ctx, clinicID)
	if err != nil {
		return false, storeErr("list business hours", err)
	}

	windows := make([]domain.OpeningWindow, 0, len(rows))
	for _, h := range rows {
		opens, err := domain.ParseClock(h.OpensAt)
		if err != nil {
			return false, apperr.Wrap(apperr.KindInternal, "stored business hours are malformed", err)
		}
		closes, err := domain.ParseClock(h.ClosesAt)
		if err != nil {
			return false, apperr.Wrap(apperr.KindInternal, "stored business hours are malformed", err)
		}
		windows = append(windows, domain.OpeningWindow{
			Weekday: time.Weekday(h.Weekday),
			Opens:   opens,
			Closes:  closes,
		})
	}

	return domain.IsOpen(windows, t), nil
}

// MessagingWebhookURL returns the clinic's outbound messaging endpoint, empty
// when none is configured.
func (s *Service) MessagingWebhookURL(ctx context.Context, clinicID uuid.UUID) (string, error) {
	clinic, err := s.repo.GetByID(ctx, clinicID)
	if err != nil {
		return "", mapNotFound(err)
	}
	if clinic.MessagingWebhookURL == nil {
		return "", nil
	}
	return *clinic.MessagingWebhookURL, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("clinic not found")
	}
	return storeErr("clinic lookup", err)
}

func storeErr(op string, err error) error {
	if appErr, ok := err.(*apperr.Error); ok {
		return appErr
	}
	return apperr.Wrap(apperr.KindUnavailable, "persistent store unavailable", err).WithOp(op)
}

func toClinicResponse(c repository.Clinic) transport.ClinicResponse {
	return transport.ClinicResponse{
		ID:                  c.ID,
		Name:                c.Name,
		MessagingWebhookURL: c.MessagingWebhookURL,
		EmailEnabled:        c.EmailEnabled,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

func toAISettingsResponse(s repository.AISettings) transport.AISettingsResponse {
	return transport.AISettingsResponse{
		ClinicID:             s.ClinicID,
		ActiveForAllNewLeads: s.ActiveForAllNewLeads,
		ActiveForAdLeadsOnly: s.ActiveForAdLeadsOnly,
		PersonaPrompt:        s.PersonaPrompt,
		OperatingMode:        s.OperatingMode,
		UpdatedAt:            s.UpdatedAt,
	}
}
