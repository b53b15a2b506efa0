// Package service implements lead management: CRUD, kanban placement, and the
// one-time AI conversation activation resolver.
package service

import (
	"context"
	"errors"
	"sync/atomic"

	"clinicportal_backend/internal/events"
	"clinicportal_backend/internal/leads/domain"
	"clinicportal_backend/internal/leads/ports"
	"clinicportal_backend/internal/leads/repository"
	"clinicportal_backend/internal/leads/transport"
	"clinicportal_backend/platform/apperr"
	"clinicportal_backend/platform/phone"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence surface the service needs. *repository.Repository
// implements it; tests substitute an in-memory fake.
type Store interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (repository.Lead, error)
	Update(ctx context.Context, clinicID, id uuid.UUID, params repository.UpdateLeadParams) (repository.Lead, error)
	Delete(ctx context.Context, clinicID, id uuid.UUID) error
	List(ctx context.Context, clinicID uuid.UUID, params repository.ListParams) ([]repository.Lead, int, error)
	ListByStage(ctx context.Context, clinicID, stageID uuid.UUID) ([]repository.Lead, error)
	ListUnresolvedAI(ctx context.Context, clinicID uuid.UUID) ([]repository.Lead, error)
	MoveToStage(ctx context.Context, clinicID, id, stageID uuid.UUID) (repository.Lead, error)
	SetAIEnabled(ctx context.Context, clinicID, id uuid.UUID, enabled bool, onlyIfNull bool) (bool, error)
}

type Service struct {
	repo         Store
	settings     ports.ClinicAISettingsReader
	defaultStage ports.DefaultStageResolver
	bus          events.Bus
}

func New(repo Store, settings ports.ClinicAISettingsReader, defaultStage ports.DefaultStageResolver, bus events.Bus) *Service {
	return &Service{
		repo:         repo,
		settings:     settings,
		defaultStage: defaultStage,
		bus:          bus,
	}
}

func (s *Service) Create(ctx context.Context, clinicID uuid.UUID, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	stageID := uuid.Nil
	if req.StageID != nil {
		stageID = *req.StageID
	} else {
		resolved, err := s.defaultStage(ctx, clinicID)
		if err != nil {
			return transport.LeadResponse{}, apperr.Wrap(apperr.KindValidation, "clinic has no pipeline stages", err)
		}
		stageID = resolved
	}

	params := repository.CreateLeadParams{
		ClinicID: clinicID,
		Name:     req.Name,
		Phone:    phone.NormalizeE164(req.Phone),
		StageID:  stageID,
	}
	if req.Email != "" {
		params.Email = &req.Email
	}
	if req.Origin != "" {
		params.Origin = &req.Origin
	}

	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, storeErr("create lead", err)
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		ClinicID:  clinicID,
		StageID:   lead.StageID,
		Origin:    req.Origin,
	})

	// Resolve the AI default eagerly; a failure here is not fatal to the
	// create, resolution re-runs on first read.
	if _, err := s.ResolveAIActivation(ctx, clinicID, lead.ID); err == nil {
		lead, _ = s.repo.GetByID(ctx, clinicID, lead.ID)
	}

	return toLeadResponse(lead), nil
}

func (s *Service) GetByID(ctx context.Context, clinicID, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, clinicID, id)
	if err != nil {
		return transport.LeadResponse{}, mapNotFound(err)
	}

	if lead.AIConversationEnabled == nil {
		if _, err := s.ResolveAIActivation(ctx, clinicID, id); err == nil {
			if refreshed, err := s.repo.GetByID(ctx, clinicID, id); err == nil {
				lead = refreshed
			}
		}
	}

	return toLeadResponse(lead), nil
}

func (s *Service) Update(ctx context.Context, clinicID, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	params := repository.UpdateLeadParams{
		Name:   req.Name,
		Email:  req.Email,
		Origin: req.Origin,
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}

	lead, err := s.repo.Update(ctx, clinicID, id, params)
	if err != nil {
		return transport.LeadResponse{}, mapNotFound(err)
	}

	s.publishLeadUpdated(ctx, clinicID, id)
	return toLeadResponse(lead), nil
}

func (s *Service) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, clinicID, id); err != nil {
		return mapNotFound(err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	leads, total, err := s.repo.List(ctx, clinicID, repository.ListParams{
		Search: req.Search,
		Offset: (req.Page - 1) * req.PageSize,
		Limit:  req.PageSize,
	})
	if err != nil {
		return transport.LeadListResponse{}, storeErr("list leads", err)
	}

	items := make([]transport.LeadResponse, len(leads))
	for i, lead := range leads {
		items[i] = toLeadResponse(lead)
	}

	return transport.LeadListResponse{
		Items:      items,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: (total + req.PageSize - 1) / req.PageSize,
	}, nil
}

func (s *Service) ListByStage(ctx context.Context, clinicID, stageID uuid.UUID) ([]transport.LeadResponse, error) {
	leads, err := s.repo.ListByStage(ctx, clinicID, stageID)
	if err != nil {
		return nil, storeErr("list leads by stage", err)
	}

	items := make([]transport.LeadResponse, len(leads))
	for i, lead := range leads {
		items[i] = toLeadResponse(lead)
	}
	return items, nil
}

func (s *Service) MoveToStage(ctx context.Context, clinicID, id, stageID uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.MoveToStage(ctx, clinicID, id, stageID)
	if err != nil {
		return transport.LeadResponse{}, mapNotFound(err)
	}

	s.publishLeadUpdated(ctx, clinicID, id)
	return toLeadResponse(lead), nil
}

// ResolveAIActivation decides whether AI auto-responses are enabled for the
// lead, persisting the decision at most once. The stored value is sticky:
// once non-null the resolver returns it unchanged and performs no writes.
func (s *Service) ResolveAIActivation(ctx context.Context, clinicID, leadID uuid.UUID) (bool, error) {
	lead, err := s.repo.GetByID(ctx, clinicID, leadID)
	if err != nil {
		return false, mapNotFound(err)
	}

	decision := domain.ResolveAIActivation(lead.AIConversationEnabled, lead.Origin, s.loadSettings(ctx, clinicID))
	if !decision.Persist {
		return decision.Enabled, nil
	}

	wrote, err := s.repo.SetAIEnabled(ctx, clinicID, leadID, decision.Enabled, true)
	if err != nil {
		return false, storeErr("persist ai activation", err)
	}

	if !wrote {
		// Lost the conditional write: a manual toggle or a concurrent
		// resolution got there first. The stored value wins.
		current, err := s.repo.GetByID(ctx, clinicID, leadID)
		if err == nil && current.AIConversationEnabled != nil {
			return *current.AIConversationEnabled, nil
		}
		return decision.Enabled, nil
	}

	s.bus.Publish(ctx, events.LeadAIActivationResolved{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		ClinicID:  clinicID,
		Enabled:   decision.Enabled,
	})

	return decision.Enabled, nil
}

// SetAIConversation is the explicit user override. It always writes,
// regardless of how the current value was arrived at, and is idempotent.
func (s *Service) SetAIConversation(ctx context.Context, clinicID, leadID uuid.UUID, enabled bool) error {
	wrote, err := s.repo.SetAIEnabled(ctx, clinicID, leadID, enabled, false)
	if err != nil {
		return storeErr("set ai conversation", err)
	}
	if !wrote {
		return apperr.NotFound("lead not found")
	}

	s.publishLeadUpdated(ctx, clinicID, leadID)
	return nil
}

// ToggleAIConversation flips the current effective value and persists the
// negation. Each call inverts state; it is intentionally not idempotent.
func (s *Service) ToggleAIConversation(ctx context.Context, clinicID, leadID uuid.UUID) (bool, error) {
	effective, err := s.ResolveAIActivation(ctx, clinicID, leadID)
	if err != nil {
		return false, err
	}

	next := !effective
	if err := s.SetAIConversation(ctx, clinicID, leadID, next); err != nil {
		return false, err
	}
	return next, nil
}

// ResolveUnresolved re-runs the resolver over every lead whose AI activation
// is still null, e.g. after clinic settings were configured late. Returns how
// many leads got a persisted decision.
//
// Leads resolve independently, so the batch runs with bounded concurrency.
// Each write is the same conditional update the single-lead path uses, which
// keeps the batch safe against concurrent manual toggles.
func (s *Service) ResolveUnresolved(ctx context.Context, clinicID uuid.UUID) (int, error) {
	leads, err := s.repo.ListUnresolvedAI(ctx, clinicID)
	if err != nil {
		return 0, storeErr("list unresolved leads", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	var resolved atomic.Int64
	for _, lead := range leads {
		leadID := lead.ID
		g.Go(func() error {
			if _, err := s.ResolveAIActivation(gctx, clinicID, leadID); err != nil {
				return err
			}
			resolved.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(resolved.Load()), err
	}
	return int(resolved.Load()), nil
}

func (s *Service) loadSettings(ctx context.Context, clinicID uuid.UUID) *domain.AISettings {
	if s.settings == nil {
		return nil
	}
	settings, err := s.settings(ctx, clinicID)
	if err != nil {
		// Unavailable settings fail safe: resolve to disabled, persist nothing.
		return nil
	}
	return &settings
}

func (s *Service) publishLeadUpdated(ctx context.Context, clinicID, leadID uuid.UUID) {
	s.bus.Publish(ctx, events.LeadUpdated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		ClinicID:  clinicID,
	})
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("lead not found")
	}
	return storeErr("lead lookup", err)
}

func storeErr(op string, err error) error {
	if appErr, ok := err.(*apperr.Error); ok {
		return appErr
	}
	return apperr.Wrap(apperr.KindUnavailable, "persistent store unavailable", err).WithOp(op)
}

func toLeadResponse(lead repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:                    lead.ID,
		ClinicID:              lead.ClinicID,
		Name:                  lead.Name,
		Phone:                 lead.Phone,
		Email:                 lead.Email,
		Origin:                lead.Origin,
		AIConversationEnabled: lead.AIConversationEnabled,
		StageID:               lead.StageID,
		LastContactAt:         lead.LastContactAt,
		CreatedAt:             lead.CreatedAt,
		UpdatedAt:             lead.UpdatedAt,
	}
}
