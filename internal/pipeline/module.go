// Package pipeline provides the kanban stage bounded context module.
package pipeline

import (
	"context"

	"clinicportal_backend/internal/events"
	apphttp "clinicportal_backend/internal/http"
	"clinicportal_backend/internal/pipeline/handler"
	"clinicportal_backend/internal/pipeline/repository"
	"clinicportal_backend/internal/pipeline/service"
	"clinicportal_backend/internal/pipeline/transport"
	"clinicportal_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the pipeline bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the pipeline module. The lead mover
// crosses into the leads bounded context; the leads module supplies its
// repository for it.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, leads service.LeadMover) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leads, bus)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "pipeline"
}

// Service returns the stage service for external use (admin tooling, seeding).
func (m *Module) Service() *service.Service {
	return m.service
}

// DefaultStageResolver adapts the repository's first-stage lookup into the
// port shape the leads module consumes.
func (m *Module) DefaultStageResolver() func(ctx context.Context, clinicID uuid.UUID) (uuid.UUID, error) {
	return func(ctx context.Context, clinicID uuid.UUID) (uuid.UUID, error) {
		stage, err := m.repo.FirstStage(ctx, clinicID)
		if err != nil {
			return uuid.Nil, err
		}
		return stage.ID, nil
	}
}

// StageSeeder adapts stage creation into the port the clinics module calls
// when provisioning a tenant.
func (m *Module) StageSeeder() func(ctx context.Context, clinicID uuid.UUID, names []string) error {
	return func(ctx context.Context, clinicID uuid.UUID, names []string) error {
		for _, name := range names {
			if _, err := m.service.Create(ctx, clinicID, transport.CreateStageRequest{Name: name}); err != nil {
				return err
			}
		}
		return nil
	}
}

// RegisterRoutes mounts pipeline routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	stagesGroup := ctx.Protected.Group("/stages")
	m.handler.RegisterRoutes(stagesGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
