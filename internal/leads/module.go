// Package leads provides the lead management bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"clinicportal_backend/internal/events"
	apphttp "clinicportal_backend/internal/http"
	"clinicportal_backend/internal/leads/handler"
	"clinicportal_backend/internal/leads/ports"
	"clinicportal_backend/internal/leads/repository"
	"clinicportal_backend/internal/leads/service"
	"clinicportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
// Settings and default-stage lookups cross bounded contexts, so they arrive as
// ports rather than direct imports.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, settings ports.ClinicAISettingsReader, defaultStage ports.DefaultStageResolver) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, settings, defaultStage, bus)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for external use (admin tooling, pipeline).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository exposes the lead repository to sibling modules that need the
// lead-migration primitives (pipeline stage deletion).
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
