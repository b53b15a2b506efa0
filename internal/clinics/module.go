// Package clinics provides the tenant bounded context module: clinic records,
// AI assistant settings, and business hours.
package clinics

import (
	"clinicportal_backend/internal/clinics/handler"
	"clinicportal_backend/internal/clinics/ports"
	"clinicportal_backend/internal/clinics/repository"
	"clinicportal_backend/internal/clinics/service"
	apphttp "clinicportal_backend/internal/http"
	"clinicportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the clinics bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the clinics module. Stage seeding crosses
// into the pipeline bounded context, so it arrives as a port.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, seedStages ports.StageSeeder, stageTemplatePath string) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, seedStages, stageTemplatePath)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "clinics"
}

// Service exposes the clinic service to sibling modules (AI settings for the
// lead resolver, business hours for appointments, webhook URL for chat).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts clinic routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/clinic"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/clinics"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
