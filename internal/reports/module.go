// Package reports provides the report generation bounded context module.
package reports

import (
	"clinicportal_backend/internal/email"
	"clinicportal_backend/internal/events"
	apphttp "clinicportal_backend/internal/http"
	"clinicportal_backend/internal/reports/handler"
	"clinicportal_backend/internal/reports/ports"
	"clinicportal_backend/internal/reports/repository"
	"clinicportal_backend/internal/reports/service"
	"clinicportal_backend/platform/logger"
	"clinicportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the reports bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the reports module. Funnel statistics,
// clinic info, and job enqueueing cross bounded contexts and arrive as ports.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger,
	artifacts service.ArtifactStore, funnel ports.FunnelStatsReader,
	clinicInfo ports.ClinicInfoReader, enqueue ports.JobEnqueuer, mail email.Sender) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, artifacts, funnel, clinicInfo, enqueue, mail, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "reports"
}

// Service exposes the reports service to the generation worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts report routes on the protected group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/reports"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
