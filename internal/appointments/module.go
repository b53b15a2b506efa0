// Package appointments provides the scheduling bounded context module.
package appointments

import (
	"clinicportal_backend/internal/appointments/handler"
	"clinicportal_backend/internal/appointments/ports"
	"clinicportal_backend/internal/appointments/repository"
	"clinicportal_backend/internal/appointments/service"
	"clinicportal_backend/internal/events"
	apphttp "clinicportal_backend/internal/http"
	"clinicportal_backend/platform/logger"
	"clinicportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the appointments bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the appointments module. Business hours
// and reminder scheduling cross bounded contexts and arrive as ports.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger,
	isOpen ports.BusinessHoursChecker, schedule ports.ReminderScheduler) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, isOpen, schedule, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "appointments"
}

// Service exposes the appointments service to the reminder worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts appointment routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/appointments"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
