// Package auth provides the authentication bounded context module.
package auth

import (
	"clinicportal_backend/internal/auth/handler"
	"clinicportal_backend/internal/auth/repository"
	"clinicportal_backend/internal/auth/service"
	apphttp "clinicportal_backend/internal/http"
	"clinicportal_backend/platform/config"
	"clinicportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the auth module.
func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the auth service for external use (crmctl user creation).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts auth routes: login and token rotation are public,
// user provisioning is admin-only.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Public.Group("/auth"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/auth"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
