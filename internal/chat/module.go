// Package chat provides the messaging bounded context module.
package chat

import (
	"clinicportal_backend/internal/chat/handler"
	"clinicportal_backend/internal/chat/ports"
	"clinicportal_backend/internal/chat/repository"
	"clinicportal_backend/internal/chat/service"
	"clinicportal_backend/internal/chat/webhook"
	"clinicportal_backend/internal/events"
	apphttp "clinicportal_backend/internal/http"
	"clinicportal_backend/platform/logger"
	"clinicportal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the chat bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the chat module. Webhook URL, lead
// contact, and delivery dispatch cross bounded contexts and arrive as ports.
func NewModule(pool *pgxpool.Pool, bus events.Bus, val *validator.Validator, log *logger.Logger,
	webhookURL ports.WebhookURLReader, leadContact ports.LeadContactReader, dispatch ports.MessageDispatcher) *Module {
	repo := repository.New(pool)
	client := webhook.NewClient(log)
	svc := service.New(repo, webhookURL, leadContact, dispatch, client, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "chat"
}

// Service exposes the chat service to the delivery worker.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts chat routes; the inbound webhook is public.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/chat"))
	m.handler.RegisterWebhookRoutes(ctx.Public.Group("/webhooks"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
