package realtime

import (
	"context"

	"clinicportal_backend/internal/events"
	apphttp "clinicportal_backend/internal/http"
	"clinicportal_backend/platform/logger"

	"github.com/google/uuid"
)

// Module bridges the in-process event bus to per-clinic SSE streams.
type Module struct {
	hub *Hub
}

// feedEvents are the domain events forwarded to connected clients.
var feedEvents = []string{
	"leads.lead.created",
	"leads.lead.updated",
	"leads.lead.ai_activation_resolved",
	"pipeline.stage.deleted",
	"pipeline.stages.reordered",
	"chat.message.received",
	"chat.message.sent",
	"appointments.appointment.booked",
	"appointments.appointment.cancelled",
	"appointments.reminder.due",
	"reports.job.completed",
}

// NewModule creates the realtime module and subscribes it to the bus.
func NewModule(bus events.Bus, log *logger.Logger) *Module {
	m := &Module{hub: NewHub(log)}

	forward := events.HandlerFunc(func(_ context.Context, e events.Event) error {
		clinicID, ok := clinicOf(e)
		if !ok {
			return nil
		}
		m.hub.Broadcast(clinicID, Event{Type: e.EventName(), Data: e})
		return nil
	})
	for _, name := range feedEvents {
		bus.Subscribe(name, forward)
	}

	return m
}

// clinicOf extracts the tenant an event belongs to. Events without a clinic
// are not forwarded; each stream only ever sees its own clinic's rows.
func clinicOf(e events.Event) (uuid.UUID, bool) {
	switch ev := e.(type) {
	case events.LeadCreated:
		return ev.ClinicID, true
	case events.LeadUpdated:
		return ev.ClinicID, true
	case events.LeadAIActivationResolved:
		return ev.ClinicID, true
	case events.StageDeleted:
		return ev.ClinicID, true
	case events.StagesReordered:
		return ev.ClinicID, true
	case events.MessageReceived:
		return ev.ClinicID, true
	case events.MessageSent:
		return ev.ClinicID, true
	case events.AppointmentBooked:
		return ev.ClinicID, true
	case events.AppointmentCancelled:
		return ev.ClinicID, true
	case events.AppointmentReminderDue:
		return ev.ClinicID, true
	case events.ReportCompleted:
		return ev.ClinicID, true
	}
	return uuid.Nil, false
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "realtime"
}

// Hub exposes the SSE hub for shutdown.
func (m *Module) Hub() *Hub {
	return m.hub
}

// RegisterRoutes mounts the SSE stream on the protected group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/realtime/stream", m.hub.Handler())
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
