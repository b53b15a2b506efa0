// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"clinicportal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is created.
type LeadCreated struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	ClinicID uuid.UUID `json:"clinicId"`
	StageID  uuid.UUID `json:"stageId"`
	Origin   string    `json:"origin,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadUpdated is published when a lead row changes (stage move, contact info,
// AI toggle). Realtime subscribers merge it idempotently by lead ID.
type LeadUpdated struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	ClinicID uuid.UUID `json:"clinicId"`
}

func (e LeadUpdated) EventName() string { return "leads.lead.updated" }

// LeadAIActivationResolved is published the first time the resolver persists
// an AI-enabled decision for a lead.
type LeadAIActivationResolved struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	ClinicID uuid.UUID `json:"clinicId"`
	Enabled  bool      `json:"enabled"`
}

func (e LeadAIActivationResolved) EventName() string { return "leads.lead.ai_activation_resolved" }

// =============================================================================
// Pipeline Domain Events
// =============================================================================

// StageDeleted is published after a pipeline stage is removed, including the
// stage its leads were migrated to (nil when the stage was empty).
type StageDeleted struct {
	BaseEvent
	StageID       uuid.UUID  `json:"stageId"`
	ClinicID      uuid.UUID  `json:"clinicId"`
	TargetStageID *uuid.UUID `json:"targetStageId,omitempty"`
	MovedLeads    int        `json:"movedLeads"`
}

func (e StageDeleted) EventName() string { return "pipeline.stage.deleted" }

// StagesReordered is published after a successful drag-and-drop reorder.
type StagesReordered struct {
	BaseEvent
	ClinicID uuid.UUID   `json:"clinicId"`
	StageIDs []uuid.UUID `json:"stageIds"`
}

func (e StagesReordered) EventName() string { return "pipeline.stages.reordered" }

// =============================================================================
// Chat Domain Events
// =============================================================================

// MessageReceived is published when an inbound message from a lead arrives.
type MessageReceived struct {
	BaseEvent
	MessageID      uuid.UUID `json:"messageId"`
	ConversationID uuid.UUID `json:"conversationId"`
	LeadID         uuid.UUID `json:"leadId"`
	ClinicID       uuid.UUID `json:"clinicId"`
}

func (e MessageReceived) EventName() string { return "chat.message.received" }

// MessageSent is published after an outbound message was delivered to the
// clinic's messaging webhook.
type MessageSent struct {
	BaseEvent
	MessageID uuid.UUID `json:"messageId"`
	LeadID    uuid.UUID `json:"leadId"`
	ClinicID  uuid.UUID `json:"clinicId"`
}

func (e MessageSent) EventName() string { return "chat.message.sent" }

// =============================================================================
// Appointments Domain Events
// =============================================================================

// AppointmentBooked is published when an appointment is created.
type AppointmentBooked struct {
	BaseEvent
	AppointmentID uuid.UUID `json:"appointmentId"`
	LeadID        uuid.UUID `json:"leadId"`
	ClinicID      uuid.UUID `json:"clinicId"`
}

func (e AppointmentBooked) EventName() string { return "appointments.appointment.booked" }

// AppointmentCancelled is published when an appointment is cancelled.
type AppointmentCancelled struct {
	BaseEvent
	AppointmentID uuid.UUID `json:"appointmentId"`
	ClinicID      uuid.UUID `json:"clinicId"`
}

func (e AppointmentCancelled) EventName() string { return "appointments.appointment.cancelled" }

// AppointmentReminderDue is published by the worker when a scheduled
// reminder fires and the appointment is still on the calendar.
type AppointmentReminderDue struct {
	BaseEvent
	AppointmentID uuid.UUID `json:"appointmentId"`
	LeadID        uuid.UUID `json:"leadId"`
	ClinicID      uuid.UUID `json:"clinicId"`
	StartTime     time.Time `json:"startTime"`
}

func (e AppointmentReminderDue) EventName() string { return "appointments.reminder.due" }

// =============================================================================
// Reports Domain Events
// =============================================================================

// ReportCompleted is published when a report job finishes, successfully or not.
type ReportCompleted struct {
	BaseEvent
	JobID    uuid.UUID `json:"jobId"`
	ClinicID uuid.UUID `json:"clinicId"`
	Status   string    `json:"status"`
}

func (e ReportCompleted) EventName() string { return "reports.job.completed" }
