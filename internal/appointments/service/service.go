// Package service implements appointment booking against the clinic's
// business hours, with reminder scheduling through the task queue.
package service

import (
	"context"
	"errors"
	"time"

	"clinicportal_backend/internal/appointments/ports"
	"clinicportal_backend/internal/appointments/repository"
	"clinicportal_backend/internal/appointments/transport"
	"clinicportal_backend/internal/events"
	"clinicportal_backend/platform/apperr"
	"clinicportal_backend/platform/logger"
	"clinicportal_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Reminders fire this long before the appointment starts.
const reminderLead = time.Hour

// Store is the persistence surface for appointments.
type Store interface {
	Create(ctx context.Context, clinicID, leadID uuid.UUID, title string, notes *string, start, end time.Time) (repository.Appointment, error)
	GetByID(ctx context.Context, clinicID, id uuid.UUID) (repository.Appointment, error)
	ListRange(ctx context.Context, clinicID uuid.UUID, from, to time.Time) ([]repository.Appointment, error)
	SetStatus(ctx context.Context, clinicID, id uuid.UUID, status string) (repository.Appointment, error)
}

type Service struct {
	repo     Store
	isOpen   ports.BusinessHoursChecker
	schedule ports.ReminderScheduler
	bus      events.Bus
	log      *logger.Logger
}

func New(repo Store, isOpen ports.BusinessHoursChecker, schedule ports.ReminderScheduler,
	bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, isOpen: isOpen, schedule: schedule, bus: bus, log: log}
}

// Create books an appointment. Both endpoints of the slot must fall inside
// the clinic's business hours.
func (s *Service) Create(ctx context.Context, clinicID uuid.UUID, req transport.CreateAppointmentRequest) (transport.AppointmentResponse, error) {
	if !req.EndTime.After(req.StartTime) {
		return transport.AppointmentResponse{}, apperr.Validation("appointment must end after it starts")
	}
	if req.StartTime.Before(time.Now()) {
		return transport.AppointmentResponse{}, apperr.Validation("appointment must be in the future")
	}

	for _, at := range []time.Time{req.StartTime, req.EndTime.Add(-time.Minute)} {
		open, err := s.isOpen(ctx, clinicID, at)
		if err != nil {
			return transport.AppointmentResponse{}, err
		}
		if !open {
			return transport.AppointmentResponse{}, apperr.Validation("requested slot is outside the clinic's business hours")
		}
	}

	appt, err := s.repo.Create(ctx, clinicID, req.LeadID, sanitize.Text(req.Title),
		sanitize.TextPtr(req.Notes), req.StartTime, req.EndTime)
	if err != nil {
		return transport.AppointmentResponse{}, storeErr("create appointment", err)
	}

	if runAt := appt.StartTime.Add(-reminderLead); runAt.After(time.Now()) {
		if err := s.schedule(ctx, appt.ID, clinicID, runAt); err != nil {
			// Booking succeeded; a missed reminder is not worth failing it.
			s.log.Error("failed to schedule appointment reminder", "error", err, "appointmentId", appt.ID)
		}
	}

	s.bus.Publish(ctx, events.AppointmentBooked{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: appt.ID,
		LeadID:        appt.LeadID,
		ClinicID:      clinicID,
	})

	return toResponse(appt), nil
}

func (s *Service) GetByID(ctx context.Context, clinicID, id uuid.UUID) (transport.AppointmentResponse, error) {
	appt, err := s.repo.GetByID(ctx, clinicID, id)
	if err != nil {
		return transport.AppointmentResponse{}, mapNotFound(err)
	}
	return toResponse(appt), nil
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID, req transport.ListAppointmentsRequest) ([]transport.AppointmentResponse, error) {
	from, to := req.From, req.To
	if from.IsZero() {
		from = time.Now().AddDate(0, -1, 0)
	}
	if to.IsZero() {
		to = time.Now().AddDate(0, 3, 0)
	}

	appointments, err := s.repo.ListRange(ctx, clinicID, from, to)
	if err != nil {
		return nil, storeErr("list appointments", err)
	}

	out := make([]transport.AppointmentResponse, len(appointments))
	for i, a := range appointments {
		out[i] = toResponse(a)
	}
	return out, nil
}

// Cancel marks a scheduled appointment cancelled. Cancelling one that is
// already terminal fails with Conflict.
func (s *Service) Cancel(ctx context.Context, clinicID, id uuid.UUID) (transport.AppointmentResponse, error) {
	appt, err := s.repo.SetStatus(ctx, clinicID, id, repository.StatusCancelled)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Distinguish missing from already-terminal for a useful error.
			if _, getErr := s.repo.GetByID(ctx, clinicID, id); getErr == nil {
				return transport.AppointmentResponse{}, apperr.Conflict("appointment is no longer scheduled")
			}
			return transport.AppointmentResponse{}, apperr.NotFound("appointment not found")
		}
		return transport.AppointmentResponse{}, storeErr("cancel appointment", err)
	}

	s.bus.Publish(ctx, events.AppointmentCancelled{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: appt.ID,
		ClinicID:      clinicID,
	})

	return toResponse(appt), nil
}

func (s *Service) Complete(ctx context.Context, clinicID, id uuid.UUID) (transport.AppointmentResponse, error) {
	appt, err := s.repo.SetStatus(ctx, clinicID, id, repository.StatusCompleted)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if _, getErr := s.repo.GetByID(ctx, clinicID, id); getErr == nil {
				return transport.AppointmentResponse{}, apperr.Conflict("appointment is no longer scheduled")
			}
			return transport.AppointmentResponse{}, apperr.NotFound("appointment not found")
		}
		return transport.AppointmentResponse{}, storeErr("complete appointment", err)
	}
	return toResponse(appt), nil
}

// HandleReminderDue is the worker entry point for a fired reminder. A
// reminder for an appointment that was cancelled or completed in the
// meantime is dropped silently.
func (s *Service) HandleReminderDue(ctx context.Context, clinicID, appointmentID uuid.UUID) error {
	appt, err := s.repo.GetByID(ctx, clinicID, appointmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return storeErr("get appointment", err)
	}
	if appt.Status != repository.StatusScheduled {
		return nil
	}

	return s.bus.PublishSync(ctx, events.AppointmentReminderDue{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: appt.ID,
		LeadID:        appt.LeadID,
		ClinicID:      clinicID,
		StartTime:     appt.StartTime,
	})
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("appointment not found")
	}
	return storeErr("appointment lookup", err)
}

func storeErr(op string, err error) error {
	if appErr, ok := err.(*apperr.Error); ok {
		return appErr
	}
	return apperr.Wrap(apperr.KindUnavailable, "persistent store unavailable", err).WithOp(op)
}

func toResponse(a repository.Appointment) transport.AppointmentResponse {
	return transport.AppointmentResponse{
		ID:        a.ID,
		LeadID:    a.LeadID,
		Title:     a.Title,
		Notes:     a.Notes,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
