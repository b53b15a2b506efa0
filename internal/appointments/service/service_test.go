package service

import (
	"context"
	"testing"
	"time"

	"clinicportal_backend/internal/appointments/repository"
	"clinicportal_backend/internal/appointments/transport"
	"clinicportal_backend/internal/events"
	"clinicportal_backend/platform/apperr"
	"clinicportal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	appointments map[uuid.UUID]*repository.Appointment
}

func newFakeStore() *fakeStore {
	return &fakeStore{appointments: make(map[uuid.UUID]*repository.Appointment)}
}

func (f *fakeStore) Create(_ context.Context, clinicID, leadID uuid.UUID, title string, notes *string, start, end time.Time) (repository.Appointment, error) {
	a := &repository.Appointment{
		ID:        uuid.New(),
		ClinicID:  clinicID,
		LeadID:    leadID,
		Title:     title,
		Notes:     notes,
		StartTime: start,
		EndTime:   end,
		Status:    repository.StatusScheduled,
	}
	f.appointments[a.ID] = a
	return *a, nil
}

func (f *fakeStore) GetByID(_ context.Context, clinicID, id uuid.UUID) (repository.Appointment, error) {
	a, ok := f.appointments[id]
	if !ok || a.ClinicID != clinicID {
		return repository.Appointment{}, repository.ErrNotFound
	}
	return *a, nil
}

func (f *fakeStore) ListRange(_ context.Context, clinicID uuid.UUID, from, to time.Time) ([]repository.Appointment, error) {
	out := make([]repository.Appointment, 0)
	for _, a := range f.appointments {
		if a.ClinicID == clinicID && a.StartTime.Before(to) && a.EndTime.After(from) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) SetStatus(_ context.Context, clinicID, id uuid.UUID, status string) (repository.Appointment, error) {
	a, ok := f.appointments[id]
	if !ok || a.ClinicID != clinicID || a.Status != repository.StatusScheduled {
		return repository.Appointment{}, repository.ErrNotFound
	}
	a.Status = status
	return *a, nil
}

type reminderCall struct {
	appointmentID uuid.UUID
	runAt         time.Time
}

func newTestService(store *fakeStore, open bool) (*Service, *[]reminderCall) {
	log := logger.New("development")
	calls := &[]reminderCall{}
	svc := New(
		store,
		func(_ context.Context, _ uuid.UUID, _ time.Time) (bool, error) { return open, nil },
		func(_ context.Context, appointmentID, _ uuid.UUID, runAt time.Time) error {
			*calls = append(*calls, reminderCall{appointmentID, runAt})
			return nil
		},
		events.NewInMemoryBus(log),
		log,
	)
	return svc, calls
}

func validRequest() transport.CreateAppointmentRequest {
	start := time.Now().Add(48 * time.Hour)
	return transport.CreateAppointmentRequest{
		LeadID:    uuid.New(),
		Title:     "Avaliação inicial",
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	}
}

func TestCreateSchedulesReminder(t *testing.T) {
	store := newFakeStore()
	svc, reminders := newTestService(store, true)

	req := validRequest()
	appt, err := svc.Create(context.Background(), uuid.New(), req)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if appt.Status != repository.StatusScheduled {
		t.Fatalf("new appointment must be scheduled, got %s", appt.Status)
	}

	if len(*reminders) != 1 {
		t.Fatalf("expected one reminder, got %d", len(*reminders))
	}
	wantRunAt := req.StartTime.Add(-reminderLead)
	if !(*reminders)[0].runAt.Equal(wantRunAt) {
		t.Fatalf("reminder at %v, want %v", (*reminders)[0].runAt, wantRunAt)
	}
}

func TestCreateRejectsClosedSlot(t *testing.T) {
	svc, reminders := newTestService(newFakeStore(), false)

	_, err := svc.Create(context.Background(), uuid.New(), validRequest())
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(*reminders) != 0 {
		t.Fatal("no reminder may be scheduled for a rejected booking")
	}
}

func TestCreateRejectsInvertedSlot(t *testing.T) {
	svc, _ := newTestService(newFakeStore(), true)

	req := validRequest()
	req.EndTime = req.StartTime.Add(-time.Minute)

	if _, err := svc.Create(context.Background(), uuid.New(), req); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCancelIsTerminal(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, true)

	clinicID := uuid.New()
	appt, err := svc.Create(context.Background(), clinicID, validRequest())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Cancel(context.Background(), clinicID, appt.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if _, err := svc.Cancel(context.Background(), clinicID, appt.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second cancel must conflict, got %v", err)
	}
	if _, err := svc.Complete(context.Background(), clinicID, appt.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("completing a cancelled appointment must conflict, got %v", err)
	}
}

func TestReminderForCancelledAppointmentIsDropped(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, true)

	clinicID := uuid.New()
	appt, err := svc.Create(context.Background(), clinicID, validRequest())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Cancel(context.Background(), clinicID, appt.ID); err != nil {
		t.Fatal(err)
	}

	if err := svc.HandleReminderDue(context.Background(), clinicID, appt.ID); err != nil {
		t.Fatalf("reminder for a cancelled appointment must be dropped, got %v", err)
	}
}
