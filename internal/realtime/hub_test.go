package realtime

import (
	"context"
	"testing"

	"clinicportal_backend/internal/events"
	"clinicportal_backend/platform/logger"

	"github.com/google/uuid"
)

func TestBusEventsReachOnlyTheOwningClinic(t *testing.T) {
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	m := NewModule(bus, log)

	clinicA := uuid.New()
	clinicB := uuid.New()

	a := &client{clinicID: clinicA, events: make(chan Event, 4)}
	b := &client{clinicID: clinicB, events: make(chan Event, 4)}
	m.hub.addClient(a)
	m.hub.addClient(b)

	err := bus.PublishSync(context.Background(), events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    uuid.New(),
		ClinicID:  clinicA,
		StageID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-a.events:
		if got.Type != "leads.lead.created" {
			t.Fatalf("unexpected event type %s", got.Type)
		}
	default:
		t.Fatal("clinic A's client must receive its own event")
	}

	select {
	case got := <-b.events:
		t.Fatalf("clinic B must not see clinic A's event, got %s", got.Type)
	default:
	}
}

func TestSlowClientDoesNotBlockBroadcast(t *testing.T) {
	log := logger.New("development")
	hub := NewHub(log)
	clinicID := uuid.New()

	slow := &client{clinicID: clinicID, events: make(chan Event, 1)}
	hub.addClient(slow)

	// Second broadcast overflows the buffer and must be dropped, not block.
	hub.Broadcast(clinicID, Event{Type: "leads.lead.updated"})
	hub.Broadcast(clinicID, Event{Type: "leads.lead.updated"})

	if len(slow.events) != 1 {
		t.Fatalf("expected exactly the buffered event, got %d", len(slow.events))
	}
}
