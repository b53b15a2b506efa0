package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"clinicportal_backend/internal/chat/repository"
	"clinicportal_backend/internal/chat/transport"
	"clinicportal_backend/internal/chat/webhook"
	"clinicportal_backend/internal/events"
	"clinicportal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	conversations map[uuid.UUID]*repository.Conversation
	messages      map[uuid.UUID]*repository.Message
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: make(map[uuid.UUID]*repository.Conversation),
		messages:      make(map[uuid.UUID]*repository.Message),
	}
}

func (f *fakeStore) GetOrCreateConversation(_ context.Context, clinicID, leadID uuid.UUID) (repository.Conversation, error) {
	for _, c := range f.conversations {
		if c.ClinicID == clinicID && c.LeadID == leadID {
			return *c, nil
		}
	}
	c := &repository.Conversation{ID: uuid.New(), ClinicID: clinicID, LeadID: leadID, CreatedAt: time.Now(), LastMessageAt: time.Now()}
	f.conversations[c.ID] = c
	return *c, nil
}

func (f *fakeStore) GetConversation(_ context.Context, clinicID, id uuid.UUID) (repository.Conversation, error) {
	c, ok := f.conversations[id]
	if !ok || c.ClinicID != clinicID {
		return repository.Conversation{}, repository.ErrNotFound
	}
	return *c, nil
}

func (f *fakeStore) ListConversations(_ context.Context, clinicID uuid.UUID) ([]repository.Conversation, error) {
	out := make([]repository.Conversation, 0)
	for _, c := range f.conversations {
		if c.ClinicID == clinicID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertMessage(_ context.Context, conversationID, clinicID uuid.UUID, direction, body, status string) (repository.Message, error) {
	m := &repository.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		ClinicID:       clinicID,
		Direction:      direction,
		Body:           body,
		Status:         status,
		CreatedAt:      time.Now(),
	}
	f.messages[m.ID] = m
	return *m, nil
}

func (f *fakeStore) GetMessage(_ context.Context, id uuid.UUID) (repository.Message, error) {
	m, ok := f.messages[id]
	if !ok {
		return repository.Message{}, repository.ErrNotFound
	}
	return *m, nil
}

func (f *fakeStore) ListMessages(_ context.Context, clinicID, conversationID uuid.UUID, _ int) ([]repository.Message, error) {
	out := make([]repository.Message, 0)
	for _, m := range f.messages {
		if m.ClinicID == clinicID && m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkSent(_ context.Context, id uuid.UUID) error {
	if m, ok := f.messages[id]; ok && m.Status != repository.StatusSent {
		now := time.Now()
		m.Status = repository.StatusSent
		m.SentAt = &now
	}
	return nil
}

func (f *fakeStore) MarkFailed(_ context.Context, id uuid.UUID, lastError string) error {
	if m, ok := f.messages[id]; ok && m.Status != repository.StatusSent {
		m.Status = repository.StatusFailed
		m.LastError = &lastError
	}
	return nil
}

func newTestService(t *testing.T, store *fakeStore, webhookTarget string) (*Service, *uuid.UUID) {
	t.Helper()
	log := logger.New("development")
	var dispatched uuid.UUID

	svc := New(
		store,
		func(_ context.Context, _ uuid.UUID) (string, error) { return webhookTarget, nil },
		func(_ context.Context, _, _ uuid.UUID) (string, error) { return "+5511999990000", nil },
		func(_ context.Context, messageID uuid.UUID) error { dispatched = messageID; return nil },
		webhook.NewClient(log),
		events.NewInMemoryBus(log),
		log,
	)
	return svc, &dispatched
}

func TestSendStoresPendingAndDispatches(t *testing.T) {
	store := newFakeStore()
	svc, dispatched := newTestService(t, store, "http://unused.invalid")

	clinicID, leadID := uuid.New(), uuid.New()
	msg, err := svc.Send(context.Background(), clinicID, leadID, transport.SendMessageRequest{Body: "Olá!"})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if msg.Status != repository.StatusPending {
		t.Fatalf("outbound message must start pending, got %s", msg.Status)
	}
	if *dispatched != msg.ID {
		t.Fatal("send must enqueue delivery of the stored message")
	}
}

func TestDeliverOutboundMarksSentOnce(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := newFakeStore()
	svc, _ := newTestService(t, store, server.URL)

	clinicID, leadID := uuid.New(), uuid.New()
	msg, err := svc.Send(context.Background(), clinicID, leadID, transport.SendMessageRequest{Body: "Olá!"})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeliverOutbound(context.Background(), msg.ID); err != nil {
		t.Fatalf("delivery failed: %v", err)
	}
	if store.messages[msg.ID].Status != repository.StatusSent {
		t.Fatal("message must be marked sent after delivery")
	}

	// A retried task sees the sent status and does not POST again.
	if err := svc.DeliverOutbound(context.Background(), msg.ID); err != nil {
		t.Fatalf("redelivery must be a no-op, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("webhook must be hit exactly once, got %d", hits.Load())
	}
}

func TestDeliverOutboundMarksFailureAndStaysRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "downstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	store := newFakeStore()
	svc, _ := newTestService(t, store, server.URL)

	clinicID, leadID := uuid.New(), uuid.New()
	msg, err := svc.Send(context.Background(), clinicID, leadID, transport.SendMessageRequest{Body: "Olá!"})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeliverOutbound(context.Background(), msg.ID); err == nil {
		t.Fatal("delivery against a failing webhook must return an error")
	}
	stored := store.messages[msg.ID]
	if stored.Status != repository.StatusFailed || stored.LastError == nil {
		t.Fatalf("message must record the failure, got status %s", stored.Status)
	}
}

func TestDeliverOutboundWithoutWebhookFailsTheMessage(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(t, store, "")

	clinicID, leadID := uuid.New(), uuid.New()
	msg, err := svc.Send(context.Background(), clinicID, leadID, transport.SendMessageRequest{Body: "Olá!"})
	if err != nil {
		t.Fatal(err)
	}

	// No endpoint configured: the task must not error forever, the message is
	// failed with a reason instead.
	if err := svc.DeliverOutbound(context.Background(), msg.ID); err != nil {
		t.Fatalf("expected no task error, got %v", err)
	}
	if store.messages[msg.ID].Status != repository.StatusFailed {
		t.Fatal("message must be marked failed when no webhook is configured")
	}
}

func TestReceiveInboundStoresMessage(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(t, store, "")

	clinicID, leadID := uuid.New(), uuid.New()
	msg, err := svc.ReceiveInbound(context.Background(), clinicID, transport.InboundMessageRequest{
		LeadID: leadID,
		Body:   "Quero agendar uma consulta",
	})
	if err != nil {
		t.Fatalf("inbound receive failed: %v", err)
	}
	if msg.Direction != repository.DirectionInbound || msg.Status != repository.StatusReceived {
		t.Fatalf("unexpected inbound message state: %s/%s", msg.Direction, msg.Status)
	}
}
