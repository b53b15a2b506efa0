// Package service implements chat messaging between a clinic and its leads.
// Outbound messages are written pending and delivered asynchronously; the
// delivery worker re-enters the service through DeliverOutbound.
package service

import (
	"context"
	"errors"

	"clinicportal_backend/internal/chat/ports"
	"clinicportal_backend/internal/chat/repository"
	"clinicportal_backend/internal/chat/transport"
	"clinicportal_backend/internal/chat/webhook"
	"clinicportal_backend/internal/events"
	"clinicportal_backend/platform/apperr"
	"clinicportal_backend/platform/logger"
	"clinicportal_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Store is the persistence surface for conversations and messages.
type Store interface {
	GetOrCreateConversation(ctx context.Context, clinicID, leadID uuid.UUID) (repository.Conversation, error)
	GetConversation(ctx context.Context, clinicID, id uuid.UUID) (repository.Conversation, error)
	ListConversations(ctx context.Context, clinicID uuid.UUID) ([]repository.Conversation, error)
	InsertMessage(ctx context.Context, conversationID, clinicID uuid.UUID, direction, body, status string) (repository.Message, error)
	GetMessage(ctx context.Context, id uuid.UUID) (repository.Message, error)
	ListMessages(ctx context.Context, clinicID, conversationID uuid.UUID, limit int) ([]repository.Message, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
}

type Service struct {
	repo        Store
	webhookURL  ports.WebhookURLReader
	leadContact ports.LeadContactReader
	dispatch    ports.MessageDispatcher
	client      *webhook.Client
	bus         events.Bus
	log         *logger.Logger
}

func New(repo Store, webhookURL ports.WebhookURLReader, leadContact ports.LeadContactReader,
	dispatch ports.MessageDispatcher, client *webhook.Client, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		webhookURL:  webhookURL,
		leadContact: leadContact,
		dispatch:    dispatch,
		client:      client,
		bus:         bus,
		log:         log,
	}
}

func (s *Service) ListConversations(ctx context.Context, clinicID uuid.UUID) ([]transport.ConversationResponse, error) {
	conversations, err := s.repo.ListConversations(ctx, clinicID)
	if err != nil {
		return nil, storeErr("list conversations", err)
	}

	out := make([]transport.ConversationResponse, len(conversations))
	for i, c := range conversations {
		out[i] = toConversationResponse(c)
	}
	return out, nil
}

func (s *Service) ListMessages(ctx context.Context, clinicID, conversationID uuid.UUID, limit int) ([]transport.MessageResponse, error) {
	if _, err := s.repo.GetConversation(ctx, clinicID, conversationID); err != nil {
		return nil, mapNotFound(err, "conversation not found")
	}

	messages, err := s.repo.ListMessages(ctx, clinicID, conversationID, limit)
	if err != nil {
		return nil, storeErr("list messages", err)
	}

	out := make([]transport.MessageResponse, len(messages))
	for i, m := range messages {
		out[i] = toMessageResponse(m)
	}
	return out, nil
}

// Send stores an outbound message and schedules its delivery. The message is
// visible to the clinic immediately with a pending status.
func (s *Service) Send(ctx context.Context, clinicID, leadID uuid.UUID, req transport.SendMessageRequest) (transport.MessageResponse, error) {
	conversation, err := s.repo.GetOrCreateConversation(ctx, clinicID, leadID)
	if err != nil {
		return transport.MessageResponse{}, storeErr("open conversation", err)
	}

	msg, err := s.repo.InsertMessage(ctx, conversation.ID, clinicID,
		repository.DirectionOutbound, req.Body, repository.StatusPending)
	if err != nil {
		return transport.MessageResponse{}, storeErr("insert message", err)
	}

	if err := s.dispatch(ctx, msg.ID); err != nil {
		// The row stays pending; a requeue sweep or manual retry picks it up.
		s.log.Error("failed to enqueue message delivery", "error", err, "messageId", msg.ID)
	}

	return toMessageResponse(msg), nil
}

// ReceiveInbound records a lead's reply and notifies subscribers. The body
// arrives from an external provider and is stripped of markup before storage.
func (s *Service) ReceiveInbound(ctx context.Context, clinicID uuid.UUID, req transport.InboundMessageRequest) (transport.MessageResponse, error) {
	conversation, err := s.repo.GetOrCreateConversation(ctx, clinicID, req.LeadID)
	if err != nil {
		return transport.MessageResponse{}, storeErr("open conversation", err)
	}

	msg, err := s.repo.InsertMessage(ctx, conversation.ID, clinicID,
		repository.DirectionInbound, sanitize.Text(req.Body), repository.StatusReceived)
	if err != nil {
		return transport.MessageResponse{}, storeErr("insert message", err)
	}

	s.bus.Publish(ctx, events.MessageReceived{
		BaseEvent:      events.NewBaseEvent(),
		MessageID:      msg.ID,
		ConversationID: conversation.ID,
		LeadID:         req.LeadID,
		ClinicID:       clinicID,
	})

	return toMessageResponse(msg), nil
}

// DeliverOutbound is the worker entry point: it POSTs the message to the
// clinic webhook and marks the row. Re-delivery of an already-sent message is
// a no-op, so the task is safe to retry.
func (s *Service) DeliverOutbound(ctx context.Context, messageID uuid.UUID) error {
	msg, err := s.repo.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Deleted since enqueueing; nothing to deliver.
			return nil
		}
		return storeErr("get message", err)
	}
	if msg.Direction != repository.DirectionOutbound || msg.Status == repository.StatusSent {
		return nil
	}

	conversation, err := s.repo.GetConversation(ctx, msg.ClinicID, msg.ConversationID)
	if err != nil {
		return storeErr("get conversation", err)
	}

	url, err := s.webhookURL(ctx, msg.ClinicID)
	if err != nil {
		return err
	}
	if url == "" {
		if markErr := s.repo.MarkFailed(ctx, msg.ID, "clinic has no messaging webhook configured"); markErr != nil {
			return storeErr("mark message failed", markErr)
		}
		return nil
	}

	phone, err := s.leadContact(ctx, msg.ClinicID, conversation.LeadID)
	if err != nil {
		return err
	}

	if err := s.client.Deliver(ctx, url, msg.ID, conversation.LeadID, phone, msg.Body); err != nil {
		if markErr := s.repo.MarkFailed(ctx, msg.ID, err.Error()); markErr != nil {
			s.log.Error("failed to mark message failed", "error", markErr, "messageId", msg.ID)
		}
		return err
	}

	if err := s.repo.MarkSent(ctx, msg.ID); err != nil {
		return storeErr("mark message sent", err)
	}

	s.bus.Publish(ctx, events.MessageSent{
		BaseEvent: events.NewBaseEvent(),
		MessageID: msg.ID,
		LeadID:    conversation.LeadID,
		ClinicID:  msg.ClinicID,
	})

	return nil
}

func mapNotFound(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return storeErr("lookup", err)
}

func storeErr(op string, err error) error {
	if appErr, ok := err.(*apperr.Error); ok {
		return appErr
	}
	return apperr.Wrap(apperr.KindUnavailable, "persistent store unavailable", err).WithOp(op)
}

func toConversationResponse(c repository.Conversation) transport.ConversationResponse {
	return transport.ConversationResponse{
		ID:            c.ID,
		LeadID:        c.LeadID,
		CreatedAt:     c.CreatedAt,
		LastMessageAt: c.LastMessageAt,
	}
}

func toMessageResponse(m repository.Message) transport.MessageResponse {
	return transport.MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Direction:      m.Direction,
		Body:           m.Body,
		Status:         m.Status,
		CreatedAt:      m.CreatedAt,
		SentAt:         m.SentAt,
	}
}
