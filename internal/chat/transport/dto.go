package transport

import (
	"time"

	"github.com/google/uuid"
)

type SendMessageRequest struct {
	Body string `json:"body" validate:"required,max=4096"`
}

// InboundMessageRequest is the payload the external messaging provider POSTs
// when a lead replies.
type InboundMessageRequest struct {
	LeadID uuid.UUID `json:"leadId" validate:"required"`
	Body   string    `json:"body" validate:"required,max=4096"`
}

type ConversationResponse struct {
	ID            uuid.UUID `json:"id"`
	LeadID        uuid.UUID `json:"leadId"`
	CreatedAt     time.Time `json:"createdAt"`
	LastMessageAt time.Time `json:"lastMessageAt"`
}

type MessageResponse struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversationId"`
	Direction      string     `json:"direction"`
	Body           string     `json:"body"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
}
