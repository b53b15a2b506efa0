// Package ports declares the cross-context dependencies of the chat module.
package ports

import (
	"context"

	"github.com/google/uuid"
)

// WebhookURLReader returns the clinic's outbound messaging endpoint, empty
// when none is configured. The clinics module supplies the implementation.
type WebhookURLReader func(ctx context.Context, clinicID uuid.UUID) (string, error)

// LeadContactReader returns a lead's phone number. The leads module supplies
// the implementation.
type LeadContactReader func(ctx context.Context, clinicID, leadID uuid.UUID) (string, error)

// MessageDispatcher schedules asynchronous delivery of an outbound message.
// The scheduler client supplies the implementation.
type MessageDispatcher func(ctx context.Context, messageID uuid.UUID) error
