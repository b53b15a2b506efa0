package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

// Message directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Outbound delivery statuses. Inbound messages are stored as received.
const (
	StatusPending  = "pending"
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusReceived = "received"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Conversation is the single thread between a clinic and a lead.
type Conversation struct {
	ID            uuid.UUID
	ClinicID      uuid.UUID
	LeadID        uuid.UUID
	CreatedAt     time.Time
	LastMessageAt time.Time
}

// Message is one chat message. Outbound rows double as the delivery outbox:
// they are created pending and marked sent or failed by the dispatch worker.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	ClinicID       uuid.UUID
	Direction      string
	Body           string
	Status         string
	Attempts       int
	LastError      *string
	CreatedAt      time.Time
	SentAt         *time.Time
}

// GetOrCreateConversation returns the lead's conversation, creating it on
// first contact. The unique (clinic_id, lead_id) index makes this race-safe.
func (r *Repository) GetOrCreateConversation(ctx context.Context, clinicID, leadID uuid.UUID) (Conversation, error) {
	var c Conversation
	err := r.pool.QueryRow(ctx, `
		INSERT INTO conversations (clinic_id, lead_id)
		VALUES ($1, $2)
		ON CONFLICT (clinic_id, lead_id) DO UPDATE SET clinic_id = EXCLUDED.clinic_id
		RETURNING id, clinic_id, lead_id, created_at, last_message_at
	`, clinicID, leadID).Scan(&c.ID, &c.ClinicID, &c.LeadID, &c.CreatedAt, &c.LastMessageAt)
	return c, err
}

func (r *Repository) GetConversation(ctx context.Context, clinicID, id uuid.UUID) (Conversation, error) {
	var c Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id, clinic_id, lead_id, created_at, last_message_at
		FROM conversations WHERE id = $1 AND clinic_id = $2
	`, id, clinicID).Scan(&c.ID, &c.ClinicID, &c.LeadID, &c.CreatedAt, &c.LastMessageAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	return c, err
}

func (r *Repository) ListConversations(ctx context.Context, clinicID uuid.UUID) ([]Conversation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, clinic_id, lead_id, created_at, last_message_at
		FROM conversations WHERE clinic_id = $1
		ORDER BY last_message_at DESC
	`, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]Conversation, 0)
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.ClinicID, &c.LeadID, &c.CreatedAt, &c.LastMessageAt); err != nil {
			return nil, err
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

const messageColumns = `id, conversation_id, clinic_id, direction, body, status, attempts, last_error, created_at, sent_at`

func scanMessage(row pgx.Row) (Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.ClinicID, &m.Direction, &m.Body,
		&m.Status, &m.Attempts, &m.LastError, &m.CreatedAt, &m.SentAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	return m, err
}

// InsertMessage stores a message and bumps the conversation's last activity
// in one transaction.
func (r *Repository) InsertMessage(ctx context.Context, conversationID, clinicID uuid.UUID, direction, body, status string) (Message, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Message{}, err
	}
	defer tx.Rollback(ctx)

	msg, err := scanMessage(tx.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, clinic_id, direction, body, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+messageColumns+`
	`, conversationID, clinicID, direction, body, status))
	if err != nil {
		return Message{}, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE conversations SET last_message_at = now() WHERE id = $1
	`, conversationID); err != nil {
		return Message{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func (r *Repository) GetMessage(ctx context.Context, id uuid.UUID) (Message, error) {
	return scanMessage(r.pool.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM messages WHERE id = $1
	`, id))
}

func (r *Repository) ListMessages(ctx context.Context, clinicID, conversationID uuid.UUID, limit int) ([]Message, error) {
	if limit < 1 || limit > 200 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE conversation_id = $1 AND clinic_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, conversationID, clinicID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.ClinicID, &m.Direction, &m.Body,
			&m.Status, &m.Attempts, &m.LastError, &m.CreatedAt, &m.SentAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkSent flips a pending or failed outbound message to sent. Marking an
// already-sent message again is a no-op, so delivery retries are idempotent.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE messages SET status = $2, sent_at = now(), last_error = NULL
		WHERE id = $1 AND status <> $2
	`, id, StatusSent)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE messages SET status = $2, attempts = attempts + 1, last_error = $3
		WHERE id = $1 AND status <> $4
	`, id, StatusFailed, lastError, StatusSent)
	return err
}
