// Package webhook delivers outbound chat messages to a clinic's configured
// messaging endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clinicportal_backend/platform/logger"

	"github.com/google/uuid"
)

type Client struct {
	http *http.Client
	log  *logger.Logger
}

type outboundPayload struct {
	MessageID uuid.UUID `json:"messageId"`
	LeadID    uuid.UUID `json:"leadId"`
	Phone     string    `json:"phone"`
	Body      string    `json:"body"`
}

func NewClient(log *logger.Logger) *Client {
	return &Client{
		http: &http.Client{Timeout: 10 * time.Second},
		log:  log,
	}
}

// Deliver POSTs the message to the clinic webhook. Any non-2xx response is an
// error; the caller decides whether to retry.
func (c *Client) Deliver(ctx context.Context, webhookURL string, messageID, leadID uuid.UUID, phone, body string) error {
	payload, err := json.Marshal(outboundPayload{
		MessageID: messageID,
		LeadID:    leadID,
		Phone:     phone,
		Body:      body,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("chat message delivered", "messageId", messageID)
	return nil
}
