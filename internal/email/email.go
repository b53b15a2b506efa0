// Package email sends transactional mail. The SMTP sender delivers via
// go-mail; the noop sender keeps the rest of the system working when email
// is disabled.
package email

import "context"

type Attachment struct {
	FileName string
	Content  []byte
}

// Sender delivers transactional email.
type Sender interface {
	SendReportReady(ctx context.Context, toEmail, reportName, downloadURL string) error
}

// NoopSender is used when email is disabled.
type NoopSender struct{}

func (NoopSender) SendReportReady(context.Context, string, string, string) error { return nil }

var _ Sender = NoopSender{}
