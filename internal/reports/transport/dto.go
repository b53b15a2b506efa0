package transport

import (
	"time"

	"github.com/google/uuid"
)

type RequestReportRequest struct {
	Kind string `json:"kind" validate:"required,oneof=pipeline_funnel"`
	// NotifyEmail, when set, receives a download link once the report is
	// ready. Requires the clinic to have email delivery enabled.
	NotifyEmail string `json:"notifyEmail" validate:"omitempty,email"`
}

type ReportJobResponse struct {
	ID          uuid.UUID  `json:"id"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	LastError   *string    `json:"lastError,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type ReportDownloadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
