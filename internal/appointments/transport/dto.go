package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateAppointmentRequest struct {
	LeadID    uuid.UUID `json:"leadId" validate:"required"`
	Title     string    `json:"title" validate:"required,max=200"`
	Notes     *string   `json:"notes"`
	StartTime time.Time `json:"startTime" validate:"required"`
	EndTime   time.Time `json:"endTime" validate:"required"`
}

type ListAppointmentsRequest struct {
	From time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To   time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

type AppointmentResponse struct {
	ID        uuid.UUID `json:"id"`
	LeadID    uuid.UUID `json:"leadId"`
	Title     string    `json:"title"`
	Notes     *string   `json:"notes,omitempty"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
