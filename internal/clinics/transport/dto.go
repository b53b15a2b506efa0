package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateClinicRequest struct {
	Name string `json:"name" validate:"required"`
}

type UpdateClinicRequest struct {
	Name                *string `json:"name"`
	MessagingWebhookURL *string `json:"messagingWebhookUrl" validate:"omitempty,url"`
	EmailEnabled        *bool   `json:"emailEnabled"`
}

type UpdateAISettingsRequest struct {
	ActiveForAllNewLeads bool    `json:"activeForAllNewLeads"`
	ActiveForAdLeadsOnly bool    `json:"activeForAdLeadsOnly"`
	PersonaPrompt        *string `json:"personaPrompt"`
	OperatingMode        string  `json:"operatingMode" validate:"required,oneof=manual assisted autonomous"`
}

type BusinessHourEntry struct {
	Weekday  int    `json:"weekday" validate:"min=0,max=6"`
	OpensAt  string `json:"opensAt" validate:"required"`
	ClosesAt string `json:"closesAt" validate:"required"`
}

type UpdateBusinessHoursRequest struct {
	Hours []BusinessHourEntry `json:"hours" validate:"required,dive"`
}

type ClinicResponse struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	MessagingWebhookURL *string   `json:"messagingWebhookUrl,omitempty"`
	EmailEnabled        bool      `json:"emailEnabled"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

type AISettingsResponse struct {
	ClinicID             uuid.UUID `json:"clinicId"`
	ActiveForAllNewLeads bool      `json:"activeForAllNewLeads"`
	ActiveForAdLeadsOnly bool      `json:"activeForAdLeadsOnly"`
	PersonaPrompt        *string   `json:"personaPrompt,omitempty"`
	OperatingMode        string    `json:"operatingMode"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

type BusinessHoursResponse struct {
	ClinicID uuid.UUID           `json:"clinicId"`
	Hours    []BusinessHourEntry `json:"hours"`
}
