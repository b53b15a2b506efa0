package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateLeadRequest struct {
	Name    string     `json:"name" validate:"required,min=1"`
	Phone   string     `json:"phone" validate:"required"`
	Email   string     `json:"email" validate:"omitempty,email"`
	Origin  string     `json:"origin"`
	StageID *uuid.UUID `json:"stageId"`
}

type UpdateLeadRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1"`
	Phone  *string `json:"phone"`
	Email  *string `json:"email" validate:"omitempty,email"`
	Origin *string `json:"origin"`
}

type MoveLeadRequest struct {
	StageID uuid.UUID `json:"stageId" validate:"required"`
}

type SetAIConversationRequest struct {
	Enabled bool `json:"enabled"`
}

type ListLeadsRequest struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

type LeadResponse struct {
	ID                    uuid.UUID `json:"id"`
	ClinicID              uuid.UUID `json:"clinicId"`
	Name                  string    `json:"name"`
	Phone                 string    `json:"phone"`
	Email                 *string   `json:"email,omitempty"`
	Origin                *string   `json:"origin,omitempty"`
	AIConversationEnabled *bool     `json:"aiConversationEnabled"`
	StageID               uuid.UUID `json:"stageId"`
	LastContactAt         time.Time `json:"lastContactAt"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

type AIConversationResponse struct {
	LeadID  uuid.UUID `json:"leadId"`
	Enabled bool      `json:"enabled"`
}
