package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateStageRequest struct {
	Name string `json:"name" validate:"required"`
}

type RenameStageRequest struct {
	Name string `json:"name" validate:"required"`
}

type ReorderStageRequest struct {
	// TargetStageID identifies the stage currently occupying the position the
	// dragged stage is dropped on.
	TargetStageID uuid.UUID `json:"targetStageId" validate:"required"`
}

type DeleteStageRequest struct {
	// TargetStageID receives the deleted stage's leads. Required only when the
	// stage still has leads.
	TargetStageID *uuid.UUID `json:"targetStageId"`
}

type StageResponse struct {
	ID        uuid.UUID `json:"id"`
	ClinicID  uuid.UUID `json:"clinicId"`
	Name      string    `json:"name"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type BoardColumnResponse struct {
	Stage     StageResponse `json:"stage"`
	LeadCount int           `json:"leadCount"`
}
