package ports

import (
	"context"

	"github.com/google/uuid"
)

// DefaultStageResolver returns the stage id a freshly created lead lands on
// when the caller does not pick one (the clinic's left-most kanban column).
type DefaultStageResolver func(ctx context.Context, clinicID uuid.UUID) (uuid.UUID, error)
