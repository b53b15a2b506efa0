// Package ports declares the cross-context dependencies of the clinics module.
package ports

import (
	"context"

	"github.com/google/uuid"
)

// StageSeeder creates the given stages, in order, for a freshly provisioned
// clinic. The pipeline module supplies the implementation.
type StageSeeder func(ctx context.Context, clinicID uuid.UUID, names []string) error
