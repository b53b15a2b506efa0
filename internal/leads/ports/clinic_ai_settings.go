package ports

import (
	"context"

	"clinicportal_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// ClinicAISettingsReader loads the clinic-wide AI activation flags consumed
// by the resolver. The settings are owned by the clinics bounded context.
//
// Returning an error must be treated as "settings unavailable": the resolver
// fails safe to disabled and does not persist anything, so a later attempt
// can still resolve properly once settings load.
type ClinicAISettingsReader func(ctx context.Context, clinicID uuid.UUID) (domain.AISettings, error)
