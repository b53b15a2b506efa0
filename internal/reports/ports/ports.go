// Package ports declares the cross-context dependencies of the reports
// module.
package ports

import (
	"context"

	"clinicportal_backend/internal/reports/domain"

	"github.com/google/uuid"
)

// FunnelStatsReader returns the clinic's pipeline stages with their lead
// counts. The pipeline module supplies the implementation.
type FunnelStatsReader func(ctx context.Context, clinicID uuid.UUID) ([]domain.StageStat, error)

// ClinicInfoReader returns the clinic's display name and whether it has
// email delivery enabled. The clinics module supplies the implementation.
type ClinicInfoReader func(ctx context.Context, clinicID uuid.UUID) (name string, emailEnabled bool, err error)

// JobEnqueuer schedules background processing of a report job. The scheduler
// client supplies the implementation.
type JobEnqueuer func(ctx context.Context, jobID, clinicID uuid.UUID) error
