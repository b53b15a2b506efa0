// Package ports declares the cross-context dependencies of the appointments
// module.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BusinessHoursChecker reports whether the clinic is open at the given time.
// The clinics module supplies the implementation.
type BusinessHoursChecker func(ctx context.Context, clinicID uuid.UUID, at time.Time) (bool, error)

// ReminderScheduler enqueues a reminder to fire at runAt. The scheduler
// client supplies the implementation.
type ReminderScheduler func(ctx context.Context, appointmentID, clinicID uuid.UUID, runAt time.Time) error
