package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicportal_backend/internal/appointments"
	"clinicportal_backend/internal/chat"
	"clinicportal_backend/internal/clinics"
	"clinicportal_backend/internal/email"
	"clinicportal_backend/internal/events"
	"clinicportal_backend/internal/leads"
	"clinicportal_backend/internal/pipeline"
	"clinicportal_backend/internal/reports"
	reportsdomain "clinicportal_backend/internal/reports/domain"
	"clinicportal_backend/internal/reports/storage"
	"clinicportal_backend/internal/scheduler"
	"clinicportal_backend/platform/config"
	"clinicportal_backend/platform/db"
	"clinicportal_backend/platform/logger"
	"clinicportal_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()
	mail := email.NewSender(cfg)

	// Worker-side module wiring: only the services the task handlers reach
	// are exercised, so HTTP-only ports stay nil (same as the API's public
	// webhook handlers staying unmounted here).
	clinicsModule := clinics.NewModule(pool, val, nil, cfg.GetStageTemplatePath())
	leadsModule := leads.NewModule(pool, eventBus, val, nil, nil)
	pipelineModule := pipeline.NewModule(pool, eventBus, val, leadsModule.Repository())

	chatModule := chat.NewModule(pool, eventBus, val, log,
		clinicsModule.Service().MessagingWebhookURL,
		func(ctx context.Context, clinicID, leadID uuid.UUID) (string, error) {
			lead, err := leadsModule.Repository().GetByID(ctx, clinicID, leadID)
			if err != nil {
				return "", err
			}
			return lead.Phone, nil
		},
		nil,
	)

	appointmentsModule := appointments.NewModule(pool, eventBus, val, log,
		clinicsModule.Service().IsOpenAt, nil)

	var reportsProcessor scheduler.ReportProcessor
	if cfg.IsMinIOEnabled() {
		artifacts, err := storage.NewMinIO(cfg)
		if err != nil {
			log.Error("failed to initialize object storage", "error", err)
			panic("failed to initialize object storage: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure reports bucket", 5, 2*time.Second, func() error {
			return artifacts.EnsureBucket(ctx)
		}); err != nil {
			log.Error("failed to ensure reports bucket", "error", err)
			panic("failed to ensure reports bucket: " + err.Error())
		}

		reportsModule := reports.NewModule(pool, eventBus, val, log, artifacts,
			func(ctx context.Context, clinicID uuid.UUID) ([]reportsdomain.StageStat, error) {
				columns, err := pipelineModule.Service().Board(ctx, clinicID)
				if err != nil {
					return nil, err
				}
				stats := make([]reportsdomain.StageStat, len(columns))
				for i, col := range columns {
					stats[i] = reportsdomain.StageStat{
						StageName: col.Stage.Name,
						LeadCount: col.LeadCount,
					}
				}
				return stats, nil
			},
			func(ctx context.Context, clinicID uuid.UUID) (string, bool, error) {
				clinic, err := clinicsModule.Service().GetByID(ctx, clinicID)
				if err != nil {
					return "", false, err
				}
				return clinic.Name, clinic.EmailEnabled, nil
			},
			nil,
			mail,
		)
		reportsProcessor = reportsModule.Service()
	} else {
		log.Warn("MinIO not configured; report generation disabled")
	}

	worker, err := scheduler.NewWorker(cfg, chatModule.Service(), reportsProcessor,
		appointmentsModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
