package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinicportal_backend/internal/appointments"
	"clinicportal_backend/internal/auth"
	"clinicportal_backend/internal/chat"
	"clinicportal_backend/internal/clinics"
	"clinicportal_backend/internal/email"
	"clinicportal_backend/internal/events"
	apphttp "clinicportal_backend/internal/http"
	"clinicportal_backend/internal/http/router"
	"clinicportal_backend/internal/leads"
	leadsdomain "clinicportal_backend/internal/leads/domain"
	"clinicportal_backend/internal/pipeline"
	"clinicportal_backend/internal/realtime"
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
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	sched, closeScheduler := initScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	mail := email.NewSender(cfg)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	authModule := auth.NewModule(pool, cfg, val)

	// leads <-> pipeline <-> clinics form a cycle (default stage on lead
	// creation, lead migration on stage deletion, stage seeding on clinic
	// creation), so the leads ports close over late-bound module variables.
	var (
		pipelineModule *pipeline.Module
		clinicsModule  *clinics.Module
	)

	leadsModule := leads.NewModule(pool, eventBus, val,
		func(ctx context.Context, clinicID uuid.UUID) (leadsdomain.AISettings, error) {
			settings, err := clinicsModule.Service().AISettings(ctx, clinicID)
			if err != nil {
				return leadsdomain.AISettings{}, err
			}
			return leadsdomain.AISettings{
				ActiveForAllNewLeads: settings.ActiveForAllNewLeads,
				ActiveForAdLeadsOnly: settings.ActiveForAdLeadsOnly,
			}, nil
		},
		func(ctx context.Context, clinicID uuid.UUID) (uuid.UUID, error) {
			return pipelineModule.DefaultStageResolver()(ctx, clinicID)
		},
	)
	pipelineModule = pipeline.NewModule(pool, eventBus, val, leadsModule.Repository())
	clinicsModule = clinics.NewModule(pool, val, pipelineModule.StageSeeder(), cfg.GetStageTemplatePath())

	chatModule := chat.NewModule(pool, eventBus, val, log,
		clinicsModule.Service().MessagingWebhookURL,
		func(ctx context.Context, clinicID, leadID uuid.UUID) (string, error) {
			lead, err := leadsModule.Repository().GetByID(ctx, clinicID, leadID)
			if err != nil {
				return "", err
			}
			return lead.Phone, nil
		},
		sched.EnqueueChatDelivery,
	)

	appointmentsModule := appointments.NewModule(pool, eventBus, val, log,
		clinicsModule.Service().IsOpenAt,
		sched.ScheduleAppointmentReminder,
	)

	realtimeModule := realtime.NewModule(eventBus, log)
	defer realtimeModule.Hub().Close()

	modules := []apphttp.Module{
		authModule,
		clinicsModule,
		pipelineModule,
		leadsModule,
		chatModule,
		appointmentsModule,
		realtimeModule,
	}

	if cfg.IsMinIOEnabled() {
		reportsModule, err := initReports(ctx, cfg, log, pool, eventBus, val,
			pipelineModule, clinicsModule, sched, mail)
		if err != nil {
			log.Error("failed to initialize reports module", "error", err)
			panic("failed to initialize reports module: " + err.Error())
		}
		modules = append(modules, reportsModule)
	} else {
		log.Warn("MinIO not configured; report generation disabled")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules:  modules,
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; background jobs disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initReports(ctx context.Context, cfg *config.Config, log *logger.Logger, pool *pgxpool.Pool,
	eventBus events.Bus, val *validator.Validator, pipelineModule *pipeline.Module,
	clinicsModule *clinics.Module, sched *scheduler.Client, mail email.Sender) (*reports.Module, error) {
	artifacts, err := storage.NewMinIO(cfg)
	if err != nil {
		return nil, err
	}
	if err := withRetry(ctx, log, "ensure reports bucket", 5, 2*time.Second, func() error {
		return artifacts.EnsureBucket(ctx)
	}); err != nil {
		return nil, err
	}

	return reports.NewModule(pool, eventBus, val, log, artifacts,
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
		sched.EnqueueReportGeneration,
		mail,
	), nil
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
