// crmctl is the operator CLI: inspect clinics and pipelines, run the
// stage-deletion migration, and re-run AI activation resolution without
// going through the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"clinicportal_backend/internal/clinics"
	"clinicportal_backend/internal/events"
	"clinicportal_backend/internal/leads"
	leadsdomain "clinicportal_backend/internal/leads/domain"
	"clinicportal_backend/internal/pipeline"
	"clinicportal_backend/platform/config"
	"clinicportal_backend/platform/db"
	"clinicportal_backend/platform/logger"
	"clinicportal_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "crmctl",
	Short:         "Operator tooling for the clinic CRM backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// appCtx bundles the modules a command operates through, composed the same
// way the API binary does minus the HTTP layer.
type appCtx struct {
	pool     *pgxpool.Pool
	clinics  *clinics.Module
	pipeline *pipeline.Module
	leads    *leads.Module
}

// connect loads config and builds the module graph over a direct DB
// connection. The caller must Close the returned context.
func connect(ctx context.Context) (*appCtx, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	log := logger.New(cfg.Env)
	bus := events.NewInMemoryBus(log)
	val := validator.New()

	clinicsModule := clinics.NewModule(pool, val, nil, cfg.GetStageTemplatePath())
	leadsModule := leads.NewModule(pool, bus, val,
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
		nil,
	)
	pipelineModule := pipeline.NewModule(pool, bus, val, leadsModule.Repository())

	return &appCtx{
		pool:     pool,
		clinics:  clinicsModule,
		pipeline: pipelineModule,
		leads:    leadsModule,
	}, nil
}

func (a *appCtx) Close() {
	a.pool.Close()
}

// run wraps a command body with the shared connect/timeout/teardown dance.
func run(fn func(ctx context.Context, app *appCtx) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		app, err := connect(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		return fn(ctx, app)
	}
}

func parseClinicFlag(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("--clinic: %w", err)
	}
	return id, nil
}
