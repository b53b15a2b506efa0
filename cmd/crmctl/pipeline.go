package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	flagBoardClinic string
	flagBoardJSON   bool

	flagDeleteClinic string
	flagDeleteStage  string
	flagDeleteTarget string
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Inspect and operate on a clinic's pipeline stages",
}

var pipelineBoardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the clinic's kanban columns with lead counts",
	RunE: run(func(ctx context.Context, app *appCtx) error {
		clinicID, err := parseClinicFlag(flagBoardClinic)
		if err != nil {
			return err
		}

		columns, err := app.pipeline.Service().Board(ctx, clinicID)
		if err != nil {
			return err
		}

		if flagBoardJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(columns)
		}

		tw := tablewriter.NewWriter(os.Stdout)
		tw.SetHeader([]string{"STAGE_ID", "NAME", "ORDER", "LEADS"})
		for _, col := range columns {
			tw.Append([]string{
				col.Stage.ID.String(),
				col.Stage.Name,
				strconv.Itoa(col.Stage.Order),
				strconv.Itoa(col.LeadCount),
			})
		}
		tw.Render()
		return nil
	}),
}

var pipelineDeleteStageCmd = &cobra.Command{
	Use:   "delete-stage",
	Short: "Delete a stage, migrating its leads to --target first",
	Long: `Delete a pipeline stage. A stage that still holds leads requires
--target: its leads are reassigned to the target stage before the stage
record is removed. The operation is safe to re-run after a partial failure.`,
	RunE: run(func(ctx context.Context, app *appCtx) error {
		clinicID, err := parseClinicFlag(flagDeleteClinic)
		if err != nil {
			return err
		}
		stageID, err := uuid.Parse(flagDeleteStage)
		if err != nil {
			return fmt.Errorf("--stage: %w", err)
		}

		var targetID *uuid.UUID
		if flagDeleteTarget != "" {
			id, err := uuid.Parse(flagDeleteTarget)
			if err != nil {
				return fmt.Errorf("--target: %w", err)
			}
			targetID = &id
		}

		if err := app.pipeline.Service().Delete(ctx, clinicID, stageID, targetID); err != nil {
			return err
		}

		fmt.Printf("stage %s deleted\n", stageID)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(pipelineCmd)

	pipelineCmd.AddCommand(pipelineBoardCmd)
	pipelineBoardCmd.Flags().StringVar(&flagBoardClinic, "clinic", "", "Clinic ID")
	pipelineBoardCmd.Flags().BoolVar(&flagBoardJSON, "json", false, "Output JSON")
	_ = pipelineBoardCmd.MarkFlagRequired("clinic")

	pipelineCmd.AddCommand(pipelineDeleteStageCmd)
	pipelineDeleteStageCmd.Flags().StringVar(&flagDeleteClinic, "clinic", "", "Clinic ID")
	pipelineDeleteStageCmd.Flags().StringVar(&flagDeleteStage, "stage", "", "Stage ID to delete")
	pipelineDeleteStageCmd.Flags().StringVar(&flagDeleteTarget, "target", "", "Stage ID to migrate leads to")
	_ = pipelineDeleteStageCmd.MarkFlagRequired("clinic")
	_ = pipelineDeleteStageCmd.MarkFlagRequired("stage")
}
