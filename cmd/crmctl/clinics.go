package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var flagClinicsJSON bool

var clinicsCmd = &cobra.Command{
	Use:   "clinics",
	Short: "Inspect clinic tenants",
}

var clinicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all clinics",
	RunE: run(func(ctx context.Context, app *appCtx) error {
		items, err := app.clinics.Service().List(ctx)
		if err != nil {
			return err
		}

		if flagClinicsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}

		tw := tablewriter.NewWriter(os.Stdout)
		tw.SetHeader([]string{"ID", "NAME", "EMAIL", "WEBHOOK", "CREATED_AT"})
		for _, clinic := range items {
			webhook := ""
			if clinic.MessagingWebhookURL != nil {
				webhook = *clinic.MessagingWebhookURL
			}
			tw.Append([]string{
				clinic.ID.String(),
				clinic.Name,
				fmt.Sprintf("%t", clinic.EmailEnabled),
				webhook,
				clinic.CreatedAt.Format(time.RFC3339),
			})
		}
		tw.Render()
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(clinicsCmd)
	clinicsCmd.AddCommand(clinicsListCmd)
	clinicsListCmd.Flags().BoolVar(&flagClinicsJSON, "json", false, "Output JSON")
}
