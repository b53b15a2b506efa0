package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var flagResolveClinic string

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Operate on a clinic's leads",
}

var leadsResolveAICmd = &cobra.Command{
	Use:   "resolve-ai",
	Short: "Re-run AI activation resolution for unresolved leads",
	Long: `Resolve the AI conversation flag for every lead of the clinic that
still carries the unresolved (null) value. Leads already resolved, or
toggled manually, are never touched.`,
	RunE: run(func(ctx context.Context, app *appCtx) error {
		clinicID, err := parseClinicFlag(flagResolveClinic)
		if err != nil {
			return err
		}

		resolved, err := app.leads.Service().ResolveUnresolved(ctx, clinicID)
		if err != nil {
			return err
		}

		fmt.Printf("resolved %d leads\n", resolved)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(leadsCmd)
	leadsCmd.AddCommand(leadsResolveAICmd)
	leadsResolveAICmd.Flags().StringVar(&flagResolveClinic, "clinic", "", "Clinic ID")
	_ = leadsResolveAICmd.MarkFlagRequired("clinic")
}
