package main

import (
	"fmt"

	"github.com/vramonlinebsc/hms/internal/infrastructure/database"

	"github.com/spf13/cobra"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema and seed roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := opts.newCore()
			if err != nil {
				return err
			}
			defer core.Close()

			if err := database.Migrate(core.DB); err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), "schema up to date", map[string]bool{"migrated": true})
		},
	}
}

func NewReconcileCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run one no-show pass",
		Long: `Mark every BOOKED appointment whose window ended more than the grace
period ago as NO_SHOW. Safe to run concurrently with the server and with itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := opts.newCore()
			if err != nil {
				return err
			}
			defer core.Close()

			count, err := core.NoShowUsecase.RunOnce(cmd.Context())
			if err != nil {
				return fmt.Errorf("no-show pass (marked %d): %w", count, err)
			}
			return opts.print(cmd.OutOrStdout(),
				fmt.Sprintf("marked %d appointments as NO_SHOW", count),
				map[string]int{"transitioned": count})
		},
	}
}

func NewPenaltiesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "penalties",
		Short: "Run one penalty and notification pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := opts.newCore()
			if err != nil {
				return err
			}
			defer core.Close()

			result, err := core.PenaltyUsecase.RunOnce(cmd.Context())
			if err != nil {
				return fmt.Errorf("penalty pass (created=%d, enqueued=%d): %w", result.Created, result.Enqueued, err)
			}
			return opts.print(cmd.OutOrStdout(),
				fmt.Sprintf("created %d penalties, enqueued %d notifications", result.Created, result.Enqueued),
				result)
		},
	}
}
