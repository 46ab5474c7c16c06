package main

import (
	"github.com/spf13/cobra"
)

var (
	statusRunID string
	statusJSON  bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a run's status, or the 20 most recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initPipeline(ctx, "")
		if err != nil {
			return err
		}
		defer e.Close()

		run, runs, err := e.Pipeline.Status(ctx, statusRunID)
		if err != nil {
			return err
		}
		if run != nil {
			return emit(run, statusJSON)
		}
		return emit(runs, statusJSON)
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusRunID, "run-id", "", "run to inspect")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "compact JSON output")
	rootCmd.AddCommand(statusCmd)
}
