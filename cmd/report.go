package main

import (
	"github.com/spf13/cobra"
)

var (
	reportRunID   string
	reportRoleKey string
	reportDate    string
	reportJSON    bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the daily quota report for a role",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initPipeline(ctx, "")
		if err != nil {
			return err
		}
		defer e.Close()

		report, err := e.Pipeline.DailyReport(ctx, reportRunID, reportRoleKey, reportDate)
		if err != nil {
			return err
		}
		return emit(report, reportJSON)
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportRunID, "run-id", "", "run to report on (defaults to latest for the role)")
	reportCmd.Flags().StringVar(&reportRoleKey, "role-key", "", "role to resolve the run by when --run-id is absent")
	reportCmd.Flags().StringVar(&reportDate, "date", "", "YYYY-MM-DD UTC (defaults to today)")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "compact JSON output")
	rootCmd.AddCommand(reportCmd)
}
