package main

import (
	"github.com/spf13/cobra"
)

var (
	resultsRunID string
	resultsLimit int
	resultsJSON  bool
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show scored candidates for a run, shortlist first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initPipeline(ctx, "")
		if err != nil {
			return err
		}
		defer e.Close()

		results, err := e.Pipeline.Results(ctx, resultsRunID, resultsLimit)
		if err != nil {
			return err
		}
		return emit(results, resultsJSON)
	},
}

func init() {
	resultsCmd.Flags().StringVar(&resultsRunID, "run-id", "", "run to read (required)")
	resultsCmd.Flags().IntVar(&resultsLimit, "limit", 100, "maximum candidates to return")
	resultsCmd.Flags().BoolVar(&resultsJSON, "json", false, "compact JSON output")
	_ = resultsCmd.MarkFlagRequired("run-id")
	rootCmd.AddCommand(resultsCmd)
}
