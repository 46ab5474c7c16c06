package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var candidateJSON bool

var candidateCmd = &cobra.Command{
	Use:   "candidate <id>",
	Short: "Show the full document for one candidate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initPipeline(ctx, "")
		if err != nil {
			return err
		}
		defer e.Close()

		detail, err := e.Pipeline.CandidateDetail(ctx, args[0])
		if err != nil {
			return err
		}
		if detail == nil {
			return eris.Errorf("candidate not found: %s", args[0])
		}
		return emit(detail, candidateJSON)
	},
}

func init() {
	candidateCmd.Flags().BoolVar(&candidateJSON, "json", false, "compact JSON output")
	rootCmd.AddCommand(candidateCmd)
}
