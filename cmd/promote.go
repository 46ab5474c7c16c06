package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/recruiting-cli/internal/pipeline"
)

var (
	promoteRunID      string
	promoteReason     string
	promoteConfidence float64
	promoteAngle      string
	promoteProofLinks []string
	promoteJSON       bool
)

var promoteCmd = &cobra.Command{
	Use:   "promote <candidate-id>",
	Short: "Promote a candidate to the shortlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initPipeline(ctx, "")
		if err != nil {
			return err
		}
		defer e.Close()

		var override *float64
		if cmd.Flags().Changed("confidence-override") {
			override = &promoteConfidence
		}

		result, err := e.Pipeline.PromoteCandidate(ctx, pipeline.PromoteInput{
			CandidateID:        args[0],
			RunID:              promoteRunID,
			PromotionReason:    promoteReason,
			ConfidenceOverride: override,
			OutreachAngle:      promoteAngle,
			ProofLinks:         promoteProofLinks,
		})
		if err != nil {
			return err
		}
		return emit(result, promoteJSON)
	},
}

func init() {
	promoteCmd.Flags().StringVar(&promoteRunID, "run-id", "", "run the promotion belongs to (required)")
	promoteCmd.Flags().StringVar(&promoteReason, "reason", "", "why the candidate is being promoted")
	promoteCmd.Flags().Float64Var(&promoteConfidence, "confidence-override", 0, "operator confidence override")
	promoteCmd.Flags().StringVar(&promoteAngle, "outreach-angle", "", "outreach angle to record")
	promoteCmd.Flags().StringArrayVar(&promoteProofLinks, "proof-link", nil, "proof link URL (repeatable)")
	promoteCmd.Flags().BoolVar(&promoteJSON, "json", false, "compact JSON output")
	_ = promoteCmd.MarkFlagRequired("run-id")
	rootCmd.AddCommand(promoteCmd)
}
