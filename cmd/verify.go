package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/recruiting-cli/internal/pipeline"
)

var (
	verifyRunID      string
	verifyMethod     string
	verifyOutcome    string
	verifyConfidence float64
	verifyProofLinks []string
	verifyNotes      string
	verifyJSON       bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify <candidate-id>",
	Short: "Record a verification outcome for a candidate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initPipeline(ctx, "")
		if err != nil {
			return err
		}
		defer e.Close()

		var after *float64
		if cmd.Flags().Changed("confidence-after") {
			after = &verifyConfidence
		}

		err = e.Pipeline.SubmitVerification(ctx, pipeline.VerificationInput{
			CandidateID:     args[0],
			RunID:           verifyRunID,
			Method:          verifyMethod,
			Outcome:         verifyOutcome,
			ConfidenceAfter: after,
			ProofLinks:      verifyProofLinks,
			Notes:           verifyNotes,
		})
		if err != nil {
			return err
		}
		return emit(map[string]any{
			"candidateId": args[0],
			"runId":       verifyRunID,
			"outcome":     verifyOutcome,
		}, verifyJSON)
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyRunID, "run-id", "", "run the verification belongs to (required)")
	verifyCmd.Flags().StringVar(&verifyMethod, "method", "browser", "verification method: browser or api")
	verifyCmd.Flags().StringVar(&verifyOutcome, "outcome", "", "confirmed, rejected, or inconclusive (required)")
	verifyCmd.Flags().Float64Var(&verifyConfidence, "confidence-after", 0, "confidence after verification")
	verifyCmd.Flags().StringArrayVar(&verifyProofLinks, "proof-link", nil, "proof link URL (repeatable)")
	verifyCmd.Flags().StringVar(&verifyNotes, "notes", "", "verifier notes")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "compact JSON output")
	_ = verifyCmd.MarkFlagRequired("run-id")
	_ = verifyCmd.MarkFlagRequired("outcome")
	rootCmd.AddCommand(verifyCmd)
}
