package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/recruiting-cli/internal/model"
)

var (
	reviewRunID    string
	reviewStatus   string
	reviewNotes    string
	reviewPriority int
	reviewJSON     bool
)

var reviewCmd = &cobra.Command{
	Use:   "review <candidate-id>",
	Short: "Move a candidate to a review workflow state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initPipeline(ctx, "")
		if err != nil {
			return err
		}
		defer e.Close()

		var priority *int
		if cmd.Flags().Changed("priority") {
			priority = &reviewPriority
		}

		err = e.Pipeline.UpdateReviewStatus(ctx, args[0], reviewRunID,
			model.ReviewStatus(reviewStatus), reviewNotes, priority)
		if err != nil {
			return err
		}
		return emit(map[string]any{
			"candidateId": args[0],
			"runId":       reviewRunID,
			"status":      reviewStatus,
		}, reviewJSON)
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewRunID, "run-id", "", "run the review belongs to (required)")
	reviewCmd.Flags().StringVar(&reviewStatus, "status", "", "new_review, under_verification, promoted_shortlist, rejected, or deferred (required)")
	reviewCmd.Flags().StringVar(&reviewNotes, "notes", "", "reviewer notes")
	reviewCmd.Flags().IntVar(&reviewPriority, "priority", 0, "review priority (0-100)")
	reviewCmd.Flags().BoolVar(&reviewJSON, "json", false, "compact JSON output")
	_ = reviewCmd.MarkFlagRequired("run-id")
	_ = reviewCmd.MarkFlagRequired("status")
	rootCmd.AddCommand(reviewCmd)
}
