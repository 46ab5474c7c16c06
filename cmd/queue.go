package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/recruiting-cli/internal/store"
)

var (
	queueRunID    string
	queuePriority string
	queueLimit    int
	queueJSON     bool
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List candidates awaiting verification",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initPipeline(ctx, "")
		if err != nil {
			return err
		}
		defer e.Close()

		entries, err := e.Pipeline.VerificationQueue(ctx, queueRunID, store.QueueFilter{
			Priority: queuePriority,
			Limit:    queueLimit,
		})
		if err != nil {
			return err
		}
		return emit(entries, queueJSON)
	},
}

func init() {
	queueCmd.Flags().StringVar(&queueRunID, "run-id", "", "run to read (required)")
	queueCmd.Flags().StringVar(&queuePriority, "priority", "", "set to high to filter to priority >= 50")
	queueCmd.Flags().IntVar(&queueLimit, "limit", 20, "maximum entries to return")
	queueCmd.Flags().BoolVar(&queueJSON, "json", false, "compact JSON output")
	_ = queueCmd.MarkFlagRequired("run-id")
	rootCmd.AddCommand(queueCmd)
}
