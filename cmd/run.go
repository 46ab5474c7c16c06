package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/recruiting-cli/internal/pipeline"
	"github.com/sells-group/recruiting-cli/pkg/unipile"
)

var (
	runRoleKey          string
	runRoleTitle        string
	runKeywords         string
	runRoleKeywords     []string
	runSkills           []string
	runCompanies        []string
	runLocation         string
	runIndustry         string
	runAPI              string
	runAccountID        string
	runTarget           int
	runIdempotencyKey   string
	runSourceQueryMode  string
	runEvidenceQueryMod string
	runBrowserVerify    bool
	runJSON             bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Source and score candidates for a role",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initPipeline(ctx, runAccountID)
		if err != nil {
			return err
		}
		defer e.Close()

		out, err := e.Pipeline.Run(ctx, pipeline.RunInput{
			RoleKey:   runRoleKey,
			RoleTitle: runRoleTitle,
			Search: unipile.SearchParams{
				Keywords:     runKeywords,
				RoleKeywords: toFilters(runRoleKeywords),
				Skills:       toFilters(runSkills),
				Companies:    toFilters(runCompanies),
				Location:     runLocation,
				Industry:     runIndustry,
				API:          runAPI,
				AccountID:    runAccountID,
			},
			TargetCandidates:           runTarget,
			IdempotencyKey:             runIdempotencyKey,
			BrowserVerificationEnabled: runBrowserVerify || cfg.Recruiting.BrowserVerification.Enabled,
			SourceQueryMode:            runSourceQueryMode,
			EvidenceQueryMode:          runEvidenceQueryMod,
		})
		if err != nil {
			return err
		}
		return emit(out, runJSON)
	},
}

func toFilters(texts []string) []unipile.SearchFilter {
	var filters []unipile.SearchFilter
	for _, t := range texts {
		filters = append(filters, unipile.SearchFilter{Text: t})
	}
	return filters
}

func init() {
	runCmd.Flags().StringVar(&runRoleKey, "role-key", "", "stable role identifier (required)")
	runCmd.Flags().StringVar(&runRoleTitle, "role-title", "", "human-readable role title (required)")
	runCmd.Flags().StringVar(&runKeywords, "keywords", "", "free-text search keywords")
	runCmd.Flags().StringArrayVar(&runRoleKeywords, "role-keyword", nil, "role keyword filter (repeatable)")
	runCmd.Flags().StringArrayVar(&runSkills, "skill", nil, "skill filter (repeatable)")
	runCmd.Flags().StringArrayVar(&runCompanies, "company", nil, "company filter (repeatable)")
	runCmd.Flags().StringVar(&runLocation, "location", "", "location filter")
	runCmd.Flags().StringVar(&runIndustry, "industry", "", "industry filter")
	runCmd.Flags().StringVar(&runAPI, "api", unipile.APIClassic, "linkedin api product: classic, recruiter, or sales_navigator")
	runCmd.Flags().StringVar(&runAccountID, "account-id", "", "override the configured linkedin account")
	runCmd.Flags().IntVar(&runTarget, "target-candidates", 0, "candidates to source (defaults to config)")
	runCmd.Flags().StringVar(&runIdempotencyKey, "idempotency-key", "", "explicit idempotency key")
	runCmd.Flags().StringVar(&runSourceQueryMode, "source-query-mode", "default", "source query mode: default or broad")
	runCmd.Flags().StringVar(&runEvidenceQueryMod, "evidence-query-mode", "default", "evidence query mode: default or strict")
	runCmd.Flags().BoolVar(&runBrowserVerify, "browser-verification", false, "flag HIGH-band candidates for browser verification")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "compact JSON output")
	_ = runCmd.MarkFlagRequired("role-key")
	_ = runCmd.MarkFlagRequired("role-title")
	rootCmd.AddCommand(runCmd)
}
