package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/recruiting-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func beginTestRun(t *testing.T, s *SQLite, key string) string {
	t.Helper()
	res, err := s.BeginRun(context.Background(), BeginRunInput{
		IdempotencyKey:   key,
		RoleKey:          "backend-eng",
		RoleTitle:        "Backend Engineer",
		TargetCandidates: 50,
	})
	require.NoError(t, err)
	return res.RunID
}

func testCandidate(n int) model.Candidate {
	return model.Candidate{
		Provider:         model.ProviderLinkedIn,
		ProviderID:       fmt.Sprintf("prov-%d", n),
		PublicIdentifier: fmt.Sprintf("pub-%d", n),
		ProfileURL:       fmt.Sprintf("https://linkedin.com/in/p%d", n),
		Name:             fmt.Sprintf("Person %d", n),
		Headline:         "Engineer",
	}
}

// Runs

func TestBeginRunIdempotency(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.BeginRun(ctx, BeginRunInput{IdempotencyKey: "k1", RoleKey: "r", RoleTitle: "R"})
	require.NoError(t, err)
	assert.False(t, first.Resumed)
	assert.Equal(t, model.RunStatusRunning, first.Status)

	second, err := s.BeginRun(ctx, BeginRunInput{IdempotencyKey: "k1", RoleKey: "r", RoleTitle: "R"})
	require.NoError(t, err)
	assert.True(t, second.Resumed)
	assert.Equal(t, first.RunID, second.RunID)
}

func TestBeginRunCompletedStillWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.BeginRun(ctx, BeginRunInput{IdempotencyKey: "k1", RoleKey: "r", RoleTitle: "R"})
	require.NoError(t, err)
	require.NoError(t, s.MarkRunCompleted(ctx, first.RunID, &model.Diagnostics{}))

	second, err := s.BeginRun(ctx, BeginRunInput{IdempotencyKey: "k1", RoleKey: "r", RoleTitle: "R"})
	require.NoError(t, err)
	assert.True(t, second.Resumed)
	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, model.RunStatusCompleted, second.Status)
}

func TestBeginRunFailedReleasesKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.BeginRun(ctx, BeginRunInput{IdempotencyKey: "k1", RoleKey: "r", RoleTitle: "R"})
	require.NoError(t, err)
	require.NoError(t, s.MarkRunFailed(ctx, first.RunID, &model.Diagnostics{}))

	second, err := s.BeginRun(ctx, BeginRunInput{IdempotencyKey: "k1", RoleKey: "r", RoleTitle: "R"})
	require.NoError(t, err)
	assert.False(t, second.Resumed)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRunDiagnosticsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, s, "k1")

	diag := &model.Diagnostics{
		Counts:         model.RunCounts{Sourced: 10, Enriched: 8, EnrichFailed: 2},
		EffectiveQuery: "keywords=go",
		Modes:          model.RunModes{SourceQueryMode: "broad", EvidenceQueryMode: "strict"},
		StageErrors: []model.StageError{
			{Stage: "external_enrichment", Count: 2, TopMessages: []model.StageMessage{
				{Message: "timeout", ErrorType: "timeout", Count: 2},
			}},
		},
	}
	require.NoError(t, s.MarkRunCompleted(ctx, runID, diag))

	run, err := s.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, run.Status)
	require.NotNil(t, run.FinishedAt)
	require.NotNil(t, run.Diagnostics)
	assert.Equal(t, 10, run.Diagnostics.Counts.Sourced)
	assert.Equal(t, "broad", run.Diagnostics.Modes.SourceQueryMode)
	assert.Len(t, run.Diagnostics.StageErrors, 1)
}

func TestListRecentRunsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		beginTestRun(t, s, fmt.Sprintf("k%d", i))
	}
	runs, err := s.ListRecentRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

// Candidates

func TestUpsertCandidateDedupPaths(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	full := testCandidate(1)
	id, err := s.UpsertCandidate(ctx, full)
	require.NoError(t, err)
	assert.Equal(t, "li:prov-1", id)

	tests := []struct {
		name string
		c    model.Candidate
	}{
		{"by provider id", model.Candidate{ProviderID: "prov-1", Name: "P"}},
		{"by public identifier", model.Candidate{PublicIdentifier: "pub-1", Name: "P"}},
		{"by profile url", model.Candidate{ProfileURL: "https://LinkedIn.com/in/p1/", Name: "P"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.UpsertCandidate(ctx, tt.c)
			require.NoError(t, err)
			assert.Equal(t, id, got)
		})
	}
}

func TestUpsertCandidateGeneratedIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.UpsertCandidate(ctx, model.Candidate{PublicIdentifier: "only-pub", Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, "li_pub:only-pub", id)

	id, err = s.UpsertCandidate(ctx, model.Candidate{ProfileURL: "https://linkedin.com/in/only-url", Name: "B"})
	require.NoError(t, err)
	assert.Contains(t, id, "li_url:")

	id, err = s.UpsertCandidate(ctx, model.Candidate{Name: "C"})
	require.NoError(t, err)
	assert.Contains(t, id, "li_rand:")
}

func TestUpsertCandidateFillsMissingKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.UpsertCandidate(ctx, model.Candidate{PublicIdentifier: "pub-9", Name: "First"})
	require.NoError(t, err)

	// Later sighting carries the provider ID; it merges into the same row.
	same, err := s.UpsertCandidate(ctx, model.Candidate{
		ProviderID: "prov-9", PublicIdentifier: "pub-9", Name: "Updated",
	})
	require.NoError(t, err)
	assert.Equal(t, id, same)

	got, err := s.GetCandidate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "prov-9", got.ProviderID)
	assert.Equal(t, "Updated", got.Name)

	// Now the provider-ID path resolves the same candidate too.
	byProv, err := s.UpsertCandidate(ctx, model.Candidate{ProviderID: "prov-9", Name: "Again"})
	require.NoError(t, err)
	assert.Equal(t, id, byProv)
}

func TestGetCandidateAbsent(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetCandidate(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAddSourceRecordIgnoresDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, s, "k1")
	id, err := s.UpsertCandidate(ctx, testCandidate(1))
	require.NoError(t, err)

	rec := model.SourceRecord{CandidateID: id, RunID: runID, Source: "linkedin_search", SourceRank: 1}
	require.NoError(t, s.AddSourceRecord(ctx, rec))
	require.NoError(t, s.AddSourceRecord(ctx, rec))
}

// Enrichment artifacts

func TestSignalsAndEvidence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, s, "k1")
	id, err := s.UpsertCandidate(ctx, testCandidate(1))
	require.NoError(t, err)

	v := 0.5
	require.NoError(t, s.AddSignals(ctx, []model.Signal{
		{CandidateID: id, RunID: runID, Key: model.SignalBuilderActivity, NumericValue: &v, Source: "linkedin_posts"},
		{CandidateID: id, RunID: runID, Key: model.SignalRoleFit, NumericValue: &v},
	}))

	// Duplicate URL in one run is ignored.
	require.NoError(t, s.AddEvidenceLinks(ctx, []model.EvidenceLink{
		{CandidateID: id, RunID: runID, URL: "https://jane.dev", Relevance: 0.9},
		{CandidateID: id, RunID: runID, URL: "https://jane.dev", Relevance: 0.1},
	}))

	detail, err := s.GetCandidateDetail(ctx, id)
	require.NoError(t, err)
	assert.Len(t, detail.Signals, 2)
	require.Len(t, detail.Evidence, 1)
	assert.Equal(t, 0.9, detail.Evidence[0].Relevance)
}

func TestUpsertIdentityReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id, err := s.UpsertCandidate(ctx, testCandidate(1))
	require.NoError(t, err)

	require.NoError(t, s.UpsertIdentity(ctx, model.Identity{
		CandidateID: id, Platform: model.PlatformCrossPlatform,
		Confidence: 0.7, Band: model.BandMedium, Reasons: []string{"context_partial_match"},
	}))
	require.NoError(t, s.UpsertIdentity(ctx, model.Identity{
		CandidateID: id, Platform: model.PlatformCrossPlatform,
		Handle: "jane", Confidence: 0.95, Band: model.BandConfirmed,
		Reasons: []string{"direct_profile_link"}, ShortlistEligible: true,
	}))

	got, err := s.GetCrossPlatformIdentity(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0.95, got.Confidence)
	assert.Equal(t, model.BandConfirmed, got.Band)
	assert.True(t, got.ShortlistEligible)
	assert.Equal(t, []string{"direct_profile_link"}, got.Reasons)
}

func TestUpsertScoreReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, s, "k1")
	id, err := s.UpsertCandidate(ctx, testCandidate(1))
	require.NoError(t, err)

	score := model.Score{CandidateID: id, RunID: runID, Total: 0.4}
	require.NoError(t, s.UpsertScore(ctx, score))
	score.Total = 0.66
	score.ShortlistEligible = true
	require.NoError(t, s.UpsertScore(ctx, score))

	detail, err := s.GetCandidateDetail(ctx, id)
	require.NoError(t, err)
	require.Len(t, detail.Scores, 1)
	assert.Equal(t, 0.66, detail.Scores[0].Total)
}

// Workflow

func TestReviewUpsertKeepsPriority(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, s, "k1")
	id, err := s.UpsertCandidate(ctx, testCandidate(1))
	require.NoError(t, err)

	priority := 80
	require.NoError(t, s.UpsertReviewStatus(ctx, ReviewUpdate{
		CandidateID: id, RunID: runID, Status: model.ReviewNew, Priority: &priority,
	}))
	// Status change without a priority keeps the assigned one.
	require.NoError(t, s.UpsertReviewStatus(ctx, ReviewUpdate{
		CandidateID: id, RunID: runID, Status: model.ReviewUnderVerification, Notes: "checking",
	}))

	review, err := s.GetReview(ctx, id, runID)
	require.NoError(t, err)
	require.NotNil(t, review)
	assert.Equal(t, model.ReviewUnderVerification, review.Status)
	assert.Equal(t, 80, review.Priority)
	assert.Equal(t, "checking", review.Notes)
}

func TestVerificationFlow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, s, "k1")
	id, err := s.UpsertCandidate(ctx, testCandidate(1))
	require.NoError(t, err)

	confirmed, err := s.HasConfirmedVerification(ctx, id, runID)
	require.NoError(t, err)
	assert.False(t, confirmed)

	require.NoError(t, s.AddVerification(ctx, model.Verification{
		CandidateID: id, RunID: runID,
		Method: model.VerificationMethodBrowser, Outcome: model.VerificationInconclusive,
	}))
	confirmed, err = s.HasConfirmedVerification(ctx, id, runID)
	require.NoError(t, err)
	assert.False(t, confirmed)

	require.NoError(t, s.AddVerification(ctx, model.Verification{
		CandidateID: id, RunID: runID,
		Method: model.VerificationMethodBrowser, Outcome: model.VerificationConfirmed,
		ConfidenceBefore: 0.82, ConfidenceAfter: 0.95,
		ProofLinks: []string{"https://github.com/jane", "https://jane.dev"},
	}))
	confirmed, err = s.HasConfirmedVerification(ctx, id, runID)
	require.NoError(t, err)
	assert.True(t, confirmed)
}

func TestAddPromotionOncePerPair(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, s, "k1")
	id, err := s.UpsertCandidate(ctx, testCandidate(1))
	require.NoError(t, err)

	in := PromotionInput{
		CandidateID: id, RunID: runID,
		PromotionReason: "strong evidence",
		ProofLinks:      []string{"https://github.com/jane", "https://jane.dev"},
	}
	require.NoError(t, s.AddPromotion(ctx, in))

	err = s.AddPromotion(ctx, in)
	assert.ErrorIs(t, err, ErrPromotionExists)

	// The promotion transitioned the review in the same transaction.
	review, err := s.GetReview(ctx, id, runID)
	require.NoError(t, err)
	require.NotNil(t, review)
	assert.Equal(t, model.ReviewPromotedShortlist, review.Status)
}

func TestGetVerificationQueueOrderAndFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, s, "k1")

	add := func(n, priority int, total float64) string {
		id, err := s.UpsertCandidate(ctx, testCandidate(n))
		require.NoError(t, err)
		require.NoError(t, s.UpsertScore(ctx, model.Score{CandidateID: id, RunID: runID, Total: total}))
		require.NoError(t, s.UpsertReviewStatus(ctx, ReviewUpdate{
			CandidateID: id, RunID: runID, Status: model.ReviewUnderVerification, Priority: &priority,
		}))
		return id
	}
	low := add(1, 10, 0.9)
	highA := add(2, 60, 0.5)
	highB := add(3, 60, 0.8)

	// Not under verification, never listed.
	other, err := s.UpsertCandidate(ctx, testCandidate(4))
	require.NoError(t, err)
	require.NoError(t, s.UpsertReviewStatus(ctx, ReviewUpdate{
		CandidateID: other, RunID: runID, Status: model.ReviewNew,
	}))

	entries, err := s.GetVerificationQueue(ctx, runID, QueueFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, highB, entries[0].Candidate.ID)
	assert.Equal(t, highA, entries[1].Candidate.ID)
	assert.Equal(t, low, entries[2].Candidate.ID)

	high, err := s.GetVerificationQueue(ctx, runID, QueueFilter{Priority: "high"})
	require.NoError(t, err)
	assert.Len(t, high, 2)

	limited, err := s.GetVerificationQueue(ctx, runID, QueueFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

// Results

func TestGetResultsPartitionAndTopEvidence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, s, "k1")

	eligible, err := s.UpsertCandidate(ctx, testCandidate(1))
	require.NoError(t, err)
	review, err := s.UpsertCandidate(ctx, testCandidate(2))
	require.NoError(t, err)

	require.NoError(t, s.UpsertIdentity(ctx, model.Identity{
		CandidateID: eligible, Platform: model.PlatformCrossPlatform,
		Handle: "jane", Confidence: 0.95, Band: model.BandConfirmed, ShortlistEligible: true,
	}))
	require.NoError(t, s.UpsertScore(ctx, model.Score{
		CandidateID: eligible, RunID: runID, Total: 0.8, ShortlistEligible: true,
	}))
	require.NoError(t, s.UpsertScore(ctx, model.Score{
		CandidateID: review, RunID: runID, Total: 0.4,
	}))

	var links []model.EvidenceLink
	for i := 0; i < 5; i++ {
		links = append(links, model.EvidenceLink{
			CandidateID: eligible, RunID: runID,
			URL:       fmt.Sprintf("https://jane.dev/%d", i),
			Relevance: float64(i) / 10,
		})
	}
	require.NoError(t, s.AddEvidenceLinks(ctx, links))
	require.NoError(t, s.MarkRunCompleted(ctx, runID, &model.Diagnostics{
		Counts: model.RunCounts{Sourced: 2},
		Modes:  model.RunModes{SourceQueryMode: "default", EvidenceQueryMode: "strict"},
	}))

	results, err := s.GetResults(ctx, runID, 100)
	require.NoError(t, err)

	require.Len(t, results.Shortlist, 1)
	require.Len(t, results.ReviewQueue, 1)
	assert.Equal(t, eligible, results.Shortlist[0].Candidate.ID)
	require.NotNil(t, results.Shortlist[0].Identity)
	assert.Equal(t, "jane", results.Shortlist[0].Identity.Handle)
	assert.Nil(t, results.ReviewQueue[0].Identity)

	// Top-3 by relevance.
	require.Len(t, results.Shortlist[0].Evidence, 3)
	assert.Equal(t, 0.4, results.Shortlist[0].Evidence[0].Relevance)

	assert.Equal(t, 2, results.Meta.Diagnostics.Counts.Sourced)
	assert.Equal(t, "strict", results.Meta.Modes.EvidenceQueryMode)
}

func TestGetResultsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, s, "k1")

	for i := 0; i < 5; i++ {
		id, err := s.UpsertCandidate(ctx, testCandidate(i))
		require.NoError(t, err)
		require.NoError(t, s.UpsertScore(ctx, model.Score{
			CandidateID: id, RunID: runID, Total: float64(i) / 10,
		}))
	}
	require.NoError(t, s.MarkRunCompleted(ctx, runID, &model.Diagnostics{}))

	results, err := s.GetResults(ctx, runID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, len(results.Shortlist)+len(results.ReviewQueue))
}

// The pool holds a single connection, so the per-candidate evidence lookups
// must not run while the score rows are still open. The deadline turns a
// regression into a fast failure instead of a hang.
func TestGetResultsCompletesWithSingleConnection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, s, "k1")

	for i := 0; i < 4; i++ {
		id, err := s.UpsertCandidate(ctx, testCandidate(i))
		require.NoError(t, err)
		require.NoError(t, s.UpsertScore(ctx, model.Score{
			CandidateID: id, RunID: runID, Total: float64(i) / 10,
		}))
		require.NoError(t, s.AddEvidenceLinks(ctx, []model.EvidenceLink{{
			CandidateID: id, RunID: runID,
			URL:       fmt.Sprintf("https://example.com/%d", i),
			Relevance: 0.5,
		}}))
	}
	require.NoError(t, s.MarkRunCompleted(ctx, runID, &model.Diagnostics{}))

	qctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	results, err := s.GetResults(qctx, runID, 10)
	require.NoError(t, err)

	rows := append(results.Shortlist, results.ReviewQueue...)
	require.Len(t, rows, 4)
	for _, row := range rows {
		assert.NotEmpty(t, row.Evidence)
	}
}

// Stats and quotas

func TestDailyStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, s, "k1")
	id, err := s.UpsertCandidate(ctx, testCandidate(1))
	require.NoError(t, err)

	require.NoError(t, s.UpsertReviewStatus(ctx, ReviewUpdate{
		CandidateID: id, RunID: runID, Status: model.ReviewUnderVerification,
	}))
	require.NoError(t, s.AddVerification(ctx, model.Verification{
		CandidateID: id, RunID: runID,
		Method: model.VerificationMethodBrowser, Outcome: model.VerificationConfirmed,
	}))
	require.NoError(t, s.AddPromotion(ctx, PromotionInput{
		CandidateID: id, RunID: runID, ProofLinks: []string{"a", "b"},
	}))

	today := model.TodayUTC()

	workflow, err := s.GetWorkflowStats(ctx, runID, today)
	require.NoError(t, err)
	assert.Equal(t, 1, workflow.PromotedShortlist)

	verification, err := s.GetVerificationStats(ctx, runID, today)
	require.NoError(t, err)
	assert.Equal(t, 1, verification.Submitted)
	assert.Equal(t, 1, verification.Confirmed)

	quota, err := s.GetQuotaStatus(ctx, runID, today)
	require.NoError(t, err)
	assert.Equal(t, 1, quota.PromotedToday)
	assert.Equal(t, 1, quota.ReviewedToday)
	assert.Equal(t, 1, quota.VerificationsToday)

	// Nothing happened yesterday.
	empty, err := s.GetQuotaStatus(ctx, runID, "2000-01-01")
	require.NoError(t, err)
	assert.Zero(t, empty.PromotedToday)
}

func TestStatsRejectInvalidDate(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetWorkflowStats(context.Background(), "r", "bad-date")
	assert.Error(t, err)
	_, err = s.GetQuotaStatus(context.Background(), "r", "bad-date")
	assert.Error(t, err)
}

func TestDailyOutputUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, s, "k1")

	out := model.DailyOutput{RunID: runID, RoleKey: "backend-eng", Date: "2024-05-01", Sourced: 10}
	require.NoError(t, s.UpsertDailyOutput(ctx, out))
	out.Sourced = 25
	out.Promoted = 2
	require.NoError(t, s.UpsertDailyOutput(ctx, out))

	got, err := s.GetDailyOutput(ctx, runID, "backend-eng", "2024-05-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 25, got.Sourced)
	assert.Equal(t, 2, got.Promoted)

	missing, err := s.GetDailyOutput(ctx, runID, "backend-eng", "2024-05-02")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAddRunFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	runID := beginTestRun(t, s, "k1")

	require.NoError(t, s.AddRunFailure(ctx, model.RunFailure{
		RunID: runID, Stage: "external_enrichment", CandidateRef: "prov-1",
		ErrorType: "timeout", Message: "deadline exceeded", Retryable: true,
	}))
}
