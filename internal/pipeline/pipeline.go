// Package pipeline orchestrates candidate sourcing runs and the hybrid
// review workflow on top of the persistence store.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/recruiting-cli/internal/config"
	"github.com/sells-group/recruiting-cli/internal/enrich"
	"github.com/sells-group/recruiting-cli/internal/identity"
	"github.com/sells-group/recruiting-cli/internal/model"
	"github.com/sells-group/recruiting-cli/internal/resilience"
	"github.com/sells-group/recruiting-cli/internal/scorer"
	"github.com/sells-group/recruiting-cli/internal/store"
	"github.com/sells-group/recruiting-cli/pkg/unipile"
)

// Pipeline stage labels used in failures and diagnostics.
const (
	StagePreflight  = "linkedin_preflight"
	StageSearch     = "linkedin_search"
	StageProfile    = "linkedin_profile"
	StageActivity   = "linkedin_activity"
	StageEnrichment = "external_enrichment"
	StagePersist    = "persist"
)

const (
	searchPageSize   = 50
	minSearchPages   = 3
	maxTarget        = 2000
	recentWindowDays = 90
	activityDivisor  = 12
)

// Pipeline wires the store, the LinkedIn collaborator, and the external
// enricher into the run state machine.
type Pipeline struct {
	store    store.Store
	linkedin unipile.Client
	enricher *enrich.Enricher
	account  unipile.Account
	cfg      config.RecruitingConfig
}

// New assembles a pipeline. The LinkedIn client may be nil when the account
// is unusable; preflight fails the run before it is dereferenced.
func New(st store.Store, linkedin unipile.Client, enricher *enrich.Enricher, account unipile.Account, cfg config.RecruitingConfig) *Pipeline {
	return &Pipeline{store: st, linkedin: linkedin, enricher: enricher, account: account, cfg: cfg}
}

// RunInput describes one sourcing run request.
type RunInput struct {
	RoleKey                    string
	RoleTitle                  string
	Search                     unipile.SearchParams
	TargetCandidates           int
	IdempotencyKey             string
	BrowserVerificationEnabled bool
	SourceQueryMode            string
	EvidenceQueryMode          string
}

// RunOutput reports the winning run for the request.
type RunOutput struct {
	RunID   string          `json:"runId"`
	Resumed bool            `json:"resumed"`
	Status  model.RunStatus `json:"status"`
}

// Run executes the sourcing state machine. Failures inside the run are
// classified, persisted, and reflected in the returned status; only store
// bookkeeping errors before the run exists surface as an error.
func (p *Pipeline) Run(ctx context.Context, in RunInput) (*RunOutput, error) {
	target := clampTarget(in.TargetCandidates, p.cfg.Run.TargetCandidatesPerRole)

	key := in.IdempotencyKey
	if key == "" {
		key = fmt.Sprintf("%s:%d:%s", in.RoleKey, target, model.TodayUTC())
	}

	begin, err := p.store.BeginRun(ctx, store.BeginRunInput{
		IdempotencyKey:   key,
		RoleKey:          in.RoleKey,
		RoleTitle:        in.RoleTitle,
		TargetCandidates: target,
		Criteria:         serializeCriteria(in, target),
	})
	if err != nil {
		return nil, err
	}
	if begin.Resumed {
		zap.L().Info("run resumed for idempotency key",
			zap.String("run_id", begin.RunID),
			zap.String("idempotency_key", key),
		)
		return &RunOutput{RunID: begin.RunID, Resumed: true, Status: begin.Status}, nil
	}

	runID := begin.RunID
	modes := model.RunModes{
		SourceQueryMode:   orDefault(in.SourceQueryMode, SourceModeDefault),
		EvidenceQueryMode: orDefault(in.EvidenceQueryMode, enrich.ModeDefault),
	}
	acc := newRunAccumulator()

	diag, fatal := p.execute(ctx, runID, in, target, modes, acc)
	diag.Account = accountHealth(p.account)

	if fatal != nil {
		diag.Failure = &model.RunFailureInfo{
			Stage:     fatal.Stage,
			ErrorType: string(fatal.Kind),
			Message:   fatal.Message,
			Retryable: fatal.Retryable,
		}
		p.recordFailure(ctx, runID, fatal, "")
		if err := p.store.MarkRunFailed(ctx, runID, diag); err != nil {
			zap.L().Error("mark run failed", zap.String("run_id", runID), zap.Error(err))
		}
		return &RunOutput{RunID: runID, Status: model.RunStatusFailed}, nil
	}

	if err := p.store.MarkRunCompleted(ctx, runID, diag); err != nil {
		zap.L().Error("mark run completed", zap.String("run_id", runID), zap.Error(err))
	}
	p.recordDailyOutput(ctx, runID, in.RoleKey, diag.Counts.Sourced)

	return &RunOutput{RunID: runID, Status: model.RunStatusCompleted}, nil
}

// execute runs preflight, sourcing, and the per-candidate loop. A returned
// stage error is fatal for the run.
func (p *Pipeline) execute(ctx context.Context, runID string, in RunInput, target int, modes model.RunModes, acc *runAccumulator) (*model.Diagnostics, *resilience.StageError) {
	params := normalizeSearch(in.Search, modes.SourceQueryMode)
	query := effectiveQuery(params)

	if se := p.preflight(); se != nil {
		return acc.diagnostics(nil, query, modes), se
	}

	params.PageSize = searchPageSize
	params.MaxPages = searchPages(target)

	result, err := resilience.WithRetry(ctx, "unipile", func(ctx context.Context) (*unipile.SearchResult, error) {
		return p.linkedin.SearchTalent(ctx, params)
	})
	if err != nil {
		cls := unipile.ClassifyError(err)
		return acc.diagnostics(nil, query, modes), &resilience.StageError{
			Stage: StageSearch, Kind: resilience.Kind(cls.Type),
			Message: cls.Message, Retryable: cls.IsTransient, Err: err,
		}
	}
	if !result.Success {
		return acc.diagnostics(nil, query, modes),
			resilience.NewStageError(StageSearch, resilience.KindAPI, result.Error)
	}

	candidates := result.Candidates
	if len(candidates) > target {
		candidates = candidates[:target]
	}

	for rank, sourced := range candidates {
		acc.counts.Sourced++
		if err := p.processCandidate(ctx, runID, sourced, rank+1, in, modes, acc); err != nil {
			acc.counts.EnrichFailed++
			se := resilience.Classify(StageEnrichment, err)
			acc.recordFailure(se.Stage, string(se.Kind), se.Message)
			p.recordFailure(ctx, runID, se, candidateRef(sourced))
			zap.L().Warn("candidate enrichment failed",
				zap.String("run_id", runID),
				zap.String("candidate", candidateRef(sourced)),
				zap.Error(err),
			)
			continue
		}
		acc.counts.Enriched++
	}

	return acc.diagnostics(nil, query, modes), nil
}

func (p *Pipeline) preflight() *resilience.StageError {
	if !p.account.Enabled {
		return resilience.NewStageError(StagePreflight, resilience.KindAuth, "linkedin account is disabled")
	}
	if len(p.account.MissingCredentials) > 0 || p.linkedin == nil {
		return resilience.NewStageError(StagePreflight, resilience.KindAuth,
			fmt.Sprintf("missing credentials: %v", p.account.MissingCredentials))
	}
	return nil
}

// processCandidate upserts, fetches profile and activity in parallel,
// enriches externally, resolves identity, scores, and persists everything in
// one batch so a candidate is either fully recorded or recorded as failed.
func (p *Pipeline) processCandidate(ctx context.Context, runID string, sourced unipile.SourcedCandidate, rank int, in RunInput, modes model.RunModes, acc *runAccumulator) error {
	candidateID, err := p.store.UpsertCandidate(ctx, model.Candidate{
		Provider:         model.ProviderLinkedIn,
		ProviderID:       sourced.ProviderID,
		PublicIdentifier: sourced.PublicIdentifier,
		ProfileURL:       sourced.ProfileURL,
		Name:             sourced.Name,
		Headline:         sourced.Headline,
		Location:         sourced.Location,
		CurrentCompany:   sourced.CurrentCompany,
		CurrentRole:      sourced.CurrentRole,
	})
	if err != nil {
		return err
	}

	payload, _ := json.Marshal(sourced)
	if err := p.store.AddSourceRecord(ctx, model.SourceRecord{
		CandidateID: candidateID,
		RunID:       runID,
		Source:      "linkedin_search",
		SourceRank:  rank,
		Payload:     string(payload),
	}); err != nil {
		return err
	}

	var profile *unipile.Profile
	var posts, comments, reactions *unipile.ActivityPage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		profile, err = resilience.WithRetry(gctx, "unipile", func(ctx context.Context) (*unipile.Profile, error) {
			return p.linkedin.GetUserProfile(ctx, sourced.ProviderID)
		})
		return stageWrap(StageProfile, err)
	})
	fetchFeed := func(dst **unipile.ActivityPage, fetch func(context.Context, string) (*unipile.ActivityPage, error)) func() error {
		return func() error {
			page, err := resilience.WithRetry(gctx, "unipile", func(ctx context.Context) (*unipile.ActivityPage, error) {
				return fetch(ctx, sourced.ProviderID)
			})
			*dst = page
			return stageWrap(StageActivity, err)
		}
	}
	g.Go(fetchFeed(&posts, p.linkedin.GetUserPosts))
	g.Go(fetchFeed(&comments, p.linkedin.GetUserComments))
	g.Go(fetchFeed(&reactions, p.linkedin.GetUserReactions))
	if err := g.Wait(); err != nil {
		return err
	}

	signals := activitySignals(candidateID, runID, posts, comments, reactions)
	signals = append(signals, profileSignals(candidateID, runID, profile, sourced)...)

	footprint, err := resilience.WithRetry(ctx, "web_search", func(ctx context.Context) (*enrich.Footprint, error) {
		return p.enricher.ExternalFootprint(ctx, enrich.Candidate{
			ID:       candidateID,
			Name:     sourced.Name,
			Company:  currentCompany(profile, sourced),
			Headline: headline(profile, sourced),
		}, modes.EvidenceQueryMode)
	})
	if err != nil {
		return stageWrap(StageEnrichment, err)
	}
	acc.counts.ExternalDiscovered += footprint.Discovered
	for _, s := range footprint.Signals {
		s.RunID = runID
		signals = append(signals, s)
	}

	resolved := identity.Resolve(identity.Input{
		CandidateID:      candidateID,
		LinkedInURL:      sourced.ProfileURL,
		LinkedInEmployer: currentCompany(profile, sourced),
		LinkedInLocation: location(profile, sourced),
		GitHub:           footprint.GitHub,
		X:                footprint.X,
		PersonalSite:     footprint.PersonalSite,
	})
	cross := resolved.CrossPlatform
	cross.ShortlistEligible = cross.Confidence >= p.cfg.Identity.MinConfidenceForShortlist

	switch cross.Band {
	case model.BandConfirmed, model.BandHigh:
		acc.counts.IdentityConfirmedHi++
	default:
		acc.counts.IdentityMediumLow++
	}
	if cross.ShortlistEligible {
		acc.counts.ShortlistEligible++
	}

	if needsBrowserVerification(in.BrowserVerificationEnabled, p.cfg.BrowserVerification.Mode, cross.Band) {
		one := 1.0
		signals = append(signals, model.Signal{
			CandidateID:  candidateID,
			RunID:        runID,
			Key:          model.SignalBrowserVerifyNeeded,
			NumericValue: &one,
			Source:       "identity_resolver",
		})
	}

	evidence := assembleEvidence(candidateID, runID, sourced.ProfileURL, footprint.Evidence)

	score := scorer.Compute(scorer.Input{
		CandidateID: candidateID,
		RunID:       runID,
		Signals:     signals,
		Identity:    cross,
		Evidence:    evidence,
		OpenToWork:  profile != nil && profile.IsOpenToWork,
	})

	// Persist only after every collaborator call has returned.
	if err := p.persistCandidate(ctx, cross, resolved.Platforms, signals, score, evidence); err != nil {
		return stageWrap(StagePersist, err)
	}
	return nil
}

func (p *Pipeline) persistCandidate(ctx context.Context, cross model.Identity, platforms []model.Identity, signals []model.Signal, score model.Score, evidence []model.EvidenceLink) error {
	if err := p.store.UpsertIdentity(ctx, cross); err != nil {
		return err
	}
	for _, platform := range platforms {
		if err := p.store.UpsertIdentity(ctx, platform); err != nil {
			return err
		}
	}
	if err := p.store.AddSignals(ctx, signals); err != nil {
		return err
	}
	if err := p.store.UpsertScore(ctx, score); err != nil {
		return err
	}
	return p.store.AddEvidenceLinks(ctx, evidence)
}

func (p *Pipeline) recordFailure(ctx context.Context, runID string, se *resilience.StageError, candidateRef string) {
	err := p.store.AddRunFailure(ctx, model.RunFailure{
		RunID:        runID,
		Stage:        se.Stage,
		CandidateRef: candidateRef,
		ErrorType:    string(se.Kind),
		Message:      se.Message,
		Retryable:    se.Retryable,
	})
	if err != nil {
		zap.L().Error("record run failure", zap.String("run_id", runID), zap.Error(err))
	}
}

func (p *Pipeline) recordDailyOutput(ctx context.Context, runID, roleKey string, sourced int) {
	err := p.store.UpsertDailyOutput(ctx, model.DailyOutput{
		RunID:   runID,
		RoleKey: roleKey,
		Date:    model.TodayUTC(),
		Sourced: sourced,
	})
	if err != nil {
		zap.L().Error("record daily output", zap.String("run_id", runID), zap.Error(err))
	}
}

// signal derivation

func activitySignals(candidateID, runID string, posts, comments, reactions *unipile.ActivityPage) []model.Signal {
	cutoff := time.Now().UTC().AddDate(0, 0, -recentWindowDays).UnixMilli()
	feeds := []struct {
		name string
		page *unipile.ActivityPage
	}{
		{"linkedin_posts", posts},
		{"linkedin_comments", comments},
		{"linkedin_reactions", reactions},
	}
	var signals []model.Signal
	for _, feed := range feeds {
		if feed.page == nil {
			continue
		}
		recent := 0
		for _, item := range feed.page.Items {
			if ts, ok := model.ParseActivityTime(item.Timestamp); ok && ts >= cutoff {
				recent++
			}
		}
		v := float64(recent) / activityDivisor
		if v > 1 {
			v = 1
		}
		signals = append(signals, model.Signal{
			CandidateID:  candidateID,
			RunID:        runID,
			Key:          model.SignalBuilderActivity,
			NumericValue: &v,
			Source:       feed.name,
		})
	}
	return signals
}

func profileSignals(candidateID, runID string, profile *unipile.Profile, sourced unipile.SourcedCandidate) []model.Signal {
	depth := 0.0
	if profile != nil && len(profile.Skills) > 0 {
		depth = float64(len(profile.Skills)) / activityDivisor
		if depth > 1 {
			depth = 1
		}
	}
	fit := 0.3
	if headline(profile, sourced) != "" {
		fit = 0.6
	}
	return []model.Signal{
		{CandidateID: candidateID, RunID: runID, Key: model.SignalTechnicalDepth, NumericValue: &depth, Source: "linkedin_profile"},
		{CandidateID: candidateID, RunID: runID, Key: model.SignalRoleFit, NumericValue: &fit, Source: "linkedin_profile"},
	}
}

// assembleEvidence puts the sourced profile first at full relevance, then the
// external links, deduped by URL with first-seen winning.
func assembleEvidence(candidateID, runID, profileURL string, external []model.EvidenceLink) []model.EvidenceLink {
	var links []model.EvidenceLink
	seen := make(map[string]bool)
	if profileURL != "" {
		links = append(links, model.EvidenceLink{
			CandidateID: candidateID,
			RunID:       runID,
			URL:         profileURL,
			Source:      "linkedin",
			Relevance:   1,
		})
		seen[profileURL] = true
	}
	for _, l := range external {
		if seen[l.URL] {
			continue
		}
		seen[l.URL] = true
		l.CandidateID = candidateID
		l.RunID = runID
		links = append(links, l)
	}
	return links
}

func needsBrowserVerification(enabled bool, mode string, band model.ConfidenceBand) bool {
	if !enabled {
		return false
	}
	if mode == config.BrowserVerifyAlways {
		return true
	}
	return band == model.BandHigh
}

// helpers

func clampTarget(requested, configured int) int {
	target := requested
	if target == 0 {
		target = configured
	}
	if target < 1 {
		target = 1
	}
	if target > maxTarget {
		target = maxTarget
	}
	return target
}

func searchPages(target int) int {
	pages := (target + searchPageSize - 1) / searchPageSize
	if pages < minSearchPages {
		pages = minSearchPages
	}
	return pages
}

func serializeCriteria(in RunInput, target int) string {
	blob, _ := json.Marshal(map[string]any{
		"search":               in.Search,
		"target_candidates":    target,
		"source_query_mode":    orDefault(in.SourceQueryMode, SourceModeDefault),
		"evidence_query_mode":  orDefault(in.EvidenceQueryMode, enrich.ModeDefault),
		"browser_verification": in.BrowserVerificationEnabled,
	})
	return string(blob)
}

func accountHealth(acct unipile.Account) *model.AccountHealth {
	return &model.AccountHealth{
		AccountID:          acct.AccountID,
		Enabled:            acct.Enabled,
		APIKeySource:       acct.APIKeySource,
		MissingCredentials: acct.MissingCredentials,
	}
}

func stageWrap(stage string, err error) error {
	if err == nil {
		return nil
	}
	return resilience.Classify(stage, err)
}

func candidateRef(c unipile.SourcedCandidate) string {
	if c.ProviderID != "" {
		return c.ProviderID
	}
	if c.PublicIdentifier != "" {
		return c.PublicIdentifier
	}
	return c.ProfileURL
}

func currentCompany(p *unipile.Profile, s unipile.SourcedCandidate) string {
	if p != nil && p.CurrentCompany != "" {
		return p.CurrentCompany
	}
	return s.CurrentCompany
}

func headline(p *unipile.Profile, s unipile.SourcedCandidate) string {
	if p != nil && p.Headline != "" {
		return p.Headline
	}
	return s.Headline
}

func location(p *unipile.Profile, s unipile.SourcedCandidate) string {
	if p != nil && p.Location != "" {
		return p.Location
	}
	return s.Location
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
