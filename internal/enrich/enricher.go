// Package enrich discovers a candidate's external web footprint: GitHub / X /
// personal-site identity hints, supporting evidence links, and keyword-derived
// signals from fetched page text.
package enrich

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/recruiting-cli/internal/identity"
	"github.com/sells-group/recruiting-cli/internal/model"
	"github.com/sells-group/recruiting-cli/pkg/webfetch"
	"github.com/sells-group/recruiting-cli/pkg/websearch"
)

// Evidence query modes.
const (
	ModeDefault = "default"
	ModeStrict  = "strict"
)

var (
	aiKeywords      = []string{"codex", "claude code", "mcp", "agent", "agents", "autogen"}
	builderKeywords = []string{"shipped", "release", "launched", "production", "deployed", "commit", "pr"}
)

const (
	searchCacheTTL  = 15 * time.Minute
	fetchCacheTTL   = 60 * time.Minute
	fetchMaxChars   = 8000
	aiEvidenceFloor = 0.35
)

// Candidate is the slice of candidate data the enricher reads.
type Candidate struct {
	ID       string
	Name     string
	Company  string
	Headline string
}

// Footprint is the enrichment result for one candidate.
type Footprint struct {
	Signals      []model.Signal
	Evidence     []model.EvidenceLink
	GitHub       *identity.PlatformHint
	X            *identity.PlatformHint
	PersonalSite *identity.SiteHint
	// Discovered counts distinct external URLs found.
	Discovered int
}

// Enricher runs person searches and page fetches with process-wide caches.
type Enricher struct {
	search websearch.Client
	fetch  webfetch.Client

	searchCache *ttlCache[[]websearch.Result]
	fetchCache  *ttlCache[string]
	noCache     bool
}

// Option configures the enricher.
type Option func(*Enricher)

// WithoutCache disables the TTL caches, mainly for tests.
func WithoutCache() Option {
	return func(e *Enricher) { e.noCache = true }
}

// New creates an enricher around the search and fetch collaborators.
func New(search websearch.Client, fetch webfetch.Client, opts ...Option) *Enricher {
	e := &Enricher{
		search:      search,
		fetch:       fetch,
		searchCache: newTTLCache[[]websearch.Result](searchCacheTTL),
		fetchCache:  newTTLCache[string](fetchCacheTTL),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExternalFootprint searches for the candidate's external presence, extracts
// identity hints, assembles deduped evidence, fetches page text for the top
// links, and derives keyword signals.
func (e *Enricher) ExternalFootprint(ctx context.Context, c Candidate, mode string) (*Footprint, error) {
	baseQuery := joinNonEmpty(c.Name, c.Company, c.Headline)
	strict := mode == ModeStrict

	var githubHits, socialHits, webHits, strictHits []websearch.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		githubHits, err = e.doSearch(gctx, websearch.Request{
			Query:          baseQuery + " github",
			Count:          5,
			SearchType:     "deep",
			IncludeDomains: []string{"github.com"},
		})
		return err
	})
	g.Go(func() (err error) {
		socialHits, err = e.doSearch(gctx, websearch.Request{
			Query:          baseQuery + " x.com OR twitter.com",
			Count:          5,
			SearchType:     "deep",
			IncludeDomains: []string{"x.com", "twitter.com"},
		})
		return err
	})
	g.Go(func() (err error) {
		webHits, err = e.doSearch(gctx, websearch.Request{
			Query:      baseQuery + " blog portfolio personal site",
			Count:      5,
			SearchType: "deep",
		})
		return err
	})
	if strict {
		g.Go(func() (err error) {
			strictHits, err = e.doSearch(gctx, websearch.Request{
				Query:      baseQuery + ` ("claude code" OR codex OR mcp OR agent tooling OR "model context protocol")`,
				Count:      8,
				SearchType: "deep",
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fp := &Footprint{}
	fp.GitHub = githubHint(githubHits)
	fp.X = socialHint(socialHits)
	fp.PersonalSite = personalSiteHint(webHits)

	identityHits := collectIdentityHits(fp, githubHits, socialHits, webHits)
	evidence := dedupeEvidence(c.ID, append(identityHits, strictHits...))
	fp.Evidence = evidence
	fp.Discovered = len(evidence)

	fetchN := 3
	if strict {
		fetchN = 5
	}
	var contents []string
	for i, ev := range evidence {
		if i >= fetchN {
			break
		}
		content, err := e.doFetch(ctx, ev.URL)
		if err != nil {
			// One unfetchable page does not sink the footprint.
			continue
		}
		contents = append(contents, content)
	}

	fp.Signals = deriveSignals(c.ID, strictHits, contents)
	return fp, nil
}

func (e *Enricher) doSearch(ctx context.Context, req websearch.Request) ([]websearch.Result, error) {
	key := searchKey(req)
	if !e.noCache {
		if hits, ok := e.searchCache.Get(key); ok {
			return hits, nil
		}
	}
	resp, err := e.search.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	hits := resp.Details.Results
	if !e.noCache {
		e.searchCache.Set(key, hits)
	}
	return hits, nil
}

func (e *Enricher) doFetch(ctx context.Context, pageURL string) (string, error) {
	if !e.noCache {
		if content, ok := e.fetchCache.Get(pageURL); ok {
			return content, nil
		}
	}
	resp, err := e.fetch.Execute(ctx, webfetch.Request{
		URL:         pageURL,
		ExtractMode: "text",
		MaxChars:    fetchMaxChars,
	})
	if err != nil {
		return "", err
	}
	content := resp.Details.Content
	if !e.noCache {
		e.fetchCache.Set(pageURL, content)
	}
	return content, nil
}

func searchKey(req websearch.Request) string {
	var b strings.Builder
	b.WriteString(req.Query)
	b.WriteString("|")
	b.WriteString(req.Category)
	b.WriteString("|")
	for _, d := range req.IncludeDomains {
		b.WriteString(d)
		b.WriteString(",")
	}
	b.WriteString("|")
	b.WriteString(strings.ToLower(req.SearchType))
	b.WriteString("|")
	b.WriteString(strconv.Itoa(req.Count))
	return b.String()
}

// identity hint extraction

func githubHint(hits []websearch.Result) *identity.PlatformHint {
	for _, h := range hits {
		host, path := hostPath(h.URL)
		if !strings.Contains(host, "github.com") {
			continue
		}
		handle := firstPathSegment(path)
		if handle == "" {
			continue
		}
		return &identity.PlatformHint{Handle: handle, URL: h.URL}
	}
	return nil
}

func socialHint(hits []websearch.Result) *identity.PlatformHint {
	for _, h := range hits {
		host, path := hostPath(h.URL)
		if !strings.Contains(host, "x.com") && !strings.Contains(host, "twitter.com") {
			continue
		}
		handle := firstPathSegment(path)
		if handle == "" {
			continue
		}
		return &identity.PlatformHint{Handle: handle, URL: h.URL}
	}
	return nil
}

func personalSiteHint(hits []websearch.Result) *identity.SiteHint {
	for _, h := range hits {
		host, _ := hostPath(h.URL)
		if host == "" ||
			strings.Contains(host, "linkedin.com") ||
			strings.Contains(host, "github.com") {
			continue
		}
		return &identity.SiteHint{URL: h.URL}
	}
	return nil
}

func hostPath(raw string) (string, string) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", ""
	}
	return strings.ToLower(u.Host), u.Path
}

func firstPathSegment(path string) string {
	for _, seg := range strings.Split(path, "/") {
		seg = strings.TrimPrefix(strings.TrimSpace(seg), "@")
		if seg != "" {
			return seg
		}
	}
	return ""
}

// evidence

// collectIdentityHits maps each identity hint back to its original search hit
// so title and score survive into the evidence links.
func collectIdentityHits(fp *Footprint, githubHits, socialHits, webHits []websearch.Result) []websearch.Result {
	var hits []websearch.Result
	if fp.GitHub != nil {
		hits = append(hits, hitForURL(githubHits, fp.GitHub.URL, "github"))
	}
	if fp.X != nil {
		hits = append(hits, hitForURL(socialHits, fp.X.URL, "x"))
	}
	if fp.PersonalSite != nil {
		hits = append(hits, hitForURL(webHits, fp.PersonalSite.URL, "web"))
	}
	return hits
}

func hitForURL(hits []websearch.Result, matchURL, site string) websearch.Result {
	for _, h := range hits {
		if h.URL == matchURL {
			if h.SiteName == "" {
				h.SiteName = site
			}
			return h
		}
	}
	return websearch.Result{URL: matchURL, SiteName: site}
}

// dedupeEvidence keeps the first occurrence of each URL.
func dedupeEvidence(candidateID string, hits []websearch.Result) []model.EvidenceLink {
	seen := make(map[string]bool, len(hits))
	var links []model.EvidenceLink
	for _, h := range hits {
		if h.URL == "" || seen[h.URL] {
			continue
		}
		seen[h.URL] = true
		relevance := h.Score
		if relevance <= 0 {
			relevance = 0.5
		}
		links = append(links, model.EvidenceLink{
			CandidateID: candidateID,
			URL:         h.URL,
			Title:       h.Title,
			Source:      sourceFor(h),
			Relevance:   model.Clamp01(relevance),
		})
	}
	return links
}

func sourceFor(h websearch.Result) string {
	if h.SiteName != "" {
		return h.SiteName
	}
	return "web_search"
}

// signals

func deriveSignals(candidateID string, strictHits []websearch.Result, contents []string) []model.Signal {
	var signals []model.Signal

	aiScore := keywordScore(strings.Join(contents, " "), aiKeywords)
	if strictHitMentions(strictHits) && aiScore < aiEvidenceFloor {
		aiScore = aiEvidenceFloor
	}
	if aiScore > 0 {
		v := aiScore
		signals = append(signals, model.Signal{
			CandidateID:  candidateID,
			Key:          model.SignalAINativeEvidence,
			NumericValue: &v,
			Source:       "external_web",
		})
	}

	builderScore := keywordScore(strings.Join(contents, " "), builderKeywords)
	if builderScore > 0 {
		v := builderScore
		signals = append(signals, model.Signal{
			CandidateID:  candidateID,
			Key:          model.SignalBuilderActivity,
			NumericValue: &v,
			Source:       "external_web",
		})
	}
	return signals
}

func strictHitMentions(hits []websearch.Result) bool {
	for _, h := range hits {
		haystack := strings.ToLower(h.Title + " " + h.Description)
		for _, kw := range aiKeywords {
			if strings.Contains(haystack, kw) {
				return true
			}
		}
	}
	return false
}

// keywordScore = min(1, matches / max(2, len(keywords)/2)) where matches is
// the number of distinct keywords present.
func keywordScore(text string, keywords []string) float64 {
	lower := strings.ToLower(text)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			matches++
		}
	}
	denominator := len(keywords) / 2
	if denominator < 2 {
		denominator = 2
	}
	score := float64(matches) / float64(denominator)
	if score > 1 {
		score = 1
	}
	return score
}

func joinNonEmpty(parts ...string) string {
	var keep []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keep = append(keep, p)
		}
	}
	return strings.Join(keep, " ")
}
