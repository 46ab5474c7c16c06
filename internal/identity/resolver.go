// Package identity resolves cross-platform candidate identity with a fixed
// rule table. Resolution is deterministic and reads only its input.
package identity

import (
	"strings"

	"github.com/sells-group/recruiting-cli/internal/model"
)

// Rule confidence scores.
const (
	scoreDirectProfileLink = 0.95
	scoreReverseLinkSite   = 0.90
	scoreStrongContext     = 0.82
	scorePartialContext    = 0.70
)

// Reason tags recorded on the resolved identity.
const (
	ReasonDirectProfileLink = "direct_profile_link"
	ReasonReverseLinkSite   = "reverse_link_via_site"
	ReasonStrongContext     = "strong_context_employer_location_handle"
	ReasonPartialContext    = "context_partial_match"
	ReasonUnconfirmed       = "unconfirmed_no_strong_match"
)

// PlatformHint is what enrichment discovered about one external platform
// presence. Only Handle and URL are guaranteed; the declared cross-links and
// context fields are filled when the page exposed them.
type PlatformHint struct {
	Handle      string
	URL         string
	LinkedInURL string
	Employer    string
	Location    string
}

// SiteHint is a discovered personal site and the profile links it declares.
type SiteHint struct {
	URL         string
	LinkedInURL string
	GitHubURL   string
	XURL        string
}

// Input is everything the resolver may read.
type Input struct {
	CandidateID      string
	LinkedInURL      string
	LinkedInEmployer string
	LinkedInLocation string
	GitHub           *PlatformHint
	X                *PlatformHint
	PersonalSite     *SiteHint
}

// Result is the resolved cross-platform identity plus the per-platform rows
// to persist alongside it.
type Result struct {
	CrossPlatform model.Identity
	Platforms     []model.Identity
}

// Resolve applies every rule and keeps the maximum score. Band and shortlist
// eligibility follow the standard thresholds; the caller may override
// eligibility against its configured minimum.
func Resolve(in Input) Result {
	linkedin := normalizeURL(in.LinkedInURL)

	confidence := 0.0
	var reasons []string
	fire := func(score float64, reason string) {
		if score > confidence {
			confidence = score
		}
		reasons = append(reasons, reason)
	}

	if directProfileLink(linkedin, in) {
		fire(scoreDirectProfileLink, ReasonDirectProfileLink)
	}
	if reverseLinkViaSite(linkedin, in) {
		fire(scoreReverseLinkSite, ReasonReverseLinkSite)
	}
	employer := contextMatch(in.LinkedInEmployer, githubField(in, func(h *PlatformHint) string { return h.Employer }))
	location := contextMatch(in.LinkedInLocation, githubField(in, func(h *PlatformHint) string { return h.Location }))
	handles := handleMatch(in.GitHub, in.X)
	if employer && location && handles {
		fire(scoreStrongContext, ReasonStrongContext)
	} else if (employer && location) || (employer && handles) {
		fire(scorePartialContext, ReasonPartialContext)
	}
	if len(reasons) == 0 {
		reasons = []string{ReasonUnconfirmed}
	}

	confidence = model.Round3(model.Clamp01(confidence))
	band := model.BandFor(confidence)

	cross := model.Identity{
		CandidateID:       in.CandidateID,
		Platform:          model.PlatformCrossPlatform,
		Confidence:        confidence,
		Band:              band,
		Reasons:           reasons,
		ShortlistEligible: band == model.BandConfirmed || band == model.BandHigh,
	}
	if in.GitHub != nil {
		cross.Handle = in.GitHub.Handle
		cross.URL = in.GitHub.URL
	} else if in.X != nil {
		cross.Handle = in.X.Handle
		cross.URL = in.X.URL
	}

	result := Result{CrossPlatform: cross}
	if in.LinkedInURL != "" {
		result.Platforms = append(result.Platforms, model.Identity{
			CandidateID: in.CandidateID,
			Platform:    model.PlatformLinkedIn,
			URL:         in.LinkedInURL,
			Confidence:  1,
			Band:        model.BandConfirmed,
			Reasons:     []string{"sourced_profile"},
		})
	}
	if in.GitHub != nil {
		result.Platforms = append(result.Platforms, platformIdentity(in.CandidateID, model.PlatformGitHub, in.GitHub, confidence, band))
	}
	if in.X != nil {
		result.Platforms = append(result.Platforms, platformIdentity(in.CandidateID, model.PlatformX, in.X, confidence, band))
	}
	return result
}

func platformIdentity(candidateID, platform string, h *PlatformHint, confidence float64, band model.ConfidenceBand) model.Identity {
	return model.Identity{
		CandidateID: candidateID,
		Platform:    platform,
		Handle:      h.Handle,
		URL:         h.URL,
		Confidence:  confidence,
		Band:        band,
	}
}

func directProfileLink(linkedin string, in Input) bool {
	if linkedin == "" {
		return false
	}
	declared := []string{}
	if in.GitHub != nil {
		declared = append(declared, in.GitHub.LinkedInURL)
	}
	if in.X != nil {
		declared = append(declared, in.X.LinkedInURL)
	}
	if in.PersonalSite != nil {
		declared = append(declared, in.PersonalSite.LinkedInURL)
	}
	for _, d := range declared {
		if d != "" && normalizeURL(d) == linkedin {
			return true
		}
	}
	return false
}

func reverseLinkViaSite(linkedin string, in Input) bool {
	if linkedin == "" || in.PersonalSite == nil {
		return false
	}
	if in.GitHub != nil && in.PersonalSite.GitHubURL != "" &&
		normalizeURL(in.PersonalSite.GitHubURL) == normalizeURL(in.GitHub.URL) {
		return true
	}
	if in.X != nil && in.PersonalSite.XURL != "" &&
		normalizeURL(in.PersonalSite.XURL) == normalizeURL(in.X.URL) {
		return true
	}
	return false
}

func githubField(in Input, get func(*PlatformHint) string) string {
	if in.GitHub == nil {
		return ""
	}
	return get(in.GitHub)
}

func contextMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	return a != "" && a == b
}

func handleMatch(github, x *PlatformHint) bool {
	if github == nil || x == nil {
		return false
	}
	g := strings.ToLower(strings.TrimSpace(github.Handle))
	h := strings.ToLower(strings.TrimSpace(x.Handle))
	return g != "" && g == h
}

func normalizeURL(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	return strings.TrimSuffix(u, "/")
}
