package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ProviderLinkedIn is the only sourcing provider currently supported.
const ProviderLinkedIn = "linkedin"

// Candidate is a provider-scoped person record. Three natural keys
// (provider ID, public identifier, normalized profile URL hash) dedup to the
// same candidate.
type Candidate struct {
	ID               string `json:"id"`
	Provider         string `json:"provider"`
	ProviderID       string `json:"providerId,omitempty"`
	PublicIdentifier string `json:"publicIdentifier,omitempty"`
	ProfileURL       string `json:"profileUrl,omitempty"`
	ProfileURLHash   string `json:"profileUrlHash,omitempty"`
	Name             string `json:"name"`
	Headline         string `json:"headline,omitempty"`
	Location         string `json:"location,omitempty"`
	CurrentCompany   string `json:"currentCompany,omitempty"`
	CurrentRole      string `json:"currentRole,omitempty"`
	OpenToWork       bool   `json:"openToWork,omitempty"`
	FirstSeenAt      Millis `json:"firstSeenAt"`
	LastSeenAt       Millis `json:"lastSeenAt"`
}

// SourceRecord is the raw sourcing snapshot for a (candidate, run, source,
// rank) tuple. Append-only.
type SourceRecord struct {
	CandidateID string `json:"candidateId"`
	RunID       string `json:"runId"`
	Source      string `json:"source"`
	SourceRank  int    `json:"sourceRank"`
	Payload     string `json:"payload,omitempty"`
	CreatedAt   Millis `json:"createdAt"`
}

// NormalizeProfileURL lowercases a profile URL and strips the query string
// and any trailing slash.
func NormalizeProfileURL(raw string) string {
	u := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	return strings.TrimSuffix(u, "/")
}

// ProfileURLHash returns the SHA-256 hex digest of the normalized profile
// URL. Empty input yields an empty hash.
func ProfileURLHash(raw string) string {
	norm := NormalizeProfileURL(raw)
	if norm == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}
