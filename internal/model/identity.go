package model

// ConfidenceBand discretises identity confidence.
type ConfidenceBand string

const (
	BandConfirmed ConfidenceBand = "CONFIRMED"
	BandHigh      ConfidenceBand = "HIGH"
	BandMedium    ConfidenceBand = "MEDIUM"
	BandLow       ConfidenceBand = "LOW"
)

// BandFor maps a confidence value to its band.
func BandFor(confidence float64) ConfidenceBand {
	switch {
	case confidence >= 0.9:
		return BandConfirmed
	case confidence >= 0.8:
		return BandHigh
	case confidence >= 0.6:
		return BandMedium
	default:
		return BandLow
	}
}

// Identity platforms.
const (
	PlatformCrossPlatform = "cross_platform"
	PlatformGitHub        = "github"
	PlatformX             = "x"
	PlatformLinkedIn      = "linkedin"
)

// Identity is a per-(candidate, platform) resolution result.
type Identity struct {
	CandidateID       string         `json:"candidateId"`
	Platform          string         `json:"platform"`
	Handle            string         `json:"handle,omitempty"`
	URL               string         `json:"url,omitempty"`
	Confidence        float64        `json:"confidence"`
	Band              ConfidenceBand `json:"band"`
	Reasons           []string       `json:"reasons,omitempty"`
	ShortlistEligible bool           `json:"shortlistEligible"`
}
