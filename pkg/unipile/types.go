package unipile

// SearchFilter is one role/skill/company filter fragment. Filters may carry
// a provider ID alongside (or instead of) free text.
type SearchFilter struct {
	Text string `json:"text,omitempty"`
	ID   string `json:"id,omitempty"`
}

// LinkedIn API products.
const (
	APIClassic        = "classic"
	APIRecruiter      = "recruiter"
	APISalesNavigator = "sales_navigator"
)

// SearchParams describes a talent search.
type SearchParams struct {
	Keywords     string         `json:"keywords,omitempty"`
	RoleKeywords []SearchFilter `json:"role_keywords,omitempty"`
	Skills       []SearchFilter `json:"skills,omitempty"`
	Companies    []SearchFilter `json:"companies,omitempty"`
	Location     string         `json:"location,omitempty"`
	Industry     string         `json:"industry,omitempty"`
	API          string         `json:"api,omitempty"`
	AccountID    string         `json:"account_id,omitempty"`
	PageSize     int            `json:"page_size,omitempty"`
	MaxPages     int            `json:"max_pages,omitempty"`
}

// SourcedCandidate is one talent search hit.
type SourcedCandidate struct {
	ProviderID       string `json:"provider_id"`
	PublicIdentifier string `json:"public_identifier"`
	ProfileURL       string `json:"profile_url"`
	Name             string `json:"name"`
	Headline         string `json:"headline"`
	Location         string `json:"location"`
	CurrentCompany   string `json:"current_company"`
	CurrentRole      string `json:"current_role"`
}

// SearchResult is the talent search response.
type SearchResult struct {
	Success    bool               `json:"success"`
	Candidates []SourcedCandidate `json:"candidates"`
	Error      string             `json:"error,omitempty"`
}

// Profile is a full user profile.
type Profile struct {
	ProviderID       string   `json:"provider_id"`
	PublicIdentifier string   `json:"public_identifier"`
	ProfileURL       string   `json:"profile_url"`
	Name             string   `json:"name"`
	Headline         string   `json:"headline"`
	Location         string   `json:"location"`
	CurrentCompany   string   `json:"current_company"`
	CurrentRole      string   `json:"current_role"`
	Skills           []string `json:"skills"`
	IsOpenToWork     bool     `json:"is_open_to_work"`
}

// ActivityItem is one post, comment, or reaction. Timestamp formats vary by
// endpoint (epoch seconds, epoch millis, or RFC3339), so it stays untyped
// until parsed.
type ActivityItem struct {
	Text      string `json:"text,omitempty"`
	URL       string `json:"url,omitempty"`
	Timestamp any    `json:"timestamp,omitempty"`
}

// ActivityPage wraps an activity feed response.
type ActivityPage struct {
	Items []ActivityItem `json:"items"`
}
