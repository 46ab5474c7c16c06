package unipile

import "os"

// API key sources.
const (
	KeySourceEnv    = "env"
	KeySourceConfig = "config"
	KeySourceNone   = "none"
)

// Account describes the resolved LinkedIn account for a run.
type Account struct {
	AccountID          string   `json:"accountId"`
	UnipileAccountID   string   `json:"unipileAccountId,omitempty"`
	Enabled            bool     `json:"enabled"`
	APIKeySource       string   `json:"apiKeySource"`
	MissingCredentials []string `json:"missingCredentials,omitempty"`
}

// AccountSettings is the configured account input to ResolveAccount.
type AccountSettings struct {
	AccountID string
	APIKey    string
	Enabled   bool
}

// ResolveAccount works out which credentials a run will use. The
// UNIPILE_API_KEY environment variable wins over the configured key.
func ResolveAccount(settings AccountSettings) Account {
	acct := Account{
		AccountID:        settings.AccountID,
		UnipileAccountID: settings.AccountID,
		Enabled:          settings.Enabled,
		APIKeySource:     KeySourceNone,
	}

	if envKey := os.Getenv("UNIPILE_API_KEY"); envKey != "" {
		acct.APIKeySource = KeySourceEnv
	} else if settings.APIKey != "" {
		acct.APIKeySource = KeySourceConfig
	} else {
		acct.MissingCredentials = append(acct.MissingCredentials, "api_key")
	}

	if settings.AccountID == "" {
		acct.MissingCredentials = append(acct.MissingCredentials, "account_id")
	}

	return acct
}

// APIKey returns the effective key for the resolved source.
func APIKey(settings AccountSettings) string {
	if envKey := os.Getenv("UNIPILE_API_KEY"); envKey != "" {
		return envKey
	}
	return settings.APIKey
}
