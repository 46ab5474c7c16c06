package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Recruiting RecruitingConfig `yaml:"recruiting" mapstructure:"recruiting"`
	Unipile    UnipileConfig    `yaml:"unipile" mapstructure:"unipile"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// RecruitingConfig is the resolved pipeline configuration. Load applies the
// documented clamps so downstream code never re-validates ranges.
type RecruitingConfig struct {
	Enabled             bool                `yaml:"enabled" mapstructure:"enabled"`
	Store               StoreConfig         `yaml:"store" mapstructure:"store"`
	Identity            IdentityConfig      `yaml:"identity" mapstructure:"identity"`
	Run                 RunConfig           `yaml:"run" mapstructure:"run"`
	BrowserVerification BrowserVerifyConfig `yaml:"browser_verification" mapstructure:"browser_verification"`
	DailyQuotas         QuotaConfig         `yaml:"daily_quotas" mapstructure:"daily_quotas"`
	Promotion           PromotionConfig     `yaml:"promotion" mapstructure:"promotion"`
	LaneTargeting       LaneConfig          `yaml:"lane_targeting" mapstructure:"lane_targeting"`
}

// StoreConfig configures the SQLite store.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// IdentityConfig configures identity resolution.
type IdentityConfig struct {
	MinConfidenceForShortlist float64 `yaml:"min_confidence_for_shortlist" mapstructure:"min_confidence_for_shortlist"`
}

// RunConfig configures sourcing runs.
type RunConfig struct {
	TargetCandidatesPerRole int    `yaml:"target_candidates_per_role" mapstructure:"target_candidates_per_role"`
	DefaultCadence          string `yaml:"default_cadence" mapstructure:"default_cadence"`
}

// Browser verification modes.
const (
	BrowserVerifyHighOnly = "high_only"
	BrowserVerifyAlways   = "always"
)

// BrowserVerifyConfig configures the deferred browser-verification signal.
type BrowserVerifyConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Mode    string `yaml:"mode" mapstructure:"mode"`
}

// QuotaConfig holds the daily workflow quotas.
type QuotaConfig struct {
	PromotedTarget     int `yaml:"promoted_target" mapstructure:"promoted_target"`
	ReviewedTarget     int `yaml:"reviewed_target" mapstructure:"reviewed_target"`
	VerificationBudget int `yaml:"verification_budget" mapstructure:"verification_budget"`
}

// PromotionConfig gates shortlist promotion.
type PromotionConfig struct {
	MinProofLinks            int  `yaml:"min_proof_links" mapstructure:"min_proof_links"`
	AllowUnverifiedPromotion bool `yaml:"allow_unverified_promotion" mapstructure:"allow_unverified_promotion"`
}

// LaneConfig holds lane targeting percentages. Validated here but not yet
// read by any pipeline step.
type LaneConfig struct {
	G1Percentage float64 `yaml:"g1_percentage" mapstructure:"g1_percentage"`
	G2Percentage float64 `yaml:"g2_percentage" mapstructure:"g2_percentage"`
}

// UnipileConfig holds LinkedIn (Unipile) API settings.
type UnipileConfig struct {
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey    string  `yaml:"api_key" mapstructure:"api_key"`
	AccountID string  `yaml:"account_id" mapstructure:"account_id"`
	Enabled   bool    `yaml:"enabled" mapstructure:"enabled"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// SearchConfig holds web-search provider settings.
type SearchConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// FetchConfig holds web-fetch provider settings.
type FetchConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ServerConfig configures the read-only status server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment and applies clamps.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RECRUITING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("recruiting.enabled", false)
	v.SetDefault("recruiting.store.path", "recruiting.db")
	v.SetDefault("recruiting.identity.min_confidence_for_shortlist", 0.8)
	v.SetDefault("recruiting.run.target_candidates_per_role", 300)
	v.SetDefault("recruiting.run.default_cadence", "0 6 * * *")
	v.SetDefault("recruiting.browser_verification.enabled", false)
	v.SetDefault("recruiting.browser_verification.mode", BrowserVerifyHighOnly)
	v.SetDefault("recruiting.daily_quotas.promoted_target", 10)
	v.SetDefault("recruiting.daily_quotas.reviewed_target", 30)
	v.SetDefault("recruiting.daily_quotas.verification_budget", 20)
	v.SetDefault("recruiting.promotion.min_proof_links", 2)
	v.SetDefault("recruiting.promotion.allow_unverified_promotion", false)
	v.SetDefault("recruiting.lane_targeting.g1_percentage", 0.5)
	v.SetDefault("recruiting.lane_targeting.g2_percentage", 0.5)
	v.SetDefault("unipile.base_url", "https://api.unipile.com/v1")
	v.SetDefault("unipile.enabled", true)
	v.SetDefault("unipile.rate_limit", 4)
	v.SetDefault("search.base_url", "https://api.search.brave.com/res/v1")
	v.SetDefault("fetch.base_url", "https://r.jina.ai")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	clampRecruiting(&cfg.Recruiting)

	return &cfg, nil
}

func clampRecruiting(rc *RecruitingConfig) {
	rc.Identity.MinConfidenceForShortlist = clampFloat(rc.Identity.MinConfidenceForShortlist, 0, 1, 0.8)
	rc.Run.TargetCandidatesPerRole = clampInt(rc.Run.TargetCandidatesPerRole, 1, 2000, 300)
	if rc.Run.DefaultCadence == "" {
		rc.Run.DefaultCadence = "0 6 * * *"
	}
	if rc.BrowserVerification.Mode != BrowserVerifyAlways {
		rc.BrowserVerification.Mode = BrowserVerifyHighOnly
	}
	rc.DailyQuotas.PromotedTarget = clampInt(rc.DailyQuotas.PromotedTarget, 1, 100, 10)
	rc.DailyQuotas.ReviewedTarget = clampInt(rc.DailyQuotas.ReviewedTarget, 1, 200, 30)
	rc.DailyQuotas.VerificationBudget = clampInt(rc.DailyQuotas.VerificationBudget, 1, 100, 20)
	rc.Promotion.MinProofLinks = clampInt(rc.Promotion.MinProofLinks, 1, 10, 2)
	rc.LaneTargeting.G1Percentage = clampFloat(rc.LaneTargeting.G1Percentage, 0, 1, 0.5)
	rc.LaneTargeting.G2Percentage = clampFloat(rc.LaneTargeting.G2Percentage, 0, 1, 0.5)
}

func clampInt(v, lo, hi, def int) int {
	if v == 0 {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi, def float64) float64 {
	if v == 0 {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
