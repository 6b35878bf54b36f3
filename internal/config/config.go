package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP API
	ListenAddr     string `envconfig:"LISTEN_ADDR" default:":8080"`
	AuthMode       string `envconfig:"AUTH_MODE" default:"api-key"` // "none", "api-key" or "jwt"
	APIKey         string `envconfig:"API_KEY"`
	JWTSecret      string `envconfig:"JWT_SECRET"`
	RateLimitRPS   int    `envconfig:"RATE_LIMIT_RPS" default:"100"`
	RateLimitBurst int    `envconfig:"RATE_LIMIT_BURST" default:"200"`
	CORSOrigins    string `envconfig:"CORS_ORIGINS"`
	TLSCert        string `envconfig:"TLS_CERT"`
	TLSKey         string `envconfig:"TLS_KEY"`

	// Taxonomy registry. Empty path means the built-in registry.
	TaxonomyPath string `envconfig:"TAXONOMY_PATH"`

	// Plan store (optional — service runs stateless without it)
	PlanDBPath string `envconfig:"PLAN_DB_PATH"`

	// Candidate suggestion collaborator (optional)
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`

	// Document/artifact storage (optional)
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"staffing-artifacts"`
	S3UseSSL    bool   `envconfig:"S3_USE_SSL" default:"true"`

	// Review notifications (optional)
	SlackBotToken      string `envconfig:"SLACK_BOT_TOKEN"`
	SlackReviewChannel string `envconfig:"SLACK_REVIEW_CHANNEL" default:"#staffing-review"`

	Policy Policy
}

// Policy holds the business-rule constants. They are configuration, not
// code: policy changes must not require touching rule logic, and separate
// policy variants must be able to run concurrently.
type Policy struct {
	// Rule 1: mandatory creative-oversight pre-allocation.
	MandatoryRoleFTEPct float64 `envconfig:"MANDATORY_ROLE_FTE_PCT" default:"5"`

	// Rule 2: executive oversight for complex/enterprise projects.
	ExecOversightFTEPct float64 `envconfig:"EXEC_OVERSIGHT_FTE_PCT" default:"5"`

	// Rule 3: sponsorship caps.
	SponsorshipClientCapPct float64 `envconfig:"SPONSORSHIP_CLIENT_CAP_PCT" default:"25"`
	SponsorshipPersonCapPct float64 `envconfig:"SPONSORSHIP_PERSON_CAP_PCT" default:"50"`

	// Rule 4: client services band.
	ClientServicesMinPct float64 `envconfig:"CLIENT_SERVICES_MIN_PCT" default:"75"`
	ClientServicesMaxPct float64 `envconfig:"CLIENT_SERVICES_MAX_PCT" default:"100"`

	// Rule 5: experiences/production target.
	ExperiencesTargetPct float64 `envconfig:"EXPERIENCES_TARGET_PCT" default:"100"`

	// Rule 6: creative band, clamped per role.
	CreativeMinPct float64 `envconfig:"CREATIVE_MIN_PCT" default:"5"`
	CreativeMaxPct float64 `envconfig:"CREATIVE_MAX_PCT" default:"25"`

	// Rule 7: minimum team size.
	MinTeamSize int `envconfig:"MIN_TEAM_SIZE" default:"4"`

	// Resolver confidence blend. The registry is a stronger prior than
	// free-text certainty, so it carries the larger weight.
	TaxonomyWeight   float64 `envconfig:"TAXONOMY_WEIGHT" default:"0.6"`
	ExtractionWeight float64 `envconfig:"EXTRACTION_WEIGHT" default:"0.4"`

	// Unresolved roles never score above this.
	UnresolvedConfidenceCap float64 `envconfig:"UNRESOLVED_CONFIDENCE_CAP" default:"0.4"`

	// Fields below this confidence do not count toward completeness.
	CompletenessMinConfidence float64 `envconfig:"COMPLETENESS_MIN_CONFIDENCE" default:"0.4"`

	// Tolerance before a later rule's effect on an earlier band is
	// reported as drift in the rule trace.
	BandDriftEpsilon float64 `envconfig:"BAND_DRIFT_EPSILON" default:"0.01"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.AuthMode {
	case "none", "api-key", "jwt":
	default:
		return fmt.Errorf("invalid AUTH_MODE %q (expected none, api-key or jwt)", c.AuthMode)
	}
	if c.AuthMode == "api-key" && c.APIKey == "" && c.Environment != "development" {
		return fmt.Errorf("AUTH_MODE=api-key requires API_KEY outside development")
	}
	if c.AuthMode == "jwt" && c.JWTSecret == "" {
		return fmt.Errorf("AUTH_MODE=jwt requires JWT_SECRET")
	}
	return c.Policy.Validate()
}

// Validate checks that the policy constants are internally consistent.
func (p *Policy) Validate() error {
	if p.ClientServicesMinPct > p.ClientServicesMaxPct {
		return fmt.Errorf("CLIENT_SERVICES_MIN_PCT %.1f exceeds CLIENT_SERVICES_MAX_PCT %.1f",
			p.ClientServicesMinPct, p.ClientServicesMaxPct)
	}
	if p.CreativeMinPct > p.CreativeMaxPct {
		return fmt.Errorf("CREATIVE_MIN_PCT %.1f exceeds CREATIVE_MAX_PCT %.1f",
			p.CreativeMinPct, p.CreativeMaxPct)
	}
	if w := p.TaxonomyWeight + p.ExtractionWeight; w < 0.999 || w > 1.001 {
		return fmt.Errorf("TAXONOMY_WEIGHT + EXTRACTION_WEIGHT must sum to 1.0, got %.3f", w)
	}
	if p.MinTeamSize < 1 {
		return fmt.Errorf("MIN_TEAM_SIZE must be at least 1, got %d", p.MinTeamSize)
	}
	return nil
}

// SuggestEnabled returns true if the Gemini suggestion collaborator is configured.
func (c *Config) SuggestEnabled() bool {
	return c.GeminiAPIKey != ""
}

// DocStoreEnabled returns true if object storage is configured.
func (c *Config) DocStoreEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// NotifyEnabled returns true if Slack review notifications are configured.
func (c *Config) NotifyEnabled() bool {
	return c.SlackBotToken != ""
}

// StoreEnabled returns true if plan persistence is configured.
func (c *Config) StoreEnabled() bool {
	return c.PlanDBPath != ""
}

// DefaultPolicy returns the standard policy constants, for callers that
// construct an engine without going through the environment.
func DefaultPolicy() Policy {
	return Policy{
		MandatoryRoleFTEPct:       5,
		ExecOversightFTEPct:       5,
		SponsorshipClientCapPct:   25,
		SponsorshipPersonCapPct:   50,
		ClientServicesMinPct:      75,
		ClientServicesMaxPct:      100,
		ExperiencesTargetPct:      100,
		CreativeMinPct:            5,
		CreativeMaxPct:            25,
		MinTeamSize:               4,
		TaxonomyWeight:            0.6,
		ExtractionWeight:          0.4,
		UnresolvedConfidenceCap:   0.4,
		CompletenessMinConfidence: 0.4,
		BandDriftEpsilon:          0.01,
	}
}
