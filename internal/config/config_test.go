package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_MODE", "none")
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 100, cfg.RateLimitRPS)
	assert.Equal(t, "#staffing-review", cfg.SlackReviewChannel)
	assert.Equal(t, DefaultPolicy(), cfg.Policy)

	assert.False(t, cfg.StoreEnabled())
	assert.False(t, cfg.SuggestEnabled())
	assert.False(t, cfg.DocStoreEnabled())
	assert.False(t, cfg.NotifyEnabled())
}

func TestLoadPolicyOverride(t *testing.T) {
	t.Setenv("AUTH_MODE", "none")
	t.Setenv("MIN_TEAM_SIZE", "6")
	t.Setenv("CLIENT_SERVICES_MIN_PCT", "60")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Policy.MinTeamSize)
	assert.Equal(t, 60.0, cfg.Policy.ClientServicesMinPct)
}

func TestValidateAuthModes(t *testing.T) {
	cfg := &Config{AuthMode: "bogus", Policy: DefaultPolicy()}
	assert.Error(t, cfg.Validate())

	cfg = &Config{AuthMode: "jwt", Policy: DefaultPolicy()}
	assert.Error(t, cfg.Validate(), "jwt mode without a secret")

	cfg = &Config{AuthMode: "jwt", JWTSecret: "s", Policy: DefaultPolicy()}
	assert.NoError(t, cfg.Validate())

	cfg = &Config{AuthMode: "api-key", Environment: "production", Policy: DefaultPolicy()}
	assert.Error(t, cfg.Validate(), "api-key mode without a key outside development")

	cfg = &Config{AuthMode: "api-key", Environment: "development", Policy: DefaultPolicy()}
	assert.NoError(t, cfg.Validate())
}

func TestPolicyValidate(t *testing.T) {
	p := DefaultPolicy()
	require.NoError(t, p.Validate())

	p = DefaultPolicy()
	p.ClientServicesMinPct = 110
	assert.Error(t, p.Validate())

	p = DefaultPolicy()
	p.CreativeMinPct = 30
	assert.Error(t, p.Validate())

	p = DefaultPolicy()
	p.TaxonomyWeight = 0.5
	assert.Error(t, p.Validate(), "weights must sum to 1")

	p = DefaultPolicy()
	p.MinTeamSize = 0
	assert.Error(t, p.Validate())
}
