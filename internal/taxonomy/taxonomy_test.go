package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	require.NotEmpty(t, r.Entries())

	require.NotNil(t, r.MandatoryRole())
	assert.Equal(t, "creative_director", r.MandatoryRole().Role)
	assert.Equal(t, DeptCreative, r.MandatoryRole().Department)

	require.NotNil(t, r.OversightRole())
	assert.True(t, r.OversightRole().Level.Senior())

	require.NotNil(t, r.BaselineRole())
	assert.Equal(t, DeptClientServices, r.BaselineRole().Department)
}

func TestResolveExactSynonym(t *testing.T) {
	r := Default()

	tests := []struct {
		raw  string
		role string
	}{
		{"Account Director", "account_director"},
		{"Sr. Account Manager", "sr_account_manager"},
		{"SAE", "sr_account_executive"},
		{"ae", "account_executive"},
		{"VP", "vice_president"},
		{"Creative Director", "creative_director"},
		{"VP, Sponsorship Strategy", "vp_sponsorship_strategy"},
		{"Hospitality Program Manager", "hospitality_manager"},
	}
	for _, tc := range tests {
		m, ok := r.Resolve(tc.raw)
		require.True(t, ok, "expected %q to resolve", tc.raw)
		assert.Equal(t, tc.role, m.Entry.Role, "raw title %q", tc.raw)
		assert.True(t, m.Exact)
		assert.Equal(t, 1.0, m.Quality)
	}
}

func TestResolveTokenOverlap(t *testing.T) {
	r := Default()

	m, ok := r.Resolve("Senior Creative Director")
	require.True(t, ok)
	assert.Equal(t, "creative_director", m.Entry.Role)
	assert.False(t, m.Exact)
	assert.InDelta(t, 2.0/3.0, m.Quality, 1e-9)

	m, ok = r.Resolve("Lead Event Manager for Hospitality")
	require.True(t, ok)
	assert.Equal(t, DeptExperiences, m.Entry.Department)
}

func TestResolveNoMatch(t *testing.T) {
	r := Default()

	_, ok := r.Resolve("Quantum Basket Weaver")
	assert.False(t, ok)

	_, ok = r.Resolve("   ")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "sr account manager", Normalize("Sr. Account Manager"))
	assert.Equal(t, "vp sponsorship strategy", Normalize("VP, Sponsorship Strategy!"))
	assert.Equal(t, "planning and creative", Normalize("Planning & Creative"))
	assert.Equal(t, "", Normalize("---"))
}

func TestFallbacks(t *testing.T) {
	r := Default()

	fbs := r.Fallbacks("sponsorship_activation")
	require.Len(t, fbs, 3)
	assert.Equal(t, "account_manager", fbs[0].Role)
	assert.Equal(t, 25.0, fbs[0].FTEPct)
	assert.Equal(t, "sr_account_executive", fbs[1].Role)
	assert.Equal(t, "account_executive", fbs[2].Role)

	assert.Nil(t, r.Fallbacks("other"))
}

func TestParseRejectsBadRegistry(t *testing.T) {
	_, err := Parse([]byte(`
mandatory_role: ghost
oversight_role: vice_president
baseline_role: account_manager
roles:
  - role: vice_president
    title: Vice President
    department: client_services
    level: 7
  - role: account_manager
    title: Account Manager
    department: client_services
    level: 3
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mandatory_role")

	_, err = Parse([]byte(`
mandatory_role: creative_director
oversight_role: creative_director
baseline_role: creative_director
roles:
  - role: creative_director
    title: Creative Director
    department: planning_creative
    level: 12
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "level")

	_, err = Parse([]byte(`roles: []`))
	require.Error(t, err)
}
