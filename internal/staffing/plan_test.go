package staffing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencyops/staffing-engine/internal/taxonomy"
)

func TestDepartmentTotals(t *testing.T) {
	roles := []*RoleAllocation{
		{Title: "Account Director", Role: "account_director", Department: taxonomy.DeptClientServices,
			AllocationType: AllocFTEPct, AllocationValue: 50},
		{Title: "Account Manager", Role: "account_manager", Department: taxonomy.DeptClientServices,
			AllocationType: AllocFTEPct, AllocationValue: 25},
		// 208 hours over 26 weeks = 8 hours/week = 20% FTE.
		{Title: "Strategist", Role: "planner_sponsorship_strategy", Department: taxonomy.DeptStrategy,
			AllocationType: AllocHours, AllocationValue: 208},
		// Unresolved roles never contribute to totals.
		{Title: "Mystery Consultant", AllocationType: AllocFTEPct, AllocationValue: 99},
	}

	totals := DepartmentTotals(roles, 26)
	require.Len(t, totals, 4)
	assert.InDelta(t, 75.0, totals[taxonomy.DeptClientServices], 1e-9)
	assert.InDelta(t, 20.0, totals[taxonomy.DeptStrategy], 1e-9)
	assert.Zero(t, totals[taxonomy.DeptCreative])
	assert.Zero(t, totals[taxonomy.DeptExperiences])
}

func TestDepartmentTotalsUnknownDuration(t *testing.T) {
	roles := []*RoleAllocation{
		{Title: "Event Manager", Role: "event_manager", Department: taxonomy.DeptExperiences,
			AllocationType: AllocHours, AllocationValue: 400},
		{Title: "Account Manager", Role: "account_manager", Department: taxonomy.DeptClientServices,
			AllocationType: AllocFTEPct, AllocationValue: 25},
	}

	// Without a duration the hours-based role is unknown and excluded,
	// not treated as zero participation in a known total.
	totals := DepartmentTotals(roles, 0)
	assert.Zero(t, totals[taxonomy.DeptExperiences])
	assert.InDelta(t, 25.0, totals[taxonomy.DeptClientServices], 1e-9)
}

func TestSetFTEPctRecordsProvenance(t *testing.T) {
	ra := &RoleAllocation{
		Title:           "Producer",
		Role:            "content_producer",
		Department:      taxonomy.DeptCreative,
		AllocationType:  AllocHours,
		AllocationValue: 400,
	}

	ra.SetFTEPct("creative_band", 25, "clamped to band ceiling")
	assert.Equal(t, AllocFTEPct, ra.AllocationType)
	assert.Equal(t, 25.0, ra.AllocationValue)

	require.Len(t, ra.Provenance, 1)
	assert.Equal(t, "creative_band", ra.Provenance[0].Source)
	assert.Equal(t, 400.0, ra.Provenance[0].Before)
	assert.Equal(t, 25.0, ra.Provenance[0].After)
}

func TestPlanNeedsReview(t *testing.T) {
	p := &Plan{Roles: []*RoleAllocation{{Title: "AE", Role: "account_executive"}}}
	assert.False(t, p.NeedsReview())

	p.Roles = append(p.Roles, &RoleAllocation{Title: "Wizard", NeedsReview: true})
	assert.True(t, p.NeedsReview())
}

func TestParseProjectType(t *testing.T) {
	assert.Equal(t, TypeSponsorshipActivation, ParseProjectType("Sponsorship_Activation"))
	assert.Equal(t, TypeEventManagement, ParseProjectType("event_management"))
	assert.Equal(t, TypeOther, ParseProjectType("something else"))
	assert.Equal(t, TypeOther, ParseProjectType(""))
}

func TestComplexityRequiresOversight(t *testing.T) {
	assert.False(t, ComplexitySimple.RequiresOversight())
	assert.False(t, ComplexityModerate.RequiresOversight())
	assert.True(t, ComplexityComplex.RequiresOversight())
	assert.True(t, ComplexityEnterprise.RequiresOversight())
}
