package staffing

import (
	"time"

	"github.com/agencyops/staffing-engine/internal/taxonomy"
)

// RuleRecord is one entry in a plan's rule trace. Every configured rule
// gets a record whether or not it changed anything, so traces from the
// same input are structurally identical run to run.
type RuleRecord struct {
	Rule    string   `json:"rule"`
	Applied bool     `json:"applied"`
	Notes   []string `json:"notes,omitempty"`
	Warning string   `json:"warning,omitempty"`
}

// Plan is the finished output of a synthesis run. Once returned by the
// engine it is treated as immutable.
type Plan struct {
	ID      string         `json:"id"`
	Project ProjectContext `json:"project"`

	Roles []*RoleAllocation `json:"roles"`

	// DepartmentTotals holds the normalized FTE percentage per
	// department. Unresolved roles and hours-based roles with no known
	// duration are excluded rather than counted as zero.
	DepartmentTotals map[taxonomy.Department]float64 `json:"department_totals"`

	OverallConfidence float64 `json:"overall_confidence"`
	Completeness      float64 `json:"completeness"`

	RuleTrace []RuleRecord `json:"rule_trace"`
	CreatedAt time.Time    `json:"created_at"`
}

// NeedsReview reports whether any role on the plan is flagged for review.
func (p *Plan) NeedsReview() bool {
	for _, r := range p.Roles {
		if r.NeedsReview {
			return true
		}
	}
	return false
}

// HasRole reports whether a canonical role is already staffed.
func (p *Plan) HasRole(canonical string) bool {
	return HasRole(p.Roles, canonical)
}

// RecomputeDepartmentTotals rebuilds the per-department totals from the
// current role list. All departments appear in the map, zero included,
// in the fixed department order.
func (p *Plan) RecomputeDepartmentTotals() {
	duration, _ := p.Project.Duration()
	p.DepartmentTotals = DepartmentTotals(p.Roles, duration)
}

// DepartmentTotals sums normalized FTE percentages per department.
func DepartmentTotals(roles []*RoleAllocation, durationWeeks int) map[taxonomy.Department]float64 {
	totals := make(map[taxonomy.Department]float64, 4)
	for _, d := range taxonomy.Departments() {
		totals[d] = 0
	}
	for _, r := range roles {
		if !r.Resolved() {
			continue
		}
		pct, ok := r.FTEPct(durationWeeks)
		if !ok {
			continue
		}
		totals[r.Department] += pct
	}
	return totals
}

// RolesIn returns the resolved roles staffed in a department, in plan
// order.
func RolesIn(roles []*RoleAllocation, d taxonomy.Department) []*RoleAllocation {
	var out []*RoleAllocation
	for _, r := range roles {
		if r.Resolved() && r.Department == d {
			out = append(out, r)
		}
	}
	return out
}

// HasRole reports whether any role in the list resolved to the given
// canonical role id.
func HasRole(roles []*RoleAllocation, canonical string) bool {
	for _, r := range roles {
		if r.Role == canonical {
			return true
		}
	}
	return false
}
