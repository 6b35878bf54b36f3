package rules

import (
	"fmt"
	"math"

	"github.com/agencyops/staffing-engine/internal/staffing"
	"github.com/agencyops/staffing-engine/internal/taxonomy"
)

// mandatoryRole guarantees creative oversight on every plan: the
// registry's mandatory role is pinned to its fixed allocation, inserted
// if absent.
type mandatoryRole struct{}

func (mandatoryRole) Name() string { return "mandatory_creative_director" }

func (m mandatoryRole) Apply(pc *passContext) staffing.RuleRecord {
	rec := staffing.RuleRecord{Rule: m.Name()}
	entry := pc.registry.MandatoryRole()
	target := pc.policy.MandatoryRoleFTEPct

	for _, r := range pc.roles {
		if r.Role != entry.Role {
			continue
		}
		if pct, ok := pc.fte(r); ok && math.Abs(pct-target) <= eps {
			rec.Notes = append(rec.Notes,
				fmt.Sprintf("%s already staffed at %.0f%%", entry.Role, target))
			return rec
		}
		r.SetFTEPct(m.Name(), target,
			fmt.Sprintf("pinned to the fixed %.0f%% oversight allocation", target))
		rec.Applied = true
		rec.Notes = append(rec.Notes,
			fmt.Sprintf("adjusted %s to %.0f%%", entry.Role, target))
		return rec
	}

	pc.insert(m.Name(), entry, target, "creative oversight is required on every plan")
	rec.Applied = true
	rec.Notes = append(rec.Notes,
		fmt.Sprintf("inserted %s at %.0f%%", entry.Role, target))
	return rec
}

// executiveOversight adds a senior leader to complex and enterprise
// engagements that have none.
type executiveOversight struct{}

func (executiveOversight) Name() string { return "executive_oversight" }

func (e executiveOversight) Apply(pc *passContext) staffing.RuleRecord {
	rec := staffing.RuleRecord{Rule: e.Name()}
	if !pc.project.Complexity.RequiresOversight() {
		rec.Notes = append(rec.Notes,
			fmt.Sprintf("not required for %s engagements", pc.project.Complexity))
		return rec
	}

	for _, r := range pc.roles {
		if r.Resolved() && r.Level.Senior() {
			rec.Notes = append(rec.Notes,
				fmt.Sprintf("senior oversight present (%s, level %d)", r.Role, r.Level))
			return rec
		}
	}

	entry := pc.registry.OversightRole()
	pct := pc.policy.ExecOversightFTEPct
	pc.insert(e.Name(), entry, pct,
		fmt.Sprintf("%s engagement requires senior oversight", pc.project.Complexity))
	rec.Applied = true
	rec.Notes = append(rec.Notes,
		fmt.Sprintf("inserted %s at %.0f%%", entry.Role, pct))
	return rec
}

// sponsorshipCaps enforces the sponsorship-specific ceilings: the
// strategy department is scaled down to the client cap, and no single
// person may exceed the per-person ceiling.
type sponsorshipCaps struct{}

func (sponsorshipCaps) Name() string { return "sponsorship_caps" }

func (s sponsorshipCaps) Apply(pc *passContext) staffing.RuleRecord {
	rec := staffing.RuleRecord{Rule: s.Name()}
	if pc.project.Type != staffing.TypeSponsorshipActivation {
		rec.Notes = append(rec.Notes, "only applies to sponsorship activations")
		return rec
	}

	clientCap := pc.policy.SponsorshipClientCapPct
	total, _, unknown := pc.departmentTotal(taxonomy.DeptStrategy)
	if total > clientCap+eps {
		factor := clientCap / total
		scaled, _ := pc.scaleDepartment(s.Name(), taxonomy.DeptStrategy, factor,
			fmt.Sprintf("strategy scaled by %.3f to meet the %.0f%% client cap", factor, clientCap))
		rec.Applied = true
		rec.Notes = append(rec.Notes,
			fmt.Sprintf("strategy total %.2f%% exceeded %.0f%% cap, scaled %d roles", total, clientCap, scaled))
	}
	if unknown > 0 {
		rec.Notes = append(rec.Notes,
			fmt.Sprintf("%d strategy roles in hours with unknown duration were not counted", unknown))
	}

	personCap := pc.policy.SponsorshipPersonCapPct
	for _, r := range pc.roles {
		pct, ok := pc.fte(r)
		if !ok || pct <= personCap+eps {
			continue
		}
		r.SetFTEPct(s.Name(), personCap,
			fmt.Sprintf("clamped to the %.0f%% per-person ceiling", personCap))
		rec.Applied = true
		rec.Notes = append(rec.Notes,
			fmt.Sprintf("clamped %q from %.2f%% to %.0f%%", r.Title, pct, personCap))
	}
	if !rec.Applied && len(rec.Notes) == 0 {
		rec.Notes = append(rec.Notes, "allocations within sponsorship caps")
	}
	return rec
}

// clientServicesBand keeps the account-management department inside its
// coverage band, synthesizing a baseline manager when the department is
// missing entirely.
type clientServicesBand struct{}

func (clientServicesBand) Name() string { return "client_services_band" }

func (c clientServicesBand) Apply(pc *passContext) staffing.RuleRecord {
	rec := staffing.RuleRecord{Rule: c.Name()}
	min, max := pc.policy.ClientServicesMinPct, pc.policy.ClientServicesMaxPct

	staffed := staffing.RolesIn(pc.roles, taxonomy.DeptClientServices)
	if len(staffed) == 0 {
		entry := pc.registry.BaselineRole()
		pc.insert(c.Name(), entry, min, "no account management staffed, inserting baseline coverage")
		rec.Applied = true
		rec.Notes = append(rec.Notes,
			fmt.Sprintf("inserted %s at %.0f%%", entry.Role, min))
		return rec
	}

	total, known, unknown := pc.departmentTotal(taxonomy.DeptClientServices)
	if unknown > 0 {
		rec.Notes = append(rec.Notes,
			fmt.Sprintf("%d roles in hours with unknown duration were not counted", unknown))
	}
	if known == 0 {
		return rec
	}

	switch {
	case total <= eps:
		rec.Notes = append(rec.Notes, "allocations are zero, nothing to scale")
	case total < min-eps:
		factor := min / total
		pc.scaleDepartment(c.Name(), taxonomy.DeptClientServices, factor,
			fmt.Sprintf("scaled by %.3f to reach the %.0f%% coverage floor", factor, min))
		rec.Applied = true
		rec.Notes = append(rec.Notes,
			fmt.Sprintf("total %.2f%% below floor, scaled to %.0f%%", total, min))
	case total > max+eps:
		factor := max / total
		pc.scaleDepartment(c.Name(), taxonomy.DeptClientServices, factor,
			fmt.Sprintf("scaled by %.3f to meet the %.0f%% coverage ceiling", factor, max))
		rec.Applied = true
		rec.Notes = append(rec.Notes,
			fmt.Sprintf("total %.2f%% above ceiling, scaled to %.0f%%", total, max))
	default:
		rec.Notes = append(rec.Notes,
			fmt.Sprintf("total %.2f%% within [%.0f%%, %.0f%%]", total, min, max))
	}
	return rec
}

// experiencesTarget scales production staffing up toward its target on
// event and hospitality engagements when it falls well short. Scaling
// only ever moves toward the target, never past it.
type experiencesTarget struct{}

func (experiencesTarget) Name() string { return "experiences_target" }

func (x experiencesTarget) Apply(pc *passContext) staffing.RuleRecord {
	rec := staffing.RuleRecord{Rule: x.Name()}
	switch pc.project.Type {
	case staffing.TypeEventManagement, staffing.TypeHospitalityProgram:
	default:
		rec.Notes = append(rec.Notes, "only applies to event and hospitality engagements")
		return rec
	}

	target := pc.policy.ExperiencesTargetPct
	total, known, unknown := pc.departmentTotal(taxonomy.DeptExperiences)
	if unknown > 0 {
		rec.Notes = append(rec.Notes,
			fmt.Sprintf("%d roles in hours with unknown duration were not counted", unknown))
	}
	if known == 0 || total <= eps {
		rec.Notes = append(rec.Notes, "no production allocations to scale")
		return rec
	}

	if total < 0.8*target-eps {
		factor := target / total
		pc.scaleDepartment(x.Name(), taxonomy.DeptExperiences, factor,
			fmt.Sprintf("scaled by %.3f toward the %.0f%% production target", factor, target))
		rec.Applied = true
		rec.Notes = append(rec.Notes,
			fmt.Sprintf("total %.2f%% below 80%% of target, scaled to %.0f%%", total, target))
	} else {
		rec.Notes = append(rec.Notes,
			fmt.Sprintf("total %.2f%% within tolerance of the %.0f%% target", total, target))
	}
	return rec
}

// creativeBand clamps each planning and creative role into the per-role
// allocation band.
type creativeBand struct{}

func (creativeBand) Name() string { return "creative_band" }

func (c creativeBand) Apply(pc *passContext) staffing.RuleRecord {
	rec := staffing.RuleRecord{Rule: c.Name()}
	min, max := pc.policy.CreativeMinPct, pc.policy.CreativeMaxPct

	for _, r := range staffing.RolesIn(pc.roles, taxonomy.DeptCreative) {
		pct, ok := pc.fte(r)
		if !ok {
			rec.Notes = append(rec.Notes,
				fmt.Sprintf("%q in hours with unknown duration was not clamped", r.Title))
			continue
		}
		switch {
		case pct < min-eps:
			r.SetFTEPct(c.Name(), min,
				fmt.Sprintf("raised to the %.0f%% per-role floor", min))
			rec.Applied = true
			rec.Notes = append(rec.Notes,
				fmt.Sprintf("raised %q from %.2f%% to %.0f%%", r.Title, pct, min))
		case pct > max+eps:
			r.SetFTEPct(c.Name(), max,
				fmt.Sprintf("lowered to the %.0f%% per-role ceiling", max))
			rec.Applied = true
			rec.Notes = append(rec.Notes,
				fmt.Sprintf("lowered %q from %.2f%% to %.0f%%", r.Title, pct, max))
		}
	}
	if !rec.Applied && len(rec.Notes) == 0 {
		rec.Notes = append(rec.Notes,
			fmt.Sprintf("all creative roles within [%.0f%%, %.0f%%]", min, max))
	}
	return rec
}

// minTeamSize pads undersized teams with the registry's fallback roles
// for the project type, skipping canonical roles already staffed.
type minTeamSize struct{}

func (minTeamSize) Name() string { return "min_team_size" }

func (m minTeamSize) Apply(pc *passContext) staffing.RuleRecord {
	rec := staffing.RuleRecord{Rule: m.Name()}
	minSize := pc.policy.MinTeamSize
	if len(pc.roles) >= minSize {
		rec.Notes = append(rec.Notes,
			fmt.Sprintf("team size %d meets the minimum of %d", len(pc.roles), minSize))
		return rec
	}

	fallbacks := pc.registry.Fallbacks(string(pc.project.Type))
	if len(fallbacks) == 0 {
		rec.Warning = fmt.Sprintf(
			"team size %d below minimum %d and no fallback roles are configured for %s",
			len(pc.roles), minSize, pc.project.Type)
		return rec
	}

	for _, fb := range fallbacks {
		if len(pc.roles) >= minSize {
			break
		}
		if staffing.HasRole(pc.roles, fb.Role) {
			rec.Notes = append(rec.Notes,
				fmt.Sprintf("fallback %s already staffed, skipped", fb.Role))
			continue
		}
		entry, ok := pc.registry.Lookup(fb.Role)
		if !ok {
			continue
		}
		pc.insert(m.Name(), entry, fb.FTEPct, "added to reach the minimum team size")
		rec.Applied = true
		rec.Notes = append(rec.Notes,
			fmt.Sprintf("inserted %s at %.0f%%", fb.Role, fb.FTEPct))
	}

	if len(pc.roles) < minSize {
		rec.Warning = fmt.Sprintf(
			"fallback roles exhausted, team size %d still below minimum %d",
			len(pc.roles), minSize)
	}
	return rec
}
