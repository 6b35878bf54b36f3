// Package rules applies the agency's staffing policy to a resolved role
// list. Rules run in a fixed order in a single pass; every rule leaves a
// trace record whether or not it changed anything, and every change is
// written into the affected role's provenance.
package rules

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agencyops/staffing-engine/internal/config"
	apperrors "github.com/agencyops/staffing-engine/internal/errors"
	"github.com/agencyops/staffing-engine/internal/staffing"
	"github.com/agencyops/staffing-engine/internal/taxonomy"
)

// eps is the tolerance for treating two allocations as equal. A rule
// whose target is already met within eps records itself as not applied,
// which makes the engine idempotent.
const eps = 1e-9

// Rule is one policy rule. Apply may mutate allocations and append roles
// through the pass context, and must return a trace record either way.
type Rule interface {
	Name() string
	Apply(pc *passContext) staffing.RuleRecord
}

// passContext carries the mutable state of one rule pass.
type passContext struct {
	project  *staffing.ProjectContext
	policy   config.Policy
	registry *taxonomy.Registry
	roles    []*staffing.RoleAllocation
	duration int
}

// fte returns a role's normalized FTE percentage if it is computable.
func (pc *passContext) fte(r *staffing.RoleAllocation) (float64, bool) {
	return r.FTEPct(pc.duration)
}

// insert synthesizes a role from a taxonomy entry and appends it.
func (pc *passContext) insert(source string, entry *taxonomy.Entry, pct float64, note string) *staffing.RoleAllocation {
	ra := &staffing.RoleAllocation{
		Title:           entry.Title,
		Role:            entry.Role,
		Department:      entry.Department,
		Level:           entry.Level,
		AllocationType:  staffing.AllocFTEPct,
		AllocationValue: pct,
		Billability:     staffing.Billable,
		Confidence:      1.0,
		Synthetic:       true,
		Provenance: []staffing.Provenance{{
			Source: source,
			After:  pct,
			Note:   note,
		}},
	}
	pc.roles = append(pc.roles, ra)
	return ra
}

// departmentTotal sums known FTE percentages in one department and
// reports how many of the department's roles could not be normalized.
func (pc *passContext) departmentTotal(d taxonomy.Department) (total float64, known, unknown int) {
	for _, r := range staffing.RolesIn(pc.roles, d) {
		if pct, ok := pc.fte(r); ok {
			total += pct
			known++
		} else {
			unknown++
		}
	}
	return total, known, unknown
}

// scaleDepartment multiplies every normalizable allocation in the
// department by factor. Roles that cannot be normalized are left alone
// and reported back so the rule can note them in the trace.
func (pc *passContext) scaleDepartment(source string, d taxonomy.Department, factor float64, note string) (scaled, skipped int) {
	for _, r := range staffing.RolesIn(pc.roles, d) {
		pct, ok := pc.fte(r)
		if !ok {
			skipped++
			continue
		}
		r.SetFTEPct(source, pct*factor, note)
		scaled++
	}
	return scaled, skipped
}

// Engine runs the configured rule sequence.
type Engine struct {
	policy   config.Policy
	registry *taxonomy.Registry
	rules    []Rule
	logger   zerolog.Logger
}

// NewEngine validates the policy against the registry and builds the
// fixed rule sequence. A registry missing the roles the rules synthesize
// is a configuration error, surfaced here rather than mid-synthesis.
func NewEngine(policy config.Policy, registry *taxonomy.Registry, logger zerolog.Logger) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, apperrors.NewConfigError("rules", "invalid policy: %v", err)
	}
	if registry.MandatoryRole() == nil || registry.OversightRole() == nil || registry.BaselineRole() == nil {
		return nil, apperrors.NewConfigError("rules", "registry is missing a role required by policy")
	}
	if !registry.OversightRole().Level.Senior() {
		return nil, apperrors.NewConfigError("rules",
			"oversight role %s is below the senior level", registry.OversightRole().Role)
	}
	return &Engine{
		policy:   policy,
		registry: registry,
		logger:   logger.With().Str("component", "rules").Logger(),
		rules: []Rule{
			mandatoryRole{},
			executiveOversight{},
			sponsorshipCaps{},
			clientServicesBand{},
			experiencesTarget{},
			creativeBand{},
			minTeamSize{},
		},
	}, nil
}

// Apply runs all rules once, in order, and returns the adjusted role
// list plus the full trace. The trace always ends with a band audit
// record; its warning is set when a later rule pushed the account band
// back out of compliance.
func (e *Engine) Apply(project *staffing.ProjectContext, roles []*staffing.RoleAllocation) ([]*staffing.RoleAllocation, []staffing.RuleRecord) {
	duration, _ := project.Duration()
	pc := &passContext{
		project:  project,
		policy:   e.policy,
		registry: e.registry,
		roles:    roles,
		duration: duration,
	}

	trace := make([]staffing.RuleRecord, 0, len(e.rules)+1)
	for _, rule := range e.rules {
		rec := rule.Apply(pc)
		trace = append(trace, rec)
		e.logger.Debug().
			Str("rule", rec.Rule).
			Bool("applied", rec.Applied).
			Msg("rule evaluated")
	}
	trace = append(trace, e.auditBands(pc))
	return pc.roles, trace
}

// auditBands re-checks the account-management band after the full pass.
// Later rules may legitimately move the total; a single pass is kept
// deliberately, so drift is surfaced as a warning instead of re-running.
func (e *Engine) auditBands(pc *passContext) staffing.RuleRecord {
	rec := staffing.RuleRecord{Rule: "band_audit"}
	total, known, _ := pc.departmentTotal(taxonomy.DeptClientServices)
	if known == 0 {
		return rec
	}
	min, max := pc.policy.ClientServicesMinPct, pc.policy.ClientServicesMaxPct
	drift := pc.policy.BandDriftEpsilon
	if total < min-drift || total > max+drift {
		rec.Warning = fmt.Sprintf(
			"client_services total %.2f%% drifted outside band [%.0f%%, %.0f%%] after later rules",
			total, min, max)
		e.logger.Warn().Float64("total", total).Msg("band drift after rule pass")
	}
	return rec
}
