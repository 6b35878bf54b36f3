// Package synthesis orchestrates a full staffing-plan run: candidate
// resolution, the policy rule pass, and the plan-level quality scores.
package synthesis

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agencyops/staffing-engine/internal/config"
	apperrors "github.com/agencyops/staffing-engine/internal/errors"
	"github.com/agencyops/staffing-engine/internal/resolver"
	"github.com/agencyops/staffing-engine/internal/rules"
	"github.com/agencyops/staffing-engine/internal/staffing"
	"github.com/agencyops/staffing-engine/internal/taxonomy"
)

// Engine produces normalized staffing plans from extracted candidates.
// It is safe for concurrent use; all mutable state lives in the plan
// being built.
type Engine struct {
	registry *taxonomy.Registry
	resolver *resolver.Resolver
	rules    *rules.Engine
	policy   config.Policy
	logger   zerolog.Logger
}

// New wires a synthesis engine. Policy and registry problems surface
// here, at startup, as configuration errors.
func New(registry *taxonomy.Registry, policy config.Policy, logger zerolog.Logger) (*Engine, error) {
	ruleEngine, err := rules.NewEngine(policy, registry, logger)
	if err != nil {
		return nil, err
	}
	return &Engine{
		registry: registry,
		resolver: resolver.New(registry, policy, logger),
		rules:    ruleEngine,
		policy:   policy,
		logger:   logger.With().Str("component", "synthesis").Logger(),
	}, nil
}

// Registry exposes the engine's taxonomy for read-only use by callers.
func (e *Engine) Registry() *taxonomy.Registry { return e.registry }

// Synthesize builds a complete plan for one engagement. It fails only
// when there is nothing to work with: no candidates and no fallback
// roles configured for the project type. That is a registry gap, so it
// is reported as a configuration error rather than a bad-input error.
func (e *Engine) Synthesize(project *staffing.ProjectContext, candidates []staffing.Candidate) (*staffing.Plan, error) {
	if len(candidates) == 0 && len(e.registry.Fallbacks(string(project.Type))) == 0 {
		return nil, apperrors.NewConfigError("synthesis",
			"no candidate roles and no fallback roles configured for project type %s", project.Type)
	}

	roles := e.resolver.ResolveAll(candidates)
	roles, trace := e.rules.Apply(project, roles)

	plan := &staffing.Plan{
		ID:        uuid.NewString(),
		Project:   *project,
		Roles:     roles,
		RuleTrace: trace,
		CreatedAt: time.Now().UTC(),
	}
	plan.RecomputeDepartmentTotals()
	plan.OverallConfidence = overallConfidence(roles)
	plan.Completeness = e.completeness(plan)

	e.logger.Info().
		Str("plan_id", plan.ID).
		Str("project_type", string(project.Type)).
		Int("roles", len(plan.Roles)).
		Float64("confidence", plan.OverallConfidence).
		Float64("completeness", plan.Completeness).
		Bool("needs_review", plan.NeedsReview()).
		Msg("plan synthesized")

	return plan, nil
}

// overallConfidence is the mean role confidence, weighting every staffed
// role equally.
func overallConfidence(roles []*staffing.RoleAllocation) float64 {
	if len(roles) == 0 {
		return 0
	}
	var sum float64
	for _, r := range roles {
		sum += r.Confidence
	}
	return sum / float64(len(roles))
}

// completeness is the fraction of the five core facts the plan actually
// knows with usable confidence: client, title, duration, at least one
// resolved department, and at least one deliverable.
func (e *Engine) completeness(plan *staffing.Plan) float64 {
	minConf := e.policy.CompletenessMinConfidence
	have := 0

	if plan.Project.Client.Value != "" && plan.Project.Client.Confidence >= minConf {
		have++
	}
	if plan.Project.Title.Value != "" && plan.Project.Title.Confidence >= minConf {
		have++
	}
	if _, ok := plan.Project.Duration(); ok && plan.Project.DurationWeeks.Confidence >= minConf {
		have++
	}
	for _, r := range plan.Roles {
		if r.Resolved() && r.Confidence >= minConf {
			have++
			break
		}
	}
	for _, d := range plan.Project.Deliverables {
		if d.Value != "" && d.Confidence >= minConf {
			have++
			break
		}
	}
	return float64(have) / 5.0
}
