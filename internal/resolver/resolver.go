// Package resolver turns raw extracted role candidates into normalized
// role allocations by matching titles against the canonical taxonomy and
// blending match quality with extraction confidence.
package resolver

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agencyops/staffing-engine/internal/config"
	"github.com/agencyops/staffing-engine/internal/staffing"
	"github.com/agencyops/staffing-engine/internal/taxonomy"
)

// Resolver maps candidates onto the taxonomy.
type Resolver struct {
	registry *taxonomy.Registry
	policy   config.Policy
	logger   zerolog.Logger
}

// New builds a resolver over a registry.
func New(registry *taxonomy.Registry, policy config.Policy, logger zerolog.Logger) *Resolver {
	return &Resolver{
		registry: registry,
		policy:   policy,
		logger:   logger.With().Str("component", "resolver").Logger(),
	}
}

// Resolve converts one candidate into a role allocation. A candidate
// that cannot be matched still produces an allocation: it keeps its raw
// title, has its confidence capped, and is flagged for review rather
// than dropped.
func (r *Resolver) Resolve(c staffing.Candidate) *staffing.RoleAllocation {
	ra := &staffing.RoleAllocation{
		Title:       c.Title,
		Billability: staffing.ClassifyBillability(c.AllocationHint),
	}

	extraction := c.ExtractionConfidence()
	match, matched := r.registry.Resolve(c.Title)
	if matched {
		ra.Role = match.Entry.Role
		ra.Department = match.Entry.Department
		ra.Level = match.Entry.Level
		ra.Confidence = r.policy.TaxonomyWeight*match.Quality + r.policy.ExtractionWeight*extraction
	} else {
		ra.Confidence = extraction
		if ra.Confidence > r.policy.UnresolvedConfidenceCap {
			ra.Confidence = r.policy.UnresolvedConfidenceCap
		}
		ra.NeedsReview = true
	}

	if typ, val, ok := staffing.ParseAllocationHint(c.AllocationHint); ok {
		ra.AllocationType = typ
		ra.AllocationValue = val
		ra.Provenance = append(ra.Provenance, staffing.Provenance{
			Source: "extraction",
			After:  val,
			Note:   fmt.Sprintf("parsed %s from %q", typ, c.AllocationHint),
		})
	} else if matched {
		ra.AllocationType = staffing.AllocFTEPct
		ra.AllocationValue = match.Entry.DefaultFTEPct
		ra.Provenance = append(ra.Provenance, staffing.Provenance{
			Source: "resolver",
			After:  match.Entry.DefaultFTEPct,
			Note:   fmt.Sprintf("no allocation in source, using %s default", match.Entry.Role),
		})
	} else {
		ra.AllocationType = staffing.AllocFTEPct
		ra.AllocationValue = 0
		ra.Provenance = append(ra.Provenance, staffing.Provenance{
			Source: "resolver",
			Note:   "unresolved title with no allocation hint",
		})
	}

	if matched {
		note := fmt.Sprintf("matched %q to %s (quality %.2f)", c.Title, match.Entry.Role, match.Quality)
		if match.Exact {
			note = fmt.Sprintf("matched %q to %s (exact)", c.Title, match.Entry.Role)
		}
		ra.Record("resolver", note)
	} else {
		ra.Record("resolver", fmt.Sprintf("no taxonomy match for %q", c.Title))
		r.logger.Debug().Str("title", c.Title).Msg("unresolved role title")
	}

	return ra
}

// ResolveAll resolves candidates in order, preserving input order in the
// output.
func (r *Resolver) ResolveAll(candidates []staffing.Candidate) []*staffing.RoleAllocation {
	out := make([]*staffing.RoleAllocation, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, r.Resolve(c))
	}
	return out
}
