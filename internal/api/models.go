package api

import (
	"github.com/agencyops/staffing-engine/internal/staffing"
	"github.com/agencyops/staffing-engine/internal/store"
	"github.com/agencyops/staffing-engine/internal/taxonomy"
)

// ProblemDetail is an RFC 7807 error response body.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// PlanRequest is the POST /api/v1/plans body: an extracted project
// context plus the candidate roles pulled from the document. SOW text
// may be supplied inline or referenced by document key when object
// storage is configured.
type PlanRequest struct {
	Project    staffing.ProjectContext `json:"project"`
	Candidates []staffing.Candidate    `json:"candidates"`

	SOWText     string `json:"sow_text,omitempty"`
	DocumentKey string `json:"document_key,omitempty"`

	// Suggest merges model-suggested candidates into the list before
	// synthesis. Persist saves the plan; Notify posts a review message
	// when the plan is flagged. Each is a no-op when the matching
	// collaborator is not configured.
	Suggest bool `json:"suggest,omitempty"`
	Persist bool `json:"persist,omitempty"`
	Notify  bool `json:"notify,omitempty"`
}

// NormalizeRequest is the POST /api/v1/normalize body.
type NormalizeRequest struct {
	Hint          string `json:"hint"`
	DurationWeeks int    `json:"duration_weeks,omitempty"`
}

// NormalizeResponse reports the parsed allocation in both units.
// FTEPct and Hours are nil when the conversion needs a project
// duration that was not given.
type NormalizeResponse struct {
	AllocationType  staffing.AllocationType `json:"allocation_type"`
	AllocationValue float64                 `json:"allocation_value"`
	FTEPct          *float64                `json:"fte_pct,omitempty"`
	Hours           *float64                `json:"hours,omitempty"`
}

// TaxonomyResponse is the GET /api/v1/taxonomy body.
type TaxonomyResponse struct {
	Departments          []taxonomy.Department `json:"departments"`
	SeniorOversightLevel taxonomy.Level        `json:"senior_oversight_level"`
	Roles                []*taxonomy.Entry     `json:"roles"`
}

// ListPlansResponse wraps the plan index.
type ListPlansResponse struct {
	Plans []store.PlanSummary `json:"plans"`
	Count int                 `json:"count"`
}
