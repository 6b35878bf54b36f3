// Package staffing defines the normalized staffing-plan model that the
// extraction, resolution and rule layers all operate on. Every extracted
// field carries its own confidence and provenance so a reviewer can trace
// a final number back to the contract text or rule that produced it.
package staffing

import (
	"strings"

	"github.com/agencyops/staffing-engine/internal/taxonomy"
)

// ProjectType is the engagement category driving which policy rules apply.
type ProjectType string

const (
	TypeSponsorshipActivation ProjectType = "sponsorship_activation"
	TypeEventManagement       ProjectType = "event_management"
	TypeHospitalityProgram    ProjectType = "hospitality_program"
	TypeCreativeCampaign      ProjectType = "creative_campaign"
	TypeOther                 ProjectType = "other"
)

// ParseProjectType maps loose input onto a known project type, falling
// back to TypeOther rather than failing.
func ParseProjectType(s string) ProjectType {
	switch ProjectType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeSponsorshipActivation:
		return TypeSponsorshipActivation
	case TypeEventManagement:
		return TypeEventManagement
	case TypeHospitalityProgram:
		return TypeHospitalityProgram
	case TypeCreativeCampaign:
		return TypeCreativeCampaign
	default:
		return TypeOther
	}
}

// Complexity is the engagement complexity tier.
type Complexity string

const (
	ComplexitySimple     Complexity = "simple"
	ComplexityModerate   Complexity = "moderate"
	ComplexityComplex    Complexity = "complex"
	ComplexityEnterprise Complexity = "enterprise"
)

// ParseComplexity maps loose input onto a tier, defaulting to moderate.
func ParseComplexity(s string) Complexity {
	switch Complexity(strings.ToLower(strings.TrimSpace(s))) {
	case ComplexitySimple:
		return ComplexitySimple
	case ComplexityComplex:
		return ComplexityComplex
	case ComplexityEnterprise:
		return ComplexityEnterprise
	default:
		return ComplexityModerate
	}
}

// RequiresOversight reports whether the tier demands senior oversight on
// the plan.
func (c Complexity) RequiresOversight() bool {
	return c == ComplexityComplex || c == ComplexityEnterprise
}

// Method records how an extracted value was obtained.
type Method string

const (
	MethodPattern Method = "pattern"
	MethodModel   Method = "model"
	MethodRule    Method = "rule"
	MethodManual  Method = "manual"
)

// Field pairs an extracted value with the evidence behind it. The raw
// source text is kept alongside the parsed value so downstream review
// never loses the original wording.
type Field[T any] struct {
	Value         T       `json:"value"`
	RawText       string  `json:"raw_text,omitempty"`
	Confidence    float64 `json:"confidence"`
	Method        Method  `json:"method,omitempty"`
	SourceSection string  `json:"source_section,omitempty"`
}

// NewField builds a field with a parsed value and its supporting evidence.
func NewField[T any](value T, raw string, confidence float64, method Method) Field[T] {
	return Field[T]{Value: value, RawText: raw, Confidence: confidence, Method: method}
}

// ProjectContext is everything the engine knows about the engagement
// beyond the role list itself.
type ProjectContext struct {
	Client        Field[string]            `json:"client"`
	Title         Field[string]            `json:"title"`
	DurationWeeks Field[int]               `json:"duration_weeks"`
	Type          ProjectType              `json:"project_type"`
	Complexity    Complexity               `json:"complexity"`
	Deliverables  []Field[string]          `json:"deliverables,omitempty"`
	Attributes    map[string]Field[string] `json:"attributes,omitempty"`
}

// Duration returns the project duration in weeks and whether it is known.
// A duration is usable only when it was extracted with some confidence
// and parsed to a positive number of weeks.
func (p *ProjectContext) Duration() (int, bool) {
	if p.DurationWeeks.Value <= 0 {
		return 0, false
	}
	return p.DurationWeeks.Value, true
}

// AllocationType says which unit an allocation value is expressed in.
type AllocationType string

const (
	AllocFTEPct AllocationType = "fte_percentage"
	AllocHours  AllocationType = "hours"
)

// Billability classifies how a role is charged to the client.
type Billability string

const (
	Billable    Billability = "billable"
	NonBillable Billability = "non_billable"
	PassThrough Billability = "pass_through"
	// BillabilityUnknown means the contract text gave no signal. It is
	// distinct from zero allocation and never defaulted to billable.
	BillabilityUnknown Billability = "unknown"
)

// Provenance is one recorded change to an allocation. Source is either
// an extraction stage name or the policy rule that made the change.
type Provenance struct {
	Source string  `json:"source"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
	Note   string  `json:"note,omitempty"`
}

// RoleAllocation is one staffed role on the plan.
type RoleAllocation struct {
	// Title is the raw title as it appeared in the source document, or
	// the canonical title for synthesized roles.
	Title string `json:"title"`

	// Role, Department and Level identify the canonical taxonomy entry.
	// They are empty when the title could not be resolved.
	Role       string              `json:"role,omitempty"`
	Department taxonomy.Department `json:"department,omitempty"`
	Level      taxonomy.Level      `json:"level,omitempty"`

	AllocationType  AllocationType `json:"allocation_type"`
	AllocationValue float64        `json:"allocation_value"`
	Billability     Billability    `json:"billability"`

	Confidence  float64 `json:"confidence"`
	NeedsReview bool    `json:"needs_review"`
	// Synthetic marks roles inserted by policy rules rather than
	// extracted from the document.
	Synthetic bool `json:"synthetic,omitempty"`

	Provenance []Provenance `json:"provenance,omitempty"`
}

// Resolved reports whether the role maps to a canonical taxonomy entry.
func (ra *RoleAllocation) Resolved() bool { return ra.Role != "" }

// FTEPct returns the allocation as an FTE percentage. Hours-based
// allocations need the project duration to convert; without it the
// second return is false.
func (ra *RoleAllocation) FTEPct(durationWeeks int) (float64, bool) {
	switch ra.AllocationType {
	case AllocFTEPct:
		return ra.AllocationValue, true
	case AllocHours:
		return HoursToFTEPct(ra.AllocationValue, durationWeeks)
	}
	return 0, false
}

// Hours returns the allocation as total engagement hours, subject to the
// same duration requirement as FTEPct.
func (ra *RoleAllocation) Hours(durationWeeks int) (float64, bool) {
	switch ra.AllocationType {
	case AllocHours:
		return ra.AllocationValue, true
	case AllocFTEPct:
		return FTEPctToHours(ra.AllocationValue, durationWeeks)
	}
	return 0, false
}

// SetFTEPct rewrites the allocation as an FTE percentage and records the
// change. The before value is the previous allocation in its previous
// unit, which keeps the audit trail honest about unit changes.
func (ra *RoleAllocation) SetFTEPct(source string, pct float64, note string) {
	ra.Provenance = append(ra.Provenance, Provenance{
		Source: source,
		Before: ra.AllocationValue,
		After:  pct,
		Note:   note,
	})
	ra.AllocationType = AllocFTEPct
	ra.AllocationValue = pct
}

// Record appends a provenance entry without changing the allocation.
func (ra *RoleAllocation) Record(source, note string) {
	ra.Provenance = append(ra.Provenance, Provenance{
		Source: source,
		Before: ra.AllocationValue,
		After:  ra.AllocationValue,
		Note:   note,
	})
}

// Candidate is an unresolved role as it arrives from extraction or a
// suggestion model: a raw title, an optional free-text allocation hint,
// and the extractor's confidence in the title itself.
type Candidate struct {
	Title          string  `json:"title"`
	AllocationHint string  `json:"allocation_hint,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
}

// ExtractionConfidence returns the candidate confidence, defaulting to
// 0.5 when the extractor did not report one.
func (c Candidate) ExtractionConfidence() float64 {
	if c.Confidence <= 0 {
		return 0.5
	}
	if c.Confidence > 1 {
		return 1
	}
	return c.Confidence
}
