// Package taxonomy maps free-text role titles from contract documents onto
// the agency's canonical org structure: four departments, a 9-level
// seniority ladder, and a curated synonym table per canonical role.
package taxonomy

import (
	"fmt"
	"sort"
	"strings"
)

// Department is one of the agency's four service lines.
type Department string

const (
	DeptClientServices Department = "client_services"
	DeptStrategy       Department = "strategy"
	DeptCreative       Department = "planning_creative"
	DeptExperiences    Department = "integrated_production_experiences"
)

// Departments returns all departments in canonical reporting order.
func Departments() []Department {
	return []Department{DeptClientServices, DeptStrategy, DeptCreative, DeptExperiences}
}

// Valid reports whether d names a known department.
func (d Department) Valid() bool {
	switch d {
	case DeptClientServices, DeptStrategy, DeptCreative, DeptExperiences:
		return true
	}
	return false
}

// Level is a rung on the 9-level seniority ladder (1 = entry, 9 = executive).
type Level int

// SeniorOversightLevel is the lowest level that counts as executive
// oversight for compliance purposes (VP and above).
const SeniorOversightLevel Level = 7

// Valid reports whether l is within the ladder.
func (l Level) Valid() bool { return l >= 1 && l <= 9 }

// Senior reports whether l qualifies as executive oversight.
func (l Level) Senior() bool { return l >= SeniorOversightLevel }

// Entry is one canonical role in the registry.
type Entry struct {
	Role          string     `yaml:"role" json:"role"`
	Title         string     `yaml:"title" json:"title"`
	Department    Department `yaml:"department" json:"department"`
	Level         Level      `yaml:"level" json:"level"`
	DefaultFTEPct float64    `yaml:"default_fte_pct" json:"default_fte_pct"`
	Synonyms      []string   `yaml:"synonyms" json:"synonyms,omitempty"`
}

// Fallback is a role the rule engine may synthesize to bring an
// undersized plan up to the minimum team size.
type Fallback struct {
	Role   string  `yaml:"role" json:"role"`
	FTEPct float64 `yaml:"fte_pct" json:"fte_pct"`
}

// Match is the result of resolving a raw title against the registry.
type Match struct {
	Entry *Entry
	// Quality is 1.0 for an exact synonym hit, otherwise the token
	// overlap score of the best partial match.
	Quality float64
	Exact   bool
}

// Registry is the immutable canonical role table. It is loaded once at
// startup and shared read-only across the process.
type Registry struct {
	entries   []*Entry
	byRole    map[string]*Entry
	bySynonym map[string]*Entry
	fallbacks map[string][]Fallback

	mandatoryRole string
	oversightRole string
	baselineRole  string
}

// minOverlapScore is the lowest token overlap accepted as a partial match.
const minOverlapScore = 0.5

// Entries returns the canonical roles in registry order.
func (r *Registry) Entries() []*Entry { return r.entries }

// Lookup returns the entry for a canonical role id.
func (r *Registry) Lookup(role string) (*Entry, bool) {
	e, ok := r.byRole[role]
	return e, ok
}

// MandatoryRole returns the entry for the role every plan must carry.
func (r *Registry) MandatoryRole() *Entry { return r.byRole[r.mandatoryRole] }

// OversightRole returns the entry synthesized when a complex engagement
// lacks senior oversight.
func (r *Registry) OversightRole() *Entry { return r.byRole[r.oversightRole] }

// BaselineRole returns the entry inserted when the account-management
// department is empty.
func (r *Registry) BaselineRole() *Entry { return r.byRole[r.baselineRole] }

// Fallbacks returns the ordered fallback roles for a project type, or
// nil when the registry defines none for it.
func (r *Registry) Fallbacks(projectType string) []Fallback {
	return r.fallbacks[projectType]
}

// Resolve maps a raw role title to a canonical entry. It tries an exact
// match on the normalized title first, then scores token overlap against
// every synonym and keeps the best candidate above the threshold.
// Ties go to the entry that appears first in registry order.
func (r *Registry) Resolve(rawTitle string) (Match, bool) {
	norm := Normalize(rawTitle)
	if norm == "" {
		return Match{}, false
	}

	if e, ok := r.bySynonym[norm]; ok {
		return Match{Entry: e, Quality: 1.0, Exact: true}, true
	}

	tokens := strings.Fields(norm)
	var best Match
	for _, e := range r.entries {
		for _, syn := range e.allNames() {
			score := overlapScore(tokens, strings.Fields(syn))
			if score > best.Quality {
				best = Match{Entry: e, Quality: score}
			}
		}
	}
	if best.Quality < minOverlapScore {
		return Match{}, false
	}
	return best, true
}

// allNames returns every normalized name the entry can be matched on.
func (e *Entry) allNames() []string {
	names := make([]string, 0, len(e.Synonyms)+2)
	names = append(names, Normalize(e.Title), Normalize(e.Role))
	for _, s := range e.Synonyms {
		names = append(names, Normalize(s))
	}
	return names
}

// Normalize lowercases a title, strips punctuation and collapses
// whitespace so "Sr. Account Manager" and "sr account manager" compare
// equal.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range strings.ToLower(s) {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		case ch == '&':
			b.WriteString(" and ")
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// overlapScore is the size of the shared token set divided by the size
// of the larger token set.
func overlapScore(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	shared := 0
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			shared++
		}
	}
	longer := len(set)
	if len(seen) > longer {
		longer = len(seen)
	}
	return float64(shared) / float64(longer)
}

// validate checks structural integrity after load.
func (r *Registry) validate() error {
	if len(r.entries) == 0 {
		return fmt.Errorf("registry has no roles")
	}
	for _, e := range r.entries {
		if e.Role == "" || e.Title == "" {
			return fmt.Errorf("role entry missing role id or title")
		}
		if !e.Department.Valid() {
			return fmt.Errorf("role %q: unknown department %q", e.Role, e.Department)
		}
		if !e.Level.Valid() {
			return fmt.Errorf("role %q: level %d outside 1..9", e.Role, e.Level)
		}
	}
	for _, ref := range []struct{ name, role string }{
		{"mandatory_role", r.mandatoryRole},
		{"oversight_role", r.oversightRole},
		{"baseline_role", r.baselineRole},
	} {
		if ref.role == "" {
			return fmt.Errorf("%s is not set", ref.name)
		}
		if _, ok := r.byRole[ref.role]; !ok {
			return fmt.Errorf("%s %q is not a registered role", ref.name, ref.role)
		}
	}
	types := make([]string, 0, len(r.fallbacks))
	for pt := range r.fallbacks {
		types = append(types, pt)
	}
	sort.Strings(types)
	for _, pt := range types {
		for _, fb := range r.fallbacks[pt] {
			if _, ok := r.byRole[fb.Role]; !ok {
				return fmt.Errorf("fallback for %q references unknown role %q", pt, fb.Role)
			}
			if fb.FTEPct <= 0 {
				return fmt.Errorf("fallback for %q role %q has non-positive fte_pct", pt, fb.Role)
			}
		}
	}
	return nil
}
