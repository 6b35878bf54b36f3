package taxonomy

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "github.com/agencyops/staffing-engine/internal/errors"
)

//go:embed registry.yaml
var defaultRegistryYAML []byte

type registryFile struct {
	MandatoryRole string                `yaml:"mandatory_role"`
	OversightRole string                `yaml:"oversight_role"`
	BaselineRole  string                `yaml:"baseline_role"`
	Roles         []*Entry              `yaml:"roles"`
	Fallbacks     map[string][]Fallback `yaml:"fallbacks"`
}

// Default returns the built-in registry. It panics only on a corrupt
// embedded file, which is a build defect rather than a runtime state.
func Default() *Registry {
	r, err := Parse(defaultRegistryYAML)
	if err != nil {
		panic(fmt.Sprintf("taxonomy: embedded registry invalid: %v", err))
	}
	return r
}

// Load reads a registry from a YAML file on disk. An empty path returns
// the built-in registry.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError("taxonomy", "read %s: %v", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, apperrors.NewConfigError("taxonomy", "parse %s: %v", path, err)
	}
	return r, nil
}

// Parse decodes and validates registry YAML.
func Parse(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}

	r := &Registry{
		entries:       f.Roles,
		byRole:        make(map[string]*Entry, len(f.Roles)),
		bySynonym:     make(map[string]*Entry),
		fallbacks:     f.Fallbacks,
		mandatoryRole: f.MandatoryRole,
		oversightRole: f.OversightRole,
		baselineRole:  f.BaselineRole,
	}
	if r.fallbacks == nil {
		r.fallbacks = map[string][]Fallback{}
	}

	for _, e := range f.Roles {
		if _, dup := r.byRole[e.Role]; dup {
			return nil, fmt.Errorf("duplicate role id %q", e.Role)
		}
		r.byRole[e.Role] = e
		for _, name := range e.allNames() {
			if name == "" {
				continue
			}
			// First entry wins on synonym collisions; registry order is
			// the precedence order.
			if _, taken := r.bySynonym[name]; !taken {
				r.bySynonym[name] = e
			}
		}
	}

	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}
