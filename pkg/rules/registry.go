package rules

import "github.com/imdario/mergo"

// Registry holds the built-in default table and resolves a caller's
// override RuleSet against it, one resource type at a time (§4.4).
type Registry struct {
	defaults RuleSet
}

// NewRegistry builds a Registry seeded with the built-in defaults.
func NewRegistry() *Registry {
	return &Registry{defaults: Default()}
}

// Resolve deep-merges overrides for resourceType onto the built-in
// defaults and returns the immutable ResolvedRules a scenario reads.
// Caller-supplied values always win; unspecified parameters keep their
// default. A resourceType the registry has no defaults for still resolves,
// carrying only the caller's overrides — unknown resource types are a
// registration bug, not a rule-resolution error.
func (reg *Registry) Resolve(resourceType string, overrides RuleSet) ResolvedRules {
	merged := make(map[string]any, len(reg.defaults[resourceType]))
	for k, v := range reg.defaults[resourceType] {
		merged[k] = v
	}

	if override, ok := overrides[resourceType]; ok && len(override) > 0 {
		if err := mergo.Merge(&merged, override, mergo.WithOverride); err != nil {
			// mergo.Merge only fails on incompatible dst/src shapes; a
			// map[string]any onto itself cannot hit that, so a merge
			// failure here means the caller passed a malformed override
			// value (e.g. a slice where a scalar is expected). Keep the
			// defaults rather than propagate a partially merged map.
			merged = make(map[string]any, len(reg.defaults[resourceType]))
			for k, v := range reg.defaults[resourceType] {
				merged[k] = v
			}
		}
	}

	return ResolvedRules{ResourceType: resourceType, params: merged}
}

// RulesFor resolves resourceType with no overrides applied.
func (reg *Registry) RulesFor(resourceType string) ResolvedRules {
	return reg.Resolve(resourceType, nil)
}

// ResolveAll resolves every known resource type against overrides, for
// callers that want the full merged table.
func (reg *Registry) ResolveAll(overrides RuleSet) map[string]ResolvedRules {
	out := make(map[string]ResolvedRules, len(reg.defaults))
	for resourceType := range reg.defaults {
		out[resourceType] = reg.Resolve(resourceType, overrides)
	}
	return out
}
