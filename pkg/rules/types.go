// Package rules holds the Rule Registry: the built-in default parameter
// table for every resource type, and the deep-merge of caller overrides
// onto that table (spec.md §4.4, §6).
package rules

import "time"

// RuleSet is the full mapping resource_type -> {parameter -> value} a
// caller may supply to override built-in defaults. Unspecified parameters
// take the registry's default value. Values are an open union: bools,
// ints, floats, strings, string slices, int slices, or time.Duration.
type RuleSet map[string]map[string]any

// ResolvedRules is the merged, immutable view of one resource type's
// parameters a scenario reads from. It is never mutated after Resolve.
type ResolvedRules struct {
	ResourceType string
	params       map[string]any
}

// Enabled reports whether the resource type is enabled at all. Scenarios
// honor this before doing any other work.
func (r ResolvedRules) Enabled() bool {
	return r.BoolOr("enabled", true)
}

// DetectEnabled reports whether an individual scenario's feature flag
// (detect_<suffix>) is on, defaulting to true when unset.
func (r ResolvedRules) DetectEnabled(suffix string) bool {
	return r.BoolOr("detect_"+suffix, true)
}

func (r ResolvedRules) BoolOr(key string, def bool) bool {
	if v, ok := r.params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func (r ResolvedRules) IntOr(key string, def int) int {
	if v, ok := r.params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int32:
			return int(n)
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return def
}

func (r ResolvedRules) Float64Or(key string, def float64) float64 {
	if v, ok := r.params[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

func (r ResolvedRules) StringOr(key string, def string) string {
	if v, ok := r.params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func (r ResolvedRules) StringSliceOr(key string, def []string) []string {
	if v, ok := r.params[key]; ok {
		if s, ok := v.([]string); ok {
			return s
		}
	}
	return def
}

func (r ResolvedRules) IntSliceOr(key string, def []int) []int {
	if v, ok := r.params[key]; ok {
		if s, ok := v.([]int); ok {
			return s
		}
	}
	return def
}

func (r ResolvedRules) DurationOr(key string, def time.Duration) time.Duration {
	if v, ok := r.params[key]; ok {
		if d, ok := v.(time.Duration); ok {
			return d
		}
	}
	return def
}

// HasTaggedValue reports whether tags contains a key from keys whose value
// (case-sensitive) is in values. Used for the nonprod_env_tags /
// nonprod_env_values checks shared by many scenarios.
func HasTaggedValue(tags map[string]string, keys, values []string) bool {
	valueSet := make(map[string]bool, len(values))
	for _, v := range values {
		valueSet[v] = true
	}
	for _, k := range keys {
		if v, ok := tags[k]; ok && valueSet[v] {
			return true
		}
	}
	return false
}

// HasAnyTag reports whether tags contains any of the given keys at all,
// regardless of value (used for compliance-tag "presence justifies" checks).
func HasAnyTag(tags map[string]string, keys []string) bool {
	for _, k := range keys {
		if _, ok := tags[k]; ok {
			return true
		}
	}
	return false
}
