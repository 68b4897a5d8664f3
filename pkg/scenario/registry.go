package scenario

import "sort"

// Registry holds every Scenario, indexed by resource type, in
// registration order within each type for deterministic evaluation.
type Registry struct {
	byType map[string][]Scenario
}

// NewRegistry builds an empty Registry. Use Catalog() for the full
// built-in set.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[string][]Scenario)}
}

// Register adds s to the registry. Panics on a duplicate (ResourceType,
// ID) pair — a scenario catalog with two scenarios sharing an orphan_type
// is a registration bug, not a runtime condition to tolerate.
func (r *Registry) Register(s Scenario) {
	for _, existing := range r.byType[s.ResourceType] {
		if existing.ID == s.ID {
			panic("scenario: duplicate scenario id " + s.ID + " for resource type " + s.ResourceType)
		}
	}
	r.byType[s.ResourceType] = append(r.byType[s.ResourceType], s)
}

// For returns every scenario registered for resourceType, in registration
// order.
func (r *Registry) For(resourceType string) []Scenario {
	return r.byType[resourceType]
}

// ResourceTypes returns every resource type with at least one registered
// scenario, sorted for deterministic iteration.
func (r *Registry) ResourceTypes() []string {
	out := make([]string, 0, len(r.byType))
	for rt := range r.byType {
		out = append(out, rt)
	}
	sort.Strings(out)
	return out
}

// Count returns the total number of registered scenarios across every
// resource type.
func (r *Registry) Count() int {
	n := 0
	for _, list := range r.byType {
		n += len(list)
	}
	return n
}

// Catalog builds the full built-in Registry: every scenario this
// implementation ships, across every resource type.
func Catalog() *Registry {
	r := NewRegistry()
	registerVolumeScenarios(r)
	registerSnapshotScenarios(r)
	registerEIPScenarios(r)
	registerNATGatewayScenarios(r)
	registerInstanceScenarios(r)
	registerLoadBalancerScenarios(r)
	registerRelationalDBScenarios(r)
	registerNoSQLScenarios(r)
	registerCacheClusterScenarios(r)
	registerDataWarehouseScenarios(r)
	registerObjectBucketScenarios(r)
	registerFunctionScenarios(r)
	registerContainerImageScenarios(r)
	registerLogGroupScenarios(r)
	registerAutoscalingGroupScenarios(r)
	return r
}
