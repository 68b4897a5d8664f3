// Package scenario holds the registered-scenario catalog (§4.1): each
// waste-detection rule is one Scenario value registered into Registry,
// rather than a method on a per-resource-type subclass hierarchy. Adding a
// new detection rule means adding one Scenario value, not touching a
// shared base type.
package scenario

import (
	"context"
	"time"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

// MetricFetcher pulls one windowed telemetry sample for the resource a
// Scenario is currently evaluating. Scenarios call this instead of
// touching the provider adapter directly, keeping scenario code
// provider-agnostic.
type MetricFetcher func(ctx context.Context, metric string, start, end time.Time) (detect.TelemetrySample, error)

// RelatedFetcher resolves a named relationship for the resource a
// Scenario is currently evaluating (e.g. route tables referencing a NAT
// gateway).
type RelatedFetcher func(ctx context.Context, kind string) ([]string, error)

// RelatedMetricFetcher pulls a windowed telemetry sample for a resource
// other than the one a Scenario is currently evaluating — e.g. an elastic
// IP has no CloudWatch metrics of its own, so its traffic-based scenarios
// read the attached instance's NetworkOut instead. Unlike MetricFetcher,
// the target resource type/ID are explicit arguments rather than bound at
// dispatch time.
type RelatedMetricFetcher func(ctx context.Context, resourceType, resourceID, metric string, start, end time.Time) (detect.TelemetrySample, error)

// Context is everything a Scenario's Detect function needs beyond the
// resource itself: the resolved rule parameters, the current time (for
// age/lookback math), telemetry/relationship access, and the region's full
// inventory for cross-resource and cross-resource-type checks (e.g. "is
// the instance this volume is attached to stopped").
type Context struct {
	Now   time.Time
	Rules rules.ResolvedRules

	Metric        MetricFetcher
	Related       RelatedFetcher
	RelatedMetric RelatedMetricFetcher

	// Inventory is every resource of this scenario's own ResourceType in
	// the region currently being scanned — used for within-type checks
	// like "how many snapshots exist for this same source volume".
	Inventory detect.ResourceInventory

	// Region is every resource type's inventory for the region currently
	// being scanned, keyed by resource type — used for cross-type checks
	// like "is the instance this volume is attached to stopped". A
	// resource type not yet scanned in this region (or not enabled) is
	// simply absent; scenarios treat a missing entry the same as "related
	// resource not found", never as an error.
	Region map[string]detect.ResourceInventory
}

// RelatedResource looks up id inside the region-wide inventory for
// resourceType, the common case every cross-type scenario needs (e.g. a
// volume scenario looking up the instance it's attached to).
func (c Context) RelatedResource(resourceType, id string) (detect.Resource, bool) {
	inv, ok := c.Region[resourceType]
	if !ok {
		return detect.Resource{}, false
	}
	res, ok := inv.ByID()[id]
	return res, ok
}

// Scenario is one registered detection rule.
type Scenario struct {
	// ID is the orphan_type this scenario assigns to a Finding; must be
	// unique within a ResourceType.
	ID string
	// ResourceType is the detect resource type this scenario applies to.
	ResourceType string
	// RequiredTelemetry lists the metric names Detect may request through
	// ctx.Metric. The list is declarative: the orchestrator does not read
	// it, and skipped_scenarios entries come from Detect returning an
	// error.
	RequiredTelemetry []string
	// Detect evaluates one resource and returns evidence if it matches, or
	// nil if it doesn't. An error means the scenario itself failed (e.g. a
	// metric it strictly requires was unavailable for a reason other than
	// "no data"); the orchestrator records this resource/scenario pair as
	// skipped rather than silently omitting it.
	Detect func(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error)
}
