// Package detect holds the core value types shared by every scenario,
// the provider adapter, and the scan orchestrator: Finding, ResourceInventory
// and TelemetrySample (RuleSet lives in pkg/rules).
package detect

import "time"

// Confidence grades how sure a scenario is that a resource is wasted.
type Confidence string

const (
	ConfidenceLow      Confidence = "low"
	ConfidenceMedium   Confidence = "medium"
	ConfidenceHigh     Confidence = "high"
	ConfidenceCritical Confidence = "critical"
)

var confidenceRank = map[Confidence]int{
	ConfidenceLow:      0,
	ConfidenceMedium:   1,
	ConfidenceHigh:     2,
	ConfidenceCritical: 3,
}

// Max returns the higher-ranked of two confidence labels.
func (c Confidence) Max(other Confidence) Confidence {
	if confidenceRank[other] > confidenceRank[c] {
		return other
	}
	return c
}

// AtLeast reports whether c is ranked at or above other.
func (c Confidence) AtLeast(other Confidence) bool {
	return confidenceRank[c] >= confidenceRank[other]
}

// GlobalRegion is the sentinel region code for account-scoped resource types
// (e.g. S3 buckets) that are enumerated once per scan, not once per region.
const GlobalRegion = "global"

// Finding is a single (resource, scenario) verdict. Scenarios emit these by
// value; the engine never mutates a Finding once returned.
type Finding struct {
	ResourceType         string         `json:"resource_type"`
	ResourceID           string         `json:"resource_id"`
	ResourceName         string         `json:"resource_name,omitempty"`
	Region               string         `json:"region"`
	EstimatedMonthlyCost float64        `json:"estimated_monthly_cost"`
	Metadata             map[string]any `json:"metadata"`
}

// Evidence is the typed payload every scenario must populate before handing
// its reason/confidence/signals to the shared Metadata bag. Scenario code
// never pokes string keys directly — NewFinding is the only place the map
// is assembled, which keeps every Finding's metadata shape consistent
// without losing the open-map flexibility spec.md requires on the wire.
type Evidence struct {
	OrphanType   string
	OrphanReason string
	Confidence   Confidence
	AgeDays      int
	Signals      map[string]any
}

// NewFinding assembles a Finding from a resource identity and its evidence.
func NewFinding(resourceType, resourceID, resourceName, region string, monthlyCost float64, ev Evidence) Finding {
	meta := make(map[string]any, len(ev.Signals)+4)
	for k, v := range ev.Signals {
		meta[k] = v
	}
	meta["orphan_type"] = ev.OrphanType
	meta["orphan_reason"] = ev.OrphanReason
	meta["confidence"] = ev.Confidence
	meta["age_days"] = ev.AgeDays

	if monthlyCost < 0 {
		monthlyCost = 0
	}

	return Finding{
		ResourceType:         resourceType,
		ResourceID:           resourceID,
		ResourceName:         resourceName,
		Region:               region,
		EstimatedMonthlyCost: monthlyCost,
		Metadata:             meta,
	}
}

// OrphanType returns the finding's scenario identifier, or "" if absent.
func (f Finding) OrphanType() string {
	s, _ := f.Metadata["orphan_type"].(string)
	return s
}

// ConfidenceLevel returns the finding's confidence, defaulting to low.
func (f Finding) ConfidenceLevel() Confidence {
	switch v := f.Metadata["confidence"].(type) {
	case Confidence:
		return v
	case string:
		return Confidence(v)
	default:
		return ConfidenceLow
	}
}

// Resource is one materialized instance of a resource type inside a
// ResourceInventory: identity, lifecycle state, shape, tags, and pointers
// to whatever it is attached to or a member of.
type Resource struct {
	ID           string
	Name         string
	Region       string
	State        string // provider-reported lifecycle state ("available", "running", "stopped", ...)
	Shape        string // SKU / instance type / volume type, provider-specific
	SizeGB       int
	CreatedAt    time.Time
	StateSince   time.Time // when State was last observed to change; falls back to CreatedAt
	Tags         map[string]string
	AttachedTo   string // pointer to a related resource id (volume->instance, EIP->NIC, ...)
	Attributes   map[string]any
}

// Tag returns a tag value and whether it was present.
func (r Resource) Tag(key string) (string, bool) {
	v, ok := r.Tags[key]
	return v, ok
}

// AgeDays returns whole days since CreatedAt.
func (r Resource) AgeDays(now time.Time) int {
	return int(now.Sub(r.CreatedAt).Hours() / 24)
}

// StateSinceDays returns whole days since the last observed state
// transition, falling back to CreatedAt when StateSince is zero.
func (r Resource) StateSinceDays(now time.Time) int {
	since := r.StateSince
	if since.IsZero() {
		since = r.CreatedAt
	}
	return int(now.Sub(since).Hours() / 24)
}

// ResourceInventory is the fully materialized, paged enumeration of every
// live instance of one resource type in one region. It is discarded at the
// end of the region-scan that produced it.
type ResourceInventory struct {
	ResourceType string
	Region       string
	Resources    []Resource
}

// ByID indexes the inventory by resource id for relationship lookups
// (e.g. a volume scenario looking up the instance it is attached to).
func (inv ResourceInventory) ByID() map[string]Resource {
	idx := make(map[string]Resource, len(inv.Resources))
	for _, r := range inv.Resources {
		idx[r.ID] = r
	}
	return idx
}

// TelemetrySample is a windowed aggregation result: one reduced scalar (or
// a raw series) for a named metric, plus an explicit signal about whether
// the provider actually had data for the window.
type TelemetrySample struct {
	Metric         string
	Series         []DataPoint
	Sum            float64
	Average        float64
	Maximum        float64
	StdDev         float64
	HourOfDayHisto [24]float64
	HasData        bool
}

// DataPoint is one (timestamp, value) observation.
type DataPoint struct {
	Timestamp time.Time
	Value     float64
}

// ZeroSample returns the canonical "no data" sample for a metric: scenarios
// must treat HasData=false as "no signal", never as "definitely zero",
// unless the scenario explicitly documents that zero-as-absence is its
// detection condition (e.g. "never invoked").
func ZeroSample(metric string) TelemetrySample {
	return TelemetrySample{Metric: metric, HasData: false}
}
