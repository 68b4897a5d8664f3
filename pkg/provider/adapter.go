// Package provider defines the Provider Adapter boundary (§4.2): the only
// seam through which a scenario ever touches a cloud API. Every adapter
// method returns detect's provider-agnostic value types and wraps SDK
// failures in detect.AdapterError so no raw SDK type crosses into scenario
// code (see Adapter for the failures that come back as plain errors).
package provider

import (
	"context"
	"time"

	"github.com/wastescan/detector/pkg/detect"
)

// AccountIdentity is the result of a successful credential validation: who
// the adapter is authenticated as, for audit logging and report headers.
type AccountIdentity struct {
	AccountID string
	Principal string
	Provider  string
	// Alias is the account's friendly IAM alias, when the credential has
	// iam:ListAccountAliases permission and one is set; empty otherwise.
	// Best-effort only — its absence never fails credential validation.
	Alias string
}

// RegionCode is an opaque, provider-defined region identifier
// (e.g. "us-east-1"). detect.GlobalRegion is the sentinel for resource
// types enumerated once per account rather than once per region.
type RegionCode = string

// Filter narrows ListResources/ListRelated to a subset; providers that
// can't push a filter down simply enumerate everything and let the caller
// discard what it doesn't need.
type Filter struct {
	ResourceType string
	ParentID     string // e.g. "only resources attached to this instance"
}

// RelationKind names the relationship a ListRelated call is asking about
// (e.g. "route_table_association", "target_group_membership").
type RelationKind string

// MetricRequest describes one windowed telemetry pull: which metric, over
// what period, at what granularity.
type MetricRequest struct {
	ResourceType string
	ResourceID   string
	Region       RegionCode
	Metric       string
	Start        time.Time
	End          time.Time
	PeriodSeconds int
}

// Adapter is the full surface a scenario (indirectly, through the scan
// orchestrator) can call into a cloud provider through. Implementations
// must never panic. SDK call failures are returned as *detect.AdapterError;
// a request for a resource type, relation kind or metric the adapter has
// no mapping for returns a plain error, which the engine records with
// kind unexpected_data.
type Adapter interface {
	// ValidateCredentials confirms the configured credentials work at all,
	// before any region or resource enumeration begins.
	ValidateCredentials(ctx context.Context) (AccountIdentity, error)

	// ListRegions returns every region the adapter is able to scan, in the
	// provider's natural order. A region appearing here is not a guarantee
	// every resource type is enabled there (opt-in regions, org SCPs).
	ListRegions(ctx context.Context) ([]RegionCode, error)

	// ListResources enumerates every live instance of one resource type in
	// one region (or detect.GlobalRegion for account-scoped types).
	ListResources(ctx context.Context, region RegionCode, f Filter) (detect.ResourceInventory, error)

	// GetMetric pulls one windowed telemetry aggregation for a resource.
	// A metric the provider has no data for returns detect.ZeroSample with
	// HasData=false, not an error.
	GetMetric(ctx context.Context, req MetricRequest) (detect.TelemetrySample, error)

	// ListRelated returns the IDs of resources related to parentID by
	// kind (e.g. ENIs attached to an EIP, target groups behind a load
	// balancer). Returns an empty slice, not an error, when there are none.
	ListRelated(ctx context.Context, region RegionCode, parentID string, kind RelationKind) ([]string, error)
}
