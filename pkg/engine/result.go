package engine

import "github.com/wastescan/detector/pkg/detect"

// ScanResult is the top-level output of one Scan call (§4.6): every
// deduplicated finding, the region-level failures that did not abort the
// scan, which regions were actually attempted, and every (region,
// resource_type) or (resource, scenario) unit that was skipped rather
// than evaluated.
type ScanResult struct {
	Findings         []detect.Finding    `json:"findings"`
	PerRegionErrors  []detect.ScopeError `json:"per_region_errors,omitempty"`
	ScannedRegions   []string            `json:"scanned_regions"`
	SkippedScenarios []detect.ScopeError `json:"skipped_scenarios,omitempty"`
}

// Partial reports whether any region-level error or skipped scenario was
// recorded — a scan can produce this and still return a nil error unless
// the engine was built with Config.StrictMode.
func (r ScanResult) Partial() bool {
	return len(r.PerRegionErrors) > 0 || len(r.SkippedScenarios) > 0
}
