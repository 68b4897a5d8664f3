package detect

import "sort"

// dedupKey groups findings that describe the same physical resource: two
// scenarios (even across resource types is impossible by construction, but
// across orphan types is common) can legitimately both fire on one
// resource_id in one region.
type dedupKey struct {
	ResourceType string
	Region       string
	ResourceID   string
}

// Deduplicate collapses findings that share (resource_type, region,
// resource_id) into one, per spec.md §4.6: the highest-cost finding is
// kept, every other finding's orphan_type is folded into
// detection_scenarios, each sub-finding's reason/confidence/cost is
// preserved in all_detections for explainability, confidence is promoted
// to the strongest of the group, and is_deduplicated/duplicate_count
// record that a merge happened. Input order is not relied upon; output is
// sorted by (resource_type, region, resource_id) for stable, reproducible
// reports.
func Deduplicate(findings []Finding) []Finding {
	groups := make(map[dedupKey][]Finding, len(findings))
	var order []dedupKey
	for _, f := range findings {
		k := dedupKey{ResourceType: f.ResourceType, Region: f.Region, ResourceID: f.ResourceID}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], f)
	}

	out := make([]Finding, 0, len(order))
	for _, k := range order {
		out = append(out, mergeGroup(groups[k]))
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ResourceType != b.ResourceType {
			return a.ResourceType < b.ResourceType
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		return a.ResourceID < b.ResourceID
	})
	return out
}

func mergeGroup(group []Finding) Finding {
	if len(group) == 1 {
		f := group[0]
		f.Metadata = cloneMeta(f.Metadata)
		f.Metadata["is_deduplicated"] = false
		f.Metadata["duplicate_count"] = 1
		return f
	}

	winner := group[0]
	for _, f := range group[1:] {
		if f.EstimatedMonthlyCost > winner.EstimatedMonthlyCost {
			winner = f
		}
	}

	scenarios := make([]string, 0, len(group))
	seen := make(map[string]bool, len(group))
	allDetections := make([]map[string]any, 0, len(group))
	confidence := ConfidenceLow
	for _, f := range group {
		if ot := f.OrphanType(); ot != "" && !seen[ot] {
			seen[ot] = true
			scenarios = append(scenarios, ot)
		}
		confidence = confidence.Max(f.ConfidenceLevel())
		allDetections = append(allDetections, map[string]any{
			"orphan_type":            f.OrphanType(),
			"orphan_reason":          f.Metadata["orphan_reason"],
			"confidence":             f.ConfidenceLevel(),
			"estimated_monthly_cost": f.EstimatedMonthlyCost,
		})
	}
	sort.Strings(scenarios)

	merged := cloneMeta(winner.Metadata)
	merged["detection_scenarios"] = scenarios
	merged["all_detections"] = allDetections
	merged["confidence"] = confidence
	merged["is_deduplicated"] = true
	merged["duplicate_count"] = len(group)

	winner.Metadata = merged
	return winner
}

func cloneMeta(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+3)
	for k, v := range m {
		out[k] = v
	}
	return out
}
