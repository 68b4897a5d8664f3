package scenario

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

func registerSnapshotScenarios(r *Registry) {
	r.Register(Scenario{ID: "orphaned_volume_snapshot", ResourceType: rules.ResourceSnapshot, Detect: detectOrphanedVolumeSnapshot})
	r.Register(Scenario{ID: "old_unused_snapshot", ResourceType: rules.ResourceSnapshot, Detect: detectOldUnusedSnapshot})
	r.Register(Scenario{ID: "redundant_snapshot", ResourceType: rules.ResourceSnapshot, Detect: detectRedundantSnapshot})
	r.Register(Scenario{ID: "incomplete_failed_snapshot", ResourceType: rules.ResourceSnapshot, Detect: detectIncompleteFailedSnapshot})
	r.Register(Scenario{ID: "untagged_snapshot", ResourceType: rules.ResourceSnapshot, Detect: detectUntaggedSnapshot})
	r.Register(Scenario{ID: "excessive_retention_nonprod_snapshot", ResourceType: rules.ResourceSnapshot, Detect: detectExcessiveRetentionNonprodSnapshot})
	r.Register(Scenario{ID: "deleted_instance_snapshot", ResourceType: rules.ResourceSnapshot, Detect: detectDeletedInstanceSnapshot})
	r.Register(Scenario{ID: "duplicate_snapshot", ResourceType: rules.ResourceSnapshot, Detect: detectDuplicateSnapshot})
}

func detectOrphanedVolumeSnapshot(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.BoolOr("require_orphaned_volume", true) {
		return nil, nil
	}
	volumeID, _ := r.Attributes["volume_id"].(string)
	if volumeID == "" {
		return nil, nil
	}
	// An explicit volume_exists attribute wins. Otherwise the source volume
	// is looked up in the region's volume inventory (scanned before
	// snapshots); if volumes were not scanned in this region the scenario
	// makes no claim.
	volumeExists, ok := r.Attributes["volume_exists"].(bool)
	if !ok {
		if _, scanned := c.Region[rules.ResourceVolume]; !scanned {
			return nil, nil
		}
		_, volumeExists = c.RelatedResource(rules.ResourceVolume, volumeID)
	}
	if volumeExists {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_age_days", 90)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "orphaned_volume_snapshot",
		OrphanReason: fmt.Sprintf("source volume %s no longer exists", volumeID),
		Confidence:   detect.ConfidenceForAge(age, c.Rules),
		AgeDays:      age,
		Signals:      map[string]any{"source_volume_id": volumeID, "size_gb": r.SizeGB},
	}, nil
}

func detectOldUnusedSnapshot(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("old_unused") {
		return nil, nil
	}
	oldAge := c.Rules.IntOr("old_unused_age_days", 365)
	age := r.AgeDays(c.Now)
	if age < oldAge {
		return nil, nil
	}
	if rules.HasAnyTag(r.Tags, c.Rules.StringSliceOr("compliance_tags", nil)) {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "old_unused_snapshot",
		OrphanReason: fmt.Sprintf("snapshot is %d days old with no compliance/retention tag", age),
		Confidence:   detect.ConfidenceForAge(age, c.Rules),
		AgeDays:      age,
		Signals:      map[string]any{"size_gb": r.SizeGB},
	}, nil
}

func detectRedundantSnapshot(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("redundant_snapshots") {
		return nil, nil
	}
	volumeID, _ := r.Attributes["volume_id"].(string)
	if volumeID == "" {
		return nil, nil
	}
	maxPerVolume := c.Rules.IntOr("max_snapshots_per_volume", 7)

	count := 0
	for _, other := range c.Inventory.Resources {
		if v, _ := other.Attributes["volume_id"].(string); v == volumeID {
			count++
		}
	}
	if count <= maxPerVolume {
		return nil, nil
	}

	age := r.AgeDays(c.Now)
	return &detect.Evidence{
		OrphanType:   "redundant_snapshot",
		OrphanReason: fmt.Sprintf("volume %s has %d snapshots, exceeding the retained limit of %d", volumeID, count, maxPerVolume),
		Confidence:   detect.ConfidenceMedium,
		AgeDays:      age,
		Signals:      map[string]any{"source_volume_id": volumeID, "snapshot_count_for_volume": count},
	}, nil
}

func detectIncompleteFailedSnapshot(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("incomplete_failed") {
		return nil, nil
	}
	if r.State != "error" && r.State != "pending" {
		return nil, nil
	}
	maxPendingDays := c.Rules.IntOr("max_pending_days", 7)
	age := r.AgeDays(c.Now)
	if r.State == "pending" && age < maxPendingDays {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "incomplete_failed_snapshot",
		OrphanReason: fmt.Sprintf("snapshot has been in state %q for %d days and will never complete usably", r.State, age),
		Confidence:   detect.ConfidenceHigh,
		AgeDays:      age,
		Signals:      map[string]any{"state": r.State, "progress": r.Attributes["progress"]},
	}, nil
}

func detectUntaggedSnapshot(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("untagged") {
		return nil, nil
	}
	if len(r.Tags) > 0 {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_untagged_age_days", 30)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "untagged_snapshot",
		OrphanReason: fmt.Sprintf("snapshot has no tags and is %d days old, making ownership unclear", age),
		Confidence:   detect.ConfidenceLow,
		AgeDays:      age,
	}, nil
}

// sourceInstanceFromDescription extracts the instance id EC2 embeds in an
// AMI-driven snapshot's auto-generated description ("Created by
// CreateImage(i-0123...) for ami-0123... from vol-0123..."), or "" if the
// description doesn't carry one.
func sourceInstanceFromDescription(description string) string {
	idx := strings.Index(description, "i-")
	if idx < 0 {
		return ""
	}
	rest := description[idx:]
	end := strings.IndexAny(rest, ") ")
	if end < 0 {
		return rest
	}
	return rest[:end]
}

// detectDeletedInstanceSnapshot flags an AMI-backing snapshot whose source
// instance has since been terminated: the AMI (and this snapshot backing
// it) may still be registered, but nothing can launch against it anymore
// as a running instance to compare configuration or redeploy from.
func detectDeletedInstanceSnapshot(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("deleted_instance_snapshots") {
		return nil, nil
	}
	description, _ := r.Attributes["description"].(string)
	instanceID := sourceInstanceFromDescription(description)
	if instanceID == "" {
		return nil, nil
	}
	instances, ok := c.Region[rules.ResourceInstance]
	if !ok {
		return nil, nil
	}
	if _, exists := instances.ByID()[instanceID]; exists {
		return nil, nil
	}
	minAge := c.Rules.IntOr("min_ami_unused_days", 180)
	age := r.AgeDays(c.Now)
	if age < minAge {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "deleted_instance_snapshot",
		OrphanReason: fmt.Sprintf("snapshot backs an AMI created from instance %s, which no longer exists", instanceID),
		Confidence:   detect.ConfidenceForAge(age, c.Rules),
		AgeDays:      age,
		Signals:      map[string]any{"source_instance_id": instanceID, "size_gb": r.SizeGB},
	}, nil
}

// detectDuplicateSnapshot flags a snapshot taken of the same volume within
// duplicate_window_hours of an earlier one for that volume — typically a
// backup job that fired twice, or an ad-hoc snapshot taken on top of a
// scheduled one.
func detectDuplicateSnapshot(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("duplicates") {
		return nil, nil
	}
	volumeID, _ := r.Attributes["volume_id"].(string)
	if volumeID == "" {
		return nil, nil
	}
	windowHours := c.Rules.IntOr("duplicate_window_hours", 1)
	window := time.Duration(windowHours) * time.Hour

	for _, other := range c.Inventory.Resources {
		if other.ID == r.ID {
			continue
		}
		if v, _ := other.Attributes["volume_id"].(string); v != volumeID {
			continue
		}
		// Only the later of a pair is flagged, so a duplicate pair doesn't
		// produce two findings pointing at each other.
		if !other.CreatedAt.Before(r.CreatedAt) {
			continue
		}
		delta := r.CreatedAt.Sub(other.CreatedAt)
		if delta >= 0 && delta <= window {
			age := r.AgeDays(c.Now)
			return &detect.Evidence{
				OrphanType:   "duplicate_snapshot",
				OrphanReason: fmt.Sprintf("snapshot was taken %s after snapshot %s of the same volume %s", delta.Round(time.Minute), other.ID, volumeID),
				Confidence:   detect.ConfidenceMedium,
				AgeDays:      age,
				Signals:      map[string]any{"source_volume_id": volumeID, "duplicate_of": other.ID},
			}, nil
		}
	}
	return nil, nil
}

func detectExcessiveRetentionNonprodSnapshot(ctx context.Context, c Context, r detect.Resource) (*detect.Evidence, error) {
	if !c.Rules.DetectEnabled("excessive_retention") {
		return nil, nil
	}
	envTags := c.Rules.StringSliceOr("nonprod_env_tags", nil)
	envValues := c.Rules.StringSliceOr("nonprod_env_values", nil)
	if !rules.HasTaggedValue(r.Tags, envTags, envValues) {
		return nil, nil
	}
	maxDays := c.Rules.IntOr("nonprod_max_days", 90)
	age := r.AgeDays(c.Now)
	if age < maxDays {
		return nil, nil
	}
	return &detect.Evidence{
		OrphanType:   "excessive_retention_nonprod_snapshot",
		OrphanReason: fmt.Sprintf("non-production snapshot retained for %d days, beyond the %d-day policy", age, maxDays),
		Confidence:   detect.ConfidenceForAge(age, c.Rules),
		AgeDays:      age,
	}, nil
}
