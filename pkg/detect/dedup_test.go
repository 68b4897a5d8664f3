package detect

import "testing"

func newTestFinding(id, orphanType string, cost float64, conf Confidence) Finding {
	return NewFinding(ResourceVolume, id, id+"-name", "us-east-1", cost, Evidence{
		OrphanType:   orphanType,
		OrphanReason: "test",
		Confidence:   conf,
		AgeDays:      10,
	})
}

// ResourceVolume mirrors pkg/rules.ResourceVolume's string value so this
// test file doesn't need to import pkg/rules for one literal.
const ResourceVolume = "volume"

func TestDeduplicateSingleFindingPassesThrough(t *testing.T) {
	f := newTestFinding("vol-1", "unattached_volume", 10, ConfidenceHigh)
	out := Deduplicate([]Finding{f})

	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	if out[0].Metadata["is_deduplicated"] != false {
		t.Fatal("expected is_deduplicated=false for a singleton finding")
	}
	if out[0].Metadata["duplicate_count"] != 1 {
		t.Fatal("expected duplicate_count=1 for a singleton finding")
	}
}

func TestDeduplicateMergesSameResourceKeepsMaxCost(t *testing.T) {
	cheap := newTestFinding("vol-1", "unattached_volume", 5, ConfidenceMedium)
	expensive := newTestFinding("vol-1", "oversized_iops_opportunity", 40, ConfidenceHigh)

	out := Deduplicate([]Finding{cheap, expensive})
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}

	merged := out[0]
	if merged.EstimatedMonthlyCost != 40 {
		t.Fatalf("cost = %v, want 40 (max-cost finding retained)", merged.EstimatedMonthlyCost)
	}
	if merged.ConfidenceLevel() != ConfidenceHigh {
		t.Fatalf("confidence = %v, want promoted to high", merged.ConfidenceLevel())
	}
	scenarios, _ := merged.Metadata["detection_scenarios"].([]string)
	if len(scenarios) != 2 {
		t.Fatalf("detection_scenarios = %v, want 2 entries", scenarios)
	}
	if merged.Metadata["is_deduplicated"] != true {
		t.Fatal("expected is_deduplicated=true")
	}
	if merged.Metadata["duplicate_count"] != 2 {
		t.Fatal("expected duplicate_count=2")
	}
}

func TestDeduplicateKeepsDistinctResourcesSeparate(t *testing.T) {
	a := newTestFinding("vol-1", "unattached_volume", 5, ConfidenceMedium)
	b := newTestFinding("vol-2", "unattached_volume", 5, ConfidenceMedium)

	out := Deduplicate([]Finding{a, b})
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
}

func TestDeduplicateOutputIsSortedStably(t *testing.T) {
	b := newTestFinding("vol-2", "unattached_volume", 5, ConfidenceMedium)
	a := newTestFinding("vol-1", "unattached_volume", 5, ConfidenceMedium)

	out := Deduplicate([]Finding{b, a})
	if out[0].ResourceID != "vol-1" || out[1].ResourceID != "vol-2" {
		t.Fatalf("order = [%s, %s], want sorted [vol-1, vol-2]", out[0].ResourceID, out[1].ResourceID)
	}
}
