package scenario

import (
	"context"
	"testing"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

func TestDetectOrphanedVolumeSnapshot(t *testing.T) {
	c := testContext(rules.ResourceSnapshot, nil)
	snap := detect.Resource{
		ID:        "snap-1",
		CreatedAt: c.Now.AddDate(0, 0, -120),
		Attributes: map[string]any{
			"volume_id":     "vol-gone",
			"volume_exists": false,
		},
	}

	ev, err := detectOrphanedVolumeSnapshot(context.Background(), c, snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for a snapshot whose source volume no longer exists")
	}
}

func TestDetectOrphanedVolumeSnapshotSkipsWhenVolumeExists(t *testing.T) {
	c := testContext(rules.ResourceSnapshot, nil)
	snap := detect.Resource{
		ID:        "snap-2",
		CreatedAt: c.Now.AddDate(0, 0, -120),
		Attributes: map[string]any{
			"volume_id":     "vol-alive",
			"volume_exists": true,
		},
	}

	ev, err := detectOrphanedVolumeSnapshot(context.Background(), c, snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatal("expected no evidence when the source volume still exists")
	}
}

func TestDetectRedundantSnapshot(t *testing.T) {
	c := testContext(rules.ResourceSnapshot, nil)
	c.Inventory = detect.ResourceInventory{
		Resources: []detect.Resource{
			{ID: "snap-a", Attributes: map[string]any{"volume_id": "vol-1"}},
			{ID: "snap-b", Attributes: map[string]any{"volume_id": "vol-1"}},
			{ID: "snap-c", Attributes: map[string]any{"volume_id": "vol-1"}},
			{ID: "snap-d", Attributes: map[string]any{"volume_id": "vol-1"}},
			{ID: "snap-e", Attributes: map[string]any{"volume_id": "vol-1"}},
			{ID: "snap-f", Attributes: map[string]any{"volume_id": "vol-1"}},
			{ID: "snap-g", Attributes: map[string]any{"volume_id": "vol-1"}},
			{ID: "snap-h", Attributes: map[string]any{"volume_id": "vol-1"}},
		},
	}
	snap := detect.Resource{ID: "snap-h", Attributes: map[string]any{"volume_id": "vol-1"}}

	ev, err := detectRedundantSnapshot(context.Background(), c, snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence when a volume has more snapshots than the retained limit")
	}
}

func TestDetectIncompleteFailedSnapshot(t *testing.T) {
	c := testContext(rules.ResourceSnapshot, nil)
	snap := detect.Resource{ID: "snap-i", State: "error", CreatedAt: c.Now.AddDate(0, 0, -1)}

	ev, err := detectIncompleteFailedSnapshot(context.Background(), c, snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for a snapshot stuck in error state")
	}
}

func TestDetectIncompleteFailedSnapshotSkipsYoungPending(t *testing.T) {
	c := testContext(rules.ResourceSnapshot, nil)
	snap := detect.Resource{ID: "snap-j", State: "pending", CreatedAt: c.Now.AddDate(0, 0, -1)}

	ev, err := detectIncompleteFailedSnapshot(context.Background(), c, snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatal("expected no evidence for a snapshot still within its pending grace period")
	}
}

func TestDetectUntaggedSnapshot(t *testing.T) {
	c := testContext(rules.ResourceSnapshot, nil)
	snap := detect.Resource{ID: "snap-k", CreatedAt: c.Now.AddDate(0, 0, -60)}

	ev, err := detectUntaggedSnapshot(context.Background(), c, snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for an old, untagged snapshot")
	}
}
