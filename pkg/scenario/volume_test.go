package scenario

import (
	"context"
	"testing"
	"time"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/rules"
)

func testContext(resourceType string, overrides rules.RuleSet) Context {
	return Context{
		Now:   time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
		Rules: rules.NewRegistry().Resolve(resourceType, overrides),
		Metric: func(ctx context.Context, metric string, start, end time.Time) (detect.TelemetrySample, error) {
			return detect.ZeroSample(metric), nil
		},
		Related: func(ctx context.Context, kind string) ([]string, error) {
			return nil, nil
		},
	}
}

func TestDetectUnattachedVolumeFlagsOldUnattached(t *testing.T) {
	c := testContext(rules.ResourceVolume, nil)
	vol := detect.Resource{
		ID:        "vol-1",
		State:     "available",
		CreatedAt: c.Now.AddDate(0, 0, -30),
	}

	ev, err := detectUnattachedVolume(context.Background(), c, vol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for a 30-day-old unattached volume")
	}
	if ev.OrphanType != "unattached_volume" {
		t.Fatalf("orphan type = %q, want unattached_volume", ev.OrphanType)
	}
	if ev.Confidence != detect.ConfidenceHigh {
		t.Fatalf("confidence = %v, want high at 30 days", ev.Confidence)
	}
}

func TestDetectUnattachedVolumeSkipsYoungVolume(t *testing.T) {
	c := testContext(rules.ResourceVolume, nil)
	vol := detect.Resource{
		ID:        "vol-2",
		State:     "available",
		CreatedAt: c.Now.AddDate(0, 0, -2),
	}

	ev, err := detectUnattachedVolume(context.Background(), c, vol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatal("expected no evidence for a 2-day-old volume")
	}
}

func TestDetectUnattachedVolumeSkipsAttached(t *testing.T) {
	c := testContext(rules.ResourceVolume, nil)
	vol := detect.Resource{
		ID:         "vol-3",
		State:      "in-use",
		AttachedTo: "i-1",
		CreatedAt:  c.Now.AddDate(0, 0, -90),
	}

	ev, err := detectUnattachedVolume(context.Background(), c, vol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatal("expected no evidence for an attached volume")
	}
}

func TestDetectStoppedInstanceVolumeRequiresRelatedLookup(t *testing.T) {
	c := testContext(rules.ResourceVolume, nil)
	c.Region = map[string]detect.ResourceInventory{
		rules.ResourceInstance: {
			ResourceType: rules.ResourceInstance,
			Resources: []detect.Resource{
				{ID: "i-1", State: "stopped", StateSince: c.Now.AddDate(0, 0, -45)},
			},
		},
	}
	vol := detect.Resource{ID: "vol-4", State: "in-use", AttachedTo: "i-1"}

	ev, err := detectStoppedInstanceVolume(context.Background(), c, vol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for a volume attached to a long-stopped instance")
	}
	if ev.Signals["instance_id"] != "i-1" {
		t.Fatalf("signals = %v, want instance_id=i-1", ev.Signals)
	}
}

func TestDetectStoppedInstanceVolumeSkipsWhenInstanceMissing(t *testing.T) {
	c := testContext(rules.ResourceVolume, nil)
	vol := detect.Resource{ID: "vol-5", State: "in-use", AttachedTo: "i-ghost"}

	ev, err := detectStoppedInstanceVolume(context.Background(), c, vol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatal("expected no evidence when the related instance is absent from inventory")
	}
}

func TestDetectComplianceExemptIdleVolumeCapsConfidenceAtMedium(t *testing.T) {
	c := testContext(rules.ResourceVolume, nil)
	vol := detect.Resource{
		ID:        "vol-6",
		State:     "available",
		CreatedAt: c.Now.AddDate(0, 0, -120),
		Tags:      map[string]string{"compliance": "hipaa"},
	}

	ev, err := detectComplianceExemptIdleVolume(context.Background(), c, vol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev == nil {
		t.Fatal("expected evidence for an idle compliance-tagged volume")
	}
	if ev.Confidence != detect.ConfidenceMedium {
		t.Fatalf("confidence = %v, want capped at medium despite 120-day age", ev.Confidence)
	}
}

func TestDetectComplianceExemptIdleVolumeSkipsWithoutTag(t *testing.T) {
	c := testContext(rules.ResourceVolume, nil)
	vol := detect.Resource{
		ID:        "vol-7",
		State:     "available",
		CreatedAt: c.Now.AddDate(0, 0, -120),
	}

	ev, err := detectComplianceExemptIdleVolume(context.Background(), c, vol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev != nil {
		t.Fatal("expected no evidence without a compliance tag")
	}
}
